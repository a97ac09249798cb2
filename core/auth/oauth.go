package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/avelkova/studiofit/api/web"
	"github.com/avelkova/studiofit/api/weberr"
	"github.com/avelkova/studiofit/core/claims"
	"github.com/avelkova/studiofit/core/user"
	"github.com/avelkova/studiofit/database"
	"github.com/avelkova/studiofit/random"
	"github.com/avelkova/studiofit/validate"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
)

const stateKey = "oauthState"

type ProviderConfig struct {
	Name        string
	Client      string
	Secret      string
	URL         string
	RedirectURL string
}

type Provider struct {
	conf     oauth2.Config
	verifier *oidc.IDTokenVerifier
}

func MakeProviders(ctx context.Context, cfgs []ProviderConfig) (map[string]Provider, error) {
	provs := make(map[string]Provider, len(cfgs))
	for _, cfg := range cfgs {
		p, err := oidc.NewProvider(ctx, cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("discovering provider %q: %w", cfg.Name, err)
		}

		provs[cfg.Name] = Provider{
			conf: oauth2.Config{
				ClientID:     cfg.Client,
				ClientSecret: cfg.Secret,
				Endpoint:     p.Endpoint(),
				RedirectURL:  cfg.RedirectURL,
				Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
			},
			verifier: p.Verifier(&oidc.Config{ClientID: cfg.Client}),
		}
	}
	return provs, nil
}

func HandleOauthLogin(session *scs.SessionManager, provs map[string]Provider) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		prov, ok := provs[web.Param(r, "provider")]
		if !ok {
			return weberr.NotFound(errors.New("unknown oauth provider"))
		}

		state := random.String(32)
		session.Put(ctx, stateKey, state)

		http.Redirect(w, r, prov.conf.AuthCodeURL(state), http.StatusTemporaryRedirect)
		return nil
	}
}

func HandleOauthCallback(db *sqlx.DB, session *scs.SessionManager, provs map[string]Provider, redirectURL string) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		prov, ok := provs[web.Param(r, "provider")]
		if !ok {
			return weberr.NotFound(errors.New("unknown oauth provider"))
		}

		state := session.PopString(ctx, stateKey)
		if state == "" || state != r.URL.Query().Get("state") {
			return weberr.BadRequest(errors.New("oauth state mismatch"))
		}

		tok, err := prov.conf.Exchange(ctx, r.URL.Query().Get("code"))
		if err != nil {
			return weberr.BadGateway(fmt.Errorf("exchanging oauth code: %w", err))
		}

		rawID, ok := tok.Extra("id_token").(string)
		if !ok {
			return weberr.BadRequest(errors.New("oauth token carries no id_token"))
		}

		idTok, err := prov.verifier.Verify(ctx, rawID)
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("verifying id token: %w", err))
		}

		var profile struct {
			Email    string `json:"email"`
			Verified bool   `json:"email_verified"`
			Name     string `json:"name"`
		}
		if err := idTok.Claims(&profile); err != nil {
			return fmt.Errorf("extracting id token claims: %w", err)
		}

		if !profile.Verified {
			return weberr.NotAuthorized(errors.New("oauth email not verified"))
		}

		usr, err := user.FetchByEmail(ctx, db, profile.Email)
		if errors.Is(err, database.ErrNotFound) {
			usr, err = createOauthUser(ctx, db, profile.Name, profile.Email)
		}
		if err != nil {
			return fmt.Errorf("resolving oauth user: %w", err)
		}

		if err := login(ctx, session, usr); err != nil {
			return fmt.Errorf("logging in oauth user: %w", err)
		}

		http.Redirect(w, r, redirectURL, http.StatusFound)
		return nil
	}
}

func createOauthUser(ctx context.Context, db *sqlx.DB, name, email string) (user.User, error) {
	// The password is never shown to the user; recovery is the only way
	// to set a usable one.
	pass, err := random.StringSecure(32)
	if err != nil {
		return user.User{}, fmt.Errorf("generating password: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pass), bcrypt.DefaultCost)
	if err != nil {
		return user.User{}, fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now().UTC()
	usr := user.User{
		ID:        validate.GenerateID(),
		Name:      name,
		Email:     email,
		Role:      claims.RoleUser,
		PassHash:  hash,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := user.Create(ctx, db, usr); err != nil {
		return user.User{}, fmt.Errorf("creating oauth user: %w", err)
	}
	return usr, nil
}
