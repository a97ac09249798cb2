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
	"github.com/avelkova/studiofit/validate"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

func HandleSignup(db *sqlx.DB, session *scs.SessionManager, activationRequired bool) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var us user.UserSignup
		if err := web.Decode(w, r, &us); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding signup: %w", err))
		}

		if err := validate.Check(us); err != nil {
			return weberr.Unprocessable(err, err.Error())
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(us.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hashing password: %w", err)
		}

		now := time.Now().UTC()
		usr := user.User{
			ID:        validate.GenerateID(),
			Name:      us.Name,
			Email:     us.Email,
			Role:      claims.RoleUser,
			PassHash:  hash,
			Active:    !activationRequired,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := user.Create(ctx, db, usr); err != nil {
			if database.IsUniqueViolation(err, "users_email_key") {
				return weberr.Conflict(err, "a user with this email already exists")
			}
			return fmt.Errorf("creating user: %w", err)
		}

		if usr.Active {
			if err := login(ctx, session, usr); err != nil {
				return fmt.Errorf("logging in after signup: %w", err)
			}
		}

		return web.Respond(ctx, w, usr, http.StatusCreated)
	}
}

type credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func HandleLogin(db *sqlx.DB, session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var creds credentials
		if err := web.Decode(w, r, &creds); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding credentials: %w", err))
		}

		if err := validate.Check(creds); err != nil {
			return weberr.Unprocessable(err, err.Error())
		}

		usr, err := user.FetchByEmail(ctx, db, creds.Email)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.NotAuthorized(errors.New("invalid credentials"))
			}
			return fmt.Errorf("fetching user by email: %w", err)
		}

		if err := bcrypt.CompareHashAndPassword(usr.PassHash, []byte(creds.Password)); err != nil {
			return weberr.NotAuthorized(errors.New("invalid credentials"))
		}

		if !usr.Active {
			return weberr.NotAuthorized(errors.New("account not activated"))
		}

		if err := login(ctx, session, usr); err != nil {
			return fmt.Errorf("logging in: %w", err)
		}

		return web.Respond(ctx, w, usr, http.StatusOK)
	}
}

func HandleLogout(session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if err := session.Destroy(ctx); err != nil {
			return fmt.Errorf("destroying session: %w", err)
		}
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func login(ctx context.Context, session *scs.SessionManager, usr user.User) error {
	if err := session.RenewToken(ctx); err != nil {
		return fmt.Errorf("renewing session token: %w", err)
	}

	session.Put(ctx, userIDKey, usr.ID)
	session.Put(ctx, roleKey, usr.Role)
	return nil
}
