package token

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/avelkova/studiofit/api/background"
	"github.com/avelkova/studiofit/api/web"
	"github.com/avelkova/studiofit/api/weberr"
	"github.com/avelkova/studiofit/core/user"
	"github.com/avelkova/studiofit/database"
	"github.com/avelkova/studiofit/random"
	"github.com/avelkova/studiofit/validate"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

type tokenNew struct {
	Email string `json:"email" validate:"required,email"`
	Scope string `json:"scope" validate:"required,oneof=activation recovery"`
}

// HandleToken issues a fresh token and mails it out. The response is the
// same whether or not the email is known, to avoid account enumeration.
func HandleToken(db *sqlx.DB, mailer Mailer, timeout time.Duration, bg *background.Background) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var tn tokenNew
		if err := web.Decode(w, r, &tn); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding token request: %w", err))
		}

		if err := validate.Check(tn); err != nil {
			return weberr.Unprocessable(err, err.Error())
		}

		usr, err := user.FetchByEmail(ctx, db, tn.Email)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return web.Respond(ctx, w, nil, http.StatusAccepted)
			}
			return fmt.Errorf("fetching user by email: %w", err)
		}

		plaintext, err := random.StringSecure(26)
		if err != nil {
			return fmt.Errorf("generating token: %w", err)
		}

		if err := Create(ctx, db, New(usr.ID, tn.Scope, plaintext, timeout)); err != nil {
			return fmt.Errorf("storing token: %w", err)
		}

		bg.Add(func() error {
			if tn.Scope == ScopeActivation {
				return mailer.SendActivationToken(usr.Email, plaintext, timeout.String())
			}
			return mailer.SendRecoveryToken(usr.Email, plaintext, timeout.String())
		})

		return web.Respond(ctx, w, nil, http.StatusAccepted)
	}
}

type activation struct {
	Token string `json:"token" validate:"required"`
}

func HandleActivation(db *sqlx.DB, session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var act activation
		if err := web.Decode(w, r, &act); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding activation: %w", err))
		}

		if err := validate.Check(act); err != nil {
			return weberr.Unprocessable(err, err.Error())
		}

		tok, err := FetchValid(ctx, db, act.Token, ScopeActivation)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.Unprocessable(err, "invalid or expired token")
			}
			return fmt.Errorf("fetching token: %w", err)
		}

		err = database.Transaction(db, func(tx sqlx.ExtContext) error {
			if err := user.Activate(ctx, tx, tok.UserID); err != nil {
				return err
			}
			return DeleteByUser(ctx, tx, tok.UserID, ScopeActivation)
		})
		if err != nil {
			return fmt.Errorf("activating user[%s]: %w", tok.UserID, err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

type recovery struct {
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required,gte=8,lte=72"`
	PasswordConfirm string `json:"passwordConfirm" validate:"eqfield=Password"`
}

func HandleRecovery(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var rec recovery
		if err := web.Decode(w, r, &rec); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding recovery: %w", err))
		}

		if err := validate.Check(rec); err != nil {
			return weberr.Unprocessable(err, err.Error())
		}

		tok, err := FetchValid(ctx, db, rec.Token, ScopeRecovery)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.Unprocessable(err, "invalid or expired token")
			}
			return fmt.Errorf("fetching token: %w", err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(rec.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hashing password: %w", err)
		}

		err = database.Transaction(db, func(tx sqlx.ExtContext) error {
			if err := user.UpdatePassword(ctx, tx, tok.UserID, hash); err != nil {
				return err
			}
			return DeleteByUser(ctx, tx, tok.UserID, ScopeRecovery)
		})
		if err != nil {
			return fmt.Errorf("recovering user[%s]: %w", tok.UserID, err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
