package user

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/avelkova/studiofit/api/web"
	"github.com/avelkova/studiofit/api/weberr"
	"github.com/avelkova/studiofit/core/claims"
	"github.com/avelkova/studiofit/database"
	"github.com/avelkova/studiofit/validate"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

func HandleShowCurrent(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		usr, err := Fetch(ctx, db, clm.UserID)
		if err != nil {
			return fmt.Errorf("fetching current user[%s]: %w", clm.UserID, err)
		}

		return web.Respond(ctx, w, usr, http.StatusOK)
	}
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		if !claims.IsAdmin(ctx) && !claims.IsUser(ctx, id) {
			return weberr.Forbidden(errors.New("not allowed to view this user"))
		}

		usr, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching user[%s]: %w", id, err)
		}

		return web.Respond(ctx, w, usr, http.StatusOK)
	}
}

// HandleCreate lets admins provision accounts with an explicit role, which
// is how trainer accounts come to exist.
func HandleCreate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var un UserNew
		if err := web.Decode(w, r, &un); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding user: %w", err))
		}

		if err := validate.Check(un); err != nil {
			return weberr.Unprocessable(err, err.Error())
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(un.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hashing password: %w", err)
		}

		now := time.Now().UTC()
		usr := User{
			ID:        validate.GenerateID(),
			Name:      un.Name,
			Email:     un.Email,
			Role:      un.Role,
			PassHash:  hash,
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := Create(ctx, db, usr); err != nil {
			if database.IsUniqueViolation(err, "users_email_key") {
				return weberr.Conflict(err, "a user with this email already exists")
			}
			return fmt.Errorf("creating user: %w", err)
		}

		return web.Respond(ctx, w, usr, http.StatusCreated)
	}
}
