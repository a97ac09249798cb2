package credit

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/avelkova/studiofit/api/web"
	"github.com/avelkova/studiofit/api/weberr"
	"github.com/avelkova/studiofit/core/claims"
	"github.com/avelkova/studiofit/validate"
	"github.com/jmoiron/sqlx"
)

func HandleBalance(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		bal, err := FetchBalance(ctx, db, clm.UserID)
		if err != nil {
			return fmt.Errorf("fetching balance: %w", err)
		}

		return web.Respond(ctx, w, bal, http.StatusOK)
	}
}

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		credits, err := ListByUser(ctx, db, clm.UserID)
		if err != nil {
			return fmt.Errorf("listing credits: %w", err)
		}

		return web.Respond(ctx, w, credits, http.StatusOK)
	}
}

// HandleListByUser lets admins inspect any client's grants.
func HandleListByUser(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		credits, err := ListByUser(ctx, db, id)
		if err != nil {
			return fmt.Errorf("listing credits of user[%s]: %w", id, err)
		}

		return web.Respond(ctx, w, credits, http.StatusOK)
	}
}
