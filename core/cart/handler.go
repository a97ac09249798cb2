package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/avelkova/studiofit/api/web"
	"github.com/avelkova/studiofit/api/weberr"
	"github.com/avelkova/studiofit/core/claims"
	"github.com/avelkova/studiofit/core/storefront"
	"github.com/avelkova/studiofit/database"
	"github.com/avelkova/studiofit/validate"
	"github.com/jmoiron/sqlx"
)

type payload struct {
	Cart
	Total         int `json:"total"`
	TotalSessions int `json:"totalSessions"`
}

func respond(ctx context.Context, w http.ResponseWriter, crt Cart, status int) error {
	if crt.Items == nil {
		crt.Items = []Item{}
	}
	p := payload{Cart: crt, Total: crt.Total(), TotalSessions: crt.TotalSessions()}
	return web.Respond(ctx, w, p, status)
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		crt, err := FetchActive(ctx, db, clm.UserID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				// No active cart yet; one is created on the first add.
				return respond(ctx, w, Cart{Status: StatusActive}, http.StatusOK)
			}
			return fmt.Errorf("fetching active cart: %w", err)
		}

		if crt.Items, err = FetchItems(ctx, db, crt.ID); err != nil {
			return fmt.Errorf("fetching cart items: %w", err)
		}

		return respond(ctx, w, crt, http.StatusOK)
	}
}

func HandleCreateItem(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		var in ItemNew
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding cart item: %w", err))
		}

		if err := validate.Check(in); err != nil {
			return weberr.Unprocessable(err, err.Error())
		}

		if err := validate.CheckID(in.ItemID); err != nil {
			return weberr.BadRequest(err)
		}

		sfi, err := storefront.FetchActive(ctx, db, in.ItemID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching storefront item[%s]: %w", in.ItemID, err)
		}

		var crt Cart
		err = database.Transaction(db, func(tx sqlx.ExtContext) error {
			crt, err = FetchOrCreateActive(ctx, tx, clm.UserID)
			if err != nil {
				return fmt.Errorf("resolving active cart: %w", err)
			}

			now := time.Now().UTC()
			item := Item{
				CartID:    crt.ID,
				ItemID:    sfi.ID,
				Quantity:  in.Quantity,
				Price:     sfi.TotalCost,
				Sessions:  sfi.SessionCount(),
				CreatedAt: now,
				UpdatedAt: now,
			}

			return UpsertItem(ctx, tx, item)
		})
		if err != nil {
			if errors.Is(err, ErrLocked) {
				return weberr.Conflict(err, ErrLocked.Error())
			}
			return fmt.Errorf("adding item to cart: %w", err)
		}

		if crt.Items, err = FetchItems(ctx, db, crt.ID); err != nil {
			return fmt.Errorf("fetching cart items: %w", err)
		}

		return respond(ctx, w, crt, http.StatusOK)
	}
}

func HandleUpdateItem(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		itemID := web.Param(r, "item_id")
		if err := validate.CheckID(itemID); err != nil {
			return weberr.BadRequest(err)
		}

		var up ItemUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding cart item update: %w", err))
		}

		if err := validate.Check(up); err != nil {
			return weberr.Unprocessable(err, err.Error())
		}

		crt, err := FetchActive(ctx, db, clm.UserID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching active cart: %w", err)
		}

		if err := UpdateItemQuantity(ctx, db, crt.ID, itemID, up.Quantity); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("updating cart item quantity: %w", err)
		}

		if crt.Items, err = FetchItems(ctx, db, crt.ID); err != nil {
			return fmt.Errorf("fetching cart items: %w", err)
		}

		return respond(ctx, w, crt, http.StatusOK)
	}
}

func HandleDeleteItem(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		itemID := web.Param(r, "item_id")
		if err := validate.CheckID(itemID); err != nil {
			return weberr.BadRequest(err)
		}

		crt, err := FetchActive(ctx, db, clm.UserID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching active cart: %w", err)
		}

		if err := DeleteItem(ctx, db, crt.ID, itemID); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("deleting cart item: %w", err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

// HandleDelete abandons the active cart. Cancelled is terminal; the next
// add starts a fresh cart.
func HandleDelete(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		crt, err := FetchActive(ctx, db, clm.UserID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return web.Respond(ctx, w, nil, http.StatusNoContent)
			}
			return fmt.Errorf("fetching active cart: %w", err)
		}

		up := StatusUp{
			ID:        crt.ID,
			Status:    StatusCancelled,
			UpdatedAt: time.Now().UTC(),
		}
		if err := UpdateStatus(ctx, db, up); err != nil {
			return fmt.Errorf("cancelling cart[%s]: %w", crt.ID, err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
