package storefront

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/avelkova/studiofit/api/web"
	"github.com/avelkova/studiofit/api/weberr"
	"github.com/avelkova/studiofit/cache"
	"github.com/avelkova/studiofit/database"
	"github.com/avelkova/studiofit/validate"
	"github.com/jmoiron/sqlx"
)

const listCacheKey = "storefront:active"

func HandleList(db *sqlx.DB, store cache.Cache, ttl time.Duration) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var items []Item
		if ok, err := store.Get(ctx, listCacheKey, &items); err == nil && ok {
			return web.Respond(ctx, w, items, http.StatusOK)
		}

		items, err := ListActive(ctx, db)
		if err != nil {
			return fmt.Errorf("listing storefront items: %w", err)
		}

		// Best effort; the next request just rebuilds it.
		_ = store.Set(ctx, listCacheKey, items, ttl)

		return web.Respond(ctx, w, items, http.StatusOK)
	}
}

// HandleShow resolves items by uuid or by slug, so stable business keys
// work across environments.
func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		key := web.Param(r, "id")

		var item Item
		var err error
		if validate.CheckID(key) == nil {
			item, err = Fetch(ctx, db, key)
		} else {
			item, err = FetchBySlug(ctx, db, key)
		}
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching storefront item[%s]: %w", key, err)
		}

		if !item.Active {
			return weberr.NotFound(errors.New("storefront item is inactive"))
		}

		return web.Respond(ctx, w, item, http.StatusOK)
	}
}

func HandleCreate(db *sqlx.DB, store cache.Cache) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in ItemNew
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding item: %w", err))
		}

		if err := validate.Check(in); err != nil {
			return weberr.Unprocessable(err, err.Error())
		}

		if err := in.CheckSessions(); err != nil {
			return weberr.Unprocessable(err, err.Error())
		}

		now := time.Now().UTC()
		item := Item{
			ID:              validate.GenerateID(),
			Slug:            in.Slug,
			Name:            in.Name,
			Description:     in.Description,
			Kind:            in.Kind,
			Sessions:        in.Sessions,
			TotalSessions:   in.TotalSessions,
			PricePerSession: in.PricePerSession,
			TotalCost:       in.TotalCost,
			Active:          true,
			DisplayOrder:    in.DisplayOrder,
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		if err := Create(ctx, db, item); err != nil {
			if database.IsUniqueViolation(err, "storefront_items_slug_key") {
				return weberr.Conflict(err, "an item with this slug already exists")
			}
			return fmt.Errorf("creating storefront item: %w", err)
		}

		_ = store.Delete(ctx, listCacheKey)

		return web.Respond(ctx, w, item, http.StatusCreated)
	}
}

func HandleUpdate(db *sqlx.DB, store cache.Cache) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		var up ItemUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding item update: %w", err))
		}

		if err := validate.Check(up); err != nil {
			return weberr.Unprocessable(err, err.Error())
		}

		item, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching storefront item[%s]: %w", id, err)
		}

		if up.Name != nil {
			item.Name = *up.Name
		}
		if up.Description != nil {
			item.Description = *up.Description
		}
		if up.Sessions != nil {
			item.Sessions = up.Sessions
		}
		if up.TotalSessions != nil {
			item.TotalSessions = up.TotalSessions
		}
		if up.PricePerSession != nil {
			item.PricePerSession = *up.PricePerSession
		}
		if up.TotalCost != nil {
			item.TotalCost = *up.TotalCost
		}
		if up.Active != nil {
			item.Active = *up.Active
		}
		if up.DisplayOrder != nil {
			item.DisplayOrder = *up.DisplayOrder
		}

		if err := item.CheckSessions(); err != nil {
			return weberr.Unprocessable(err, err.Error())
		}

		if item.Active && item.SessionCount() <= 0 {
			err := errors.New("active items must have a positive session count")
			return weberr.Unprocessable(err, err.Error())
		}

		item.UpdatedAt = time.Now().UTC()

		if err := Update(ctx, db, item); err != nil {
			return fmt.Errorf("updating storefront item[%s]: %w", id, err)
		}

		_ = store.Delete(ctx, listCacheKey)

		return web.Respond(ctx, w, item, http.StatusOK)
	}
}
