package storefront

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/avelkova/studiofit/database"
	"github.com/jmoiron/sqlx"
)

func Create(ctx context.Context, db sqlx.ExtContext, item Item) error {
	const q = `
	INSERT INTO storefront_items
		(item_id, slug, name, description, kind, sessions, total_sessions,
		 price_per_session, total_cost, active, display_order, created_at, updated_at)
	VALUES
		(:item_id, :slug, :name, :description, :kind, :sessions, :total_sessions,
		 :price_per_session, :total_cost, :active, :display_order, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, item); err != nil {
		return fmt.Errorf("inserting storefront item: %w", err)
	}
	return nil
}

func Update(ctx context.Context, db sqlx.ExtContext, item Item) error {
	const q = `
	UPDATE storefront_items SET
		name = :name,
		description = :description,
		sessions = :sessions,
		total_sessions = :total_sessions,
		price_per_session = :price_per_session,
		total_cost = :total_cost,
		active = :active,
		display_order = :display_order,
		updated_at = :updated_at,
		version = version + 1
	WHERE item_id = :item_id`

	if _, err := sqlx.NamedExecContext(ctx, db, q, item); err != nil {
		return fmt.Errorf("updating storefront item[%s]: %w", item.ID, err)
	}
	return nil
}

// Fetch returns the item regardless of its active flag; callers on public
// paths must use FetchActive.
func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Item, error) {
	const q = `SELECT * FROM storefront_items WHERE item_id = $1`

	var item Item
	if err := sqlx.GetContext(ctx, db, &item, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Item{}, database.ErrNotFound
		}
		return Item{}, fmt.Errorf("selecting storefront item[%s]: %w", id, err)
	}
	return item, nil
}

func FetchActive(ctx context.Context, db sqlx.ExtContext, id string) (Item, error) {
	item, err := Fetch(ctx, db, id)
	if err != nil {
		return Item{}, err
	}
	if !item.Active {
		return Item{}, database.ErrNotFound
	}
	return item, nil
}

func FetchBySlug(ctx context.Context, db sqlx.ExtContext, slug string) (Item, error) {
	const q = `SELECT * FROM storefront_items WHERE slug = $1`

	var item Item
	if err := sqlx.GetContext(ctx, db, &item, q, slug); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Item{}, database.ErrNotFound
		}
		return Item{}, fmt.Errorf("selecting storefront item by slug[%s]: %w", slug, err)
	}
	return item, nil
}

func ListActive(ctx context.Context, db sqlx.ExtContext) ([]Item, error) {
	const q = `SELECT * FROM storefront_items WHERE active ORDER BY display_order, slug`

	items := []Item{}
	if err := sqlx.SelectContext(ctx, db, &items, q); err != nil {
		return nil, fmt.Errorf("selecting active storefront items: %w", err)
	}
	return items, nil
}
