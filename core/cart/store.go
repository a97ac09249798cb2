package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/avelkova/studiofit/database"
	"github.com/avelkova/studiofit/validate"
	"github.com/jmoiron/sqlx"
)

func FetchActive(ctx context.Context, db sqlx.ExtContext, userID string) (Cart, error) {
	const q = `SELECT * FROM carts WHERE user_id = $1 AND status = 'active'`

	var crt Cart
	if err := sqlx.GetContext(ctx, db, &crt, q, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Cart{}, database.ErrNotFound
		}
		return Cart{}, fmt.Errorf("selecting active cart of user[%s]: %w", userID, err)
	}
	return crt, nil
}

// ErrLocked reports a cart frozen by a checkout in progress.
var ErrLocked = errors.New("a checkout for this cart is in progress")

// FetchOrCreateActive returns the user's active cart, creating it lazily.
// The partial unique index on (user_id, status=active) settles races: the
// losing insert re-reads the winner's row. A cart waiting on a payment
// blocks the creation of a new one until it settles or is abandoned.
func FetchOrCreateActive(ctx context.Context, db sqlx.ExtContext, userID string) (Cart, error) {
	crt, err := FetchActive(ctx, db, userID)
	if err == nil {
		return crt, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return Cart{}, err
	}

	const qp = `SELECT count(*) FROM carts WHERE user_id = $1 AND status = 'pending_payment'`

	var pending int
	if err := sqlx.GetContext(ctx, db, &pending, qp, userID); err != nil {
		return Cart{}, fmt.Errorf("counting pending carts of user[%s]: %w", userID, err)
	}
	if pending > 0 {
		return Cart{}, ErrLocked
	}

	now := time.Now().UTC()
	crt = Cart{
		ID:        validate.GenerateID(),
		UserID:    userID,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	const q = `
	INSERT INTO carts (cart_id, user_id, status, created_at, updated_at)
	VALUES (:cart_id, :user_id, :status, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, crt); err != nil {
		if database.IsUniqueViolation(err, "carts_user_active_idx") {
			return FetchActive(ctx, db, userID)
		}
		return Cart{}, fmt.Errorf("inserting cart: %w", err)
	}
	return crt, nil
}

// FetchByProviderID locks the cart row for the rest of the transaction,
// serializing concurrent payment callbacks for the same cart.
func FetchByProviderID(ctx context.Context, tx sqlx.ExtContext, providerID string) (Cart, error) {
	const q = `SELECT * FROM carts WHERE provider_id = $1 FOR UPDATE`

	var crt Cart
	if err := sqlx.GetContext(ctx, tx, &crt, q, providerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Cart{}, database.ErrNotFound
		}
		return Cart{}, fmt.Errorf("selecting cart bound to payment[%s]: %w", providerID, err)
	}
	return crt, nil
}

// FetchForUpdate locks the cart row by id.
func FetchForUpdate(ctx context.Context, tx sqlx.ExtContext, cartID string) (Cart, error) {
	const q = `SELECT * FROM carts WHERE cart_id = $1 FOR UPDATE`

	var crt Cart
	if err := sqlx.GetContext(ctx, tx, &crt, q, cartID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Cart{}, database.ErrNotFound
		}
		return Cart{}, fmt.Errorf("selecting cart[%s]: %w", cartID, err)
	}
	return crt, nil
}

type StatusUp struct {
	ID         string    `db:"cart_id"`
	Status     Status    `db:"status"`
	ProviderID *string   `db:"provider_id"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func UpdateStatus(ctx context.Context, db sqlx.ExtContext, up StatusUp) error {
	const q = `
	UPDATE carts SET
		status = :status,
		provider_id = :provider_id,
		updated_at = :updated_at,
		version = version + 1
	WHERE cart_id = :cart_id`

	if _, err := sqlx.NamedExecContext(ctx, db, q, up); err != nil {
		return fmt.Errorf("updating status of cart[%s]: %w", up.ID, err)
	}
	return nil
}

func FetchItems(ctx context.Context, db sqlx.ExtContext, cartID string) ([]Item, error) {
	const q = `SELECT * FROM cart_items WHERE cart_id = $1 ORDER BY created_at`

	items := []Item{}
	if err := sqlx.SelectContext(ctx, db, &items, q, cartID); err != nil {
		return nil, fmt.Errorf("selecting items of cart[%s]: %w", cartID, err)
	}
	return items, nil
}

// UpsertItem appends the line or merges quantities when the item is
// already in the cart. Price and session snapshots are kept from the
// first add.
func UpsertItem(ctx context.Context, db sqlx.ExtContext, item Item) error {
	const q = `
	INSERT INTO cart_items (cart_id, item_id, quantity, price, sessions, created_at, updated_at)
	VALUES (:cart_id, :item_id, :quantity, :price, :sessions, :created_at, :updated_at)
	ON CONFLICT (cart_id, item_id) DO UPDATE SET
		quantity = cart_items.quantity + EXCLUDED.quantity,
		updated_at = EXCLUDED.updated_at`

	if _, err := sqlx.NamedExecContext(ctx, db, q, item); err != nil {
		return fmt.Errorf("upserting item[%s] into cart[%s]: %w", item.ItemID, item.CartID, err)
	}
	return nil
}

func UpdateItemQuantity(ctx context.Context, db sqlx.ExtContext, cartID, itemID string, quantity int) error {
	const q = `
	UPDATE cart_items SET quantity = $3, updated_at = $4
	WHERE cart_id = $1 AND item_id = $2`

	res, err := db.ExecContext(ctx, q, cartID, itemID, quantity, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("updating item[%s] of cart[%s]: %w", itemID, cartID, err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return database.ErrNotFound
	}
	return nil
}

func DeleteItem(ctx context.Context, db sqlx.ExtContext, cartID, itemID string) error {
	const q = `DELETE FROM cart_items WHERE cart_id = $1 AND item_id = $2`

	res, err := db.ExecContext(ctx, q, cartID, itemID)
	if err != nil {
		return fmt.Errorf("deleting item[%s] of cart[%s]: %w", itemID, cartID, err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return database.ErrNotFound
	}
	return nil
}
