package credit

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

func Create(ctx context.Context, db sqlx.ExtContext, crd Credit) error {
	const q = `
	INSERT INTO session_credits (credit_id, user_id, cart_id, sessions, created_at)
	VALUES (:credit_id, :user_id, :cart_id, :sessions, :created_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, crd); err != nil {
		return fmt.Errorf("inserting session credit: %w", err)
	}
	return nil
}

func FetchBalance(ctx context.Context, db sqlx.ExtContext, userID string) (Balance, error) {
	const q = `
	SELECT $1::uuid AS user_id, COALESCE(SUM(sessions), 0) AS sessions
	FROM session_credits WHERE user_id = $1`

	var bal Balance
	if err := sqlx.GetContext(ctx, db, &bal, q, userID); err != nil {
		return Balance{}, fmt.Errorf("selecting balance of user[%s]: %w", userID, err)
	}
	return bal, nil
}

func ListByUser(ctx context.Context, db sqlx.ExtContext, userID string) ([]Credit, error) {
	const q = `SELECT * FROM session_credits WHERE user_id = $1 ORDER BY created_at DESC`

	credits := []Credit{}
	if err := sqlx.SelectContext(ctx, db, &credits, q, userID); err != nil {
		return nil, fmt.Errorf("selecting credits of user[%s]: %w", userID, err)
	}
	return credits, nil
}
