package assignment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/avelkova/studiofit/database"
	"github.com/jmoiron/sqlx"
)

func Create(ctx context.Context, db sqlx.ExtContext, asg Assignment) error {
	const q = `
	INSERT INTO trainer_assignments
		(assignment_id, client_id, trainer_id, status, assigned_by, started_at, updated_at)
	VALUES
		(:assignment_id, :client_id, :trainer_id, :status, :assigned_by, :started_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, asg); err != nil {
		return fmt.Errorf("inserting assignment: %w", err)
	}
	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Assignment, error) {
	const q = `SELECT * FROM trainer_assignments WHERE assignment_id = $1`

	var asg Assignment
	if err := sqlx.GetContext(ctx, db, &asg, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Assignment{}, database.ErrNotFound
		}
		return Assignment{}, fmt.Errorf("selecting assignment[%s]: %w", id, err)
	}
	return asg, nil
}

// FetchActiveByClient locks the client's active assignment row when run
// inside a transaction, keeping concurrent assigns serialized.
func FetchActiveByClient(ctx context.Context, tx sqlx.ExtContext, clientID string) (Assignment, error) {
	const q = `
	SELECT * FROM trainer_assignments
	WHERE client_id = $1 AND status = 'active' FOR UPDATE`

	var asg Assignment
	if err := sqlx.GetContext(ctx, tx, &asg, q, clientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Assignment{}, database.ErrNotFound
		}
		return Assignment{}, fmt.Errorf("selecting active assignment of client[%s]: %w", clientID, err)
	}
	return asg, nil
}

func End(ctx context.Context, db sqlx.ExtContext, id string) error {
	const q = `
	UPDATE trainer_assignments SET
		status = 'ended',
		ended_at = $2,
		updated_at = $2
	WHERE assignment_id = $1 AND status = 'active'`

	res, err := db.ExecContext(ctx, q, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("ending assignment[%s]: %w", id, err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return database.ErrNotFound
	}
	return nil
}

func ListByClient(ctx context.Context, db sqlx.ExtContext, clientID string) ([]Assignment, error) {
	const q = `
	SELECT * FROM trainer_assignments
	WHERE client_id = $1 ORDER BY started_at DESC`

	asgs := []Assignment{}
	if err := sqlx.SelectContext(ctx, db, &asgs, q, clientID); err != nil {
		return nil, fmt.Errorf("selecting assignments of client[%s]: %w", clientID, err)
	}
	return asgs, nil
}

func ListByTrainer(ctx context.Context, db sqlx.ExtContext, trainerID string) ([]Assignment, error) {
	const q = `
	SELECT * FROM trainer_assignments
	WHERE trainer_id = $1 ORDER BY started_at DESC`

	asgs := []Assignment{}
	if err := sqlx.SelectContext(ctx, db, &asgs, q, trainerID); err != nil {
		return nil, fmt.Errorf("selecting assignments of trainer[%s]: %w", trainerID, err)
	}
	return asgs, nil
}
