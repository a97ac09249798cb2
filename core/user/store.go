package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/avelkova/studiofit/database"
	"github.com/jmoiron/sqlx"
)

func Create(ctx context.Context, db sqlx.ExtContext, usr User) error {
	const q = `
	INSERT INTO users
		(user_id, name, email, role, password_hash, active, created_at, updated_at)
	VALUES
		(:user_id, :name, :email, :role, :password_hash, :active, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, usr); err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (User, error) {
	const q = `SELECT * FROM users WHERE user_id = $1`

	var usr User
	if err := sqlx.GetContext(ctx, db, &usr, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, database.ErrNotFound
		}
		return User{}, fmt.Errorf("selecting user[%s]: %w", id, err)
	}
	return usr, nil
}

func FetchByEmail(ctx context.Context, db sqlx.ExtContext, email string) (User, error) {
	const q = `SELECT * FROM users WHERE email = $1`

	var usr User
	if err := sqlx.GetContext(ctx, db, &usr, q, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, database.ErrNotFound
		}
		return User{}, fmt.Errorf("selecting user by email: %w", err)
	}
	return usr, nil
}

func Activate(ctx context.Context, db sqlx.ExtContext, id string) error {
	const q = `
	UPDATE users SET
		active = TRUE,
		updated_at = $2,
		version = version + 1
	WHERE user_id = $1`

	if _, err := db.ExecContext(ctx, q, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("activating user[%s]: %w", id, err)
	}
	return nil
}

func UpdatePassword(ctx context.Context, db sqlx.ExtContext, id string, hash []byte) error {
	const q = `
	UPDATE users SET
		password_hash = $2,
		updated_at = $3,
		version = version + 1
	WHERE user_id = $1`

	if _, err := db.ExecContext(ctx, q, id, hash, time.Now().UTC()); err != nil {
		return fmt.Errorf("updating password of user[%s]: %w", id, err)
	}
	return nil
}
