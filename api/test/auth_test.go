package test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/avelkova/studiofit/core/claims"
	"github.com/avelkova/studiofit/core/token"
	"github.com/avelkova/studiofit/core/user"
	"github.com/avelkova/studiofit/validate"
	"golang.org/x/crypto/bcrypt"
)

func TestAuth(t *testing.T) {
	env, err := NewTestEnv(t, "auth_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	// Signing up with an email that is taken is a conflict.
	signup := map[string]string{
		"name":            "Someone Else",
		"email":           env.UserEmail,
		"password":        "another-password",
		"passwordConfirm": "another-password",
	}
	w, err := env.Do(http.MethodPost, "/auth/signup", signup, nil)
	if err != nil {
		t.Fatal(err)
	}
	if w.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate signup should conflict: status code %s", w.Status)
	}

	if err := env.Login(env.UserEmail, "wrong-password"); err == nil {
		t.Fatal("login with a wrong password should fail")
	}
}

func TestActivation(t *testing.T) {
	env, err := NewTestEnv(t, "activation_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	ctx := context.Background()

	// An account waiting on activation, as signup would leave it when
	// activation is required.
	pass := "pending-password"
	hash, err := bcrypt.GenerateFromPassword([]byte(pass), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}

	now := time.Now().UTC()
	usr := user.User{
		ID:        validate.GenerateID(),
		Name:      "Pending User",
		Email:     "pending@test.com",
		Role:      claims.RoleUser,
		PassHash:  hash,
		Active:    false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := user.Create(ctx, env.DB, usr); err != nil {
		t.Fatal(err)
	}

	if err := env.Login(usr.Email, pass); err == nil {
		t.Fatal("inactive account should not log in")
	}

	plaintext := "ACTIVATIONTOKENACTIVATION1"
	if err := token.Create(ctx, env.DB, token.New(usr.ID, token.ScopeActivation, plaintext, time.Minute)); err != nil {
		t.Fatal(err)
	}

	w, err := env.Do(http.MethodPost, "/tokens/activate", map[string]string{"token": plaintext}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if w.StatusCode != http.StatusNoContent {
		t.Fatalf("can't activate account: status code %s", w.Status)
	}

	// The token is single use.
	w, err = env.Do(http.MethodPost, "/tokens/activate", map[string]string{"token": plaintext}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if w.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("spent token should be rejected: status code %s", w.Status)
	}

	if err := env.Login(usr.Email, pass); err != nil {
		t.Fatalf("activated account can't log in: %v", err)
	}
	env.Logout()
}

func TestRecovery(t *testing.T) {
	env, err := NewTestEnv(t, "recovery_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	ctx := context.Background()

	usr, err := user.FetchByEmail(ctx, env.DB, env.UserEmail)
	if err != nil {
		t.Fatal(err)
	}

	plaintext := "RECOVERYTOKENRECOVERYTOKEN"
	if err := token.Create(ctx, env.DB, token.New(usr.ID, token.ScopeRecovery, plaintext, time.Minute)); err != nil {
		t.Fatal(err)
	}

	reset := map[string]string{
		"token":           plaintext,
		"password":        "a-new-password",
		"passwordConfirm": "a-new-password",
	}
	w, err := env.Do(http.MethodPost, "/tokens/recover", reset, nil)
	if err != nil {
		t.Fatal(err)
	}
	if w.StatusCode != http.StatusNoContent {
		t.Fatalf("can't recover account: status code %s", w.Status)
	}

	if err := env.Login(env.UserEmail, env.UserPass); err == nil {
		t.Fatal("old password should no longer work")
	}
	if err := env.Login(env.UserEmail, "a-new-password"); err != nil {
		t.Fatalf("new password doesn't work: %v", err)
	}
	env.Logout()
}
