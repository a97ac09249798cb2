package token

import (
	"crypto/sha256"
	"time"
)

const (
	ScopeActivation = "activation"
	ScopeRecovery   = "recovery"
)

type Token struct {
	Hash   []byte    `db:"hash"`
	UserID string    `db:"user_id"`
	Scope  string    `db:"scope"`
	Expiry time.Time `db:"expiry"`
}

// Mailer delivers token plaintexts. Only the hash is ever stored.
type Mailer interface {
	SendActivationToken(to, token, timeout string) error
	SendRecoveryToken(to, token, timeout string) error
}

func New(userID, scope, plaintext string, ttl time.Duration) Token {
	hash := sha256.Sum256([]byte(plaintext))
	return Token{
		Hash:   hash[:],
		UserID: userID,
		Scope:  scope,
		Expiry: time.Now().UTC().Add(ttl),
	}
}
