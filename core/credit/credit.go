package credit

import "time"

// Credit is one ledger entry granting sessions to a user. The cart id is
// unique, so a purchase can never grant twice.
type Credit struct {
	ID        string    `json:"id" db:"credit_id"`
	UserID    string    `json:"userId" db:"user_id"`
	CartID    string    `json:"cartId" db:"cart_id"`
	Sessions  int       `json:"sessions" db:"sessions"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type Balance struct {
	UserID   string `json:"userId" db:"user_id"`
	Sessions int    `json:"sessions" db:"sessions"`
}
