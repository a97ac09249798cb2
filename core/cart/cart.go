package cart

import (
	"time"
)

type Status string

const (
	StatusActive         Status = "active"
	StatusPendingPayment Status = "pending_payment"
	StatusCompleted      Status = "completed"
	StatusCancelled      Status = "cancelled"
)

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type Cart struct {
	ID         string    `json:"id" db:"cart_id"`
	UserID     string    `json:"-" db:"user_id"`
	Status     Status    `json:"status" db:"status"`
	ProviderID *string   `json:"-" db:"provider_id"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
	Version    int       `json:"-" db:"version"`
	Items      []Item    `json:"items" db:"-"`
}

// Total is computed from price snapshots, not live catalog prices, so
// historical carts stay deterministic.
func (c Cart) Total() int {
	var tot int
	for _, it := range c.Items {
		tot += it.Price * it.Quantity
	}
	return tot
}

func (c Cart) TotalSessions() int {
	var tot int
	for _, it := range c.Items {
		tot += it.Sessions * it.Quantity
	}
	return tot
}

type Item struct {
	CartID    string    `json:"-" db:"cart_id"`
	ItemID    string    `json:"itemId" db:"item_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	Price     int       `json:"price" db:"price"`
	Sessions  int       `json:"sessions" db:"sessions"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

type ItemNew struct {
	ItemID   string `json:"itemId" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,gte=1,lte=50"`
}

type ItemUp struct {
	Quantity int `json:"quantity" validate:"required,gte=1,lte=50"`
}
