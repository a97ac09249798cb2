package storefront

import (
	"errors"
	"time"
)

const (
	KindFixed   = "fixed"
	KindMonthly = "monthly"
)

// Item is a purchasable training package. Fixed items carry a one-off
// session count, monthly items a per-cycle one; never both.
type Item struct {
	ID              string    `json:"id" db:"item_id"`
	Slug            string    `json:"slug" db:"slug"`
	Name            string    `json:"name" db:"name"`
	Description     string    `json:"description" db:"description"`
	Kind            string    `json:"kind" db:"kind"`
	Sessions        *int      `json:"sessions,omitempty" db:"sessions"`
	TotalSessions   *int      `json:"totalSessions,omitempty" db:"total_sessions"`
	PricePerSession int       `json:"pricePerSession" db:"price_per_session"`
	TotalCost       int       `json:"totalCost" db:"total_cost"`
	Active          bool      `json:"active" db:"active"`
	DisplayOrder    int       `json:"displayOrder" db:"display_order"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt" db:"updated_at"`
	Version         int       `json:"-" db:"version"`
}

// SessionCount is the number of credits one purchase of the item grants.
func (i Item) SessionCount() int {
	switch i.Kind {
	case KindFixed:
		if i.Sessions != nil {
			return *i.Sessions
		}
	case KindMonthly:
		if i.TotalSessions != nil {
			return *i.TotalSessions
		}
	}
	return 0
}

type ItemNew struct {
	Slug            string `json:"slug" validate:"required,lowercase"`
	Name            string `json:"name" validate:"required"`
	Description     string `json:"description"`
	Kind            string `json:"kind" validate:"required,oneof=fixed monthly"`
	Sessions        *int   `json:"sessions" validate:"omitempty,gt=0"`
	TotalSessions   *int   `json:"totalSessions" validate:"omitempty,gt=0"`
	PricePerSession int    `json:"pricePerSession" validate:"gte=0"`
	TotalCost       int    `json:"totalCost" validate:"gte=0"`
	DisplayOrder    int    `json:"displayOrder" validate:"gte=0"`
}

// CheckSessions enforces that exactly one of the session fields is set,
// matching the item kind.
func (in ItemNew) CheckSessions() error {
	switch in.Kind {
	case KindFixed:
		if in.Sessions == nil || in.TotalSessions != nil {
			return errors.New("fixed items must set sessions and not totalSessions")
		}
	case KindMonthly:
		if in.TotalSessions == nil || in.Sessions != nil {
			return errors.New("monthly items must set totalSessions and not sessions")
		}
	}
	return nil
}

// CheckSessions enforces the same xor invariant on a patched item, since
// updates can move the session fields independently.
func (i Item) CheckSessions() error {
	switch i.Kind {
	case KindFixed:
		if i.Sessions == nil || i.TotalSessions != nil {
			return errors.New("fixed items must set sessions and not totalSessions")
		}
	case KindMonthly:
		if i.TotalSessions == nil || i.Sessions != nil {
			return errors.New("monthly items must set totalSessions and not sessions")
		}
	}
	return nil
}

type ItemUp struct {
	Name            *string `json:"name"`
	Description     *string `json:"description"`
	Sessions        *int    `json:"sessions" validate:"omitempty,gt=0"`
	TotalSessions   *int    `json:"totalSessions" validate:"omitempty,gt=0"`
	PricePerSession *int    `json:"pricePerSession" validate:"omitempty,gte=0"`
	TotalCost       *int    `json:"totalCost" validate:"omitempty,gte=0"`
	Active          *bool   `json:"active"`
	DisplayOrder    *int    `json:"displayOrder" validate:"omitempty,gte=0"`
}
