package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avelkova/studiofit/core/cart"
	"github.com/avelkova/studiofit/core/credit"
	"github.com/avelkova/studiofit/core/storefront"
	"github.com/avelkova/studiofit/core/user"
	"github.com/avelkova/studiofit/database"
	"github.com/avelkova/studiofit/email"
	"github.com/avelkova/studiofit/metrics"
	"github.com/avelkova/studiofit/validate"
	"github.com/jmoiron/sqlx"
)

// ErrEmptyCart is returned when checkout starts on a cart with no items.
var ErrEmptyCart = errors.New("no items to checkout")

// ErrNotPending is returned by fulfil/cancel when the cart is not waiting
// for a payment outcome.
var ErrNotPending = errors.New("cart is not pending payment")

// StaleItemError marks a line item whose package was deactivated or
// removed after it was added to the cart.
type StaleItemError struct {
	ItemID string
}

func (e *StaleItemError) Error() string {
	return fmt.Sprintf("item[%s] is no longer available", e.ItemID)
}

// Mailer sends the post-purchase receipt.
type Mailer interface {
	SendReceipt(to string, items []email.ReceiptItem, sessions int) error
}

// Line pairs a cart line with its current catalog entry; the snapshot
// price stays authoritative for totals.
type Line struct {
	cart.Item
	Name        string
	Description string
}

// load fetches the caller's active cart and re-validates every line
// against the current catalog. The cart is left untouched on failure.
func load(ctx context.Context, db *sqlx.DB, userID string) (cart.Cart, []Line, error) {
	crt, err := cart.FetchActive(ctx, db, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return cart.Cart{}, nil, ErrEmptyCart
		}
		return cart.Cart{}, nil, fmt.Errorf("fetching active cart: %w", err)
	}

	items, err := cart.FetchItems(ctx, db, crt.ID)
	if err != nil {
		return cart.Cart{}, nil, fmt.Errorf("fetching cart items: %w", err)
	}
	if len(items) == 0 {
		return cart.Cart{}, nil, ErrEmptyCart
	}

	lines := make([]Line, 0, len(items))
	for _, it := range items {
		sfi, err := storefront.Fetch(ctx, db, it.ItemID)
		if errors.Is(err, database.ErrNotFound) {
			return cart.Cart{}, nil, &StaleItemError{ItemID: it.ItemID}
		}
		if err != nil {
			return cart.Cart{}, nil, fmt.Errorf("fetching storefront item[%s]: %w", it.ItemID, err)
		}
		if !sfi.Active {
			return cart.Cart{}, nil, &StaleItemError{ItemID: it.ItemID}
		}

		lines = append(lines, Line{Item: it, Name: sfi.Name, Description: sfi.Description})
	}

	crt.Items = items
	return crt, lines, nil
}

// prepare binds the cart to the gateway order and moves it to
// pending_payment. The row lock serializes concurrent checkout starts;
// the loser finds the cart no longer active.
func prepare(ctx context.Context, db *sqlx.DB, cartID, providerID string) error {
	err := database.Transaction(db, func(tx sqlx.ExtContext) error {
		crt, err := cart.FetchForUpdate(ctx, tx, cartID)
		if err != nil {
			return fmt.Errorf("locking cart: %w", err)
		}

		if crt.Status != cart.StatusActive {
			return ErrNotPending
		}

		up := cart.StatusUp{
			ID:         crt.ID,
			Status:     cart.StatusPendingPayment,
			ProviderID: &providerID,
			UpdatedAt:  time.Now().UTC(),
		}
		return cart.UpdateStatus(ctx, tx, up)
	})

	if err != nil {
		return fmt.Errorf("binding cart[%s] to payment[%s]: %w", cartID, providerID, err)
	}
	return nil
}

// fulfil grants session credits and completes the cart as one atomic
// unit. Payment gateways deliver callbacks at least once; a duplicate
// for an already-completed cart is a no-op.
func fulfil(ctx context.Context, db *sqlx.DB, providerID string) (cart.Cart, bool, error) {
	var crt cart.Cart
	var granted bool

	err := database.Transaction(db, func(tx sqlx.ExtContext) error {
		var err error
		crt, err = cart.FetchByProviderID(ctx, tx, providerID)
		if err != nil {
			return fmt.Errorf("locking cart bound to payment[%s]: %w", providerID, err)
		}

		if crt.Status == cart.StatusCompleted {
			return nil
		}
		if crt.Status != cart.StatusPendingPayment {
			return ErrNotPending
		}

		if crt.Items, err = cart.FetchItems(ctx, tx, crt.ID); err != nil {
			return fmt.Errorf("fetching cart items: %w", err)
		}

		crd := credit.Credit{
			ID:        validate.GenerateID(),
			UserID:    crt.UserID,
			CartID:    crt.ID,
			Sessions:  crt.TotalSessions(),
			CreatedAt: time.Now().UTC(),
		}
		if err := credit.Create(ctx, tx, crd); err != nil {
			return fmt.Errorf("granting credits: %w", err)
		}

		up := cart.StatusUp{
			ID:         crt.ID,
			Status:     cart.StatusCompleted,
			ProviderID: crt.ProviderID,
			UpdatedAt:  time.Now().UTC(),
		}
		if err := cart.UpdateStatus(ctx, tx, up); err != nil {
			return fmt.Errorf("completing cart: %w", err)
		}

		granted = true
		return nil
	})

	if err != nil {
		return cart.Cart{}, false, fmt.Errorf("fulfilling cart bound to payment[%s]: %w", providerID, err)
	}

	if granted {
		metrics.CheckoutsCompleted.Inc()
	} else {
		metrics.CheckoutsDuplicate.Inc()
	}
	return crt, granted, nil
}

// cancel moves a pending cart to cancelled. Terminal carts are left
// alone, so failure callbacks are idempotent too.
func cancel(ctx context.Context, db *sqlx.DB, providerID string) error {
	err := database.Transaction(db, func(tx sqlx.ExtContext) error {
		crt, err := cart.FetchByProviderID(ctx, tx, providerID)
		if err != nil {
			return fmt.Errorf("locking cart bound to payment[%s]: %w", providerID, err)
		}

		if crt.Status.Terminal() {
			return nil
		}

		up := cart.StatusUp{
			ID:         crt.ID,
			Status:     cart.StatusCancelled,
			ProviderID: crt.ProviderID,
			UpdatedAt:  time.Now().UTC(),
		}
		return cart.UpdateStatus(ctx, tx, up)
	})

	if err != nil {
		return fmt.Errorf("cancelling cart bound to payment[%s]: %w", providerID, err)
	}
	return nil
}

// receipt builds the email payload for a completed cart. Failure to send
// is logged by the background runner and never blocks fulfilment. The
// request context is gone by the time the task runs, so a fresh one is
// used.
func receipt(db *sqlx.DB, mailer Mailer, crt cart.Cart) func() error {
	return func() error {
		ctx := context.Background()

		usr, err := user.Fetch(ctx, db, crt.UserID)
		if err != nil {
			return fmt.Errorf("fetching user for receipt: %w", err)
		}

		items := make([]email.ReceiptItem, 0, len(crt.Items))
		for _, it := range crt.Items {
			name := it.ItemID
			if sfi, err := storefront.Fetch(ctx, db, it.ItemID); err == nil {
				name = sfi.Name
			}
			items = append(items, email.ReceiptItem{Name: name, Quantity: it.Quantity})
		}

		return mailer.SendReceipt(usr.Email, items, crt.TotalSessions())
	}
}
