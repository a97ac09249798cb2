package checkout

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/avelkova/studiofit/api/background"
	"github.com/avelkova/studiofit/api/web"
	"github.com/avelkova/studiofit/api/weberr"
	"github.com/avelkova/studiofit/config"
	"github.com/avelkova/studiofit/core/cart"
	"github.com/avelkova/studiofit/core/claims"
	"github.com/avelkova/studiofit/database"
	"github.com/jmoiron/sqlx"
	"github.com/plutov/paypal/v4"
	"github.com/stripe/stripe-go/v74"
	stripecl "github.com/stripe/stripe-go/v74/client"
	"github.com/stripe/stripe-go/v74/webhook"
)

func weberrFor(err error) error {
	var stale *StaleItemError
	switch {
	case errors.Is(err, ErrEmptyCart):
		return weberr.Unprocessable(err, err.Error())
	case errors.As(err, &stale):
		return weberr.Conflict(err, stale.Error())
	case errors.Is(err, ErrNotPending):
		return weberr.Conflict(err, "a checkout for this cart is already in progress")
	}
	return err
}

func HandleStripeCheckout(db *sqlx.DB, strp *stripecl.API, cfg config.Stripe) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		crt, lines, err := load(ctx, db, clm.UserID)
		if err != nil {
			return weberrFor(err)
		}

		li := make([]*stripe.CheckoutSessionLineItemParams, 0, len(lines))
		for _, ln := range lines {
			li = append(li, &stripe.CheckoutSessionLineItemParams{
				Quantity: stripe.Int64(int64(ln.Quantity)),

				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:    stripe.String("usd"),
					TaxBehavior: stripe.String("inclusive"),
					UnitAmount:  stripe.Int64(int64(ln.Price) * 100),

					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(ln.Name),
						Description: stripe.String(ln.Description),
					},
				},
			})
		}

		params := &stripe.CheckoutSessionParams{
			SuccessURL: stripe.String(cfg.SuccessURL),
			CancelURL:  stripe.String(cfg.CancelURL),
			Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
			LineItems:  li,
		}

		s, err := strp.CheckoutSessions.New(params)
		if err != nil {
			return weberr.BadGateway(fmt.Errorf("creating stripe session: %w", err))
		}

		if err := prepare(ctx, db, crt.ID, s.ID); err != nil {
			return weberrFor(err)
		}

		return web.Respond(ctx, w, s.URL, http.StatusOK)
	}
}

// HandleStripeCapture is the gateway webhook. Events must carry a valid
// signature before anything is trusted.
func HandleStripeCapture(db *sqlx.DB, cfg config.Stripe, bg *background.Background, mailer Mailer) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("cannot read the request body: %w", err))
		}

		sig := r.Header.Get("Stripe-Signature")
		if sig == "" {
			return weberr.BadRequest(errors.New("received stripe event is not signed"))
		}

		event, err := webhook.ConstructEvent(b, sig, cfg.WebhookSecret)
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("cannot construct stripe event: %w", err))
		}

		var session stripe.CheckoutSession
		if err = json.Unmarshal(event.Data.Raw, &session); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode stripe event: %w", err))
		}

		if session.Mode != stripe.CheckoutSessionModePayment {
			return web.Respond(ctx, w, nil, http.StatusNoContent)
		}

		switch event.Type {
		case "checkout.session.completed":
			crt, granted, err := fulfil(ctx, db, session.ID)
			if err != nil {
				if errors.Is(err, database.ErrNotFound) {
					return weberr.NotFound(err)
				}
				return weberrFor(fmt.Errorf("the payment succeeded but its fulfilment failed: %w", err))
			}

			if granted {
				bg.Add(receipt(db, mailer, crt))
			}

		case "checkout.session.expired", "checkout.session.async_payment_failed":
			if err := cancel(ctx, db, session.ID); err != nil {
				if errors.Is(err, database.ErrNotFound) {
					return weberr.NotFound(err)
				}
				return fmt.Errorf("cancelling after failed payment: %w", err)
			}
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func HandlePaypalCheckout(db *sqlx.DB, pp *paypal.Client) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		crt, lines, err := load(ctx, db, clm.UserID)
		if err != nil {
			return weberrFor(err)
		}

		items := make([]paypal.Item, 0, len(lines))
		for _, ln := range lines {
			items = append(items, paypal.Item{
				Quantity:    strconv.Itoa(ln.Quantity),
				Name:        ln.Name,
				Description: ln.Description,

				UnitAmount: &paypal.Money{
					Currency: "USD",
					Value:    strconv.Itoa(ln.Price),
				},
			})
		}

		tot := crt.Total()
		units := []paypal.PurchaseUnitRequest{{
			Items: items,

			Amount: &paypal.PurchaseUnitAmount{
				Currency: "USD",
				Value:    strconv.Itoa(tot),

				Breakdown: &paypal.PurchaseUnitAmountBreakdown{ItemTotal: &paypal.Money{
					Currency: "USD",
					Value:    strconv.Itoa(tot),
				}},
			},
		}}

		ord, err := pp.CreateOrder(ctx, "CAPTURE", units, nil, &paypal.ApplicationContext{})
		if err != nil {
			return weberr.BadGateway(fmt.Errorf("creating paypal order: %w", err))
		}

		if err := prepare(ctx, db, crt.ID, ord.ID); err != nil {
			return weberrFor(err)
		}

		return web.Respond(ctx, w, ord, http.StatusOK)
	}
}

func HandlePaypalCapture(db *sqlx.DB, pp *paypal.Client, bg *background.Background, mailer Mailer) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		providerID := web.Param(r, "id")

		resp, err := pp.CaptureOrder(ctx, providerID, paypal.CaptureOrderRequest{})
		if err != nil {
			return weberr.BadGateway(fmt.Errorf("capturing paypal order[%s]: %w", providerID, err))
		}

		if resp.Status != "COMPLETED" {
			if cerr := cancel(ctx, db, providerID); cerr != nil {
				return fmt.Errorf("cancelling after capture status[%s]: %w", resp.Status, cerr)
			}
			return weberr.Conflict(fmt.Errorf("capture ended with status[%s]", resp.Status), "the payment was not completed")
		}

		crt, granted, err := fulfil(ctx, db, providerID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return weberrFor(fmt.Errorf("the payment succeeded but its fulfilment failed: %w", err))
		}

		if granted {
			bg.Add(receipt(db, mailer, crt))
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

// HandleCancel lets the owner abandon a checkout that is waiting on a
// payment. The cart ends up cancelled; a fresh one starts on the next add.
func HandleCancel(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		err = database.Transaction(db, func(tx sqlx.ExtContext) error {
			const q = `
			SELECT * FROM carts WHERE user_id = $1 AND status = 'pending_payment'
			ORDER BY updated_at DESC LIMIT 1 FOR UPDATE`

			var crt cart.Cart
			if err := sqlx.GetContext(ctx, tx, &crt, q, clm.UserID); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return database.ErrNotFound
				}
				return fmt.Errorf("selecting pending cart: %w", err)
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
			if errors.Is(err, database.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("abandoning checkout: %w", err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
