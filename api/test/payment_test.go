package test

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"sync"

	"github.com/avelkova/studiofit/api/web"
	"github.com/gorilla/mux"
	"github.com/plutov/paypal/v4"
	mock "github.com/stripe/stripe-mock/param"
)

// expectedLine is what the mock gateways assert against when a checkout
// session is created.
type expectedLine struct {
	Quantity int
	Price    int
}

type mockPaypal struct {
	mu       sync.Mutex
	expected []expectedLine
}

func (m *mockPaypal) Expect(lines []expectedLine) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expected = lines
}

func (m *mockPaypal) handle() http.Handler {
	token := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := map[string]any{"access_token": "test-token", "expires_in": 3600}
		web.Respond(context.Background(), w, tok, 200)
	})

	checkout := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		expected := m.expected
		m.mu.Unlock()

		var pu struct {
			Units []paypal.PurchaseUnitRequest `json:"purchase_units"`
		}
		if err := json.NewDecoder(r.Body).Decode(&pu); err != nil {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		if len(pu.Units) != 1 || len(pu.Units[0].Items) != len(expected) {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		var tot int
		for _, ln := range expected {
			tot += ln.Price * ln.Quantity
		}

		if pu.Units[0].Amount.Value != strconv.Itoa(tot) {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		ord := paypal.Order{ID: fmt.Sprintf("paypal-%d", rand.Intn(100000))}
		web.Respond(context.Background(), w, ord, 200)
	})

	capture := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ord := paypal.Order{Status: "COMPLETED"}
		web.Respond(context.Background(), w, ord, 200)
	})

	r := mux.NewRouter()
	r.Handle("/v1/oauth2/token", token).Methods("POST")
	r.Handle("/v2/checkout/orders", checkout).Methods("POST")
	r.Handle("/v2/checkout/orders/{id}/capture", capture).Methods("POST")
	return r
}

type mockStripe struct {
	mu       sync.Mutex
	expected []expectedLine
}

func (m *mockStripe) Expect(lines []expectedLine) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expected = lines
}

func (m *mockStripe) handle() http.Handler {
	checkout := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		expected := m.expected
		m.mu.Unlock()

		params, _ := mock.ParseParams(r)
		lines := params["line_items"].(map[string]any)

		n := 0
		tot := 0
		for _, li := range lines {
			it := li.(map[string]any)

			qty, err := strconv.Atoi(it["quantity"].(string))
			if err != nil {
				web.Respond(context.Background(), w, err, 400)
				return
			}

			pd := it["price_data"].(map[string]any)
			amount, err := strconv.ParseInt(pd["unit_amount"].(string), 10, 0)
			if err != nil {
				web.Respond(context.Background(), w, err, 400)
				return
			}

			tot += int(amount/100) * qty
			n += 1
		}

		if n != len(expected) {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		exp := 0
		for _, ln := range expected {
			exp += ln.Price * ln.Quantity
		}

		if tot != exp {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		id := fmt.Sprintf("stripe-%d", rand.Intn(100000))
		sess := map[string]any{"id": id, "url": "http://stripe.test/" + id, "mode": "payment"}
		web.Respond(context.Background(), w, sess, 201)
	})

	r := mux.NewRouter()
	r.Handle("/v1/checkout/sessions", checkout).Methods("POST")
	return r
}
