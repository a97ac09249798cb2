package test

import (
	"net/http"
	"testing"

	"github.com/avelkova/studiofit/core/cart"
)

type cartPayload struct {
	Status        cart.Status `json:"status"`
	Items         []cart.Item `json:"items"`
	Total         int         `json:"total"`
	TotalSessions int         `json:"totalSessions"`
}

type cartTest struct {
	*TestEnv
}

// addItemOK adds to the logged-in user's cart.
func (rt *cartTest) addItemOK(t *testing.T, itemID string, qty int) cartPayload {
	t.Helper()

	in := map[string]any{"itemId": itemID, "quantity": qty}

	var crt cartPayload
	w, err := rt.Do(http.MethodPut, "/cart/items", in, &crt)
	if err != nil {
		t.Fatal(err)
	}
	if w.StatusCode != http.StatusOK {
		t.Fatalf("can't add item to cart: status code %s", w.Status)
	}
	return crt
}

func (rt *cartTest) showCartOK(t *testing.T) cartPayload {
	t.Helper()

	var crt cartPayload
	w, err := rt.Do(http.MethodGet, "/cart", nil, &crt)
	if err != nil {
		t.Fatal(err)
	}
	if w.StatusCode != http.StatusOK {
		t.Fatalf("can't show cart: status code %s", w.Status)
	}
	return crt
}

func TestCart(t *testing.T) {
	env, err := NewTestEnv(t, "cart_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	st := &storefrontTest{env}
	rt := &cartTest{env}

	pack8 := st.createItemOK(t, "pack-8", 8, 520, 1)
	pack4 := st.createItemOK(t, "pack-4", 4, 280, 2)

	if err := rt.Login(rt.UserEmail, rt.UserPass); err != nil {
		t.Fatal(err)
	}
	defer rt.Logout()

	crt := rt.showCartOK(t)
	if crt.Status != cart.StatusActive || len(crt.Items) != 0 {
		t.Fatalf("expected an empty active cart, got status %s with %d items", crt.Status, len(crt.Items))
	}

	crt = rt.addItemOK(t, pack8.ID, 1)
	if crt.Total != 520 || crt.TotalSessions != 8 {
		t.Fatalf("expected total 520 / 8 sessions, got %d / %d", crt.Total, crt.TotalSessions)
	}

	// Adding the same item merges quantities on the existing line.
	crt = rt.addItemOK(t, pack8.ID, 2)
	if len(crt.Items) != 1 || crt.Items[0].Quantity != 3 {
		t.Fatalf("expected one line with quantity 3, got %+v", crt.Items)
	}

	crt = rt.addItemOK(t, pack4.ID, 1)
	if len(crt.Items) != 2 || crt.Total != 3*520+280 {
		t.Fatalf("expected two lines totalling %d, got %+v", 3*520+280, crt)
	}

	// Quantity updates are absolute.
	up := map[string]any{"quantity": 1}
	var updated cartPayload
	w, err := rt.Do(http.MethodPut, "/cart/items/"+pack8.ID, up, &updated)
	if err != nil {
		t.Fatal(err)
	}
	if w.StatusCode != http.StatusOK {
		t.Fatalf("can't update cart item: status code %s", w.Status)
	}
	if updated.Total != 520+280 || updated.TotalSessions != 12 {
		t.Fatalf("expected total 800 / 12 sessions, got %d / %d", updated.Total, updated.TotalSessions)
	}

	w, err = rt.Do(http.MethodDelete, "/cart/items/"+pack4.ID, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if w.StatusCode != http.StatusNoContent {
		t.Fatalf("can't delete cart item: status code %s", w.Status)
	}

	crt = rt.showCartOK(t)
	if len(crt.Items) != 1 || crt.TotalSessions != 8 {
		t.Fatalf("expected a single 8-session line, got %+v", crt)
	}

	// Unknown catalog items are rejected.
	w, err = rt.Do(http.MethodPut, "/cart/items", map[string]any{"itemId": "3a4a9fc4-6e1a-4a71-8077-a8b7bfd0d046", "quantity": 1}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if w.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown item, got %s", w.Status)
	}

	// Abandoning the cart is terminal; the next add starts a new one.
	w, err = rt.Do(http.MethodDelete, "/cart", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if w.StatusCode != http.StatusNoContent {
		t.Fatalf("can't abandon cart: status code %s", w.Status)
	}

	crt = rt.addItemOK(t, pack4.ID, 1)
	if len(crt.Items) != 1 || crt.Items[0].ItemID != pack4.ID {
		t.Fatalf("expected a fresh cart with one line, got %+v", crt)
	}
}
