package test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gorilla/mux"
	"github.com/irsalhamdi/storefront/api/web"
	"github.com/irsalhamdi/storefront/core/cart"
	"github.com/plutov/paypal/v4"
	mock "github.com/stripe/stripe-mock/param"
)

var providerSeq int64

func providerID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, atomic.AddInt64(&providerSeq, 1))
}

func amount(cents int) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

func linesTotal(lines []cart.Line) int {
	var tot int
	for _, l := range lines {
		tot += l.UnitPrice * l.Quantity
	}
	return tot
}

// mockPaypal answers the orders api, rejecting orders that do not match
// the expected cart.
type mockPaypal struct {
	mu           sync.Mutex
	expectedCart []cart.Line
}

func (m *mockPaypal) expect(lines []cart.Line) {
	m.mu.Lock()
	m.expectedCart = lines
	m.mu.Unlock()
}

func (m *mockPaypal) handle() http.Handler {
	token := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := map[string]any{
			"access_token": "paypal-token",
			"token_type":   "Bearer",
			"expires_in":   32400,
		}
		web.Respond(context.Background(), w, tok, 200)
	})

	checkout := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var pu struct {
			Units []paypal.PurchaseUnitRequest `json:"purchase_units"`
		}
		if err := json.NewDecoder(r.Body).Decode(&pu); err != nil {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		m.mu.Lock()
		exp := m.expectedCart
		m.mu.Unlock()

		if len(pu.Units) != 1 || len(pu.Units[0].Items) != len(exp) {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		if pu.Units[0].Amount.Value != amount(linesTotal(exp)) {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		id := providerID("paypal")
		ord := map[string]any{
			"id":     id,
			"status": "CREATED",
			"links": []map[string]string{
				{"href": "https://paypal.test/checkoutnow?token=" + id, "rel": "approve", "method": "GET"},
			},
		}
		web.Respond(context.Background(), w, ord, 201)
	})

	capture := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ord := map[string]any{
			"id":     mux.Vars(r)["id"],
			"status": "COMPLETED",
		}
		web.Respond(context.Background(), w, ord, 201)
	})

	r := mux.NewRouter()
	r.Handle("/v1/oauth2/token", token).Methods("POST")
	r.Handle("/v2/checkout/orders", checkout).Methods("POST")
	r.Handle("/v2/checkout/orders/{id}/capture", capture).Methods("POST")
	return r
}

// mockStripe answers checkout session creation, rejecting sessions that do
// not match the expected cart.
type mockStripe struct {
	mu           sync.Mutex
	expectedCart []cart.Line
}

func (m *mockStripe) expect(lines []cart.Line) {
	m.mu.Lock()
	m.expectedCart = lines
	m.mu.Unlock()
}

func (m *mockStripe) handle() http.Handler {
	checkout := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		params, err := mock.ParseParams(r)
		if err != nil {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		var items []any
		switch li := params["line_items"].(type) {
		case []any:
			items = li
		case map[string]any:
			for _, it := range li {
				items = append(items, it)
			}
		}

		n, tot := 0, 0
		for _, li := range items {
			it, ok := li.(map[string]any)
			if !ok {
				web.Respond(context.Background(), w, nil, 400)
				return
			}

			q, err := strconv.Atoi(fmt.Sprint(it["quantity"]))
			if err != nil {
				web.Respond(context.Background(), w, nil, 400)
				return
			}

			pd, _ := it["price_data"].(map[string]any)
			unit, err := strconv.Atoi(fmt.Sprint(pd["unit_amount"]))
			if err != nil {
				web.Respond(context.Background(), w, nil, 400)
				return
			}

			tot += q * unit
			n++
		}

		m.mu.Lock()
		exp := m.expectedCart
		m.mu.Unlock()

		if n != len(exp) || tot != linesTotal(exp) {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		id := providerID("cs_test")
		sess := map[string]any{
			"id":     id,
			"object": "checkout.session",
			"mode":   "payment",
			"url":    "https://checkout.stripe.test/pay/" + id,
		}
		web.Respond(context.Background(), w, sess, 200)
	})

	r := mux.NewRouter()
	r.Handle("/v1/checkout/sessions", checkout).Methods("POST")
	return r
}
