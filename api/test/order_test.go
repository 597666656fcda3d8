package test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/irsalhamdi/storefront/core/cart"
	"github.com/irsalhamdi/storefront/core/order"
	"github.com/irsalhamdi/storefront/core/product"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/webhook"
)

type orderTest struct {
	*TestEnv
}

func TestOrder(t *testing.T) {
	env, err := NewTestEnv(t, "order_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	ot := &orderTest{env}
	pt := &productTest{env}
	rt := &cartTest{env}

	p1 := pt.createProductOK(t, product.ProductNew{Name: "Mug", Price: 1299, Stock: 10})
	p2 := pt.createProductOK(t, product.ProductNew{Name: "Tee", Price: 2500, Stock: 6, Sizes: []string{"M", "L"}})
	p3 := pt.createProductOK(t, product.ProductNew{Name: "Poster", Price: 800, Stock: 3})

	ot.checkoutEmpty(t)

	rt.createItemOK(t, cart.ItemNew{ProductID: p1.ID, Quantity: 2})
	rt.createItemOK(t, cart.ItemNew{ProductID: p2.ID, Quantity: 1, Size: "L"})

	// paypal: stock is held at checkout, the cart empties once paid
	ord := ot.testPaypal(t, ot.cartLines(t))
	ot.expectStock(t, p1.ID, 8)
	ot.expectStock(t, p2.ID, 5)
	ot.expectOrder(t, ord.ID, order.Success, 2*1299+2500, 2)
	rt.showCartOK(t, cart.View{Lines: []cart.Line{}})

	// stripe
	rt.createItemOK(t, cart.ItemNew{ProductID: p3.ID, Quantity: 2})
	rt.createItemOK(t, cart.ItemNew{ProductID: p2.ID, Quantity: 2, Size: "M"})

	ord = ot.testStripe(t, ot.cartLines(t))
	ot.expectStock(t, p3.ID, 1)
	ot.expectStock(t, p2.ID, 3)
	ot.expectOrder(t, ord.ID, order.Success, 2*800+2*2500, 2)
	rt.showCartOK(t, cart.View{Lines: []cart.Line{}})

	// a repeated completion changes nothing
	ot.completeStripe(t, ord.ProviderID)
	ot.expectStock(t, p3.ID, 1)

	// duplicate completions racing each other are both accepted
	rt.createItemOK(t, cart.ItemNew{ProductID: p3.ID, Quantity: 1})

	var raced order.Checkout
	ot.Stripe.expect(ot.cartLines(t))
	if status := ot.Request(t, http.MethodPost, "/orders/stripe", nil, false, &raced); status != http.StatusOK {
		t.Fatalf("can't create stripe order: status code %d", status)
	}

	var wg sync.WaitGroup
	statuses := make([]int, 4)
	errs := make([]error, len(statuses))
	for i := range statuses {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			statuses[i], errs[i] = ot.deliverStripe(raced.Order.ProviderID)
		}(i)
	}
	wg.Wait()

	for i := range statuses {
		if errs[i] != nil {
			t.Fatal(errs[i])
		}
		if statuses[i] != http.StatusNoContent {
			t.Fatalf("expected every duplicate completion to succeed, got status code %d", statuses[i])
		}
	}
	ot.expectStock(t, p3.ID, 0)
	ot.expectOrder(t, raced.Order.ID, order.Success, 800, 1)
	rt.showCartOK(t, cart.View{Lines: []cart.Line{}})

	// the catalog sold out in between: checkout is refused and nothing is held
	rt.createItemOK(t, cart.ItemNew{ProductID: p1.ID, Quantity: 3})
	stock := 1
	pt.updateProductOK(t, p1.ID, product.ProductUp{Stock: &stock})

	ot.Stripe.expect(ot.cartLines(t))
	if status := ot.Request(t, http.MethodPost, "/orders/stripe", nil, false, nil); status != http.StatusConflict {
		t.Fatalf("expected 409 checking out more than the stock, got %d", status)
	}
	ot.expectStock(t, p1.ID, 1)

	// an abandoned checkout gives its stock back when expired
	rt.updateItemOK(t, p1.ID, "", 1)

	var co order.Checkout
	ot.Stripe.expect(ot.cartLines(t))
	if status := ot.Request(t, http.MethodPost, "/orders/stripe", nil, false, &co); status != http.StatusOK {
		t.Fatalf("can't create stripe order: status code %d", status)
	}
	ot.expectStock(t, p1.ID, 0)

	ot.updateStatus(t, co.Order.ID, order.Expired, http.StatusNoContent)
	ot.expectStock(t, p1.ID, 1)
	ot.expectOrder(t, co.Order.ID, order.Expired, 1299, 1)

	ot.updateStatus(t, co.Order.ID, order.Success, http.StatusConflict)

	ot.listOrdersOK(t, 4)
}

func (ot *orderTest) cartLines(t *testing.T) []cart.Line {
	var res cart.Response
	if status := ot.Request(t, http.MethodGet, "/cart", nil, false, &res); status != http.StatusOK {
		t.Fatalf("can't show cart: status code %d", status)
	}
	return res.Cart.Lines
}

func (ot *orderTest) checkoutEmpty(t *testing.T) {
	for _, p := range []string{"/orders/paypal", "/orders/stripe"} {
		if status := ot.Request(t, http.MethodPost, p, nil, false, nil); status != http.StatusUnprocessableEntity {
			t.Fatalf("%s: expected 422 for an empty cart, got %d", p, status)
		}
	}
}

func (ot *orderTest) testPaypal(t *testing.T, lines []cart.Line) order.Order {
	ot.Paypal.expect(lines)

	var co order.Checkout
	if status := ot.Request(t, http.MethodPost, "/orders/paypal", nil, false, &co); status != http.StatusOK {
		t.Fatalf("can't create paypal order: status code %d", status)
	}

	if co.Order.Status != order.Pending || co.URL == "" || len(co.Order.Reference) != 8 {
		t.Fatalf("unexpected checkout %+v", co)
	}

	if status := ot.Request(t, http.MethodPost, "/orders/paypal/"+co.Order.ProviderID+"/capture", nil, false, nil); status != http.StatusNoContent {
		t.Fatalf("can't capture paypal order: status code %d", status)
	}
	return co.Order
}

func (ot *orderTest) testStripe(t *testing.T, lines []cart.Line) order.Order {
	ot.Stripe.expect(lines)

	var co order.Checkout
	if status := ot.Request(t, http.MethodPost, "/orders/stripe", nil, false, &co); status != http.StatusOK {
		t.Fatalf("can't create stripe order: status code %d", status)
	}

	if co.Order.Status != order.Pending || co.URL == "" {
		t.Fatalf("unexpected checkout %+v", co)
	}

	ot.completeStripe(t, co.Order.ProviderID)
	return co.Order
}

// completeStripe delivers a signed checkout.session.completed event.
func (ot *orderTest) completeStripe(t *testing.T, sessionID string) {
	status, err := ot.deliverStripe(sessionID)
	if err != nil {
		t.Fatal(err)
	}
	if status != http.StatusNoContent {
		t.Fatalf("can't trigger stripe webhook: status code %d", status)
	}
}

func (ot *orderTest) deliverStripe(sessionID string) (int, error) {
	obj := map[string]any{
		"id":     sessionID,
		"object": "checkout.session",
		"mode":   stripe.CheckoutSessionModePayment,
	}

	raw, err := json.Marshal(obj)
	if err != nil {
		return 0, err
	}

	evt := stripe.Event{
		APIVersion: stripe.APIVersion,
		Type:       "checkout.session.completed",
		Data: &stripe.EventData{
			Raw: json.RawMessage(raw),
		},
	}

	b, err := json.Marshal(evt)
	if err != nil {
		return 0, err
	}

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   b,
		Secret:    webhookSecret,
		Timestamp: time.Now(),
	})

	r, err := http.NewRequest(http.MethodPost, ot.URL+"/orders/stripe/capture", bytes.NewBuffer(b))
	if err != nil {
		return 0, err
	}
	r.Header.Set("Stripe-Signature", signed.Header)

	w, err := ot.Client().Do(r)
	if err != nil {
		return 0, err
	}
	defer w.Body.Close()

	return w.StatusCode, nil
}

func (ot *orderTest) expectStock(t *testing.T, productID string, exp int) {
	t.Helper()

	var p product.Product
	if status := ot.Request(t, http.MethodGet, "/products/"+productID, nil, false, &p); status != http.StatusOK {
		t.Fatalf("can't show product: status code %d", status)
	}
	if p.Stock != exp {
		t.Fatalf("expected stock %d for %s, got %d", exp, p.Name, p.Stock)
	}
}

func (ot *orderTest) expectOrder(t *testing.T, id string, status order.Status, total int, items int) {
	t.Helper()

	var ord order.Order
	if code := ot.Request(t, http.MethodGet, "/orders/"+id, nil, true, &ord); code != http.StatusOK {
		t.Fatalf("can't show order: status code %d", code)
	}

	if ord.Status != status || ord.Total != total || len(ord.Items) != items {
		t.Fatalf("expected order %s with total %d and %d items, got %+v", status, total, items, ord)
	}
}

func (ot *orderTest) updateStatus(t *testing.T, id string, status order.Status, exp int) {
	t.Helper()

	if code := ot.Request(t, http.MethodPut, "/orders/"+id+"/status", order.StatusNew{Status: status}, true, nil); code != exp {
		t.Fatalf("expected %d setting order status to %s, got %d", exp, status, code)
	}
}

func (ot *orderTest) listOrdersOK(t *testing.T, exp int) {
	var orders []order.Order
	if status := ot.Request(t, http.MethodGet, "/orders", nil, true, &orders); status != http.StatusOK {
		t.Fatalf("can't list orders: status code %d", status)
	}
	if len(orders) != exp {
		t.Fatalf("expected %d orders, got %d", exp, len(orders))
	}
}
