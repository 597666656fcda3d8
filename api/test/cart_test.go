package test

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/irsalhamdi/storefront/core/cart"
	"github.com/irsalhamdi/storefront/core/product"
)

type cartTest struct {
	*TestEnv
}

func TestCart(t *testing.T) {
	env, err := NewTestEnv(t, "cart_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	pt := &productTest{env}
	rt := &cartTest{env}

	shirt := pt.createProductOK(t, product.ProductNew{Name: "Shirt", Price: 1000, Stock: 5})
	hat := pt.createProductOK(t, product.ProductNew{Name: "Cap", Price: 1500, Stock: 4, Sizes: []string{"S", "L"}})
	gone := pt.createProductOK(t, product.ProductNew{Name: "Gone", Price: 100, Stock: 0})

	rt.showCartOK(t, cart.View{Lines: []cart.Line{}})

	res := rt.createItemOK(t, cart.ItemNew{ProductID: shirt.ID, Quantity: 2})
	rt.expectNotice(t, res, cart.Added, 2000)

	res = rt.createItemOK(t, cart.ItemNew{ProductID: shirt.ID, Quantity: 2})
	rt.expectNotice(t, res, cart.Added, 4000)

	res = rt.createItemOK(t, cart.ItemNew{ProductID: shirt.ID, Quantity: 5})
	rt.expectNotice(t, res, cart.StockLimited, 5000)

	res = rt.updateItemOK(t, shirt.ID, "", 0)
	rt.expectNotice(t, res, cart.InvalidQuantity, 5000)

	res = rt.createItemOK(t, cart.ItemNew{ProductID: gone.ID, Quantity: 1})
	rt.expectNotice(t, res, cart.OutOfStock, 5000)

	res = rt.createItemOK(t, cart.ItemNew{ProductID: hat.ID, Quantity: 1, Size: "L"})
	rt.expectNotice(t, res, cart.Added, 6500)

	res = rt.updateItemOK(t, hat.ID, "L", 3)
	rt.expectNotice(t, res, cart.QuantityChanged, 9500)

	res = rt.deleteItemOK(t, shirt.ID, "")
	rt.expectNotice(t, res, cart.Removed, 4500)

	rt.showCartOK(t, cart.View{
		Lines: []cart.Line{
			{ProductID: hat.ID, Name: "Cap", Size: "L", Quantity: 3, UnitPrice: 1500, AvailableStock: 4},
		},
		Subtotal:  4500,
		ItemCount: 3,
	})

	rt.waitSnapshot(t)

	if status := rt.Request(t, http.MethodPatch, "/cart/items/"+hat.ID+"?size=S", cart.ItemUp{Quantity: 1}, false, nil); status != http.StatusNotFound {
		t.Fatalf("expected 404 updating a line not in the cart, got %d", status)
	}

	// a new visitor starts with an empty cart
	rt.NewVisitor(t)
	rt.showCartOK(t, cart.View{Lines: []cart.Line{}})
	rt.createItemOK(t, cart.ItemNew{ProductID: hat.ID, Quantity: 1, Size: "S"})

	res = rt.clearCartOK(t)
	rt.expectNotice(t, res, cart.Cleared, 0)
}

func (rt *cartTest) createItemOK(t *testing.T, in cart.ItemNew) cart.Response {
	var res cart.Response
	if status := rt.Request(t, http.MethodPut, "/cart/items", in, false, &res); status != http.StatusOK {
		t.Fatalf("can't add item: status code %d", status)
	}
	return res
}

func (rt *cartTest) updateItemOK(t *testing.T, productID, size string, qty int) cart.Response {
	var res cart.Response
	path := "/cart/items/" + productID + "?size=" + size
	if status := rt.Request(t, http.MethodPatch, path, cart.ItemUp{Quantity: qty}, false, &res); status != http.StatusOK {
		t.Fatalf("can't update item: status code %d", status)
	}
	return res
}

func (rt *cartTest) deleteItemOK(t *testing.T, productID, size string) cart.Response {
	var res cart.Response
	path := "/cart/items/" + productID + "?size=" + size
	if status := rt.Request(t, http.MethodDelete, path, nil, false, &res); status != http.StatusOK {
		t.Fatalf("can't delete item: status code %d", status)
	}
	return res
}

func (rt *cartTest) clearCartOK(t *testing.T) cart.Response {
	var res cart.Response
	if status := rt.Request(t, http.MethodDelete, "/cart", nil, false, &res); status != http.StatusOK {
		t.Fatalf("can't clear cart: status code %d", status)
	}
	return res
}

func (rt *cartTest) showCartOK(t *testing.T, exp cart.View) {
	var res cart.Response
	if status := rt.Request(t, http.MethodGet, "/cart", nil, false, &res); status != http.StatusOK {
		t.Fatalf("can't show cart: status code %d", status)
	}

	if diff := cmp.Diff(exp, res.Cart); diff != "" {
		t.Fatalf("unexpected cart (-want +got):\n%s", diff)
	}
}

func (rt *cartTest) expectNotice(t *testing.T, res cart.Response, exp cart.Outcome, subtotal int) {
	t.Helper()

	if res.Notice == nil || res.Notice.Outcome != exp {
		t.Fatalf("expected a %q notice, got %+v", exp, res.Notice)
	}
	if res.Cart.Subtotal != subtotal {
		t.Fatalf("expected subtotal %d, got %d", subtotal, res.Cart.Subtotal)
	}
}

// waitSnapshot waits for the asynchronous snapshot write of the current cart.
func (rt *cartTest) waitSnapshot(t *testing.T) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(rt.Redis.Keys()) > 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("cart snapshot was never written")
}
