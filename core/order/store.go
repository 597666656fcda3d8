package order

import (
	"context"
	"fmt"

	"github.com/irsalhamdi/storefront/database"
	"github.com/jmoiron/sqlx"
)

func Create(ctx context.Context, db sqlx.ExtContext, ord Order) error {
	const q = `
	INSERT INTO orders
		(order_id, reference, cart_id, provider_id, status, total, created_at, updated_at)
	VALUES
		(:order_id, :reference, :cart_id, :provider_id, :status, :total, :created_at, :updated_at)`

	if err := database.NamedExecContext(ctx, db, q, ord); err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}
	return nil
}

func CreateItem(ctx context.Context, db sqlx.ExtContext, it Item) error {
	const q = `
	INSERT INTO order_items
		(order_id, product_id, size, name, quantity, price, created_at)
	VALUES
		(:order_id, :product_id, :size, :name, :quantity, :price, :created_at)`

	if err := database.NamedExecContext(ctx, db, q, it); err != nil {
		return fmt.Errorf("inserting order item: %w", err)
	}
	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Order, error) {
	in := struct {
		ID string `db:"order_id"`
	}{id}

	const q = `
	SELECT order_id, reference, cart_id, provider_id, status, total, created_at, updated_at
	FROM orders
	WHERE order_id = :order_id`

	var ord Order
	if err := database.NamedQueryStruct(ctx, db, q, in, &ord); err != nil {
		return Order{}, fmt.Errorf("selecting order[%s]: %w", id, err)
	}
	return ord, nil
}

func FetchByProviderID(ctx context.Context, db sqlx.ExtContext, providerID string) (Order, error) {
	in := struct {
		ProviderID string `db:"provider_id"`
	}{providerID}

	const q = `
	SELECT order_id, reference, cart_id, provider_id, status, total, created_at, updated_at
	FROM orders
	WHERE provider_id = :provider_id`

	var ord Order
	if err := database.NamedQueryStruct(ctx, db, q, in, &ord); err != nil {
		return Order{}, fmt.Errorf("selecting order with provider id[%s]: %w", providerID, err)
	}
	return ord, nil
}

func FetchItems(ctx context.Context, db sqlx.ExtContext, orderID string) ([]Item, error) {
	in := struct {
		ID string `db:"order_id"`
	}{orderID}

	const q = `
	SELECT order_id, product_id, size, name, quantity, price, created_at
	FROM order_items
	WHERE order_id = :order_id
	ORDER BY name, size`

	var items []Item
	if err := database.NamedQuerySlice(ctx, db, q, in, &items); err != nil {
		return nil, fmt.Errorf("selecting items of order[%s]: %w", orderID, err)
	}
	return items, nil
}

func List(ctx context.Context, db sqlx.ExtContext, page int, rows int) ([]Order, error) {
	in := struct {
		Offset int `db:"offset"`
		Rows   int `db:"rows"`
	}{
		Offset: (page - 1) * rows,
		Rows:   rows,
	}

	const q = `
	SELECT order_id, reference, cart_id, provider_id, status, total, created_at, updated_at
	FROM orders
	ORDER BY created_at DESC, order_id
	OFFSET :offset ROWS FETCH NEXT :rows ROWS ONLY`

	orders := []Order{}
	if err := database.NamedQuerySlice(ctx, db, q, in, &orders); err != nil {
		return nil, fmt.Errorf("selecting orders: %w", err)
	}
	if orders == nil {
		orders = []Order{}
	}
	return orders, nil
}

// UpdateStatus moves an order from up.From to up.Status, failing with
// database.ErrDBNotFound when the order is not in up.From.
func UpdateStatus(ctx context.Context, db sqlx.ExtContext, up StatusUp) error {
	const q = `
	UPDATE orders SET
		status = :status,
		updated_at = :updated_at
	WHERE order_id = :order_id AND status = :from_status`

	if err := database.NamedExecAffecting(ctx, db, q, up); err != nil {
		return fmt.Errorf("updating status of order[%s]: %w", up.ID, err)
	}
	return nil
}
