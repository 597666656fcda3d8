package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/irsalhamdi/storefront/database"
	"github.com/jmoiron/sqlx"
)

var ErrInsufficientStock = errors.New("insufficient stock")

func Create(ctx context.Context, db sqlx.ExtContext, p Product) error {
	const q = `
	INSERT INTO products
		(product_id, name, description, image_url, price, stock, sizes, created_at, updated_at, version)
	VALUES
		(:product_id, :name, :description, :image_url, :price, :stock, :sizes, :created_at, :updated_at, :version)`

	if err := database.NamedExecContext(ctx, db, q, p); err != nil {
		return fmt.Errorf("inserting product: %w", err)
	}
	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Product, error) {
	in := struct {
		ID string `db:"product_id"`
	}{id}

	const q = `
	SELECT *
	FROM products
	WHERE product_id = :product_id`

	var p Product
	if err := database.NamedQueryStruct(ctx, db, q, in, &p); err != nil {
		return Product{}, fmt.Errorf("selecting product[%s]: %w", id, err)
	}
	return p, nil
}

func List(ctx context.Context, db sqlx.ExtContext, page int, rows int) ([]Product, error) {
	in := struct {
		Offset int `db:"offset"`
		Rows   int `db:"rows"`
	}{
		Offset: (page - 1) * rows,
		Rows:   rows,
	}

	const q = `
	SELECT *
	FROM products
	ORDER BY created_at, product_id
	OFFSET :offset ROWS FETCH NEXT :rows ROWS ONLY`

	products := []Product{}
	if err := database.NamedQuerySlice(ctx, db, q, in, &products); err != nil {
		return nil, fmt.Errorf("selecting products: %w", err)
	}
	if products == nil {
		products = []Product{}
	}
	return products, nil
}

// Update writes p if nobody changed it since it was read (same version).
func Update(ctx context.Context, db sqlx.ExtContext, p Product) error {
	const q = `
	UPDATE products SET
		name = :name,
		description = :description,
		image_url = :image_url,
		price = :price,
		stock = :stock,
		sizes = :sizes,
		updated_at = :updated_at,
		version = version + 1
	WHERE product_id = :product_id AND version = :version`

	if err := database.NamedExecAffecting(ctx, db, q, p); err != nil {
		if errors.Is(err, database.ErrDBNotFound) {
			return fmt.Errorf("updating product[%s]: %w", p.ID, database.ErrDBConflict)
		}
		return fmt.Errorf("updating product[%s]: %w", p.ID, err)
	}
	return nil
}

type stockChange struct {
	ID       string `db:"product_id"`
	Quantity int    `db:"quantity"`
}

// DecrementStock takes qty units out of stock, failing with
// ErrInsufficientStock when fewer are left.
func DecrementStock(ctx context.Context, db sqlx.ExtContext, id string, qty int) error {
	const q = `
	UPDATE products SET
		stock = stock - :quantity,
		version = version + 1
	WHERE product_id = :product_id AND stock >= :quantity`

	if err := database.NamedExecAffecting(ctx, db, q, stockChange{id, qty}); err != nil {
		if errors.Is(err, database.ErrDBNotFound) {
			return fmt.Errorf("product[%s]: %w", id, ErrInsufficientStock)
		}
		return fmt.Errorf("decrementing stock of product[%s]: %w", id, err)
	}
	return nil
}

func IncrementStock(ctx context.Context, db sqlx.ExtContext, id string, qty int) error {
	const q = `
	UPDATE products SET
		stock = stock + :quantity,
		version = version + 1
	WHERE product_id = :product_id`

	if err := database.NamedExecAffecting(ctx, db, q, stockChange{id, qty}); err != nil {
		return fmt.Errorf("incrementing stock of product[%s]: %w", id, err)
	}
	return nil
}

// Catalog looks products up for the cart.
type Catalog struct {
	DB *sqlx.DB
}

func (c Catalog) Fetch(ctx context.Context, id string) (Product, error) {
	return Fetch(ctx, c.DB, id)
}
