package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/irsalhamdi/storefront/core/cart"
	"github.com/irsalhamdi/storefront/core/product"
	"github.com/irsalhamdi/storefront/database"
	"github.com/irsalhamdi/storefront/random"
	"github.com/irsalhamdi/storefront/validate"
	"github.com/jmoiron/sqlx"
)

var (
	ErrEmptyCart        = errors.New("no items to checkout")
	ErrStatusTransition = errors.New("order is not pending")
)

const referenceLength = 8

// total sums what the shopper saw in the cart: prices are the ones captured
// when the lines were added.
func total(lines []cart.Line) int {
	var tot int
	for _, l := range lines {
		tot += l.UnitPrice * l.Quantity
	}
	return tot
}

// prepare records a pending order for the cart lines and takes the ordered
// quantities out of stock, all in one transaction. It fails with
// product.ErrInsufficientStock, leaving nothing behind, when any line can no
// longer be served.
func prepare(ctx context.Context, db *sqlx.DB, cartID string, providerID string, lines []cart.Line) (Order, error) {
	ref, err := random.Reference(referenceLength)
	if err != nil {
		return Order{}, fmt.Errorf("generating reference: %w", err)
	}

	now := time.Now().UTC()
	ord := Order{
		ID:         validate.GenerateID(),
		Reference:  ref,
		CartID:     cartID,
		ProviderID: providerID,
		Status:     Pending,
		Total:      total(lines),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err = database.Transaction(db, func(tx sqlx.ExtContext) error {
		if err := Create(ctx, tx, ord); err != nil {
			return fmt.Errorf("creating order: %w", err)
		}

		for _, l := range lines {
			it := Item{
				OrderID:   ord.ID,
				ProductID: l.ProductID,
				Size:      l.Size,
				Name:      l.Name,
				Quantity:  l.Quantity,
				Price:     l.UnitPrice,
				CreatedAt: now,
			}

			if err := CreateItem(ctx, tx, it); err != nil {
				return fmt.Errorf("creating item: %w", err)
			}

			if err := product.DecrementStock(ctx, tx, l.ProductID, l.Quantity); err != nil {
				return err
			}

			ord.Items = append(ord.Items, it)
		}

		return nil
	})

	if err != nil {
		return Order{}, fmt.Errorf("creating the order bound to payment[%s] for cart[%s]: %w", providerID, cartID, err)
	}
	return ord, nil
}

// fulfill marks the order paid and takes the ordered lines out of the cart.
func fulfill(ctx context.Context, db *sqlx.DB, reg *cart.Registry, providerID string) error {
	ord, err := FetchByProviderID(ctx, db, providerID)
	if err != nil {
		return fmt.Errorf("fetching the order bound to payment[%s]: %w", providerID, err)
	}

	// providers may deliver the same completion more than once
	if ord.Status == Success {
		return nil
	}

	items, err := FetchItems(ctx, db, ord.ID)
	if err != nil {
		return err
	}

	up := StatusUp{
		ID:        ord.ID,
		From:      Pending,
		Status:    Success,
		UpdatedAt: time.Now().UTC(),
	}

	if err := UpdateStatus(ctx, db, up); err != nil {
		if !errors.Is(err, database.ErrDBNotFound) {
			return fmt.Errorf("fulfilling the order[%s] bound to payment[%s]: %w", ord.ID, providerID, err)
		}

		// a concurrent duplicate completion may have settled it first
		cur, err := Fetch(ctx, db, ord.ID)
		if err != nil {
			return fmt.Errorf("fetching the order[%s]: %w", ord.ID, err)
		}
		if cur.Status == Success {
			return nil
		}
		return fmt.Errorf("fulfilling the order[%s]: %w", ord.ID, ErrStatusTransition)
	}

	return reg.Do(ctx, ord.CartID, func(s *cart.Store) error {
		for _, it := range items {
			s.RemoveItem(it.ProductID, it.Size)
		}
		return nil
	})
}

// expire gives up on a pending order and puts its items back in stock.
func expire(ctx context.Context, db *sqlx.DB, orderID string) error {
	items, err := FetchItems(ctx, db, orderID)
	if err != nil {
		return err
	}

	err = database.Transaction(db, func(tx sqlx.ExtContext) error {
		up := StatusUp{
			ID:        orderID,
			From:      Pending,
			Status:    Expired,
			UpdatedAt: time.Now().UTC(),
		}

		if err := UpdateStatus(ctx, tx, up); err != nil {
			if errors.Is(err, database.ErrDBNotFound) {
				return ErrStatusTransition
			}
			return err
		}

		for _, it := range items {
			if err := product.IncrementStock(ctx, tx, it.ProductID, it.Quantity); err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		return fmt.Errorf("expiring order[%s]: %w", orderID, err)
	}
	return nil
}
