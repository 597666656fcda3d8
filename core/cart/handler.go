package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/irsalhamdi/storefront/api/web"
	"github.com/irsalhamdi/storefront/api/weberr"
	"github.com/irsalhamdi/storefront/core/claims"
	"github.com/irsalhamdi/storefront/core/product"
	"github.com/irsalhamdi/storefront/database"
	"github.com/irsalhamdi/storefront/validate"
)

// Catalog supplies the current price and stock of a product.
type Catalog interface {
	Fetch(ctx context.Context, id string) (product.Product, error)
}

type Response struct {
	Cart   View    `json:"cart"`
	Notice *Notice `json:"notice"`
}

func response(s *Store, n Notice) Response {
	res := Response{Cart: s.View()}
	if n.Reported() {
		res.Notice = &n
	}
	return res
}

// unavailable maps a cart that could not be loaded to a 503.
func unavailable(cartID string, err error) error {
	if errors.Is(err, ErrUnavailable) {
		return weberr.Unavailable(err, weberr.WithFields(map[string]any{"cart_id": cartID}))
	}
	return err
}

// mutate applies op to the caller's cart and responds with the result.
func mutate(ctx context.Context, w http.ResponseWriter, reg *Registry, cartID string, op func(*Store) (Notice, error)) error {
	var res Response
	err := reg.Do(ctx, cartID, func(s *Store) error {
		n, err := op(s)
		if err != nil {
			return err
		}
		res = response(s, n)
		return nil
	})
	if err != nil {
		return unavailable(cartID, err)
	}

	return web.Respond(ctx, w, res, http.StatusOK)
}

func HandleShow(reg *Registry) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		cartID, err := claims.Cart(ctx)
		if err != nil {
			return weberr.NotAuthorized(err)
		}

		v, err := reg.View(ctx, cartID)
		if err != nil {
			return unavailable(cartID, err)
		}

		return web.Respond(ctx, w, Response{Cart: v}, http.StatusOK)
	}
}

func HandleAddItem(reg *Registry, catalog Catalog) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		cartID, err := claims.Cart(ctx)
		if err != nil {
			return weberr.NotAuthorized(err)
		}

		var in ItemNew
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(in); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusBadRequest)
		}

		if err := validate.CheckID(in.ProductID); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusBadRequest)
		}

		p, err := catalog.Fetch(ctx, in.ProductID)
		if err != nil {
			if database.IsNotFound(err) {
				return weberr.NotFound(err, weberr.WithFields(map[string]any{"product_id": in.ProductID}))
			}
			return fmt.Errorf("fetching product[%s]: %w", in.ProductID, err)
		}

		if !p.HasSize(in.Size) {
			err := fmt.Errorf("size %q is not available for %s", in.Size, p.Name)
			return weberr.NewError(err, err.Error(), http.StatusBadRequest, weberr.WithFields(map[string]any{
				"product_id": p.ID,
				"size":       in.Size,
			}))
		}

		item := Product{
			ID:    p.ID,
			Name:  p.Name,
			Price: p.Price,
			Stock: p.Stock,
		}

		return mutate(ctx, w, reg, cartID, func(s *Store) (Notice, error) {
			return s.AddItem(item, in.Quantity, in.Size), nil
		})
	}
}

func HandleUpdateItem(reg *Registry) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		cartID, err := claims.Cart(ctx)
		if err != nil {
			return weberr.NotAuthorized(err)
		}

		productID := web.Param(r, "product_id")
		size := web.Query(r, "size")

		var in ItemUp
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		return mutate(ctx, w, reg, cartID, func(s *Store) (Notice, error) {
			if s.index(productID, size) < 0 {
				return Notice{}, weberr.NotFound(errors.New("item not in cart"), weberr.WithFields(map[string]any{
					"product_id": productID,
					"size":       size,
				}))
			}
			return s.UpdateQuantity(productID, in.Quantity, size), nil
		})
	}
}

func HandleDeleteItem(reg *Registry) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		cartID, err := claims.Cart(ctx)
		if err != nil {
			return weberr.NotAuthorized(err)
		}

		productID := web.Param(r, "product_id")
		size := web.Query(r, "size")

		return mutate(ctx, w, reg, cartID, func(s *Store) (Notice, error) {
			return s.RemoveItem(productID, size), nil
		})
	}
}

func HandleDelete(reg *Registry) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		cartID, err := claims.Cart(ctx)
		if err != nil {
			return weberr.NotAuthorized(err)
		}

		return mutate(ctx, w, reg, cartID, func(s *Store) (Notice, error) {
			return s.RemoveAll(), nil
		})
	}
}
