package product

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/irsalhamdi/storefront/api/web"
	"github.com/irsalhamdi/storefront/api/weberr"
	"github.com/irsalhamdi/storefront/database"
	"github.com/irsalhamdi/storefront/validate"
	"github.com/jmoiron/sqlx"
)

const (
	defaultRows = 20
	maxRows     = 100
)

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		page, err := queryInt(r, "page", 1)
		if err != nil || page < 1 {
			return weberr.BadRequest(fmt.Errorf("invalid page %q", web.Query(r, "page")))
		}

		rows, err := queryInt(r, "rows", defaultRows)
		if err != nil || rows < 1 || rows > maxRows {
			return weberr.BadRequest(fmt.Errorf("invalid rows %q", web.Query(r, "rows")))
		}

		products, err := List(ctx, db, page, rows)
		if err != nil {
			return fmt.Errorf("listing products: %w", err)
		}

		return web.Respond(ctx, w, products, http.StatusOK)
	}
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		p, err := Fetch(ctx, db, id)
		if err != nil {
			if database.IsNotFound(err) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching product[%s]: %w", id, err)
		}

		return web.Respond(ctx, w, p, http.StatusOK)
	}
}

func HandleCreate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var pn ProductNew
		if err := web.Decode(w, r, &pn); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(pn); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusBadRequest)
		}

		now := time.Now().UTC()
		p := Product{
			ID:          validate.GenerateID(),
			Name:        pn.Name,
			Description: pn.Description,
			ImageURL:    pn.ImageURL,
			Price:       pn.Price,
			Stock:       pn.Stock,
			Sizes:       pn.Sizes,
			CreatedAt:   now,
			UpdatedAt:   now,
			Version:     1,
		}
		if p.Sizes == nil {
			p.Sizes = []string{}
		}

		if err := Create(ctx, db, p); err != nil {
			return fmt.Errorf("creating product: %w", err)
		}

		return web.Respond(ctx, w, p, http.StatusCreated)
	}
}

func HandleUpdate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		var pu ProductUp
		if err := web.Decode(w, r, &pu); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(pu); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusBadRequest)
		}

		p, err := Fetch(ctx, db, id)
		if err != nil {
			if database.IsNotFound(err) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching product[%s]: %w", id, err)
		}

		if pu.Name != nil {
			p.Name = *pu.Name
		}
		if pu.Description != nil {
			p.Description = *pu.Description
		}
		if pu.ImageURL != nil {
			p.ImageURL = *pu.ImageURL
		}
		if pu.Price != nil {
			p.Price = *pu.Price
		}
		if pu.Stock != nil {
			p.Stock = *pu.Stock
		}
		if pu.Sizes != nil {
			p.Sizes = *pu.Sizes
		}
		p.UpdatedAt = time.Now().UTC()

		if err := Update(ctx, db, p); err != nil {
			if errors.Is(err, database.ErrDBConflict) {
				return weberr.NewError(err, "product was modified concurrently, retry", http.StatusConflict)
			}
			return fmt.Errorf("updating product[%s]: %w", id, err)
		}
		p.Version++

		return web.Respond(ctx, w, p, http.StatusOK)
	}
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := web.Query(r, key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
