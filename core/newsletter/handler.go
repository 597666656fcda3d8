package newsletter

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/irsalhamdi/storefront/api/web"
	"github.com/irsalhamdi/storefront/api/weberr"
	"github.com/irsalhamdi/storefront/validate"
	"github.com/jmoiron/sqlx"
)

func HandleSubscribe(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var sn SubscriptionNew
		if err := web.Decode(w, r, &sn); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		sn.Email = normalize(sn.Email)
		if err := validate.Check(sn); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusBadRequest)
		}

		sub := Subscription{
			Email:     sn.Email,
			CreatedAt: time.Now().UTC(),
		}
		if err := Subscribe(ctx, db, sub); err != nil {
			return err
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		subs, err := List(ctx, db)
		if err != nil {
			return err
		}
		return web.Respond(ctx, w, subs, http.StatusOK)
	}
}
