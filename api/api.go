package api

import (
	"context"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/mux"
	"github.com/irsalhamdi/storefront/api/middleware"
	"github.com/irsalhamdi/storefront/api/web"
	"github.com/irsalhamdi/storefront/config"
	"github.com/irsalhamdi/storefront/core/auth"
	"github.com/irsalhamdi/storefront/core/cart"
	"github.com/irsalhamdi/storefront/core/newsletter"
	"github.com/irsalhamdi/storefront/core/order"
	"github.com/irsalhamdi/storefront/core/product"
	"github.com/irsalhamdi/storefront/rate"
	"github.com/jmoiron/sqlx"
	"github.com/plutov/paypal/v4"
	"github.com/sirupsen/logrus"
	stripecl "github.com/stripe/stripe-go/v74/client"
)

type APIConfig struct {
	CorsOrigin     string
	Log            logrus.FieldLogger
	DB             *sqlx.DB
	Session        *scs.SessionManager
	Carts          *cart.Registry
	CartLimiter    *rate.Limiter
	AdminTokenHash string
	Paypal         *paypal.Client
	Stripe         *stripecl.API
	StripeCfg      config.Stripe
}

type api struct {
	*mux.Router
	mw  []web.Middleware
	log logrus.FieldLogger
}

func APIMux(cfg APIConfig) http.Handler {
	a := &api{
		Router: mux.NewRouter(),
		log:    cfg.Log,
	}

	a.mw = append(a.mw, auth.LoadAndSave(cfg.Session))
	a.mw = append(a.mw, middleware.RequestID())
	a.mw = append(a.mw, middleware.Logger(cfg.Log))
	a.mw = append(a.mw, middleware.Errors(cfg.Log))
	a.mw = append(a.mw, middleware.Panics())

	if cfg.CorsOrigin != "" {
		a.mw = append(a.mw, middleware.Cors(cfg.CorsOrigin))

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNoContent)
			return nil
		}

		a.Handle(http.MethodOptions, "/{path:.*}", h)
	}

	shopper := auth.Shopper(cfg.Session)
	admin := auth.Admin(cfg.AdminTokenHash)
	limited := middleware.RateLimit(cfg.CartLimiter)

	catalog := product.Catalog{DB: cfg.DB}

	a.Handle(http.MethodGet, "/products", product.HandleList(cfg.DB))
	a.Handle(http.MethodGet, "/products/{id}", product.HandleShow(cfg.DB))
	a.Handle(http.MethodPost, "/products", product.HandleCreate(cfg.DB), admin)
	a.Handle(http.MethodPut, "/products/{id}", product.HandleUpdate(cfg.DB), admin)

	a.Handle(http.MethodGet, "/cart", cart.HandleShow(cfg.Carts), shopper)
	a.Handle(http.MethodDelete, "/cart", cart.HandleDelete(cfg.Carts), limited, shopper)
	a.Handle(http.MethodPut, "/cart/items", cart.HandleAddItem(cfg.Carts, catalog), limited, shopper)
	a.Handle(http.MethodPatch, "/cart/items/{product_id}", cart.HandleUpdateItem(cfg.Carts), limited, shopper)
	a.Handle(http.MethodDelete, "/cart/items/{product_id}", cart.HandleDeleteItem(cfg.Carts), limited, shopper)

	a.Handle(http.MethodPost, "/orders/paypal", order.HandlePaypalCheckout(cfg.DB, cfg.Carts, cfg.Paypal), shopper)
	a.Handle(http.MethodPost, "/orders/paypal/{id}/capture", order.HandlePaypalCapture(cfg.DB, cfg.Carts, cfg.Paypal), shopper)
	a.Handle(http.MethodPost, "/orders/stripe", order.HandleStripeCheckout(cfg.DB, cfg.Carts, cfg.Stripe, cfg.StripeCfg), shopper)
	a.Handle(http.MethodPost, "/orders/stripe/capture", order.HandleStripeCapture(cfg.DB, cfg.Carts, cfg.StripeCfg))
	a.Handle(http.MethodGet, "/orders", order.HandleList(cfg.DB), admin)
	a.Handle(http.MethodGet, "/orders/{id}", order.HandleShow(cfg.DB), admin)
	a.Handle(http.MethodPut, "/orders/{id}/status", order.HandleUpdateStatus(cfg.DB, cfg.Carts), admin)

	a.Handle(http.MethodPost, "/newsletter", newsletter.HandleSubscribe(cfg.DB))
	a.Handle(http.MethodGet, "/newsletter", newsletter.HandleList(cfg.DB), admin)

	return a.Router
}

func (a *api) Handle(method string, path string, handler web.Handler, mw ...web.Middleware) {
	handler = web.WrapMiddleware(mw, handler)
	handler = web.WrapMiddleware(a.mw, handler)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if err := handler(ctx, w, r); err != nil {
			a.log.WithFields(logrus.Fields{
				"req_id":  middleware.ContextRequestID(ctx),
				"message": err,
			}).Error("ERROR")
		}
	})

	a.Router.Handle(path, h).Methods(method)
}
