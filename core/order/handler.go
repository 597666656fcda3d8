package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/irsalhamdi/storefront/api/web"
	"github.com/irsalhamdi/storefront/api/weberr"
	"github.com/irsalhamdi/storefront/config"
	"github.com/irsalhamdi/storefront/core/cart"
	"github.com/irsalhamdi/storefront/core/claims"
	"github.com/irsalhamdi/storefront/core/product"
	"github.com/irsalhamdi/storefront/database"
	"github.com/irsalhamdi/storefront/validate"
	"github.com/jmoiron/sqlx"
	"github.com/plutov/paypal/v4"
	"github.com/stripe/stripe-go/v74"
	stripecl "github.com/stripe/stripe-go/v74/client"
	"github.com/stripe/stripe-go/v74/webhook"
)

// checkout returns the lines of the caller's cart.
func checkout(ctx context.Context, reg *cart.Registry) (string, []cart.Line, error) {
	cartID, err := claims.Cart(ctx)
	if err != nil {
		return "", nil, weberr.NotAuthorized(err)
	}

	v, err := reg.View(ctx, cartID)
	if err != nil {
		if errors.Is(err, cart.ErrUnavailable) {
			return "", nil, weberr.Unavailable(err)
		}
		return "", nil, err
	}

	lines := v.Lines
	if len(lines) == 0 {
		return "", nil, weberr.NewError(ErrEmptyCart, ErrEmptyCart.Error(), http.StatusUnprocessableEntity)
	}
	return cartID, lines, nil
}

func prepareError(err error) error {
	if errors.Is(err, product.ErrInsufficientStock) {
		return weberr.Conflict(err, "some items are no longer available in the requested quantity")
	}
	return fmt.Errorf("creating the order on the database: %w", err)
}

func HandlePaypalCheckout(db *sqlx.DB, reg *cart.Registry, pp *paypal.Client) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		cartID, lines, err := checkout(ctx, reg)
		if err != nil {
			return err
		}

		items := make([]paypal.Item, 0, len(lines))
		for _, l := range lines {
			items = append(items, paypal.Item{
				Quantity: strconv.Itoa(l.Quantity),
				Name:     l.Name,
				SKU:      l.ProductID,

				UnitAmount: &paypal.Money{
					Currency: currency,
					Value:    formatAmount(l.UnitPrice),
				},
			})
		}

		tot := formatAmount(total(lines))
		units := []paypal.PurchaseUnitRequest{{
			Items: items,

			Amount: &paypal.PurchaseUnitAmount{
				Currency: currency,
				Value:    tot,

				Breakdown: &paypal.PurchaseUnitAmountBreakdown{ItemTotal: &paypal.Money{
					Currency: currency,
					Value:    tot,
				}},
			},
		}}

		pord, err := pp.CreateOrder(ctx, "CAPTURE", units, nil, &paypal.ApplicationContext{})
		if err != nil {
			return fmt.Errorf("creating paypal order: %w", err)
		}

		ord, err := prepare(ctx, db, cartID, pord.ID, lines)
		if err != nil {
			return prepareError(err)
		}

		var approve string
		for _, l := range pord.Links {
			if l.Rel == "approve" {
				approve = l.Href
			}
		}

		return web.Respond(ctx, w, Checkout{Order: ord, URL: approve}, http.StatusOK)
	}
}

func HandlePaypalCapture(db *sqlx.DB, reg *cart.Registry, pp *paypal.Client) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		providerID := web.Param(r, "id")

		resp, err := pp.CaptureOrder(ctx, providerID, paypal.CaptureOrderRequest{})
		if err != nil {
			return fmt.Errorf("capturing paypal order[%s]: %w", providerID, err)
		}

		if resp.Status != "COMPLETED" {
			return fmt.Errorf("captured order[%s] with status[%s] different from 'COMPLETED'", providerID, resp.Status)
		}

		if err := fulfill(ctx, db, reg, providerID); err != nil {
			return weberr.Wrap(
				fmt.Errorf("the order was payed but its fulfillment failed: %w", err),
				weberr.WithFields(map[string]any{"provider_id": providerID}),
			)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func HandleStripeCheckout(db *sqlx.DB, reg *cart.Registry, strp *stripecl.API, cfg config.Stripe) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		cartID, lines, err := checkout(ctx, reg)
		if err != nil {
			return err
		}

		li := make([]*stripe.CheckoutSessionLineItemParams, 0, len(lines))
		for _, l := range lines {
			name := l.Name
			if l.Size != "" {
				name += " (" + l.Size + ")"
			}

			li = append(li, &stripe.CheckoutSessionLineItemParams{
				Quantity: stripe.Int64(int64(l.Quantity)),

				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:    stripe.String("usd"),
					TaxBehavior: stripe.String("inclusive"),
					UnitAmount:  stripe.Int64(int64(l.UnitPrice)),

					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(name),
					},
				},
			})
		}

		params := &stripe.CheckoutSessionParams{
			SuccessURL: stripe.String(cfg.SuccessURL),
			CancelURL:  stripe.String(cfg.CancelURL),
			Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
			LineItems:  li,
		}
		params.Context = ctx

		s, err := strp.CheckoutSessions.New(params)
		if err != nil {
			return fmt.Errorf("creating stripe session: %w", err)
		}

		ord, err := prepare(ctx, db, cartID, s.ID, lines)
		if err != nil {
			return prepareError(err)
		}

		return web.Respond(ctx, w, Checkout{Order: ord, URL: s.URL}, http.StatusOK)
	}
}

func HandleStripeCapture(db *sqlx.DB, reg *cart.Registry, cfg config.Stripe) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("cannot read the request body: %w", err))
		}

		sig := r.Header.Get("Stripe-Signature")
		if sig == "" {
			return weberr.BadRequest(errors.New("received stripe event is not signed"))
		}

		event, err := webhook.ConstructEvent(b, sig, cfg.WebhookSecret)
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("cannot construct stripe event: %w", err))
		}

		if event.Type != "checkout.session.completed" {
			return web.Respond(ctx, w, nil, http.StatusNoContent)
		}

		var session stripe.CheckoutSession
		if err = json.Unmarshal(event.Data.Raw, &session); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode stripe event: %w", err))
		}

		if session.Mode != stripe.CheckoutSessionModePayment {
			return web.Respond(ctx, w, nil, http.StatusNoContent)
		}

		if err := fulfill(ctx, db, reg, session.ID); err != nil {
			return weberr.Wrap(
				fmt.Errorf("the order was payed but its fulfillment failed: %w", err),
				weberr.WithFields(map[string]any{"provider_id": session.ID}),
			)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		page, rows := 1, 50
		if v := web.Query(r, "page"); v != "" {
			p, err := strconv.Atoi(v)
			if err != nil || p < 1 {
				return weberr.BadRequest(fmt.Errorf("invalid page %q", v))
			}
			page = p
		}

		orders, err := List(ctx, db, page, rows)
		if err != nil {
			return fmt.Errorf("listing orders: %w", err)
		}

		return web.Respond(ctx, w, orders, http.StatusOK)
	}
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		ord, err := Fetch(ctx, db, id)
		if err != nil {
			if database.IsNotFound(err) {
				return weberr.NotFound(err)
			}
			return err
		}

		if ord.Items, err = FetchItems(ctx, db, id); err != nil {
			return err
		}

		return web.Respond(ctx, w, ord, http.StatusOK)
	}
}

// HandleUpdateStatus lets administrators settle a pending order by hand:
// success for payments made outside the providers, expired to release stock.
func HandleUpdateStatus(db *sqlx.DB, reg *cart.Registry) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		var sn StatusNew
		if err := web.Decode(w, r, &sn); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(sn); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusBadRequest)
		}

		ord, err := Fetch(ctx, db, id)
		if err != nil {
			if database.IsNotFound(err) {
				return weberr.NotFound(err)
			}
			return err
		}

		switch sn.Status {
		case Success:
			err = fulfill(ctx, db, reg, ord.ProviderID)
		case Expired:
			err = expire(ctx, db, ord.ID)
		}

		if err != nil {
			if errors.Is(err, ErrStatusTransition) {
				return weberr.Conflict(err, fmt.Sprintf("order is %s, only pending orders can change status", ord.Status))
			}
			return err
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
