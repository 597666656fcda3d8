package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/irsalhamdi/storefront/api/web"
	"github.com/irsalhamdi/storefront/api/weberr"
	"github.com/irsalhamdi/storefront/rate"
)

// RateLimit rejects clients, identified by remote host, that go over lim.
func RateLimit(lim *rate.Limiter) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			client, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				client = r.RemoteAddr
			}

			if !lim.Check(client) {
				return weberr.TooManyRequests(errors.New("too many requests from " + client))
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
