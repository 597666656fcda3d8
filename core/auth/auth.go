package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/goredisstore"
	"github.com/alexedwards/scs/v2"
	"github.com/irsalhamdi/storefront/api/web"
	"github.com/irsalhamdi/storefront/api/weberr"
	"github.com/irsalhamdi/storefront/core/claims"
	"github.com/irsalhamdi/storefront/validate"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const cartKey = "cart_id"

// NewSessions returns a session manager keeping sessions in redis, next to
// the cart snapshots, so a shopper's cookie still leads to their cart after
// a restart.
func NewSessions(rdb *redis.Client, lifetime time.Duration, cookieName string) *scs.SessionManager {
	sm := scs.New()
	sm.Store = goredisstore.New(rdb)
	sm.Lifetime = lifetime
	sm.Cookie.Name = cookieName
	sm.Cookie.SameSite = http.SameSiteLaxMode
	return sm
}

// LoadAndSave loads the visitor's session before the handler runs and
// commits it, with its cookie, once the handler is done.
func LoadAndSave(sm *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			var herr error
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				herr = handler(r.Context(), w, r)
			})

			sm.LoadAndSave(next).ServeHTTP(w, r.WithContext(ctx))
			return herr
		}
		return h
	}
	return m
}

// Shopper binds a cart to the session, creating one on the first visit, and
// sets the shopper claims.
func Shopper(sm *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			id := sm.GetString(ctx, cartKey)
			if validate.CheckID(id) != nil {
				id = validate.GenerateID()
				sm.Put(ctx, cartKey, id)
			}

			ctx = claims.Set(ctx, claims.Claims{CartID: id, Role: claims.RoleShopper})
			return handler(ctx, w, r.WithContext(ctx))
		}
		return h
	}
	return m
}

// Admin accepts requests whose bearer token matches the bcrypt hash. An empty
// hash locks every admin route.
func Admin(tokenHash string) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			token, ok := bearer(r)
			if !ok {
				return weberr.NotAuthorized(errors.New("missing bearer token"))
			}

			if tokenHash == "" {
				return weberr.Forbidden(errors.New("admin access is not configured"))
			}

			if err := bcrypt.CompareHashAndPassword([]byte(tokenHash), []byte(token)); err != nil {
				return weberr.Forbidden(errors.New("admin token mismatch"))
			}

			ctx = claims.Set(ctx, claims.Claims{Role: claims.RoleAdmin})
			return handler(ctx, w, r.WithContext(ctx))
		}
		return h
	}
	return m
}

func bearer(r *http.Request) (string, bool) {
	const prefix = "Bearer "

	h := r.Header.Get("Authorization")
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	return h[len(prefix):], true
}

// HashToken is used to produce the configured admin token hash.
func HashToken(token string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
