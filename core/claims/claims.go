package claims

import (
	"context"
	"errors"
)

const (
	RoleAdmin   = "ADMIN"
	RoleShopper = "SHOPPER"
)

// Claims identify the caller. Shoppers are anonymous: their identity is the
// cart stored in their session.
type Claims struct {
	CartID string
	Role   string
}

type ctxKey int

const claimsKey ctxKey = 1

func Set(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func Get(ctx context.Context) (Claims, error) {
	v, ok := ctx.Value(claimsKey).(Claims)
	if !ok {
		return Claims{}, errors.New("claim value missing from context")
	}
	return v, nil
}

func IsAdmin(ctx context.Context) bool {
	c, err := Get(ctx)
	if err != nil {
		return false
	}
	return c.Role == RoleAdmin
}

// Cart returns the caller's cart id, failing when the caller has no cart.
func Cart(ctx context.Context) (string, error) {
	c, err := Get(ctx)
	if err != nil {
		return "", err
	}
	if c.CartID == "" {
		return "", errors.New("no cart bound to the caller")
	}
	return c.CartID, nil
}
