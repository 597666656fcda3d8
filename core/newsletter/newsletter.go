package newsletter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/irsalhamdi/storefront/database"
	"github.com/jmoiron/sqlx"
)

type Subscription struct {
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type SubscriptionNew struct {
	Email string `json:"email" validate:"required,email"`
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Subscribe records the address. Subscribing twice keeps the first date.
func Subscribe(ctx context.Context, db sqlx.ExtContext, sub Subscription) error {
	const q = `
	INSERT INTO newsletter_subscriptions (email, created_at)
	VALUES (:email, :created_at)
	ON CONFLICT (email) DO NOTHING`

	if err := database.NamedExecContext(ctx, db, q, sub); err != nil {
		return fmt.Errorf("inserting subscription: %w", err)
	}
	return nil
}

func List(ctx context.Context, db sqlx.ExtContext) ([]Subscription, error) {
	const q = `
	SELECT email, created_at
	FROM newsletter_subscriptions
	ORDER BY created_at DESC, email`

	subs := []Subscription{}
	if err := database.NamedQuerySlice(ctx, db, q, struct{}{}, &subs); err != nil {
		return nil, fmt.Errorf("selecting subscriptions: %w", err)
	}
	if subs == nil {
		subs = []Subscription{}
	}
	return subs, nil
}
