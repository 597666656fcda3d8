package order

import "time"

type Status string

const (
	Pending Status = "pending"
	Success Status = "success"
	Expired Status = "expired"
)

// Order amounts are in cents.
type Order struct {
	ID         string    `json:"id" db:"order_id"`
	Reference  string    `json:"reference" db:"reference"`
	CartID     string    `json:"-" db:"cart_id"`
	ProviderID string    `json:"providerId" db:"provider_id"`
	Status     Status    `json:"status" db:"status"`
	Total      int       `json:"total" db:"total"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
	Items      []Item    `json:"items,omitempty" db:"-"`
}

type StatusUp struct {
	ID        string    `db:"order_id"`
	From      Status    `db:"from_status"`
	Status    Status    `db:"status"`
	UpdatedAt time.Time `db:"updated_at"`
}

type StatusNew struct {
	Status Status `json:"status" validate:"required,oneof=success expired"`
}

type Item struct {
	OrderID   string    `json:"orderId" db:"order_id"`
	ProductID string    `json:"productId" db:"product_id"`
	Size      string    `json:"size,omitempty" db:"size"`
	Name      string    `json:"name" db:"name"`
	Quantity  int       `json:"quantity" db:"quantity"`
	Price     int       `json:"price" db:"price"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Checkout is returned to the shopper when a payment is started.
type Checkout struct {
	Order Order  `json:"order"`
	URL   string `json:"url,omitempty"`
}
