// Package cart keeps a visitor's shopping cart: stocked product/size lines
// with quantities clamped to the stock seen when the line was added.
package cart

// Line is one (product, size) entry of a cart.
type Line struct {
	ProductID      string `json:"productId"`
	Name           string `json:"name"`
	Size           string `json:"size,omitempty"`
	Quantity       int    `json:"quantity"`
	UnitPrice      int    `json:"unitPrice"`
	AvailableStock int    `json:"availableStock"`
}

// Product is the catalog information a line is built from.
type Product struct {
	ID    string
	Name  string
	Price int
	Stock int
}

func (l Line) matches(productID, size string) bool {
	return l.ProductID == productID && l.Size == size
}

func (l Line) valid() bool {
	return l.ProductID != "" && l.Quantity >= 1 && l.Quantity <= l.AvailableStock && l.UnitPrice >= 0
}

type ItemNew struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size"`
}

type ItemUp struct {
	Quantity int `json:"quantity"`
}

type View struct {
	Lines     []Line `json:"lines"`
	Subtotal  int    `json:"subtotal"`
	ItemCount int    `json:"itemCount"`
}
