package cart

import "fmt"

// Store holds the lines of one cart. It is not safe for concurrent use; the
// Registry serializes access to it.
type Store struct {
	lines   []Line
	changed bool
	notify  func(Notice)
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) index(productID, size string) int {
	for i, l := range s.lines {
		if l.matches(productID, size) {
			return i
		}
	}
	return -1
}

func (s *Store) report(n Notice) Notice {
	if n.Reported() && s.notify != nil {
		s.notify(n)
	}
	return n
}

// AddItem puts qty units of p in the cart, never going over p.Stock.
func (s *Store) AddItem(p Product, qty int, size string) Notice {
	if p.Stock <= 0 {
		return s.report(Notice{
			Outcome:  OutOfStock,
			Title:    "Out of stock",
			Message:  fmt.Sprintf("%s is out of stock.", p.Name),
			Severity: Destructive,
		})
	}

	if qty <= 0 {
		return Notice{}
	}

	if i := s.index(p.ID, size); i >= 0 {
		l := &s.lines[i]
		l.AvailableStock = p.Stock
		s.changed = true

		original := l.Quantity
		desired := original + qty
		if desired > p.Stock {
			l.Quantity = p.Stock

			more := p.Stock - original
			if more <= 0 {
				return s.report(Notice{
					Outcome:  StockLimited,
					Title:    "Stock limit reached",
					Message:  fmt.Sprintf("You already have all %d available units of %s in your cart.", p.Stock, p.Name),
					Severity: Destructive,
				})
			}

			return s.report(Notice{
				Outcome:  StockLimited,
				Title:    "Stock limit reached",
				Message:  fmt.Sprintf("Only %d more of %s could be added (%d available).", more, p.Name, p.Stock),
				Severity: Destructive,
				Quantity: more,
			})
		}

		l.Quantity = desired
		return s.report(added(p.Name, qty))
	}

	l := Line{
		ProductID:      p.ID,
		Name:           p.Name,
		Size:           size,
		Quantity:       qty,
		UnitPrice:      p.Price,
		AvailableStock: p.Stock,
	}
	s.changed = true

	if qty > p.Stock {
		l.Quantity = p.Stock
		s.lines = append(s.lines, l)

		return s.report(Notice{
			Outcome:  StockLimited,
			Title:    "Stock limit reached",
			Message:  fmt.Sprintf("Only %d of %s available, added %d to your cart.", p.Stock, p.Name, p.Stock),
			Severity: Destructive,
			Quantity: p.Stock,
		})
	}

	s.lines = append(s.lines, l)
	return s.report(added(p.Name, qty))
}

func added(name string, qty int) Notice {
	return Notice{
		Outcome:  Added,
		Title:    "Added to cart",
		Message:  fmt.Sprintf("%d x %s added to your cart.", qty, name),
		Severity: Normal,
		Quantity: qty,
	}
}

func (s *Store) RemoveItem(productID, size string) Notice {
	i := s.index(productID, size)
	if i < 0 {
		return Notice{}
	}

	l := s.lines[i]
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	s.changed = true

	return s.report(Notice{
		Outcome:  Removed,
		Title:    "Item removed",
		Message:  fmt.Sprintf("%s was removed from your cart.", l.Name),
		Severity: Destructive,
		Quantity: l.Quantity,
	})
}

// UpdateQuantity sets the quantity of an existing line. It never creates or
// deletes a line: non positive quantities leave the line untouched.
func (s *Store) UpdateQuantity(productID string, qty int, size string) Notice {
	i := s.index(productID, size)
	if i < 0 {
		return Notice{}
	}
	l := &s.lines[i]

	if qty <= 0 {
		return s.report(Notice{
			Outcome:  InvalidQuantity,
			Title:    "Invalid quantity",
			Message:  "Quantity must be at least 1, remove the item instead.",
			Severity: Destructive,
			Quantity: l.Quantity,
		})
	}

	if qty > l.AvailableStock {
		if l.Quantity != l.AvailableStock {
			l.Quantity = l.AvailableStock
			s.changed = true
		}

		return s.report(Notice{
			Outcome:  StockLimited,
			Title:    "Stock limit reached",
			Message:  fmt.Sprintf("Only %d of %s available.", l.AvailableStock, l.Name),
			Severity: Destructive,
			Quantity: l.Quantity,
		})
	}

	if qty == l.Quantity {
		return Notice{}
	}

	l.Quantity = qty
	s.changed = true

	return s.report(Notice{
		Outcome:  QuantityChanged,
		Title:    "Cart updated",
		Message:  fmt.Sprintf("%s quantity set to %d.", l.Name, qty),
		Severity: Normal,
		Quantity: qty,
	})
}

func (s *Store) RemoveAll() Notice {
	if len(s.lines) > 0 {
		s.changed = true
	}
	s.lines = nil

	return s.report(Notice{
		Outcome:  Cleared,
		Title:    "Cart cleared",
		Message:  "All items were removed from your cart.",
		Severity: Destructive,
	})
}

func (s *Store) Subtotal() int {
	var tot int
	for _, l := range s.lines {
		tot += l.UnitPrice * l.Quantity
	}
	return tot
}

func (s *Store) TotalItemCount() int {
	var n int
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

// Lines returns a copy of the lines in insertion order.
func (s *Store) Lines() []Line {
	lines := make([]Line, len(s.lines))
	copy(lines, s.lines)
	return lines
}

func (s *Store) View() View {
	return View{
		Lines:     s.Lines(),
		Subtotal:  s.Subtotal(),
		ItemCount: s.TotalItemCount(),
	}
}

// takeChanged reports whether the lines changed since the last call.
func (s *Store) takeChanged() bool {
	c := s.changed
	s.changed = false
	return c
}
