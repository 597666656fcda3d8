package cart

import "github.com/sirupsen/logrus"

type Outcome string

const (
	Added           Outcome = "added"
	StockLimited    Outcome = "stock_limited"
	OutOfStock      Outcome = "out_of_stock"
	Removed         Outcome = "removed"
	QuantityChanged Outcome = "quantity_changed"
	InvalidQuantity Outcome = "invalid_quantity"
	Cleared         Outcome = "cleared"
)

type Severity string

const (
	Normal      Severity = "normal"
	Destructive Severity = "destructive"
)

// Notice is the human readable outcome of a cart operation. The zero Notice
// means the operation had nothing to report.
type Notice struct {
	Outcome  Outcome  `json:"outcome"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	Quantity int      `json:"quantity"`
}

func (n Notice) Reported() bool {
	return n.Outcome != ""
}

type Notifier interface {
	Notify(cartID string, n Notice)
}

type NotifierFunc func(cartID string, n Notice)

func (f NotifierFunc) Notify(cartID string, n Notice) { f(cartID, n) }

// LogNotifier writes every notice to the log, destructive ones as warnings.
type LogNotifier struct {
	Log logrus.FieldLogger
}

func (l LogNotifier) Notify(cartID string, n Notice) {
	entry := l.Log.WithFields(logrus.Fields{
		"cart_id":  cartID,
		"outcome":  n.Outcome,
		"quantity": n.Quantity,
	})

	if n.Severity == Destructive {
		entry.Warn(n.Message)
		return
	}
	entry.Info(n.Message)
}
