package book

// Side is the wire-level order side tag: 0 = buy, 1 = sell.
// The numeric values are part of the packed book layout and must not change.
type Side uint8

const (
	Buy  Side = 0
	Sell Side = 1
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "unknown"
	}
}

// Order is a resting limit order. All fields are fixed-width integers;
// Amount is the only field mutated after insertion (reduced on partial fill).
// An order with Amount == 0 is never persisted in the book.
type Order struct {
	OrderID   uint64
	Amount    uint64
	Price     uint64
	Side      Side
	Timestamp uint64
}

// IsZero reports whether o is the empty order used for vacant slots.
func (o Order) IsZero() bool {
	return o == Order{}
}
