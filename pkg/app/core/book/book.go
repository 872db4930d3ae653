package book

// OrderBook holds the two resting-order heaps. It performs no funds checks;
// callers lock balances before inserting. The book assumes exclusive access
// for the duration of one operation; serialization across operations is the
// caller's responsibility.
type OrderBook struct {
	Bids FixedHeap
	Asks FixedHeap
}

// NewOrderBook returns an empty book.
func NewOrderBook() *OrderBook {
	return &OrderBook{
		Bids: NewBidHeap(),
		Asks: NewAskHeap(),
	}
}

func (b *OrderBook) InsertBuy(o Order) bool  { return b.Bids.Insert(o) }
func (b *OrderBook) InsertSell(o Order) bool { return b.Asks.Insert(o) }

func (b *OrderBook) HasBuy() bool  { return b.Bids.Len() > 0 }
func (b *OrderBook) HasSell() bool { return b.Asks.Len() > 0 }

// PeekBuy returns the best (highest-price, earliest) bid. Requires HasBuy().
func (b *OrderBook) PeekBuy() Order { return b.Bids.Peek() }

// PeekSell returns the best (lowest-price, earliest) ask. Requires HasSell().
func (b *OrderBook) PeekSell() Order { return b.Asks.Peek() }

func (b *OrderBook) PopBuy() Order  { return b.Bids.Pop() }
func (b *OrderBook) PopSell() Order { return b.Asks.Pop() }

// Insert routes o to the side named by o.Side.
func (b *OrderBook) Insert(o Order) bool {
	if o.Side == Buy {
		return b.InsertBuy(o)
	}
	return b.InsertSell(o)
}

// Equal compares counts and live slots of both sides in array order.
// Slots beyond each count are canonical zeros and do not participate.
func (b *OrderBook) Equal(other *OrderBook) bool {
	return b.Bids.equal(&other.Bids) && b.Asks.equal(&other.Asks)
}
