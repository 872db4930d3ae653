package book

// MaxOrders is the hard capacity bound per book side. The packed book layout
// reserves exactly this many slots per side, so it is a wire constant.
const MaxOrders = 4

// FixedHeap is an array-backed binary heap holding at most MaxOrders orders.
// The bid heap keeps the highest price on top, the ask heap the lowest;
// equal prices break ties toward the earlier timestamp (price-time priority).
// Live entries occupy the packed prefix [0, count); slots at and beyond
// count are always the zero Order.
type FixedHeap struct {
	orders [MaxOrders]Order
	count  uint8
	side   Side
}

// NewBidHeap returns an empty max-heap ordered for bids.
func NewBidHeap() FixedHeap { return FixedHeap{side: Buy} }

// NewAskHeap returns an empty min-heap ordered for asks.
func NewAskHeap() FixedHeap { return FixedHeap{side: Sell} }

// Len returns the number of live orders.
func (h *FixedHeap) Len() int { return int(h.count) }

// At returns the order at heap-array index i. Callers must keep i < Len();
// the codec relies on this to walk the packed prefix in array order.
func (h *FixedHeap) At(i int) Order { return h.orders[i] }

// before reports whether orders[i] has strictly higher priority than orders[j].
func (h *FixedHeap) before(i, j int) bool {
	a, b := h.orders[i], h.orders[j]
	if a.Price != b.Price {
		if h.side == Buy {
			return a.Price > b.Price
		}
		return a.Price < b.Price
	}
	return a.Timestamp < b.Timestamp
}

// Insert places o into the heap. It returns false without mutating anything
// when the heap is full. The sift-up loop is bounded by the heap depth, which
// is at most two levels for MaxOrders = 4.
func (h *FixedHeap) Insert(o Order) bool {
	if h.count >= MaxOrders {
		return false
	}
	i := int(h.count)
	h.orders[i] = o
	h.count++
	for i > 0 {
		parent := (i - 1) / 2
		if !h.before(i, parent) {
			break
		}
		h.orders[i], h.orders[parent] = h.orders[parent], h.orders[i]
		i = parent
	}
	return true
}

// Pop removes and returns the root. Callers must check Len() > 0 first;
// popping an empty heap is a programming error, not a business outcome.
// The vacated slot is cleared so the array stays a canonical packed prefix.
func (h *FixedHeap) Pop() Order {
	if h.count == 0 {
		panic("book: pop from empty heap")
	}
	root := h.orders[0]
	h.count--
	h.orders[0] = h.orders[h.count]
	h.orders[h.count] = Order{}
	h.siftDown(0)
	return root
}

// Peek returns the root without removing it. Callers must check Len() > 0.
func (h *FixedHeap) Peek() Order {
	if h.count == 0 {
		panic("book: peek on empty heap")
	}
	return h.orders[0]
}

func (h *FixedHeap) siftDown(i int) {
	n := int(h.count)
	for {
		left, right := 2*i+1, 2*i+2
		best := i
		if left < n && h.before(left, best) {
			best = left
		}
		if right < n && h.before(right, best) {
			best = right
		}
		if best == i {
			return
		}
		h.orders[i], h.orders[best] = h.orders[best], h.orders[i]
		i = best
	}
}

// equal compares live prefixes element-wise (array order, not heap order).
func (h *FixedHeap) equal(other *FixedHeap) bool {
	if h.count != other.count || h.side != other.side {
		return false
	}
	for i := 0; i < int(h.count); i++ {
		if h.orders[i] != other.orders[i] {
			return false
		}
	}
	return true
}
