// Package match implements the bounded crossing loop over an order book.
package match

import "github.com/SiphonMoney/matching-engine/pkg/app/core/book"

// MaxPerBatch caps fills per invocation. One match consumes at least one
// resting order per iteration, so with 4+4 book capacity the loop cannot run
// longer than this even without the explicit cap.
const MaxPerBatch = 4

// Match is one fill between the best bid and the best ask.
// MatchID is batch-local, starting at 0; the service layer assigns globally
// monotonic sequence numbers when recording fills.
type Match struct {
	MatchID        uint64 `json:"matchId"`
	BuyerOrderID   uint64 `json:"buyerOrderId"`
	SellerOrderID  uint64 `json:"sellerOrderId"`
	Quantity       uint64 `json:"quantity"`
	ExecutionPrice uint64 `json:"executionPrice"`
}

// Result is the fixed-size outcome of one batch. Slots at and beyond Count
// are zero-valued and must be ignored.
type Result struct {
	Matches [MaxPerBatch]Match
	Count   uint8
}

// Fills returns the live slice of matches.
func (r *Result) Fills() []Match {
	return r.Matches[:r.Count]
}

// RunBatch repeatedly crosses the best bid against the best ask, mutating b
// in place. Execution price is the truncating midpoint of the two limit
// prices; the fill quantity is the smaller residual. A partially filled
// order re-enters its heap with the reduced amount; a fully filled order is
// gone. The loop ends early as soon as either side empties or the top of
// book stops crossing.
func RunBatch(b *book.OrderBook) Result {
	var res Result
	for i := 0; i < MaxPerBatch; i++ {
		if !b.HasBuy() || !b.HasSell() {
			break
		}
		if b.PeekBuy().Price < b.PeekSell().Price {
			break
		}
		buyer := b.PopBuy()
		seller := b.PopSell()

		fill := buyer.Amount
		if seller.Amount < fill {
			fill = seller.Amount
		}
		res.Matches[i] = Match{
			MatchID:        uint64(i),
			BuyerOrderID:   buyer.OrderID,
			SellerOrderID:  seller.OrderID,
			Quantity:       fill,
			ExecutionPrice: (buyer.Price + seller.Price) / 2,
		}
		res.Count = uint8(i + 1)

		buyer.Amount -= fill
		seller.Amount -= fill
		if buyer.Amount > 0 {
			b.InsertBuy(buyer)
		}
		if seller.Amount > 0 {
			b.InsertSell(seller)
		}
	}
	return res
}
