package api

// Request and response types for the REST endpoints and WebSocket messages.

// SubmitOrderRequest submits one limit order. Side is the wire tag:
// 0 = buy, 1 = sell.
type SubmitOrderRequest struct {
	Owner  string `json:"owner"`  // 0x-prefixed address
	Amount uint64 `json:"amount"` // base units
	Price  uint64 `json:"price"`  // quote units per base unit
	Side   uint8  `json:"side"`
}

// SubmitOrderResponse returns the assigned ID and the submitter's ticket.
type SubmitOrderResponse struct {
	OrderID        uint64 `json:"orderId"`
	Success        bool   `json:"success"`
	Status         uint8  `json:"status"` // 1=processing, 2=rejected, 5=insufficient balance
	StatusText     string `json:"statusText"`
	LockedAmount   uint64 `json:"lockedAmount"`
	FilledAmount   uint64 `json:"filledAmount"`
	ExecutionPrice uint64 `json:"executionPrice"`
}

// LedgerRequest covers deposits and withdrawals. Asset: 0 = base, 1 = quote.
type LedgerRequest struct {
	Owner  string `json:"owner"`
	Amount uint64 `json:"amount"`
	Asset  uint8  `json:"asset"`
}

// LedgerResponse returns the updated balances.
type LedgerResponse struct {
	Owner          string `json:"owner"`
	Success        bool   `json:"success"`
	BaseTotal      uint64 `json:"baseTotal"`
	BaseAvailable  uint64 `json:"baseAvailable"`
	QuoteTotal     uint64 `json:"quoteTotal"`
	QuoteAvailable uint64 `json:"quoteAvailable"`
}

// OrderInfo is one live book slot.
type OrderInfo struct {
	OrderID   uint64 `json:"orderId"`
	Amount    uint64 `json:"amount"`
	Price     uint64 `json:"price"`
	Side      string `json:"side"`
	Timestamp uint64 `json:"timestamp"`
}

// BookSnapshot is the current book state. Hash is the Keccak-256 of the
// stored packed image.
type BookSnapshot struct {
	Bids []OrderInfo `json:"bids"`
	Asks []OrderInfo `json:"asks"`
	Hash string      `json:"hash"`
}

// FillInfo is the public view of one fill.
type FillInfo struct {
	Seq            uint64 `json:"seq"`
	BuyerOrderID   uint64 `json:"buyerOrderId"`
	SellerOrderID  uint64 `json:"sellerOrderId"`
	Quantity       uint64 `json:"quantity"`
	ExecutionPrice uint64 `json:"executionPrice"`
	Settled        bool   `json:"settled"`
	Timestamp      int64  `json:"timestamp"`
}

// BatchResponse reports one matching invocation.
type BatchResponse struct {
	MatchCount uint8      `json:"matchCount"`
	Fills      []FillInfo `json:"fills"`
}

// SettleRequest settles one recorded fill by its global sequence number.
type SettleRequest struct {
	Seq uint64 `json:"seq"`
}

// ErrorResponse carries a request-level failure.
type ErrorResponse struct {
	Error string `json:"error"`
}
