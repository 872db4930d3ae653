package core

import (
	"github.com/SiphonMoney/matching-engine/pkg/app/core/book"
	"github.com/SiphonMoney/matching-engine/pkg/app/core/ledger"
)

// Status is the externally visible lifecycle state of an order. The numeric
// values are the wire-level status codes and must not change.
type Status uint8

const (
	StatusPending             Status = 0
	StatusProcessing          Status = 1
	StatusRejected            Status = 2
	StatusFilled              Status = 3
	StatusCancelled           Status = 4
	StatusInsufficientBalance Status = 5
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusProcessing:
		return "processing"
	case StatusRejected:
		return "rejected"
	case StatusFilled:
		return "filled"
	case StatusCancelled:
		return "cancelled"
	case StatusInsufficientBalance:
		return "insufficient_balance"
	default:
		return "unknown"
	}
}

// SubmitRequest carries one order submission into the core.
type SubmitRequest struct {
	OrderID   uint64
	Amount    uint64
	Price     uint64
	Side      book.Side
	Timestamp uint64
}

// OrderTicket is the status record returned to the submitter. FilledAmount
// and ExecutionPrice stay zero at submission and are filled in by the
// settlement path.
type OrderTicket struct {
	Side           book.Side `json:"side"`
	Amount         uint64    `json:"amount"`
	Price          uint64    `json:"price"`
	Status         Status    `json:"status"`
	LockedAmount   uint64    `json:"lockedAmount"`
	FilledAmount   uint64    `json:"filledAmount"`
	ExecutionPrice uint64    `json:"executionPrice"`
}

// SubmitOrder validates funds, locks them, and rests the order in the book.
// On any failure neither the book nor the balances are mutated:
//
//	insufficient funds → StatusInsufficientBalance, nothing locked
//	book side full     → StatusRejected, nothing locked
//	accepted           → StatusProcessing, required notional locked
//
// Funds are locked only after the insert succeeds, so a rejected order can
// never leave balances encumbered.
func SubmitOrder(bk *book.OrderBook, bal *ledger.Balances, req SubmitRequest) (OrderTicket, bool) {
	ticket := OrderTicket{
		Side:   req.Side,
		Amount: req.Amount,
		Price:  req.Price,
	}

	required, ok := ledger.Required(req.Side, req.Amount, req.Price)
	if req.Amount == 0 {
		// Zero-amount orders are never persisted.
		ticket.Status = StatusRejected
		return ticket, false
	}
	if !ok || bal.Available(req.Side) < required {
		ticket.Status = StatusInsufficientBalance
		return ticket, false
	}

	inserted := bk.Insert(book.Order{
		OrderID:   req.OrderID,
		Amount:    req.Amount,
		Price:     req.Price,
		Side:      req.Side,
		Timestamp: req.Timestamp,
	})
	if !inserted {
		ticket.Status = StatusRejected
		return ticket, false
	}

	bal.Lock(req.Side, required)
	ticket.Status = StatusProcessing
	ticket.LockedAmount = required
	return ticket, true
}
