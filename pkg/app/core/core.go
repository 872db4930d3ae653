// Package core ties the book, ledger, and matching subpackages together and
// re-exports their types for callers that want a single import.
package core

import (
	"github.com/SiphonMoney/matching-engine/pkg/app/core/book"
	"github.com/SiphonMoney/matching-engine/pkg/app/core/ledger"
	"github.com/SiphonMoney/matching-engine/pkg/app/core/match"
)

// From book package
type (
	Side      = book.Side
	Order     = book.Order
	OrderBook = book.OrderBook
	FlatBook  = book.FlatBook
	Word      = book.Word
)

const (
	Buy  = book.Buy
	Sell = book.Sell

	MaxOrders = book.MaxOrders
	FlatWords = book.FlatWords
)

func NewOrderBook() *OrderBook { return book.NewOrderBook() }

// InitBook returns the flat form of an empty book: all-zero words by
// construction, which is what freshly initialized external storage holds.
func InitBook() FlatBook { return book.Encode(book.NewOrderBook()) }

// From ledger package
type (
	Asset    = ledger.Asset
	Balances = ledger.Balances
)

const (
	Base  = ledger.Base
	Quote = ledger.Quote
)

// InitLedger returns all-zero balances.
func InitLedger() Balances { return Balances{} }

// From match package
type (
	Match       = match.Match
	MatchResult = match.Result
)

const MaxMatchesPerBatch = match.MaxPerBatch

func RunBatch(b *OrderBook) MatchResult { return match.RunBatch(b) }
