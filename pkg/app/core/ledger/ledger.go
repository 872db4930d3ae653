// Package ledger holds the per-user balance arithmetic for the base/quote
// asset pair. Everything is unsigned fixed-point integer math; expected
// failures (insufficient funds) are boolean results, never errors.
package ledger

import (
	"fmt"
	"math/bits"

	"github.com/SiphonMoney/matching-engine/pkg/app/core/book"
)

// Asset is the wire-level asset tag: 0 = base, 1 = quote.
type Asset uint8

const (
	Base  Asset = 0
	Quote Asset = 1
)

func (a Asset) String() string {
	switch a {
	case Base:
		return "base"
	case Quote:
		return "quote"
	default:
		return "unknown"
	}
}

// Balances tracks total and available funds per asset. The difference
// total minus available is the amount locked in resting orders; there is no
// separate locked field. Invariant: available ≤ total for each asset.
// Field order is the serialized layout and must not change.
type Balances struct {
	BaseTotal      uint64 `json:"baseTotal"`
	BaseAvailable  uint64 `json:"baseAvailable"`
	QuoteTotal     uint64 `json:"quoteTotal"`
	QuoteAvailable uint64 `json:"quoteAvailable"`
}

// Required returns the funds an order must lock: a buy locks
// amount·price of quote, a sell locks amount of base. ok is false when the
// notional product overflows 64 bits, which callers treat as unaffordable.
func Required(side book.Side, amount, price uint64) (required uint64, ok bool) {
	if side == book.Buy {
		hi, lo := bits.Mul64(amount, price)
		return lo, hi == 0
	}
	return amount, true
}

// Available returns the spendable balance for the asset an order of the
// given side must pay with.
func (b *Balances) Available(side book.Side) uint64 {
	if side == book.Buy {
		return b.QuoteAvailable
	}
	return b.BaseAvailable
}

// Lock reserves required funds for a resting order: quote for buys, base for
// sells. It returns false without mutating anything when available funds are
// short. Only available moves; total is untouched by locking.
func (b *Balances) Lock(side book.Side, required uint64) bool {
	if side == book.Buy {
		if b.QuoteAvailable < required {
			return false
		}
		b.QuoteAvailable -= required
		return true
	}
	if b.BaseAvailable < required {
		return false
	}
	b.BaseAvailable -= required
	return true
}

// Unlock releases previously locked funds, e.g. the price-improvement
// residue refunded at settlement. It clamps at total so a stray unlock can
// never push available above total.
func (b *Balances) Unlock(side book.Side, amount uint64) {
	if side == book.Buy {
		b.QuoteAvailable += amount
		if b.QuoteAvailable > b.QuoteTotal {
			b.QuoteAvailable = b.QuoteTotal
		}
		return
	}
	b.BaseAvailable += amount
	if b.BaseAvailable > b.BaseTotal {
		b.BaseAvailable = b.BaseTotal
	}
}

// Deposit credits the asset; both total and available grow. No failure mode.
func (b *Balances) Deposit(asset Asset, amount uint64) {
	if asset == Base {
		b.BaseTotal += amount
		b.BaseAvailable += amount
		return
	}
	b.QuoteTotal += amount
	b.QuoteAvailable += amount
}

// WithdrawVerify debits the asset if available funds cover it; both total
// and available shrink. Returns false without mutating anything otherwise.
func (b *Balances) WithdrawVerify(asset Asset, amount uint64) bool {
	if asset == Base {
		if b.BaseAvailable < amount {
			return false
		}
		b.BaseTotal -= amount
		b.BaseAvailable -= amount
		return true
	}
	if b.QuoteAvailable < amount {
		return false
	}
	b.QuoteTotal -= amount
	b.QuoteAvailable -= amount
	return true
}

// Settle moves amount of asset from payer to payee for a validated fill.
// The payer's available was already debited when the order locked funds, so
// only the payer's total moves here; the payee gains both total and
// available. No conservation check is performed; callers invoke this with
// matched, validated fills only.
func Settle(payer, payee *Balances, asset Asset, amount uint64) {
	if asset == Base {
		payer.BaseTotal -= amount
		payee.BaseTotal += amount
		payee.BaseAvailable += amount
		return
	}
	payer.QuoteTotal -= amount
	payee.QuoteTotal += amount
	payee.QuoteAvailable += amount
}

// Validate checks the available ≤ total invariant for both assets.
func (b *Balances) Validate() error {
	if b.BaseAvailable > b.BaseTotal {
		return fmt.Errorf("base available (%d) exceeds total (%d)", b.BaseAvailable, b.BaseTotal)
	}
	if b.QuoteAvailable > b.QuoteTotal {
		return fmt.Errorf("quote available (%d) exceeds total (%d)", b.QuoteAvailable, b.QuoteTotal)
	}
	return nil
}
