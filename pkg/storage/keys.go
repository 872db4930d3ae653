package storage

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Key schema for Pebble storage:
//
//	book                 → packed order book (288 bytes)
//	led:<address>        → user balances (32 bytes)
//	ord:<order_id>       → order record (JSON)
//	fill:<seq>           → settled/recorded fill (JSON)
//	seq:orders, seq:matches → uint64 counters (8 bytes, big-endian)
const (
	prefixLedger = "led:"
	prefixOrder  = "ord:"
	prefixFill   = "fill:"
)

func bookKey() []byte { return []byte("book") }

// ledgerKey returns the key for a user's balances.
// Format: "led:{address}"
func ledgerKey(addr common.Address) []byte {
	return []byte(prefixLedger + addr.Hex())
}

// orderKey returns the key for an order record. The ID is zero-padded so
// records sort numerically under a prefix scan.
// Format: "ord:{order_id}"
func orderKey(orderID uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", prefixOrder, orderID))
}

// fillKey returns the key for a recorded fill.
// Format: "fill:{global_seq}"
func fillKey(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", prefixFill, seq))
}

func orderSeqKey() []byte { return []byte("seq:orders") }
func matchSeqKey() []byte { return []byte("seq:matches") }

// keyUpperBound returns the exclusive upper bound for a prefix scan.
func keyUpperBound(prefix []byte) []byte {
	bound := make([]byte, len(prefix))
	copy(bound, prefix)
	bound[len(bound)-1]++
	return bound
}
