package storage

import (
	"encoding/binary"
	"fmt"

	"github.com/SiphonMoney/matching-engine/pkg/app/core/book"
	"github.com/SiphonMoney/matching-engine/pkg/app/core/ledger"
)

// Byte-level serialization for the two fixed-layout records held in the
// store. Both are little-endian and bit-exact: the flat book is 18 words of
// Lo-then-Hi uint64 pairs, balances are the four declared fields in order.

const (
	// FlatBookSize is the serialized size of a packed book: 18 × 16 bytes.
	FlatBookSize = book.FlatWords * 16
	// BalancesSize is the serialized size of a balances record: 4 × 8 bytes.
	BalancesSize = 4 * 8
)

// MarshalFlatBook serializes f word by word, Lo before Hi.
func MarshalFlatBook(f book.FlatBook) []byte {
	buf := make([]byte, FlatBookSize)
	for i, w := range f {
		binary.LittleEndian.PutUint64(buf[16*i:], w.Lo)
		binary.LittleEndian.PutUint64(buf[16*i+8:], w.Hi)
	}
	return buf
}

// UnmarshalFlatBook is the inverse of MarshalFlatBook.
func UnmarshalFlatBook(data []byte) (book.FlatBook, error) {
	var f book.FlatBook
	if len(data) != FlatBookSize {
		return f, fmt.Errorf("flat book: got %d bytes, want %d", len(data), FlatBookSize)
	}
	for i := range f {
		f[i].Lo = binary.LittleEndian.Uint64(data[16*i:])
		f[i].Hi = binary.LittleEndian.Uint64(data[16*i+8:])
	}
	return f, nil
}

// MarshalBalances serializes b in declared field order.
func MarshalBalances(b ledger.Balances) []byte {
	buf := make([]byte, BalancesSize)
	binary.LittleEndian.PutUint64(buf[0:], b.BaseTotal)
	binary.LittleEndian.PutUint64(buf[8:], b.BaseAvailable)
	binary.LittleEndian.PutUint64(buf[16:], b.QuoteTotal)
	binary.LittleEndian.PutUint64(buf[24:], b.QuoteAvailable)
	return buf
}

// UnmarshalBalances is the inverse of MarshalBalances.
func UnmarshalBalances(data []byte) (ledger.Balances, error) {
	var b ledger.Balances
	if len(data) != BalancesSize {
		return b, fmt.Errorf("balances: got %d bytes, want %d", len(data), BalancesSize)
	}
	b.BaseTotal = binary.LittleEndian.Uint64(data[0:])
	b.BaseAvailable = binary.LittleEndian.Uint64(data[8:])
	b.QuoteTotal = binary.LittleEndian.Uint64(data[16:])
	b.QuoteAvailable = binary.LittleEndian.Uint64(data[24:])
	return b, nil
}
