package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/SiphonMoney/matching-engine/pkg/app/core"
	"github.com/SiphonMoney/matching-engine/pkg/app/core/book"
	"github.com/SiphonMoney/matching-engine/pkg/app/core/ledger"
)

// Store is the durable account container the matching core computes against:
// one packed order book, per-user ledgers, order ownership records, and
// recorded fills. Callers serialize writers; the store itself does no
// locking beyond what Pebble provides.
type Store struct {
	db *pebble.DB
}

func NewStore(path string) (*Store, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// OrderRecord tracks who owns a resting order and how far it has filled.
// The book itself only carries order IDs; settlement resolves counterparties
// through these records.
type OrderRecord struct {
	OrderID      uint64         `json:"orderId"`
	Owner        common.Address `json:"owner"`
	Side         book.Side      `json:"side"`
	Amount       uint64         `json:"amount"`
	Price        uint64         `json:"price"`
	Timestamp    uint64         `json:"timestamp"`
	Status       core.Status    `json:"status"`
	FilledAmount uint64         `json:"filledAmount"`
}

// FillRecord is a globally sequenced fill produced by a matching batch.
type FillRecord struct {
	Seq            uint64 `json:"seq"`
	BatchMatchID   uint64 `json:"batchMatchId"`
	BuyerOrderID   uint64 `json:"buyerOrderId"`
	SellerOrderID  uint64 `json:"sellerOrderId"`
	Quantity       uint64 `json:"quantity"`
	ExecutionPrice uint64 `json:"executionPrice"`
	Settled        bool   `json:"settled"`
	Timestamp      int64  `json:"timestamp"`
}

// SaveBook persists the packed order book.
func (s *Store) SaveBook(f book.FlatBook) error {
	if err := s.db.Set(bookKey(), MarshalFlatBook(f), pebble.Sync); err != nil {
		return fmt.Errorf("failed to save book: %w", err)
	}
	return nil
}

// LoadBook returns the packed book, or ok=false if none was initialized.
func (s *Store) LoadBook() (book.FlatBook, bool, error) {
	data, closer, err := s.db.Get(bookKey())
	if err == pebble.ErrNotFound {
		return book.FlatBook{}, false, nil
	}
	if err != nil {
		return book.FlatBook{}, false, fmt.Errorf("failed to get book: %w", err)
	}
	defer closer.Close()

	f, err := UnmarshalFlatBook(data)
	if err != nil {
		return book.FlatBook{}, false, err
	}
	return f, true, nil
}

// BookHash returns the Keccak-256 hash of the stored book image, for
// integrity checks against externally held copies. Zero hash if no book.
func (s *Store) BookHash() (common.Hash, error) {
	data, closer, err := s.db.Get(bookKey())
	if err == pebble.ErrNotFound {
		return common.Hash{}, nil
	}
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get book: %w", err)
	}
	defer closer.Close()
	return crypto.Keccak256Hash(data), nil
}

// SaveLedger persists a user's balances.
func (s *Store) SaveLedger(addr common.Address, b ledger.Balances) error {
	if err := s.db.Set(ledgerKey(addr), MarshalBalances(b), pebble.Sync); err != nil {
		return fmt.Errorf("failed to save ledger: %w", err)
	}
	return nil
}

// LoadLedger returns a user's balances, or ok=false if never initialized.
func (s *Store) LoadLedger(addr common.Address) (ledger.Balances, bool, error) {
	data, closer, err := s.db.Get(ledgerKey(addr))
	if err == pebble.ErrNotFound {
		return ledger.Balances{}, false, nil
	}
	if err != nil {
		return ledger.Balances{}, false, fmt.Errorf("failed to get ledger: %w", err)
	}
	defer closer.Close()

	b, err := UnmarshalBalances(data)
	if err != nil {
		return ledger.Balances{}, false, err
	}
	return b, true, nil
}

// SaveOrder persists an order record.
func (s *Store) SaveOrder(rec *OrderRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal order: %w", err)
	}
	if err := s.db.Set(orderKey(rec.OrderID), data, pebble.Sync); err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}
	return nil
}

// LoadOrder returns an order record, or nil if unknown.
func (s *Store) LoadOrder(orderID uint64) (*OrderRecord, error) {
	data, closer, err := s.db.Get(orderKey(orderID))
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	defer closer.Close()

	var rec OrderRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order: %w", err)
	}
	return &rec, nil
}

// SaveFill persists a fill record. Fills are append-only history, so NoSync
// durability is acceptable here.
func (s *Store) SaveFill(rec *FillRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal fill: %w", err)
	}
	if err := s.db.Set(fillKey(rec.Seq), data, pebble.NoSync); err != nil {
		return fmt.Errorf("failed to save fill: %w", err)
	}
	return nil
}

// LoadFill returns a fill record by sequence number, or nil if unknown.
func (s *Store) LoadFill(seq uint64) (*FillRecord, error) {
	data, closer, err := s.db.Get(fillKey(seq))
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fill: %w", err)
	}
	defer closer.Close()

	var rec FillRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal fill: %w", err)
	}
	return &rec, nil
}

// LoadRecentFills returns the most recent fills, newest first.
func (s *Store) LoadRecentFills(limit int) ([]*FillRecord, error) {
	prefix := []byte(prefixFill)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var fills []*FillRecord
	for iter.Last(); iter.Valid() && len(fills) < limit; iter.Prev() {
		var rec FillRecord
		if err := json.Unmarshal(iter.Value(), &rec); err != nil {
			continue
		}
		fills = append(fills, &rec)
	}
	return fills, nil
}

// NextMatchSeq increments and returns the global match sequence counter.
func (s *Store) NextMatchSeq() (uint64, error) {
	return s.nextSeq(matchSeqKey())
}

// NextOrderSeq increments and returns the order ID counter.
func (s *Store) NextOrderSeq() (uint64, error) {
	return s.nextSeq(orderSeqKey())
}

func (s *Store) nextSeq(key []byte) (uint64, error) {
	var n uint64
	data, closer, err := s.db.Get(key)
	switch {
	case err == pebble.ErrNotFound:
		n = 0
	case err != nil:
		return 0, fmt.Errorf("failed to get counter: %w", err)
	default:
		n = binary.BigEndian.Uint64(data)
		closer.Close()
	}
	n++
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], n)
	if err := s.db.Set(key, buf[:], pebble.Sync); err != nil {
		return 0, fmt.Errorf("failed to save counter: %w", err)
	}
	return n, nil
}
