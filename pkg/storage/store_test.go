package storage

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/SiphonMoney/matching-engine/pkg/app/core"
	"github.com/SiphonMoney/matching-engine/pkg/app/core/book"
	"github.com/SiphonMoney/matching-engine/pkg/app/core/ledger"
)

func newTestStore(t *testing.T) *Store {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var (
	alice = common.HexToAddress("0xAA00000000000000000000000000000000000000")
	bob   = common.HexToAddress("0xBB00000000000000000000000000000000000000")
)

func TestFlatBookSerializedLayout(t *testing.T) {
	var f book.FlatBook
	f[0] = book.Word{Lo: 7, Hi: 3}
	f[17] = book.Word{Lo: 0x0101}

	data := MarshalFlatBook(f)
	if len(data) != FlatBookSize {
		t.Fatalf("serialized size = %d, want %d", len(data), FlatBookSize)
	}
	if got := binary.LittleEndian.Uint64(data[0:]); got != 7 {
		t.Errorf("word 0 Lo = %d, want 7", got)
	}
	if got := binary.LittleEndian.Uint64(data[8:]); got != 3 {
		t.Errorf("word 0 Hi = %d, want 3", got)
	}
	if got := binary.LittleEndian.Uint64(data[17*16:]); got != 0x0101 {
		t.Errorf("counts word Lo = %#x, want 0x0101", got)
	}

	back, err := UnmarshalFlatBook(data)
	if err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if back != f {
		t.Error("flat book round trip mismatch")
	}

	if _, err := UnmarshalFlatBook(data[:10]); err == nil {
		t.Error("truncated image accepted")
	}
}

func TestBalancesSerializedLayout(t *testing.T) {
	b := ledger.Balances{BaseTotal: 1, BaseAvailable: 2, QuoteTotal: 3, QuoteAvailable: 4}
	data := MarshalBalances(b)

	want := make([]byte, BalancesSize)
	for i, v := range []uint64{1, 2, 3, 4} {
		binary.LittleEndian.PutUint64(want[8*i:], v)
	}
	if !bytes.Equal(data, want) {
		t.Errorf("serialized balances = %x, want %x", data, want)
	}

	back, err := UnmarshalBalances(data)
	if err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if back != b {
		t.Errorf("round trip = %+v, want %+v", back, b)
	}
}

func TestBookPersistence(t *testing.T) {
	s := newTestStore(t)

	if _, ok, err := s.LoadBook(); err != nil || ok {
		t.Fatalf("fresh store: ok=%v err=%v, want absent", ok, err)
	}

	b := book.NewOrderBook()
	b.InsertBuy(book.Order{OrderID: 1, Amount: 5, Price: 100, Side: book.Buy, Timestamp: 1})
	if err := s.SaveBook(book.Encode(b)); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	f, ok, err := s.LoadBook()
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if got := book.Decode(f); !got.Equal(b) {
		t.Error("loaded book differs from saved book")
	}

	hash, err := s.BookHash()
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if hash == (common.Hash{}) {
		t.Error("stored book hashed to zero")
	}
}

func TestLedgerPersistence(t *testing.T) {
	s := newTestStore(t)

	if _, ok, err := s.LoadLedger(alice); err != nil || ok {
		t.Fatalf("fresh ledger: ok=%v err=%v, want absent", ok, err)
	}

	b := ledger.Balances{BaseTotal: 10, BaseAvailable: 8, QuoteTotal: 100, QuoteAvailable: 90}
	if err := s.SaveLedger(alice, b); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, ok, err := s.LoadLedger(alice)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if got != b {
		t.Errorf("loaded = %+v, want %+v", got, b)
	}

	// Other users remain untouched.
	if _, ok, _ := s.LoadLedger(bob); ok {
		t.Error("unrelated ledger exists")
	}
}

func TestOrderAndFillRecords(t *testing.T) {
	s := newTestStore(t)

	if rec, err := s.LoadOrder(1); err != nil || rec != nil {
		t.Fatalf("unknown order: rec=%v err=%v, want nil/nil", rec, err)
	}

	ord := &OrderRecord{
		OrderID: 1, Owner: alice, Side: book.Buy,
		Amount: 5, Price: 100, Timestamp: 42, Status: core.StatusProcessing,
	}
	if err := s.SaveOrder(ord); err != nil {
		t.Fatalf("save order failed: %v", err)
	}
	got, err := s.LoadOrder(1)
	if err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if *got != *ord {
		t.Errorf("loaded = %+v, want %+v", got, ord)
	}

	for seq := uint64(1); seq <= 3; seq++ {
		if err := s.SaveFill(&FillRecord{Seq: seq, Quantity: seq * 10}); err != nil {
			t.Fatalf("save fill %d failed: %v", seq, err)
		}
	}
	fills, err := s.LoadRecentFills(2)
	if err != nil {
		t.Fatalf("load fills failed: %v", err)
	}
	if len(fills) != 2 || fills[0].Seq != 3 || fills[1].Seq != 2 {
		t.Errorf("recent fills = %+v, want seqs 3,2", fills)
	}

	fill, err := s.LoadFill(2)
	if err != nil || fill == nil || fill.Quantity != 20 {
		t.Errorf("fill 2 = %+v err=%v, want quantity 20", fill, err)
	}
}

func TestSequenceCounters(t *testing.T) {
	s := newTestStore(t)

	for want := uint64(1); want <= 3; want++ {
		got, err := s.NextOrderSeq()
		if err != nil {
			t.Fatalf("order seq failed: %v", err)
		}
		if got != want {
			t.Errorf("order seq = %d, want %d", got, want)
		}
	}

	// Match counter is independent of the order counter.
	got, err := s.NextMatchSeq()
	if err != nil {
		t.Fatalf("match seq failed: %v", err)
	}
	if got != 1 {
		t.Errorf("match seq = %d, want 1", got)
	}
}
