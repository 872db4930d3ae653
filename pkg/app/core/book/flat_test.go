package book

import "testing"

func TestEncodePackingFormulas(t *testing.T) {
	b := NewOrderBook()
	if !b.InsertBuy(Order{OrderID: 7, Amount: 3, Price: 100, Side: Buy, Timestamp: 9}) {
		t.Fatal("insert buy failed")
	}
	if !b.InsertSell(Order{OrderID: 8, Amount: 2, Price: 90, Side: Sell, Timestamp: 11}) {
		t.Fatal("insert sell failed")
	}

	f := Encode(b)

	// Bid slot 0: order_id | amount·2^64, then price | timestamp·2^64.
	if f[0] != (Word{Lo: 7, Hi: 3}) {
		t.Errorf("bid id/amount word = %+v, want {7 3}", f[0])
	}
	if f[1] != (Word{Lo: 100, Hi: 9}) {
		t.Errorf("bid price/timestamp word = %+v, want {100 9}", f[1])
	}

	// Ask slot 0 starts at word 8.
	if f[8] != (Word{Lo: 8, Hi: 2}) {
		t.Errorf("ask id/amount word = %+v, want {8 2}", f[8])
	}
	if f[9] != (Word{Lo: 90, Hi: 11}) {
		t.Errorf("ask price/timestamp word = %+v, want {90 11}", f[9])
	}

	// Tag word: Σ tag[i]·256^i, bid tags in bytes 0-3, ask tags in bytes 4-7.
	if want := uint64(1) << 32; f[16].Lo != want || f[16].Hi != 0 {
		t.Errorf("tag word = %+v, want {%d 0}", f[16], want)
	}

	// Counts word: bid_count + ask_count·256.
	if want := uint64(1) | 1<<8; f[17].Lo != want || f[17].Hi != 0 {
		t.Errorf("counts word = %+v, want {%d 0}", f[17], want)
	}

	// Unused slots are zero words.
	for _, i := range []int{2, 3, 4, 5, 6, 7, 10, 11, 12, 13, 14, 15} {
		if f[i] != (Word{}) {
			t.Errorf("word %d = %+v, want zero", i, f[i])
		}
	}
}

func TestEmptyBookEncodesToZero(t *testing.T) {
	f := Encode(NewOrderBook())
	if f != (FlatBook{}) {
		t.Errorf("empty book encoding is not all-zero: %+v", f)
	}
}

func TestDecodeRestoresCounts(t *testing.T) {
	b := NewOrderBook()
	b.InsertBuy(Order{OrderID: 1, Amount: 1, Price: 10, Side: Buy, Timestamp: 1})
	b.InsertBuy(Order{OrderID: 2, Amount: 1, Price: 20, Side: Buy, Timestamp: 2})
	b.InsertSell(Order{OrderID: 3, Amount: 1, Price: 30, Side: Sell, Timestamp: 3})

	got := Decode(Encode(b))
	if got.Bids.Len() != 2 || got.Asks.Len() != 1 {
		t.Fatalf("decoded counts = %d/%d, want 2/1", got.Bids.Len(), got.Asks.Len())
	}
}

func TestDecodeIgnoresStaleTrailingSlots(t *testing.T) {
	b := NewOrderBook()
	b.InsertBuy(Order{OrderID: 1, Amount: 1, Price: 10, Side: Buy, Timestamp: 1})
	f := Encode(b)

	// A stored image may carry garbage beyond the live prefix; it must not
	// resurrect dead orders.
	f[2] = Word{Lo: 999, Hi: 999}
	f[3] = Word{Lo: 888, Hi: 888}

	got := Decode(f)
	if got.Bids.Len() != 1 {
		t.Fatalf("bid count = %d, want 1", got.Bids.Len())
	}
	if got.Bids.At(0).OrderID != 1 {
		t.Errorf("live order = %+v, want order 1", got.Bids.At(0))
	}
	if !got.Bids.orders[1].IsZero() {
		t.Errorf("stale slot leaked into decoded book: %+v", got.Bids.orders[1])
	}
}

func TestDecodeClampsOversizedCounts(t *testing.T) {
	var f FlatBook
	f[17].Lo = 200 | 200<<8
	got := Decode(f)
	if got.Bids.Len() != MaxOrders || got.Asks.Len() != MaxOrders {
		t.Errorf("counts = %d/%d, want clamped to %d", got.Bids.Len(), got.Asks.Len(), MaxOrders)
	}
}

func TestRoundTrip(t *testing.T) {
	mk := func(fill func(b *OrderBook)) *OrderBook {
		b := NewOrderBook()
		fill(b)
		return b
	}

	books := map[string]*OrderBook{
		"empty": NewOrderBook(),
		"one bid": mk(func(b *OrderBook) {
			b.InsertBuy(Order{OrderID: 1, Amount: 5, Price: 100, Side: Buy, Timestamp: 42})
		}),
		"full both sides": mk(func(b *OrderBook) {
			for i := uint64(0); i < MaxOrders; i++ {
				b.InsertBuy(Order{OrderID: i + 1, Amount: i + 1, Price: 100 - i, Side: Buy, Timestamp: i})
				b.InsertSell(Order{OrderID: i + 10, Amount: i + 1, Price: 200 + i, Side: Sell, Timestamp: i})
			}
		}),
		"after pops": mk(func(b *OrderBook) {
			for i := uint64(0); i < MaxOrders; i++ {
				b.InsertBuy(Order{OrderID: i + 1, Amount: 1, Price: 10 * (i + 1), Side: Buy, Timestamp: i})
			}
			b.PopBuy()
			b.PopBuy()
		}),
		"extreme values": mk(func(b *OrderBook) {
			b.InsertSell(Order{OrderID: ^uint64(0), Amount: ^uint64(0), Price: ^uint64(0), Side: Sell, Timestamp: ^uint64(0)})
		}),
	}

	for name, b := range books {
		got := Decode(Encode(b))
		if !got.Equal(b) {
			t.Errorf("%s: decode(encode(b)) != b", name)
		}
	}
}
