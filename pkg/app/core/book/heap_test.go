package book

import "testing"

func TestBidHeapPriceTimePriority(t *testing.T) {
	h := NewBidHeap()

	orders := []Order{
		{OrderID: 1, Amount: 5, Price: 50, Side: Buy, Timestamp: 10},
		{OrderID: 2, Amount: 5, Price: 100, Side: Buy, Timestamp: 20},
		{OrderID: 3, Amount: 5, Price: 100, Side: Buy, Timestamp: 5},
		{OrderID: 4, Amount: 5, Price: 75, Side: Buy, Timestamp: 1},
	}
	for _, o := range orders {
		if !h.Insert(o) {
			t.Fatalf("insert of order %d failed", o.OrderID)
		}
	}

	// Highest price wins; equal prices break toward the earlier timestamp.
	want := []uint64{3, 2, 4, 1}
	for i, id := range want {
		if h.Len() == 0 {
			t.Fatalf("heap empty after %d pops, want %d orders", i, len(want))
		}
		got := h.Pop()
		if got.OrderID != id {
			t.Errorf("pop %d: got order %d, want %d", i, got.OrderID, id)
		}
	}
}

func TestAskHeapPriceTimePriority(t *testing.T) {
	h := NewAskHeap()

	for _, o := range []Order{
		{OrderID: 1, Price: 90, Side: Sell, Timestamp: 7},
		{OrderID: 2, Price: 80, Side: Sell, Timestamp: 9},
		{OrderID: 3, Price: 80, Side: Sell, Timestamp: 3},
		{OrderID: 4, Price: 120, Side: Sell, Timestamp: 1},
	} {
		if !h.Insert(o) {
			t.Fatalf("insert of order %d failed", o.OrderID)
		}
	}

	want := []uint64{3, 2, 1, 4}
	for i, id := range want {
		got := h.Pop()
		if got.OrderID != id {
			t.Errorf("pop %d: got order %d, want %d", i, got.OrderID, id)
		}
	}
}

func TestHeapCapacityBound(t *testing.T) {
	h := NewBidHeap()
	for i := uint64(0); i < MaxOrders; i++ {
		if !h.Insert(Order{OrderID: i + 1, Price: 10 * (i + 1), Side: Buy, Timestamp: i}) {
			t.Fatalf("insert %d failed below capacity", i+1)
		}
	}

	var before [MaxOrders]Order
	for i := 0; i < MaxOrders; i++ {
		before[i] = h.At(i)
	}

	if h.Insert(Order{OrderID: 99, Price: 999, Side: Buy, Timestamp: 0}) {
		t.Fatal("insert into full heap succeeded")
	}
	if h.Len() != MaxOrders {
		t.Errorf("count changed on failed insert: %d", h.Len())
	}
	for i := 0; i < MaxOrders; i++ {
		if h.At(i) != before[i] {
			t.Errorf("slot %d changed on failed insert", i)
		}
	}
}

func TestHeapPopClearsVacatedSlot(t *testing.T) {
	h := NewAskHeap()
	h.Insert(Order{OrderID: 1, Price: 10, Side: Sell})
	h.Insert(Order{OrderID: 2, Price: 20, Side: Sell})

	h.Pop()
	if h.Len() != 1 {
		t.Fatalf("len = %d, want 1", h.Len())
	}
	if !h.orders[1].IsZero() {
		t.Errorf("vacated slot not cleared: %+v", h.orders[1])
	}
}

func TestHeapInterleavedInsertPop(t *testing.T) {
	h := NewBidHeap()
	h.Insert(Order{OrderID: 1, Price: 10, Side: Buy, Timestamp: 1})
	h.Insert(Order{OrderID: 2, Price: 30, Side: Buy, Timestamp: 2})

	if got := h.Pop(); got.OrderID != 2 {
		t.Fatalf("got order %d, want 2", got.OrderID)
	}

	h.Insert(Order{OrderID: 3, Price: 20, Side: Buy, Timestamp: 3})
	h.Insert(Order{OrderID: 4, Price: 40, Side: Buy, Timestamp: 4})

	want := []uint64{4, 3, 1}
	for i, id := range want {
		if got := h.Pop(); got.OrderID != id {
			t.Errorf("pop %d: got order %d, want %d", i, got.OrderID, id)
		}
	}
	if h.Len() != 0 {
		t.Errorf("len = %d after draining, want 0", h.Len())
	}
}

func TestHeapPanicsOnEmptyPop(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("pop from empty heap did not panic")
		}
	}()
	h := NewBidHeap()
	h.Pop()
}
