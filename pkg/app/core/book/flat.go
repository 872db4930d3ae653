package book

// The flat representation packs the whole book into 18 wide (128-bit) words
// so that external storage only sees a fixed sequence of opaque chunks.
// Layout, in word order:
//
//	 0..7   bid slots 0..3, two words per slot:
//	          word A = order_id (low 64) | amount    (high 64)
//	          word B = price    (low 64) | timestamp (high 64)
//	 8..15  ask slots 0..3, same two-word shape
//	 16     tag word:    Lo = Σ tag[i]·256^i, 4 bid tags then 4 ask tags
//	 17     counts word: Lo = bid_count + ask_count·256
//
// This layout is a contract boundary; callers hold stored state packed this
// way and any change breaks interop.

// FlatWords is the number of 128-bit words in a packed book.
const FlatWords = 18

const (
	tagWordIndex    = 16
	countsWordIndex = 17
	wordsPerSlot    = 2
	askWordOffset   = MaxOrders * wordsPerSlot
)

// Word is one 128-bit chunk of the flat representation.
type Word struct {
	Lo uint64
	Hi uint64
}

// FlatBook is the packed, encode-only form of an OrderBook.
type FlatBook [FlatWords]Word

// Encode packs b into its flat form. Slots at and beyond each side's count
// are written as zero words, so the output is canonical regardless of any
// garbage a non-canonical heap array might carry.
func Encode(b *OrderBook) FlatBook {
	var f FlatBook
	encodeSide(&f, &b.Bids, 0, 0)
	encodeSide(&f, &b.Asks, askWordOffset, MaxOrders)
	f[countsWordIndex].Lo = uint64(b.Bids.count) | uint64(b.Asks.count)<<8
	return f
}

func encodeSide(f *FlatBook, h *FixedHeap, wordOff, tagOff int) {
	for i := 0; i < h.Len(); i++ {
		o := h.orders[i]
		f[wordOff+wordsPerSlot*i] = Word{Lo: o.OrderID, Hi: o.Amount}
		f[wordOff+wordsPerSlot*i+1] = Word{Lo: o.Price, Hi: o.Timestamp}
		f[tagWordIndex].Lo |= uint64(o.Side) << (8 * (tagOff + i))
	}
}

// Decode unpacks f back into an OrderBook. Counts are restored from the
// counts word and clamped to capacity; slots beyond each count are ignored,
// so stale trailing words in a stored image cannot resurrect dead orders.
// Array order is preserved, which keeps each side a valid heap.
func Decode(f FlatBook) *OrderBook {
	b := NewOrderBook()
	bidCount := clampCount(f[countsWordIndex].Lo & 0xff)
	askCount := clampCount(f[countsWordIndex].Lo >> 8 & 0xff)
	decodeSide(&b.Bids, &f, 0, 0, bidCount)
	decodeSide(&b.Asks, &f, askWordOffset, MaxOrders, askCount)
	return b
}

func decodeSide(h *FixedHeap, f *FlatBook, wordOff, tagOff int, count uint8) {
	h.count = count
	for i := 0; i < int(count); i++ {
		idAmount := f[wordOff+wordsPerSlot*i]
		priceTime := f[wordOff+wordsPerSlot*i+1]
		h.orders[i] = Order{
			OrderID:   idAmount.Lo,
			Amount:    idAmount.Hi,
			Price:     priceTime.Lo,
			Timestamp: priceTime.Hi,
			Side:      Side(f[tagWordIndex].Lo >> (8 * (tagOff + i)) & 0xff),
		}
	}
}

func clampCount(v uint64) uint8 {
	if v > MaxOrders {
		return MaxOrders
	}
	return uint8(v)
}
