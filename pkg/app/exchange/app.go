// Package exchange wires the matching core to its collaborators: the pebble
// store that owns book and ledger state, the fill publisher, and the clock.
// Every operation takes the app mutex, which supplies the single-writer
// serialization the core requires; the core itself performs no concurrency
// control.
package exchange

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/SiphonMoney/matching-engine/pkg/app/core"
	"github.com/SiphonMoney/matching-engine/pkg/app/core/book"
	"github.com/SiphonMoney/matching-engine/pkg/app/core/ledger"
	"github.com/SiphonMoney/matching-engine/pkg/app/core/match"
	"github.com/SiphonMoney/matching-engine/pkg/storage"
	"github.com/SiphonMoney/matching-engine/pkg/util"
)

// FillPublisher receives fills after they have been recorded durably.
type FillPublisher interface {
	PublishFills(ctx context.Context, fills []*storage.FillRecord) error
}

// Options configures optional collaborators.
type Options struct {
	// AutoSettle makes RunBatch settle its own fills. When false, fills are
	// recorded unsettled and an external settlement caller drives SettleFill.
	AutoSettle bool
	Publisher  FillPublisher
	Clock      util.Clock
}

// App is the operation surface over one order book and its user ledgers.
type App struct {
	mu    sync.Mutex
	store *storage.Store
	log   *zap.SugaredLogger

	autoSettle bool
	publisher  FillPublisher
	clock      util.Clock
}

func NewApp(store *storage.Store, logger *zap.SugaredLogger, opts Options) *App {
	clock := opts.Clock
	if clock == nil {
		clock = util.RealClock{}
	}
	return &App{
		store:      store,
		log:        logger,
		autoSettle: opts.AutoSettle,
		publisher:  opts.Publisher,
		clock:      clock,
	}
}

// InitBook writes an empty packed book if none exists yet.
func (a *App) InitBook() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	_, ok, err := a.store.LoadBook()
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	return a.store.SaveBook(core.InitBook())
}

// loadBook decodes the stored book; a missing record decodes as empty.
func (a *App) loadBook() (*book.OrderBook, error) {
	f, ok, err := a.store.LoadBook()
	if err != nil {
		return nil, err
	}
	if !ok {
		return book.NewOrderBook(), nil
	}
	return book.Decode(f), nil
}

// Ledger returns a user's balances; unknown users have zero balances.
func (a *App) Ledger(addr common.Address) (ledger.Balances, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	bal, _, err := a.store.LoadLedger(addr)
	return bal, err
}

// Deposit credits a user's ledger and returns the updated balances.
func (a *App) Deposit(addr common.Address, asset ledger.Asset, amount uint64) (ledger.Balances, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	bal, _, err := a.store.LoadLedger(addr)
	if err != nil {
		return bal, err
	}
	bal.Deposit(asset, amount)
	if err := a.store.SaveLedger(addr, bal); err != nil {
		return bal, err
	}
	a.log.Infow("deposit", "user", addr.Hex(), "asset", asset.String(), "amount", amount)
	return bal, nil
}

// WithdrawVerify debits a user's ledger if available funds cover the amount.
// success=false is a business outcome, not an error; balances are unchanged.
func (a *App) WithdrawVerify(addr common.Address, asset ledger.Asset, amount uint64) (ledger.Balances, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	bal, _, err := a.store.LoadLedger(addr)
	if err != nil {
		return bal, false, err
	}
	if !bal.WithdrawVerify(asset, amount) {
		return bal, false, nil
	}
	if err := a.store.SaveLedger(addr, bal); err != nil {
		return bal, false, err
	}
	a.log.Infow("withdraw", "user", addr.Hex(), "asset", asset.String(), "amount", amount)
	return bal, true, nil
}

// SubmitParams is an order submission before an ID and timestamp are
// assigned.
type SubmitParams struct {
	Amount uint64
	Price  uint64
	Side   book.Side
}

// SubmitOrder assigns an order ID and timestamp, runs the core submission
// (funds check, lock, book insert), and persists the resulting state. On a
// rejected or unfunded order nothing durable changes and success is false.
func (a *App) SubmitOrder(owner common.Address, p SubmitParams) (core.OrderTicket, uint64, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	orderID, err := a.store.NextOrderSeq()
	if err != nil {
		return core.OrderTicket{}, 0, false, err
	}
	req := core.SubmitRequest{
		OrderID:   orderID,
		Amount:    p.Amount,
		Price:     p.Price,
		Side:      p.Side,
		Timestamp: uint64(a.clock.Now().UnixMilli()),
	}

	bal, _, err := a.store.LoadLedger(owner)
	if err != nil {
		return core.OrderTicket{}, orderID, false, err
	}
	bk, err := a.loadBook()
	if err != nil {
		return core.OrderTicket{}, orderID, false, err
	}

	ticket, success := core.SubmitOrder(bk, &bal, req)
	if !success {
		a.log.Infow("order_refused",
			"order_id", orderID, "user", owner.Hex(), "status", ticket.Status.String())
		return ticket, orderID, false, nil
	}

	if err := a.store.SaveBook(book.Encode(bk)); err != nil {
		return ticket, orderID, false, err
	}
	if err := a.store.SaveLedger(owner, bal); err != nil {
		return ticket, orderID, false, err
	}
	if err := a.store.SaveOrder(&storage.OrderRecord{
		OrderID:   orderID,
		Owner:     owner,
		Side:      req.Side,
		Amount:    req.Amount,
		Price:     req.Price,
		Timestamp: req.Timestamp,
		Status:    ticket.Status,
	}); err != nil {
		return ticket, orderID, false, err
	}

	a.log.Infow("order_accepted",
		"order_id", orderID, "user", owner.Hex(), "side", req.Side.String(),
		"amount", req.Amount, "price", req.Price, "locked", ticket.LockedAmount)
	return ticket, orderID, true, nil
}

// RunBatch decodes the book, runs the bounded matching loop, re-encodes, and
// records each fill under a globally monotonic sequence number. With
// AutoSettle the fills are settled inline; otherwise they wait for an
// external SettleFill call.
func (a *App) RunBatch(ctx context.Context) (match.Result, []*storage.FillRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	bk, err := a.loadBook()
	if err != nil {
		return match.Result{}, nil, err
	}
	res := match.RunBatch(bk)
	if err := a.store.SaveBook(book.Encode(bk)); err != nil {
		return res, nil, err
	}

	fills := make([]*storage.FillRecord, 0, res.Count)
	for _, m := range res.Fills() {
		seq, err := a.store.NextMatchSeq()
		if err != nil {
			return res, fills, err
		}
		rec := &storage.FillRecord{
			Seq:            seq,
			BatchMatchID:   m.MatchID,
			BuyerOrderID:   m.BuyerOrderID,
			SellerOrderID:  m.SellerOrderID,
			Quantity:       m.Quantity,
			ExecutionPrice: m.ExecutionPrice,
			Timestamp:      a.clock.Now().UnixMilli(),
		}
		if err := a.recordFillProgress(rec); err != nil {
			return res, fills, err
		}
		if a.autoSettle {
			if err := a.settleFill(rec); err != nil {
				return res, fills, err
			}
		}
		if err := a.store.SaveFill(rec); err != nil {
			return res, fills, err
		}
		fills = append(fills, rec)
	}

	if a.publisher != nil && len(fills) > 0 {
		if err := a.publisher.PublishFills(ctx, fills); err != nil {
			// Fills are already durable in the store; publish failure is non-fatal.
			a.log.Warnw("fill_publish_failed", "err", err)
		}
	}

	a.log.Infow("batch_complete", "matches", res.Count)
	return res, fills, nil
}

// recordFillProgress advances both counterparties' order records.
func (a *App) recordFillProgress(rec *storage.FillRecord) error {
	for _, orderID := range [2]uint64{rec.BuyerOrderID, rec.SellerOrderID} {
		or, err := a.store.LoadOrder(orderID)
		if err != nil {
			return err
		}
		if or == nil {
			return fmt.Errorf("fill references unknown order %d", orderID)
		}
		or.FilledAmount += rec.Quantity
		if or.FilledAmount >= or.Amount {
			or.Status = core.StatusFilled
		}
		if err := a.store.SaveOrder(or); err != nil {
			return err
		}
	}
	return nil
}

// SettleFill settles a previously recorded fill by sequence number.
func (a *App) SettleFill(seq uint64) (*storage.FillRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rec, err := a.store.LoadFill(seq)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("unknown fill %d", seq)
	}
	if rec.Settled {
		return rec, nil
	}
	if err := a.settleFill(rec); err != nil {
		return nil, err
	}
	if err := a.store.SaveFill(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// settleFill moves funds between the fill's counterparties: quantity of base
// from seller to buyer, quantity×price of quote from buyer to seller, plus a
// refund of the buyer's price-improvement residue (the buyer locked notional
// at its own limit price, but pays the midpoint execution price).
func (a *App) settleFill(rec *storage.FillRecord) error {
	buyerOrd, err := a.store.LoadOrder(rec.BuyerOrderID)
	if err != nil {
		return err
	}
	sellerOrd, err := a.store.LoadOrder(rec.SellerOrderID)
	if err != nil {
		return err
	}
	if buyerOrd == nil || sellerOrd == nil {
		return fmt.Errorf("fill %d references unknown orders", rec.Seq)
	}

	buyerBal, _, err := a.store.LoadLedger(buyerOrd.Owner)
	if err != nil {
		return err
	}
	sellerBal, _, err := a.store.LoadLedger(sellerOrd.Owner)
	if err != nil {
		return err
	}
	buyer, seller := &buyerBal, &sellerBal
	if buyerOrd.Owner == sellerOrd.Owner {
		// Self-trade: both legs apply to the same balances record.
		seller = buyer
	}

	quoteAmount, ok := ledger.Required(book.Buy, rec.Quantity, rec.ExecutionPrice)
	if !ok {
		return fmt.Errorf("fill %d: quote notional overflows", rec.Seq)
	}
	ledger.Settle(buyer, seller, ledger.Quote, quoteAmount)
	ledger.Settle(seller, buyer, ledger.Base, rec.Quantity)

	if buyerOrd.Price > rec.ExecutionPrice {
		refund, ok := ledger.Required(book.Buy, rec.Quantity, buyerOrd.Price-rec.ExecutionPrice)
		if !ok {
			return fmt.Errorf("fill %d: refund overflows", rec.Seq)
		}
		buyer.Unlock(book.Buy, refund)
	}

	if err := a.store.SaveLedger(buyerOrd.Owner, *buyer); err != nil {
		return err
	}
	if err := a.store.SaveLedger(sellerOrd.Owner, *seller); err != nil {
		return err
	}
	rec.Settled = true
	a.log.Infow("fill_settled",
		"seq", rec.Seq, "buyer", buyerOrd.Owner.Hex(), "seller", sellerOrd.Owner.Hex(),
		"quantity", rec.Quantity, "price", rec.ExecutionPrice)
	return nil
}

// BookSnapshot returns the live orders per side in heap-array order, plus
// the Keccak-256 hash of the stored book image.
func (a *App) BookSnapshot() (bids, asks []book.Order, hash common.Hash, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	bk, err := a.loadBook()
	if err != nil {
		return nil, nil, common.Hash{}, err
	}
	for i := 0; i < bk.Bids.Len(); i++ {
		bids = append(bids, bk.Bids.At(i))
	}
	for i := 0; i < bk.Asks.Len(); i++ {
		asks = append(asks, bk.Asks.At(i))
	}
	hash, err = a.store.BookHash()
	return bids, asks, hash, err
}

// RecentFills returns recorded fills, newest first.
func (a *App) RecentFills(limit int) ([]*storage.FillRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.store.LoadRecentFills(limit)
}
