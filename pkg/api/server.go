// Package api exposes the exchange operations over REST plus a WebSocket
// fill stream.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/SiphonMoney/matching-engine/pkg/app/core/book"
	"github.com/SiphonMoney/matching-engine/pkg/app/core/ledger"
	"github.com/SiphonMoney/matching-engine/pkg/app/exchange"
	"github.com/SiphonMoney/matching-engine/pkg/storage"
)

// Server handles REST and WebSocket connections.
type Server struct {
	app    *exchange.App
	router *mux.Router
	hub    *Hub
	log    *zap.SugaredLogger
}

func NewServer(app *exchange.App, logger *zap.SugaredLogger) *Server {
	s := &Server{
		app:    app,
		router: mux.NewRouter(),
		hub:    NewHub(logger),
		log:    logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/book", s.handleGetBook).Methods("GET")
	api.HandleFunc("/fills", s.handleGetFills).Methods("GET")
	api.HandleFunc("/ledgers/{address}", s.handleGetLedger).Methods("GET")

	api.HandleFunc("/orders", s.handleSubmitOrder).Methods("POST")
	api.HandleFunc("/deposit", s.handleDeposit).Methods("POST")
	api.HandleFunc("/withdraw", s.handleWithdraw).Methods("POST")
	api.HandleFunc("/batch", s.handleRunBatch).Methods("POST")
	api.HandleFunc("/settle", s.handleSettle).Methods("POST")

	s.router.HandleFunc("/ws", s.hub.serveWs)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Start runs the WebSocket hub and serves HTTP on addr. It blocks.
func (s *Server) Start(addr string) error {
	go s.hub.Run()

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})

	s.log.Infow("api_listening", "addr", addr)
	return http.ListenAndServe(addr, c.Handler(s.router))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	bids, asks, hash, err := s.app.BookSnapshot()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, BookSnapshot{
		Bids: toOrderInfos(bids),
		Asks: toOrderInfos(asks),
		Hash: hash.Hex(),
	})
}

func (s *Server) handleGetFills(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	fills, err := s.app.RecentFills(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, toFillInfos(fills))
}

func (s *Server) handleGetLedger(w http.ResponseWriter, r *http.Request) {
	addr, ok := parseAddress(w, mux.Vars(r)["address"])
	if !ok {
		return
	}
	bal, err := s.app.Ledger(addr)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, ledgerResponse(addr, bal, true))
}

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req SubmitOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	addr, ok := parseAddress(w, req.Owner)
	if !ok {
		return
	}
	if req.Side > uint8(book.Sell) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "side must be 0 (buy) or 1 (sell)"})
		return
	}

	ticket, orderID, success, err := s.app.SubmitOrder(addr, exchange.SubmitParams{
		Amount: req.Amount,
		Price:  req.Price,
		Side:   book.Side(req.Side),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, SubmitOrderResponse{
		OrderID:        orderID,
		Success:        success,
		Status:         uint8(ticket.Status),
		StatusText:     ticket.Status.String(),
		LockedAmount:   ticket.LockedAmount,
		FilledAmount:   ticket.FilledAmount,
		ExecutionPrice: ticket.ExecutionPrice,
	})
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	req, addr, ok := decodeLedgerRequest(w, r)
	if !ok {
		return
	}
	bal, err := s.app.Deposit(addr, ledger.Asset(req.Asset), req.Amount)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, ledgerResponse(addr, bal, true))
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	req, addr, ok := decodeLedgerRequest(w, r)
	if !ok {
		return
	}
	bal, success, err := s.app.WithdrawVerify(addr, ledger.Asset(req.Asset), req.Amount)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, ledgerResponse(addr, bal, success))
}

func (s *Server) handleRunBatch(w http.ResponseWriter, r *http.Request) {
	res, fills, err := s.app.RunBatch(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	resp := BatchResponse{MatchCount: res.Count, Fills: toFillInfos(fills)}
	if res.Count > 0 {
		s.hub.Broadcast(resp)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSettle(w http.ResponseWriter, r *http.Request) {
	var req SettleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rec, err := s.app.SettleFill(req.Seq)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, toFillInfo(rec))
}

// ==============================
// Helpers
// ==============================

func decodeLedgerRequest(w http.ResponseWriter, r *http.Request) (LedgerRequest, common.Address, bool) {
	var req LedgerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return req, common.Address{}, false
	}
	if req.Asset > uint8(ledger.Quote) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "asset must be 0 (base) or 1 (quote)"})
		return req, common.Address{}, false
	}
	addr, ok := parseAddress(w, req.Owner)
	return req, addr, ok
}

func parseAddress(w http.ResponseWriter, s string) (common.Address, bool) {
	if !common.IsHexAddress(s) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid address"})
		return common.Address{}, false
	}
	return common.HexToAddress(s), true
}

func ledgerResponse(addr common.Address, bal ledger.Balances, success bool) LedgerResponse {
	return LedgerResponse{
		Owner:          addr.Hex(),
		Success:        success,
		BaseTotal:      bal.BaseTotal,
		BaseAvailable:  bal.BaseAvailable,
		QuoteTotal:     bal.QuoteTotal,
		QuoteAvailable: bal.QuoteAvailable,
	}
}

func toOrderInfos(orders []book.Order) []OrderInfo {
	out := make([]OrderInfo, len(orders))
	for i, o := range orders {
		out[i] = OrderInfo{
			OrderID:   o.OrderID,
			Amount:    o.Amount,
			Price:     o.Price,
			Side:      o.Side.String(),
			Timestamp: o.Timestamp,
		}
	}
	return out
}

func toFillInfo(rec *storage.FillRecord) FillInfo {
	return FillInfo{
		Seq:            rec.Seq,
		BuyerOrderID:   rec.BuyerOrderID,
		SellerOrderID:  rec.SellerOrderID,
		Quantity:       rec.Quantity,
		ExecutionPrice: rec.ExecutionPrice,
		Settled:        rec.Settled,
		Timestamp:      rec.Timestamp,
	}
}

func toFillInfos(fills []*storage.FillRecord) []FillInfo {
	out := make([]FillInfo, len(fills))
	for i, f := range fills {
		out[i] = toFillInfo(f)
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}
