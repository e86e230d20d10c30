// Package web exposes the treasury engine operations over an HTTP JSON API.
// Caller identity and roles arrive as headers; the engine does the actual
// authorization per operation.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/astratum/treasury/internal/domain"
	"github.com/astratum/treasury/internal/treasury"
)

const (
	headerActor = "X-Treasury-Actor"
	headerRoles = "X-Treasury-Roles"
)

type eventReader interface {
	EventsAfter(index uint64) ([]domain.EventRecord, error)
}

// Server routes HTTP requests onto the engine.
type Server struct {
	addr   string
	engine *treasury.Engine
	events eventReader
	log    *zap.Logger
}

// NewServer creates the API server. events may be nil when no journal is
// configured; the /events route then reports the journal as unavailable.
func NewServer(addr string, engine *treasury.Engine, events eventReader, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{addr: addr, engine: engine, events: events, log: log.With(zap.String("component", "web"))}
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /assets", s.handleListAssets)
	mux.HandleFunc("POST /assets", s.handleAddAsset)
	mux.HandleFunc("GET /assets/{addr}", s.handleGetAsset)
	mux.HandleFunc("POST /assets/{addr}/deposit", s.handleDeposit)
	mux.HandleFunc("POST /assets/{addr}/status", s.handleAssetStatus)

	mux.HandleFunc("GET /investments", s.handleListInvestments)
	mux.HandleFunc("POST /investments", s.handleCreateInvestment)
	mux.HandleFunc("POST /investments/{id}/harvest", s.handleHarvest)
	mux.HandleFunc("POST /investments/{id}/withdraw", s.handleWithdrawInvestment)
	mux.HandleFunc("POST /strategies", s.handleAddStrategy)

	mux.HandleFunc("GET /proposals", s.handleListProposals)
	mux.HandleFunc("POST /proposals", s.handleCreateProposal)
	mux.HandleFunc("POST /proposals/{id}/approve", s.handleApproveProposal)
	mux.HandleFunc("POST /proposals/{id}/execute", s.handleExecuteProposal)
	mux.HandleFunc("POST /proposals/{id}/cancel", s.handleCancelProposal)

	mux.HandleFunc("GET /streams", s.handleListStreams)
	mux.HandleFunc("POST /streams", s.handleAddStream)
	mux.HandleFunc("POST /streams/{id}/collect", s.handleCollectRevenue)

	mux.HandleFunc("GET /metrics", s.handleMetrics)
	mux.HandleFunc("POST /metrics/update", s.handleUpdateMetrics)
	mux.HandleFunc("GET /rebalance/needed", s.handleNeedsRebalancing)
	mux.HandleFunc("POST /rebalance", s.handleRebalance)

	mux.HandleFunc("POST /pause", s.handlePause)
	mux.HandleFunc("POST /unpause", s.handleUnpause)
	mux.HandleFunc("POST /emergency-withdraw", s.handleEmergencyWithdraw)

	mux.HandleFunc("GET /events", s.handleEvents)

	return mux
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.log.Info("treasury API listening", zap.String("addr", s.addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func caller(r *http.Request) domain.Caller {
	var roles []domain.Role
	for _, raw := range strings.Split(r.Header.Get(headerRoles), ",") {
		if role, ok := domain.ParseRole(strings.TrimSpace(raw)); ok {
			roles = append(roles, role)
		}
	}
	return domain.NewCaller(r.Header.Get(headerActor), roles...)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientBalance):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrPaused):
		status = http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrStateConflict):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrExternalAdapter):
		status = http.StatusBadGateway
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decode(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func parseAddress(s string) (common.Address, bool) {
	if !common.IsHexAddress(s) {
		return common.Address{}, false
	}
	return common.HexToAddress(s), true
}

func badRequest(w http.ResponseWriter, s *Server, msg string) {
	s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

func pathID(r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	return id, err == nil
}

func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.ListAssets())
}

func (s *Server) handleAddAsset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Address             string `json:"address"`
		Symbol              string `json:"symbol"`
		TargetAllocationBps int64  `json:"target_allocation_bps"`
		YieldBearing        bool   `json:"yield_bearing"`
	}
	if err := decode(r, &req); err != nil {
		badRequest(w, s, "invalid request body")
		return
	}
	addr, ok := parseAddress(req.Address)
	if !ok {
		badRequest(w, s, "invalid asset address")
		return
	}

	asset, err := s.engine.AddAsset(caller(r), addr, req.Symbol, req.TargetAllocationBps, req.YieldBearing)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, asset)
}

func (s *Server) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	addr, ok := parseAddress(r.PathValue("addr"))
	if !ok {
		badRequest(w, s, "invalid asset address")
		return
	}
	asset, err := s.engine.GetAsset(addr)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, asset)
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	addr, ok := parseAddress(r.PathValue("addr"))
	if !ok {
		badRequest(w, s, "invalid asset address")
		return
	}
	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := decode(r, &req); err != nil {
		badRequest(w, s, "invalid request body")
		return
	}
	if err := s.engine.Deposit(caller(r), addr, req.Amount); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "credited"})
}

func (s *Server) handleAssetStatus(w http.ResponseWriter, r *http.Request) {
	addr, ok := parseAddress(r.PathValue("addr"))
	if !ok {
		badRequest(w, s, "invalid asset address")
		return
	}
	var req struct {
		Active bool `json:"active"`
	}
	if err := decode(r, &req); err != nil {
		badRequest(w, s, "invalid request body")
		return
	}
	if err := s.engine.SetAssetActive(caller(r), addr, req.Active); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleListInvestments(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.ListInvestments())
}

func (s *Server) handleCreateInvestment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Protocol       string          `json:"protocol"`
		Asset          string          `json:"asset"`
		Amount         decimal.Decimal `json:"amount"`
		ExpectedAPYBps int64           `json:"expected_apy_bps"`
		LockPeriod     string          `json:"lock_period"`
		ProtocolName   string          `json:"protocol_name"`
		StrategyLabel  string          `json:"strategy_label"`
		StrategyID     uint64          `json:"strategy_id"`
	}
	if err := decode(r, &req); err != nil {
		badRequest(w, s, "invalid request body")
		return
	}
	protocol, ok := parseAddress(req.Protocol)
	if !ok {
		badRequest(w, s, "invalid protocol address")
		return
	}
	asset, ok := parseAddress(req.Asset)
	if !ok {
		badRequest(w, s, "invalid asset address")
		return
	}
	var lock time.Duration
	if req.LockPeriod != "" {
		var err error
		if lock, err = time.ParseDuration(req.LockPeriod); err != nil {
			badRequest(w, s, "invalid lock_period")
			return
		}
	}

	inv, err := s.engine.CreateInvestment(caller(r), treasury.InvestmentParams{
		Protocol:       protocol,
		Asset:          asset,
		Amount:         req.Amount,
		ExpectedAPYBps: req.ExpectedAPYBps,
		LockPeriod:     lock,
		ProtocolName:   req.ProtocolName,
		StrategyLabel:  req.StrategyLabel,
		StrategyID:     req.StrategyID,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, inv)
}

func (s *Server) handleHarvest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badRequest(w, s, "invalid investment id")
		return
	}
	harvested, err := s.engine.HarvestYield(caller(r), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"harvested": harvested.String()})
}

func (s *Server) handleWithdrawInvestment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badRequest(w, s, "invalid investment id")
		return
	}
	if err := s.engine.WithdrawInvestment(caller(r), id); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "withdrawn"})
}

func (s *Server) handleAddStrategy(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name           string          `json:"name"`
		Description    string          `json:"description"`
		TargetProtocol string          `json:"target_protocol"`
		MinInvestment  decimal.Decimal `json:"min_investment"`
		MaxInvestment  decimal.Decimal `json:"max_investment"`
		ExpectedAPYBps int64           `json:"expected_apy_bps"`
		RiskLevel      int             `json:"risk_level"`
		AutoCompound   bool            `json:"auto_compound"`
	}
	if err := decode(r, &req); err != nil {
		badRequest(w, s, "invalid request body")
		return
	}
	protocol, ok := parseAddress(req.TargetProtocol)
	if !ok {
		badRequest(w, s, "invalid target protocol address")
		return
	}

	strategy, err := s.engine.AddYieldStrategy(caller(r), domain.YieldStrategy{
		Name:           req.Name,
		Description:    req.Description,
		TargetProtocol: protocol,
		MinInvestment:  req.MinInvestment,
		MaxInvestment:  req.MaxInvestment,
		ExpectedAPYBps: req.ExpectedAPYBps,
		RiskLevel:      req.RiskLevel,
		AutoCompound:   req.AutoCompound,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, strategy)
}

func (s *Server) handleListProposals(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.ListProposals())
}

func (s *Server) handleCreateProposal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount    decimal.Decimal `json:"amount"`
		Recipient string          `json:"recipient"`
		Asset     string          `json:"asset"`
		Purpose   string          `json:"purpose"`
	}
	if err := decode(r, &req); err != nil {
		badRequest(w, s, "invalid request body")
		return
	}
	recipient, ok := parseAddress(req.Recipient)
	if !ok {
		badRequest(w, s, "invalid recipient address")
		return
	}
	asset, ok := parseAddress(req.Asset)
	if !ok {
		badRequest(w, s, "invalid asset address")
		return
	}

	proposal, err := s.engine.CreateProposal(caller(r), req.Amount, recipient, asset, req.Purpose)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, proposal)
}

func (s *Server) handleApproveProposal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badRequest(w, s, "invalid proposal id")
		return
	}
	if err := s.engine.ApproveProposal(caller(r), id); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "approved"})
}

func (s *Server) handleExecuteProposal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badRequest(w, s, "invalid proposal id")
		return
	}
	if err := s.engine.ExecuteProposal(caller(r), id); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "executed"})
}

func (s *Server) handleCancelProposal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badRequest(w, s, "invalid proposal id")
		return
	}
	if err := s.engine.CancelProposal(caller(r), id); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (s *Server) handleListStreams(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.ListRevenueStreams())
}

func (s *Server) handleAddStream(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Source        string `json:"source"`
		Asset         string `json:"asset"`
		AllocationBps int64  `json:"allocation_bps"`
	}
	if err := decode(r, &req); err != nil {
		badRequest(w, s, "invalid request body")
		return
	}
	asset, ok := parseAddress(req.Asset)
	if !ok {
		badRequest(w, s, "invalid asset address")
		return
	}

	stream, err := s.engine.AddRevenueStream(caller(r), req.Source, asset, req.AllocationBps)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, stream)
}

func (s *Server) handleCollectRevenue(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badRequest(w, s, "invalid stream id")
		return
	}
	var req struct {
		Amount decimal.Decimal `json:"amount"`
		Source string          `json:"source"`
	}
	if err := decode(r, &req); err != nil {
		badRequest(w, s, "invalid request body")
		return
	}
	source, ok := parseAddress(req.Source)
	if !ok {
		badRequest(w, s, "invalid source address")
		return
	}

	share, err := s.engine.CollectRevenue(caller(r), id, req.Amount, source)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"treasury_share": share.String()})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.Metrics())
}

func (s *Server) handleUpdateMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := s.engine.UpdateMetrics(caller(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, metrics)
}

func (s *Server) handleNeedsRebalancing(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]bool{"needs_rebalancing": s.engine.NeedsRebalancing()})
}

func (s *Server) handleRebalance(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Rebalance(caller(r)); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "rebalanced"})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Pause(caller(r)); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "paused"})
}

func (s *Server) handleUnpause(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Unpause(caller(r)); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "unpaused"})
}

func (s *Server) handleEmergencyWithdraw(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Asset     string          `json:"asset"`
		Amount    decimal.Decimal `json:"amount"`
		Recipient string          `json:"recipient"`
		Reason    string          `json:"reason"`
	}
	if err := decode(r, &req); err != nil {
		badRequest(w, s, "invalid request body")
		return
	}
	asset, ok := parseAddress(req.Asset)
	if !ok {
		badRequest(w, s, "invalid asset address")
		return
	}
	recipient, ok := parseAddress(req.Recipient)
	if !ok {
		badRequest(w, s, "invalid recipient address")
		return
	}

	if err := s.engine.EmergencyWithdraw(caller(r), asset, req.Amount, recipient, req.Reason); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "withdrawn"})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "event journal not available"})
		return
	}
	var after uint64
	if raw := r.URL.Query().Get("after"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			badRequest(w, s, "invalid 'after' index")
			return
		}
		after = parsed
	}

	records, err := s.events.EventsAfter(after)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, records)
}
