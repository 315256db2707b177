package httpserver

import (
	"math/big"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/mselser95/chainhawk/pkg/types"
	"go.uber.org/zap"
)

// OutcomeLedger is the read side of the outcome reporter.
type OutcomeLedger interface {
	Recent() []*types.OutcomeEvent
	Cumulative() *big.Int
}

// BreakerStatus exposes the circuit breaker state for the status endpoint.
type BreakerStatus interface {
	Allow() bool
}

// OutcomesHandler serves recent outcomes and the running ledger.
type OutcomesHandler struct {
	ledger  OutcomeLedger
	breaker BreakerStatus
	logger  *zap.Logger
}

// NewOutcomesHandler creates the handler.
func NewOutcomesHandler(ledger OutcomeLedger, breaker BreakerStatus, logger *zap.Logger) *OutcomesHandler {
	return &OutcomesHandler{
		ledger:  ledger,
		breaker: breaker,
		logger:  logger,
	}
}

// OutcomeRecord is the JSON shape of one terminal plan outcome.
type OutcomeRecord struct {
	PlanID      string    `json:"plan_id"`
	Kind        string    `json:"kind"`
	Outcome     string    `json:"outcome"`
	Realized    string    `json:"realized_wei"`
	Attempts    int       `json:"attempts"`
	DetectedAt  time.Time `json:"detected_at"`
	CompletedAt time.Time `json:"completed_at"`
	Reason      string    `json:"reason,omitempty"`
}

// PnLResponse is the JSON shape of the cumulative ledger.
type PnLResponse struct {
	CumulativeWei string `json:"cumulative_wei"`
	OutcomeCount  int    `json:"outcome_count"`
}

// BreakerResponse is the JSON shape of the circuit breaker state.
type BreakerResponse struct {
	SubmissionsAllowed bool `json:"submissions_allowed"`
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HandleOutcomes handles GET /api/outcomes, newest last.
func (h *OutcomesHandler) HandleOutcomes(w http.ResponseWriter, _ *http.Request) {
	events := h.ledger.Recent()
	records := make([]OutcomeRecord, 0, len(events))
	for _, ev := range events {
		realized := "0"
		if ev.Realized != nil {
			realized = ev.Realized.String()
		}
		records = append(records, OutcomeRecord{
			PlanID:      ev.PlanID,
			Kind:        string(ev.Kind),
			Outcome:     string(ev.Outcome),
			Realized:    realized,
			Attempts:    ev.AttemptCount,
			DetectedAt:  ev.DetectedAt,
			CompletedAt: ev.CompletedAt,
			Reason:      ev.Reason,
		})
	}

	h.writeJSON(w, http.StatusOK, records)
}

// HandlePnL handles GET /api/pnl.
func (h *OutcomesHandler) HandlePnL(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, PnLResponse{
		CumulativeWei: h.ledger.Cumulative().String(),
		OutcomeCount:  len(h.ledger.Recent()),
	})
}

// HandleBreaker handles GET /api/breaker.
func (h *OutcomesHandler) HandleBreaker(w http.ResponseWriter, _ *http.Request) {
	if h.breaker == nil {
		h.writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "circuit breaker disabled"})
		return
	}
	h.writeJSON(w, http.StatusOK, BreakerResponse{
		SubmissionsAllowed: h.breaker.Allow(),
	})
}

func (h *OutcomesHandler) writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed-to-encode-response", zap.Error(err))
	}
}
