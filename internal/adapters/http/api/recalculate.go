// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"

	service "github.com/okian/tatami/internal/app"
	"github.com/okian/tatami/internal/engine/recalc"
)

// RecalculateDependencies defines the interface for the replay operation.
type RecalculateDependencies interface {
	RecalculateAll(ctx context.Context) (recalc.Report, error)
}

// RecalculateHandler handles full-history replay requests.
type RecalculateHandler struct {
	deps RecalculateDependencies
}

// NewRecalculateHandler creates a new recalculate handler.
func NewRecalculateHandler(deps RecalculateDependencies) *RecalculateHandler {
	return &RecalculateHandler{deps: deps}
}

// recalcResponse reports what the replay applied and what it skipped.
type recalcResponse struct {
	Status  string        `json:"status"`
	Applied int           `json:"applied"`
	Skipped []skippedItem `json:"skipped"`
}

type skippedItem struct {
	MatchID string `json:"match_id"`
	Kind    string `json:"kind"`
	Reason  string `json:"reason"`
}

// HandleRecalculate handles POST /recalculate requests. A replay already in
// flight answers 409 rather than queueing a second one.
func (h *RecalculateHandler) HandleRecalculate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	report, err := h.deps.RecalculateAll(r.Context())
	if err != nil {
		if errors.Is(err, service.ErrRecalculationRunning) {
			writeError(w, http.StatusConflict, "recalculation_running", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}

	skipped := make([]skippedItem, 0, len(report.Skipped))
	for _, me := range report.Skipped {
		skipped = append(skipped, skippedItem{MatchID: me.MatchID, Kind: me.Kind, Reason: me.Reason})
	}
	writeJSON(w, http.StatusOK, recalcResponse{
		Status:  "complete",
		Applied: report.Applied,
		Skipped: skipped,
	})
}
