// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/tatami/internal/domain/odds"
)

// OddsDependencies defines the interface for odds previews.
type OddsDependencies interface {
	PreviewOdds(ctx context.Context, aID, bID string) (odds.Preview, error)
	PreviewOddsRatings(ctx context.Context, ratingA, ratingB float64) odds.Preview
}

// OddsHandler handles odds preview requests.
type OddsHandler struct {
	deps OddsDependencies
}

// NewOddsHandler creates a new odds handler.
func NewOddsHandler(deps OddsDependencies) *OddsHandler {
	return &OddsHandler{deps: deps}
}

// HandleGetOdds handles GET /odds?a=ID&b=ID requests, or
// GET /odds?rating_a=R&rating_b=R for hypothetical matchups. Read-only;
// nothing is recorded or mutated by a preview.
func (h *OddsHandler) HandleGetOdds(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	q := r.URL.Query()
	aID := strings.TrimSpace(q.Get("a"))
	bID := strings.TrimSpace(q.Get("b"))

	if aID == "" && bID == "" {
		ra, errA := strconv.ParseFloat(q.Get("rating_a"), 64)
		rb, errB := strconv.ParseFloat(q.Get("rating_b"), 64)
		if errA != nil || errB != nil {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, h.deps.PreviewOddsRatings(r.Context(), ra, rb))
		return
	}

	if aID == "" || bID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	p, err := h.deps.PreviewOdds(r.Context(), aID, bID)
	if err != nil {
		if writeMatchError(w, err) {
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
