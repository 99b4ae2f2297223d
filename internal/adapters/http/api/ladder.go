// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/okian/tatami/internal/engine/ladder"
)

// LadderDependencies defines the interface for ladder queries.
type LadderDependencies interface {
	Ladder(ctx context.Context, scope, strategy string) ([]ladder.Standing, error)
}

// LadderHandler handles ladder requests.
type LadderHandler struct {
	deps     LadderDependencies
	maxLimit int
}

// NewLadderHandler creates a new ladder handler.
func NewLadderHandler(deps LadderDependencies, maxLimit int) *LadderHandler {
	return &LadderHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleGetLadder handles GET /ladder?scope=S&by=B&limit=N requests.
// scope defaults to global, by to gain, limit to the configured maximum.
func (h *LadderHandler) HandleGetLadder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	q := r.URL.Query()
	limit := h.maxLimit
	if limitStr := q.Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		if n > h.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", ErrBadRequest)
			return
		}
		limit = n
	}

	rows, err := h.deps.Ladder(r.Context(), q.Get("scope"), q.Get("by"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}
	for i := range rows {
		rows[i].Rating = roundRating(rows[i].Rating)
		rows[i].StartRating = roundRating(rows[i].StartRating)
		rows[i].Gain = roundRating(rows[i].Gain)
	}
	writeJSON(w, http.StatusOK, rows)
}
