// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	service "github.com/okian/tatami/internal/app"
	"github.com/okian/tatami/internal/domain/model"
)

// MatchDependencies defines the interface for match recording and listing.
type MatchDependencies interface {
	RecordMatch(ctx context.Context, req service.MatchRequest) (service.MatchResult, error)
	ListMatches(ctx context.Context) ([]model.Match, error)
}

// MatchesHandler handles match requests.
type MatchesHandler struct {
	deps MatchDependencies
}

// NewMatchesHandler creates a new matches handler.
func NewMatchesHandler(deps MatchDependencies) *MatchesHandler {
	return &MatchesHandler{deps: deps}
}

// matchRequest mirrors the schema for POST /matches.
type matchRequest struct {
	MatchID         string  `json:"match_id"`
	SideA           string  `json:"a"`
	SideB           string  `json:"b"`
	Outcome         string  `json:"outcome"`
	TS              string  `json:"ts"`
	Event           string  `json:"event"`
	Method          string  `json:"method"`
	DurationSeconds float64 `json:"duration_seconds"`
}

func (m matchRequest) validate() error {
	switch {
	case strings.TrimSpace(m.SideA) == "":
		return errors.New("missing a")
	case strings.TrimSpace(m.SideB) == "":
		return errors.New("missing b")
	case strings.TrimSpace(m.Outcome) == "":
		return errors.New("missing outcome")
	}
	if m.TS != "" {
		if _, err := time.Parse(time.RFC3339, m.TS); err != nil {
			return errors.New("invalid ts; must be RFC3339")
		}
	}
	return nil
}

// matchAckResponse reports how a recorded match moved both ratings.
type matchAckResponse struct {
	Status    string  `json:"status"`
	MatchID   string  `json:"match_id"`
	Duplicate bool    `json:"duplicate"`
	Seq       int64   `json:"seq,omitempty"`
	DeltaA    float64 `json:"delta_a"`
	DeltaB    float64 `json:"delta_b"`
	RatingA   float64 `json:"rating_a"`
	RatingB   float64 `json:"rating_b"`
}

// HandleMatches handles POST /matches and GET /matches requests.
func (h *MatchesHandler) HandleMatches(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handlePostMatch(w, r)
	case http.MethodGet:
		h.handleListMatches(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *MatchesHandler) handlePostMatch(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	var ts time.Time
	if req.TS != "" {
		ts, _ = time.Parse(time.RFC3339, req.TS)
	}

	res, err := h.deps.RecordMatch(r.Context(), service.MatchRequest{
		ID:       req.MatchID,
		SideA:    req.SideA,
		SideB:    req.SideB,
		Outcome:  req.Outcome,
		TS:       ts,
		Event:    req.Event,
		Method:   req.Method,
		Duration: time.Duration(req.DurationSeconds * float64(time.Second)),
	})
	if err != nil {
		if writeMatchError(w, err) {
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}

	if res.Duplicate {
		writeJSON(w, http.StatusOK, matchAckResponse{
			Status:    "duplicate",
			MatchID:   res.Match.ID,
			Duplicate: true,
		})
		return
	}
	writeJSON(w, http.StatusCreated, matchAckResponse{
		Status:  "recorded",
		MatchID: res.Match.ID,
		Seq:     res.Match.Seq,
		DeltaA:  res.DeltaA,
		DeltaB:  res.DeltaB,
		RatingA: roundRating(res.NewA),
		RatingB: roundRating(res.NewB),
	})
}

func (h *MatchesHandler) handleListMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := h.deps.ListMatches(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	out := make([]matchResponse, 0, len(matches))
	for _, m := range matches {
		out = append(out, toMatchResponse(m))
	}
	writeJSON(w, http.StatusOK, out)
}
