// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	service "github.com/okian/tatami/internal/app"
	"github.com/okian/tatami/internal/domain/model"
	"github.com/okian/tatami/internal/domain/rating"
)

// CompetitorDependencies defines the interface for competitor operations.
type CompetitorDependencies interface {
	AddCompetitor(ctx context.Context, req service.NewCompetitor) (model.Competitor, error)
	GetCompetitor(ctx context.Context, id string) (model.Competitor, error)
	History(ctx context.Context, id string) ([]model.SnapshotEntry, error)
}

// CompetitorsHandler handles competitor registration and lookups.
type CompetitorsHandler struct {
	deps CompetitorDependencies
}

// NewCompetitorsHandler creates a new competitors handler.
func NewCompetitorsHandler(deps CompetitorDependencies) *CompetitorsHandler {
	return &CompetitorsHandler{deps: deps}
}

// competitorRequest mirrors the schema for POST /competitors.
type competitorRequest struct {
	Name   string   `json:"name"`
	Belt   string   `json:"belt"`
	Weight *float64 `json:"weight"`
}

func (c competitorRequest) validate() error {
	switch {
	case strings.TrimSpace(c.Name) == "":
		return errors.New("missing name")
	case strings.TrimSpace(c.Belt) == "":
		return errors.New("missing belt")
	}
	if c.Weight != nil && *c.Weight <= 0 {
		return errors.New("weight must be positive")
	}
	return nil
}

// HandlePostCompetitor handles POST /competitors requests.
func (h *CompetitorsHandler) HandlePostCompetitor(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req competitorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	c, err := h.deps.AddCompetitor(r.Context(), service.NewCompetitor{
		Name:   req.Name,
		Belt:   req.Belt,
		Weight: req.Weight,
	})
	if err != nil {
		// Belt parse failures are the only client-caused errors here.
		if errors.Is(err, rating.ErrUnknownBelt) {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusCreated, toCompetitorResponse(c))
}

// HandleGetCompetitor handles GET /competitors/{id} and
// GET /competitors/{id}/history requests.
func (h *CompetitorsHandler) HandleGetCompetitor(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/competitors/")
	id, rest, _ := strings.Cut(path, "/")
	if id == "" || (rest != "" && rest != "history") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	if rest == "history" {
		entries, err := h.deps.History(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
		return
	}

	c, err := h.deps.GetCompetitor(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", err)
		return
	}
	writeJSON(w, http.StatusOK, toCompetitorResponse(c))
}
