// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"time"

	service "github.com/okian/tatami/internal/app"
	"github.com/okian/tatami/internal/domain/model"
	"github.com/okian/tatami/internal/domain/odds"
	"github.com/okian/tatami/internal/engine/ladder"
	"github.com/okian/tatami/internal/engine/recalc"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	AddCompetitor(ctx context.Context, req service.NewCompetitor) (model.Competitor, error)
	GetCompetitor(ctx context.Context, id string) (model.Competitor, error)
	History(ctx context.Context, id string) ([]model.SnapshotEntry, error)
	RecordMatch(ctx context.Context, req service.MatchRequest) (service.MatchResult, error)
	ListMatches(ctx context.Context) ([]model.Match, error)
	RecalculateAll(ctx context.Context) (recalc.Report, error)
	Ladder(ctx context.Context, scope, strategy string) ([]ladder.Standing, error)
	PreviewOdds(ctx context.Context, aID, bID string) (odds.Preview, error)
	PreviewOddsRatings(ctx context.Context, ratingA, ratingB float64) odds.Preview
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	competitorsHandler *CompetitorsHandler
	matchesHandler     *MatchesHandler
	recalcHandler      *RecalculateHandler
	ladderHandler      *LadderHandler
	oddsHandler        *OddsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLadderLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		competitorsHandler: NewCompetitorsHandler(deps),
		matchesHandler:     NewMatchesHandler(deps),
		recalcHandler:      NewRecalculateHandler(deps),
		ladderHandler:      NewLadderHandler(deps, maxLadderLimit),
		oddsHandler:        NewOddsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/competitors", MetricsMiddleware(s.competitorsHandler.HandlePostCompetitor, "competitors"))
	mux.HandleFunc("/competitors/", MetricsMiddleware(s.competitorsHandler.HandleGetCompetitor, "competitor"))
	mux.HandleFunc("/matches", MetricsMiddleware(s.matchesHandler.HandleMatches, "matches"))
	mux.HandleFunc("/recalculate", MetricsMiddleware(s.recalcHandler.HandleRecalculate, "recalculate"))
	mux.HandleFunc("/ladder", MetricsMiddleware(s.ladderHandler.HandleGetLadder, "ladder"))
	mux.HandleFunc("/odds", MetricsMiddleware(s.oddsHandler.HandleGetOdds, "odds"))
}

// competitorResponse mirrors the read shape returned by competitor queries.
type competitorResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Belt        string   `json:"belt"`
	Weight      *float64 `json:"weight,omitempty"`
	StartRating float64  `json:"start_rating"`
	Rating      float64  `json:"rating"`
}

// roundRating presents ratings as whole points; floats stay internal.
func roundRating(r float64) float64 {
	return math.Round(r)
}

func toCompetitorResponse(c model.Competitor) competitorResponse {
	return competitorResponse{
		ID:          c.ID,
		Name:        c.Name,
		Belt:        c.Belt.String(),
		Weight:      c.Weight,
		StartRating: roundRating(c.Rating.Start),
		Rating:      roundRating(c.Rating.Current),
	}
}

// matchResponse mirrors the read shape returned by match queries.
type matchResponse struct {
	ID              string  `json:"match_id"`
	SideA           string  `json:"a"`
	SideB           string  `json:"b"`
	Outcome         string  `json:"outcome"`
	TS              string  `json:"ts"`
	Seq             int64   `json:"seq"`
	Event           string  `json:"event,omitempty"`
	Method          string  `json:"method,omitempty"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
}

func toMatchResponse(m model.Match) matchResponse {
	return matchResponse{
		ID:              m.ID,
		SideA:           m.SideA,
		SideB:           m.SideB,
		Outcome:         string(m.Outcome),
		TS:              m.TS.UTC().Format(time.RFC3339),
		Seq:             m.Seq,
		Event:           m.Event,
		Method:          m.Method,
		DurationSeconds: m.Duration.Seconds(),
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeMatchError translates a typed match failure to the right status code.
func writeMatchError(w http.ResponseWriter, err error) bool {
	var me *model.MatchError
	if !errors.As(err, &me) {
		return false
	}
	switch me.Kind {
	case model.ErrKindUnknownSide:
		writeError(w, http.StatusNotFound, me.Kind, me)
	default:
		writeError(w, http.StatusBadRequest, me.Kind, me)
	}
	return true
}
