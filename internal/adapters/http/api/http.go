// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/podium/internal/adapters/repository"
	"github.com/okian/podium/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// SeenAndRecord atomically checks and records a contest ID so a
	// resubmitted contest is acknowledged, not refitted.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord releases a contest ID recorded by SeenAndRecord, allowing
	// a retry after a failed enqueue.
	Unrecord(ctx context.Context, id string)

	// Enqueue pushes a contest for async refitting. Returns false on
	// backpressure.
	Enqueue(ctx context.Context, c model.Contest) bool

	// Read operations expose leaderboard data.
	TopN(ctx context.Context, n int) ([]Entry, error)
	Rank(ctx context.Context, competitor string) (Entry, error)
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = repository.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	resultsHandler  *ResultsHandler
	rankingsHandler *RankingsHandler
	rankHandler     *RankHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLimit int) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		resultsHandler:  NewResultsHandler(deps),
		rankingsHandler: NewRankingsHandler(deps, maxLimit),
		rankHandler:     NewRankHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/results", MetricsMiddleware(s.resultsHandler.HandlePostResult, "results"))
	mux.HandleFunc("/rankings", MetricsMiddleware(s.rankingsHandler.HandleGetRankings, "rankings"))
	mux.HandleFunc("/rankings/", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))
}

// resultRequest is the body of POST /results. ContestID is optional;
// a missing ID is assigned server-side.
type resultRequest struct {
	ContestID  string         `json:"contest_id"`
	Placements map[string]int `json:"placements"`
}

func (r resultRequest) validate() error {
	if len(r.Placements) == 0 {
		return errors.New("missing placements")
	}
	byFinish := make(map[int]string, len(r.Placements))
	for competitor, finish := range r.Placements {
		if competitor == "" {
			return errors.New("empty competitor id")
		}
		if finish < 1 {
			return errors.New("finish positions start at 1")
		}
		if other, ok := byFinish[finish]; ok {
			return errors.New("tied finish between " + other + " and " + competitor)
		}
		byFinish[finish] = competitor
	}
	return nil
}

func (r resultRequest) contest(id string) model.Contest {
	placements := make(map[model.Competitor]int, len(r.Placements))
	for competitor, finish := range r.Placements {
		placements[model.Competitor(competitor)] = finish
	}
	return model.Contest{ID: id, Placements: placements}
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
	ContestID string `json:"contest_id,omitempty"`
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
