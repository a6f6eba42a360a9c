package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

var ErrInvalidLimit = errors.New("limit must be a positive integer")

func (that *Server) leaderboardHandler(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "leaderboardHandler")

	limit, err := parseLimit(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	entries, err := that.results.Leaderboard(r.Context(), limit)
	if err != nil {
		log.Error("failed to read leaderboard", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(log, w, entries)
}

func (that *Server) resultsHandler(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "resultsHandler")

	limit, err := parseLimit(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	results, err := that.results.Recent(r.Context(), limit)
	if err != nil {
		log.Error("failed to read results", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(log, w, results)
}

// parseLimit reads ?limit=N, defaulting when absent and capping at maxLimit.
func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultLimit, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLimit, raw)
	}

	return min(limit, maxLimit), nil
}

func writeJSON(log *slog.Logger, w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response", "error", err)
	}
}
