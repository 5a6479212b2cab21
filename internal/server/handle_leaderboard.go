package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/huntworks/cityhunt/internal/engine"
)

const leaderboardTTL = 30 * time.Second

// handleLeaderboard serves event standings with a short-lived Redis cache in
// front. Cache misses and Redis failures fall through to a fresh computation.
func handleLeaderboard(logger *slog.Logger, eng *engine.Engine, rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID := chi.URLParam(r, "eventID")
		cacheKey := "leaderboard:" + eventID

		if rdb != nil {
			if cached, err := rdb.Get(r.Context(), cacheKey).Bytes(); err == nil {
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusOK)
				w.Write(cached)
				return
			}
		}

		standings, err := eng.Leaderboard.Standings(r.Context(), eventID)
		if errors.Is(err, engine.ErrNotFound) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if standings == nil {
			standings = []engine.Standing{}
		}

		if rdb != nil {
			if data, err := json.Marshal(standings); err == nil {
				if err := rdb.Set(r.Context(), cacheKey, data, leaderboardTTL).Err(); err != nil {
					logger.Warn("caching leaderboard", "event_id", eventID, "error", err)
				}
			}
		}

		writeJSON(w, http.StatusOK, standings)
	}
}

func handleEventStatus(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID := chi.URLParam(r, "eventID")

		status, err := eng.Leaderboard.Status(r.Context(), eventID)
		if errors.Is(err, engine.ErrNotFound) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, status)
	}
}
