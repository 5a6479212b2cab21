package server

import (
	"database/sql"
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/swaggest/swgui/v5emb"

	"github.com/huntworks/cityhunt/internal/engine"
)

func addRoutes(r chi.Router, logger *slog.Logger, eng *engine.Engine, db *sql.DB, rdb *redis.Client) {
	broker := NewBroker()

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("CityHunt API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, db, rdb))

	// Organizer surface: batch route generation, standings, event rollup.
	r.Route("/api/events/{eventID}", func(r chi.Router) {
		r.Post("/routes", handleGenerateRoutes(eng))
		r.Get("/routes", handleListRoutes(eng))
		r.Get("/leaderboard", handleLeaderboard(logger, eng, rdb))
		r.Get("/status", handleEventStatus(eng))
	})

	// Play surface: one team driving its own progress.
	r.Route("/api/teams/{teamID}", func(r chi.Router) {
		r.Post("/stations/{stationID}/start", handleStartStation(eng, broker))
		r.Post("/stations/{stationID}/complete", handleCompleteStation(eng, broker))
		r.Post("/stations/{stationID}/skip", handleSkipStation(eng, broker))
		r.Get("/next-station", handleNextStation(eng))
		r.Get("/progress", handleTeamProgress(eng))
		r.Get("/events", handleEvents(eng, broker))
	})
}
