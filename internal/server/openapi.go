package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi31"

	"github.com/huntworks/cityhunt/internal/engine"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func newOpenAPISpec() *openapi31.Spec {
	r := openapi31.NewReflector()
	r.Spec.Info.Title = "CityHunt API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Team routing and progression engine for city hunt events.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// POST /api/events/{eventID}/routes
	genRoutes, _ := r.NewOperationContext(http.MethodPost, "/api/events/{eventID}/routes")
	genRoutes.SetSummary("Generate routes")
	genRoutes.SetDescription("Builds a suggested route per team under the chosen strategy and replaces the event's stored routes.")
	genRoutes.AddReqStructure(GenerateRoutesRequest{})
	genRoutes.AddRespStructure(GenerateRoutesResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	genRoutes.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	genRoutes.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(genRoutes)

	// GET /api/events/{eventID}/routes
	listRoutes, _ := r.NewOperationContext(http.MethodGet, "/api/events/{eventID}/routes")
	listRoutes.SetSummary("List stored routes")
	listRoutes.SetDescription("Returns the most recently generated routes for the event.")
	listRoutes.AddRespStructure([]engine.TeamRoute{}, openapi.WithHTTPStatus(http.StatusOK))
	listRoutes.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(listRoutes)

	// GET /api/events/{eventID}/leaderboard
	getBoard, _ := r.NewOperationContext(http.MethodGet, "/api/events/{eventID}/leaderboard")
	getBoard.SetSummary("Leaderboard")
	getBoard.SetDescription("Ranked standings: completed teams first, then score, then earlier finish.")
	getBoard.AddRespStructure([]engine.Standing{}, openapi.WithHTTPStatus(http.StatusOK))
	getBoard.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getBoard)

	// GET /api/events/{eventID}/status
	getStatus, _ := r.NewOperationContext(http.MethodGet, "/api/events/{eventID}/status")
	getStatus.SetSummary("Event status")
	getStatus.SetDescription("Organizer dashboard rollup: team counts, average progress, station utilization.")
	getStatus.AddRespStructure(engine.EventStatus{}, openapi.WithHTTPStatus(http.StatusOK))
	getStatus.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getStatus)

	// POST /api/teams/{teamID}/stations/{stationID}/start
	postStart, _ := r.NewOperationContext(http.MethodPost, "/api/teams/{teamID}/stations/{stationID}/start")
	postStart.SetSummary("Start station")
	postStart.SetDescription("Marks the station in progress and points the team at it.")
	postStart.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	postStart.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postStart.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postStart)

	// POST /api/teams/{teamID}/stations/{stationID}/complete
	postComplete, _ := r.NewOperationContext(http.MethodPost, "/api/teams/{teamID}/stations/{stationID}/complete")
	postComplete.SetSummary("Complete station")
	postComplete.SetDescription("Marks the station completed with the earned score and submitted clips. Safe to retry.")
	postComplete.AddReqStructure(CompleteStationRequest{})
	postComplete.AddRespStructure(CompleteStationResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postComplete.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postComplete.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postComplete.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postComplete)

	// POST /api/teams/{teamID}/stations/{stationID}/skip
	postSkip, _ := r.NewOperationContext(http.MethodPost, "/api/teams/{teamID}/stations/{stationID}/skip")
	postSkip.SetSummary("Skip station")
	postSkip.SetDescription("Marks the station skipped with zero score. Skipped stations do not count toward completion.")
	postSkip.AddReqStructure(SkipStationRequest{})
	postSkip.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	postSkip.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postSkip.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postSkip)

	// GET /api/teams/{teamID}/next-station
	getNext, _ := r.NewOperationContext(http.MethodGet, "/api/teams/{teamID}/next-station")
	getNext.SetSummary("Next station decision")
	getNext.SetDescription("Picks the team's next station, or reports completed/blocked.")
	getNext.AddReqStructure(NextStationRequest{})
	getNext.AddRespStructure(engine.Decision{}, openapi.WithHTTPStatus(http.StatusOK))
	getNext.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getNext)

	// GET /api/teams/{teamID}/progress
	getProgress, _ := r.NewOperationContext(http.MethodGet, "/api/teams/{teamID}/progress")
	getProgress.SetSummary("Team progress")
	getProgress.SetDescription("Full progress snapshot for one team, including the next-station decision.")
	getProgress.AddRespStructure(TeamProgressResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getProgress.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getProgress)

	// GET /api/teams/{teamID}/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/teams/{teamID}/events")
	getEvents.SetSummary("SSE progress stream")
	getEvents.SetDescription("Server-Sent Events stream of the team's progress updates.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	}
}
