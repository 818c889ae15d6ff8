package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

// Public routes serve the courtside screens: anyone at the venue can
// watch the queue, the clock, and the scoreboard.
func registerPublicRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/players", handler.ListPlayers)
	mux.HandleFunc("GET /v1/players/{playerID}", handler.GetPlayer)
	mux.HandleFunc("GET /v1/players/leaderboard", handler.GetLifetimeLeaderboard)
	mux.HandleFunc("GET /v1/sessions/active", handler.GetActiveSession)
	mux.HandleFunc("GET /v1/sessions/{sessionID}/queue", handler.GetQueue)
	mux.HandleFunc("GET /v1/sessions/{sessionID}/scoreboard", handler.GetSessionScoreboard)
	mux.HandleFunc("GET /v1/sessions/{sessionID}/matches/active", handler.GetActiveMatch)
	mux.HandleFunc("GET /v1/matches/{matchID}", handler.GetMatch)
}

// Operator routes mutate session state and are limited to organizers.
func registerOperatorRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/players", RequireOperator(verifier, http.HandlerFunc(handler.RegisterPlayer)))
	mux.Handle("PATCH /v1/players/{playerID}/skill", RequireOperator(verifier, http.HandlerFunc(handler.UpdatePlayerSkill)))
	mux.Handle("DELETE /v1/players/{playerID}", RequireOperator(verifier, http.HandlerFunc(handler.RemovePlayer)))

	mux.Handle("POST /v1/sessions", RequireOperator(verifier, http.HandlerFunc(handler.StartSession)))
	mux.Handle("POST /v1/sessions/{sessionID}/end", RequireOperator(verifier, http.HandlerFunc(handler.EndSession)))

	mux.Handle("POST /v1/sessions/{sessionID}/queue", RequireOperator(verifier, http.HandlerFunc(handler.EnqueuePlayer)))
	mux.Handle("DELETE /v1/sessions/{sessionID}/queue/{playerID}", RequireOperator(verifier, http.HandlerFunc(handler.DequeuePlayer)))
	mux.Handle("POST /v1/sessions/{sessionID}/queue/{playerID}/reserve", RequireOperator(verifier, http.HandlerFunc(handler.MovePlayerToReserve)))
	mux.Handle("POST /v1/sessions/{sessionID}/queue/substitute", RequireOperator(verifier, http.HandlerFunc(handler.SubstitutePlayer)))

	mux.Handle("POST /v1/sessions/{sessionID}/matches", RequireOperator(verifier, http.HandlerFunc(handler.CreateNextMatch)))
	mux.Handle("POST /v1/matches/{matchID}/start", RequireOperator(verifier, http.HandlerFunc(handler.StartMatch)))
	mux.Handle("POST /v1/matches/{matchID}/pause", RequireOperator(verifier, http.HandlerFunc(handler.PauseMatch)))
	mux.Handle("POST /v1/matches/{matchID}/resume", RequireOperator(verifier, http.HandlerFunc(handler.ResumeMatch)))
	mux.Handle("POST /v1/matches/{matchID}/tick", RequireOperator(verifier, http.HandlerFunc(handler.TickMatch)))
	mux.Handle("POST /v1/matches/{matchID}/goals", RequireOperator(verifier, http.HandlerFunc(handler.RecordGoal)))
	mux.Handle("DELETE /v1/matches/{matchID}/goals/latest", RequireOperator(verifier, http.HandlerFunc(handler.UndoLastGoal)))
	mux.Handle("POST /v1/matches/{matchID}/finish", RequireOperator(verifier, http.HandlerFunc(handler.FinishMatch)))
	mux.Handle("POST /v1/matches/{matchID}/cancel", RequireOperator(verifier, http.HandlerFunc(handler.CancelMatch)))
}
