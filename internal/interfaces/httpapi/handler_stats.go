package httpapi

import (
	"net/http"
)

func (h *Handler) GetSessionScoreboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSessionScoreboard")
	defer span.End()

	sessionID := r.PathValue("sessionID")
	stats, err := h.statsService.SessionScoreboard(ctx, sessionID)
	if err != nil {
		h.logger.WarnContext(ctx, "session scoreboard failed", "session_id", sessionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, scoreboardToDTO(stats))
}

func (h *Handler) GetLifetimeLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLifetimeLeaderboard")
	defer span.End()

	players, err := h.statsService.LifetimeLeaderboard(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "lifetime leaderboard failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, playersToDTO(players))
}
