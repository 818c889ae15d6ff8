package httpapi

import (
	"fmt"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/peladahub/pelada-manager/internal/domain/match"
	"github.com/peladahub/pelada-manager/internal/usecase"
)

type recordGoalRequest struct {
	Team     string `json:"team" validate:"required,oneof=A B"`
	PlayerID string `json:"player_id"`
	OwnGoal  bool   `json:"own_goal"`
}

type finishMatchRequest struct {
	TieBreak string `json:"tie_break" validate:"omitempty,oneof=A B"`
}

func (h *Handler) CreateNextMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateNextMatch")
	defer span.End()

	sessionID := r.PathValue("sessionID")
	state, err := h.matchService.CreateNext(ctx, sessionID)
	if err != nil {
		h.logger.WarnContext(ctx, "create match failed", "session_id", sessionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, matchStateToDTO(state))
}

func (h *Handler) GetMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMatch")
	defer span.End()

	matchID := r.PathValue("matchID")
	state, err := h.matchService.Get(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "get match failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchStateToDTO(state))
}

func (h *Handler) GetActiveMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetActiveMatch")
	defer span.End()

	sessionID := r.PathValue("sessionID")
	state, ok, err := h.matchService.GetActive(ctx, sessionID)
	if err != nil {
		h.logger.WarnContext(ctx, "get active match failed", "session_id", sessionID, "error", err)
		writeError(ctx, w, err)
		return
	}
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: no active match in session", usecase.ErrNotFound))
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchStateToDTO(state))
}

func (h *Handler) StartMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.StartMatch")
	defer span.End()

	matchID := r.PathValue("matchID")
	state, err := h.matchService.Start(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "start match failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchStateToDTO(state))
}

func (h *Handler) PauseMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PauseMatch")
	defer span.End()

	matchID := r.PathValue("matchID")
	state, err := h.matchService.Pause(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "pause match failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchStateToDTO(state))
}

func (h *Handler) ResumeMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ResumeMatch")
	defer span.End()

	matchID := r.PathValue("matchID")
	state, err := h.matchService.Resume(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "resume match failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchStateToDTO(state))
}

// TickMatch is polled by the operator screen; it advances the clock
// authority and reports expiry without mutating match status.
func (h *Handler) TickMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.TickMatch")
	defer span.End()

	matchID := r.PathValue("matchID")
	state, err := h.matchService.Tick(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "tick match failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchStateToDTO(state))
}

func (h *Handler) RecordGoal(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RecordGoal")
	defer span.End()

	matchID := r.PathValue("matchID")

	var req recordGoalRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	state, err := h.matchService.RecordGoal(ctx, matchID, usecase.GoalInput{
		Team:     match.Side(req.Team),
		PlayerID: req.PlayerID,
		OwnGoal:  req.OwnGoal,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "record goal failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	h.statsService.Invalidate(ctx, state.Match.SessionID)
	writeSuccess(ctx, w, http.StatusOK, matchStateToDTO(state))
}

func (h *Handler) UndoLastGoal(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UndoLastGoal")
	defer span.End()

	matchID := r.PathValue("matchID")
	state, err := h.matchService.UndoLastGoal(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "undo goal failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	h.statsService.Invalidate(ctx, state.Match.SessionID)
	writeSuccess(ctx, w, http.StatusOK, matchStateToDTO(state))
}

type finishMatchResponse struct {
	Match matchStateDTO    `json:"match"`
	Queue queueSnapshotDTO `json:"queue"`
}

func (h *Handler) FinishMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.FinishMatch")
	defer span.End()

	matchID := r.PathValue("matchID")

	var req finishMatchRequest
	if r.ContentLength > 0 {
		decoder := sonic.ConfigDefault.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&req); err != nil {
			writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
			return
		}
		if err := h.validateRequest(ctx, req); err != nil {
			writeError(ctx, w, err)
			return
		}
	}

	state, snapshot, err := h.matchService.Finish(ctx, matchID, match.Side(req.TieBreak))
	if err != nil {
		h.logger.WarnContext(ctx, "finish match failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	h.statsService.Invalidate(ctx, state.Match.SessionID)
	writeSuccess(ctx, w, http.StatusOK, finishMatchResponse{
		Match: matchStateToDTO(state),
		Queue: queueSnapshotToDTO(snapshot),
	})
}

func (h *Handler) CancelMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CancelMatch")
	defer span.End()

	matchID := r.PathValue("matchID")
	state, err := h.matchService.Cancel(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "cancel match failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchStateToDTO(state))
}
