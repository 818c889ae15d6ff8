package httpapi

import (
	"fmt"
	"net/http"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/peladahub/pelada-manager/internal/usecase"
)

type startSessionRequest struct {
	Date      time.Time `json:"date" validate:"required"`
	Location  string    `json:"location" validate:"required,max=200"`
	PlayerIDs []string  `json:"player_ids" validate:"required,min=12,dive,required"`
	Shuffle   bool      `json:"shuffle"`
}

func (h *Handler) GetActiveSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetActiveSession")
	defer span.End()

	sess, ok, err := h.sessionService.GetActive(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "get active session failed", "error", err)
		writeError(ctx, w, err)
		return
	}
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: no active session", usecase.ErrNotFound))
		return
	}

	writeSuccess(ctx, w, http.StatusOK, sessionToDTO(sess))
}

func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.StartSession")
	defer span.End()

	var req startSessionRequest
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

	sess, err := h.sessionService.Start(ctx, usecase.StartSessionInput{
		Date:      req.Date,
		Location:  req.Location,
		PlayerIDs: req.PlayerIDs,
		Shuffle:   req.Shuffle,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "start session failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, sessionToDTO(sess))
}

func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.EndSession")
	defer span.End()

	sessionID := r.PathValue("sessionID")
	sess, err := h.sessionService.End(ctx, sessionID)
	if err != nil {
		h.logger.WarnContext(ctx, "end session failed", "session_id", sessionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	h.statsService.Invalidate(ctx, sessionID)
	writeSuccess(ctx, w, http.StatusOK, sessionToDTO(sess))
}
