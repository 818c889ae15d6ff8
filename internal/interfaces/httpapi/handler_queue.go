package httpapi

import (
	"fmt"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/peladahub/pelada-manager/internal/usecase"
)

type enqueueRequest struct {
	PlayerID string `json:"player_id" validate:"required"`
}

type substituteRequest struct {
	Position int    `json:"position" validate:"required,min=1"`
	PlayerID string `json:"player_id" validate:"required"`
}

func (h *Handler) GetQueue(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetQueue")
	defer span.End()

	sessionID := r.PathValue("sessionID")
	snapshot, err := h.queueService.Load(ctx, sessionID)
	if err != nil {
		h.logger.WarnContext(ctx, "load queue failed", "session_id", sessionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, queueSnapshotToDTO(snapshot))
}

func (h *Handler) EnqueuePlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.EnqueuePlayer")
	defer span.End()

	sessionID := r.PathValue("sessionID")

	var req enqueueRequest
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

	snapshot, err := h.queueService.Enqueue(ctx, sessionID, req.PlayerID)
	if err != nil {
		h.logger.WarnContext(ctx, "enqueue failed", "session_id", sessionID, "player_id", req.PlayerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, queueSnapshotToDTO(snapshot))
}

func (h *Handler) DequeuePlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DequeuePlayer")
	defer span.End()

	sessionID := r.PathValue("sessionID")
	playerID := r.PathValue("playerID")

	snapshot, err := h.queueService.Dequeue(ctx, sessionID, playerID)
	if err != nil {
		h.logger.WarnContext(ctx, "dequeue failed", "session_id", sessionID, "player_id", playerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, queueSnapshotToDTO(snapshot))
}

func (h *Handler) MovePlayerToReserve(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.MovePlayerToReserve")
	defer span.End()

	sessionID := r.PathValue("sessionID")
	playerID := r.PathValue("playerID")

	snapshot, err := h.queueService.MoveToReserve(ctx, sessionID, playerID)
	if err != nil {
		h.logger.WarnContext(ctx, "move to reserve failed", "session_id", sessionID, "player_id", playerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, queueSnapshotToDTO(snapshot))
}

func (h *Handler) SubstitutePlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubstitutePlayer")
	defer span.End()

	sessionID := r.PathValue("sessionID")

	var req substituteRequest
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

	snapshot, err := h.queueService.Substitute(ctx, sessionID, req.Position, req.PlayerID)
	if err != nil {
		h.logger.WarnContext(ctx, "substitute failed", "session_id", sessionID, "position", req.Position, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, queueSnapshotToDTO(snapshot))
}
