package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/peladahub/pelada-manager/internal/domain/player"
	"github.com/peladahub/pelada-manager/internal/domain/session"
	"github.com/peladahub/pelada-manager/internal/usecase"
)

type Handler struct {
	playerService  *usecase.PlayerService
	sessionService *usecase.SessionService
	queueService   *usecase.QueueService
	matchService   *usecase.MatchService
	statsService   *usecase.StatsService
	logger         *slog.Logger
	validator      *validator.Validate
}

func NewHandler(
	playerService *usecase.PlayerService,
	sessionService *usecase.SessionService,
	queueService *usecase.QueueService,
	matchService *usecase.MatchService,
	statsService *usecase.StatsService,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		playerService:  playerService,
		sessionService: sessionService,
		queueService:   queueService,
		matchService:   matchService,
		statsService:   statsService,
		logger:         logger,
		validator:      validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

type playerDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	SkillRating int    `json:"skill_rating"`
	GamesPlayed int    `json:"games_played"`
	Wins        int    `json:"wins"`
	Goals       int    `json:"goals"`
}

func playerToDTO(p player.Player) playerDTO {
	return playerDTO{
		ID:          p.ID,
		Name:        p.Name,
		SkillRating: p.SkillRating,
		GamesPlayed: p.GamesPlayed,
		Wins:        p.Wins,
		Goals:       p.Goals,
	}
}

func playersToDTO(players []player.Player) []playerDTO {
	items := make([]playerDTO, 0, len(players))
	for _, p := range players {
		items = append(items, playerToDTO(p))
	}

	return items
}

type sessionDTO struct {
	ID              string     `json:"id"`
	Date            time.Time  `json:"date"`
	Location        string     `json:"location"`
	Status          string     `json:"status"`
	ConsecutiveWins int        `json:"consecutive_wins"`
	CreatedAt       time.Time  `json:"created_at"`
	FinalizedAt     *time.Time `json:"finalized_at,omitempty"`
}

func sessionToDTO(s session.Session) sessionDTO {
	return sessionDTO{
		ID:              s.ID,
		Date:            s.Date,
		Location:        s.Location,
		Status:          string(s.Status),
		ConsecutiveWins: s.ConsecutiveWins,
		CreatedAt:       s.CreatedAt,
		FinalizedAt:     s.FinalizedAt,
	}
}

type queueSnapshotDTO struct {
	Session         sessionDTO  `json:"session"`
	TeamA           []playerDTO `json:"team_a"`
	TeamB           []playerDTO `json:"team_b"`
	Waiting         []playerDTO `json:"waiting"`
	Reserves        []playerDTO `json:"reserves"`
	ConsecutiveWins int         `json:"consecutive_wins"`
}

func queueSnapshotToDTO(s usecase.QueueSnapshot) queueSnapshotDTO {
	return queueSnapshotDTO{
		Session:         sessionToDTO(s.Session),
		TeamA:           playersToDTO(s.TeamA),
		TeamB:           playersToDTO(s.TeamB),
		Waiting:         playersToDTO(s.Waiting),
		Reserves:        playersToDTO(s.Reserves),
		ConsecutiveWins: s.ConsecutiveWins,
	}
}

type matchStateDTO struct {
	ID               string     `json:"id"`
	SessionID        string     `json:"session_id"`
	Sequence         int        `json:"sequence"`
	TeamA            []string   `json:"team_a"`
	TeamB            []string   `json:"team_b"`
	ScoreA           int        `json:"score_a"`
	ScoreB           int        `json:"score_b"`
	Status           string     `json:"status"`
	ElapsedSeconds   int        `json:"elapsed_seconds"`
	RemainingSeconds int        `json:"remaining_seconds"`
	Expired          bool       `json:"expired"`
	Stale            bool       `json:"stale"`
	Winner           string     `json:"winner,omitempty"`
	FinishedAt       *time.Time `json:"finished_at,omitempty"`
}

func matchStateToDTO(s usecase.MatchState) matchStateDTO {
	return matchStateDTO{
		ID:               s.Match.ID,
		SessionID:        s.Match.SessionID,
		Sequence:         s.Match.Sequence,
		TeamA:            s.Match.TeamA,
		TeamB:            s.Match.TeamB,
		ScoreA:           s.Match.ScoreA,
		ScoreB:           s.Match.ScoreB,
		Status:           string(s.Match.Status),
		ElapsedSeconds:   int(s.Elapsed.Seconds()),
		RemainingSeconds: int(s.Remaining.Seconds()),
		Expired:          s.Expired,
		Stale:            s.Stale,
		Winner:           string(s.Match.Winner),
		FinishedAt:       s.Match.FinishedAt,
	}
}

type scoreboardLineDTO struct {
	Player      playerDTO `json:"player"`
	GamesPlayed int       `json:"games_played"`
	Wins        int       `json:"wins"`
	Goals       int       `json:"goals"`
}

type scoreboardDTO struct {
	SessionID       string              `json:"session_id"`
	MatchesPlayed   int                 `json:"matches_played"`
	MatchesFinished int                 `json:"matches_finished"`
	Lines           []scoreboardLineDTO `json:"lines"`
}

func scoreboardToDTO(s usecase.SessionStats) scoreboardDTO {
	lines := make([]scoreboardLineDTO, 0, len(s.Lines))
	for _, l := range s.Lines {
		lines = append(lines, scoreboardLineDTO{
			Player:      playerToDTO(l.Player),
			GamesPlayed: l.GamesPlayed,
			Wins:        l.Wins,
			Goals:       l.Goals,
		})
	}

	return scoreboardDTO{
		SessionID:       s.SessionID,
		MatchesPlayed:   s.MatchesPlayed,
		MatchesFinished: s.MatchesFinished,
		Lines:           lines,
	}
}
