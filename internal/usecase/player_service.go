package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/peladahub/pelada-manager/internal/domain/player"
	"github.com/peladahub/pelada-manager/internal/domain/queue"
	"github.com/peladahub/pelada-manager/internal/domain/session"
	"github.com/peladahub/pelada-manager/internal/platform/id"
)

type RegisterPlayerInput struct {
	Name        string
	SkillRating int
}

type PlayerService struct {
	playerRepo  player.Repository
	sessionRepo session.Repository
	queueRepo   queue.Repository
	idGen       id.Generator
}

func NewPlayerService(
	playerRepo player.Repository,
	sessionRepo session.Repository,
	queueRepo queue.Repository,
	idGen id.Generator,
) *PlayerService {
	return &PlayerService{
		playerRepo:  playerRepo,
		sessionRepo: sessionRepo,
		queueRepo:   queueRepo,
		idGen:       idGen,
	}
}

func (s *PlayerService) List(ctx context.Context) ([]player.Player, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerService.List")
	defer span.End()

	players, err := s.playerRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	return players, nil
}

func (s *PlayerService) Get(ctx context.Context, playerID string) (player.Player, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerService.Get")
	defer span.End()

	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return player.Player{}, fmt.Errorf("%w: player_id is required", ErrInvalidInput)
	}

	p, exists, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		return player.Player{}, fmt.Errorf("get player: %w", err)
	}
	if !exists {
		return player.Player{}, fmt.Errorf("%w: player %s", ErrNotFound, playerID)
	}
	return p, nil
}

func (s *PlayerService) Register(ctx context.Context, input RegisterPlayerInput) (player.Player, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerService.Register")
	defer span.End()

	playerID, err := s.idGen.NewID()
	if err != nil {
		return player.Player{}, fmt.Errorf("generate player id: %w", err)
	}

	p := player.Player{
		ID:          playerID,
		Name:        strings.TrimSpace(input.Name),
		SkillRating: input.SkillRating,
	}
	if err := p.Validate(); err != nil {
		return player.Player{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.playerRepo.Create(ctx, p); err != nil {
		return player.Player{}, fmt.Errorf("create player: %w", err)
	}
	return p, nil
}

func (s *PlayerService) UpdateSkill(ctx context.Context, playerID string, skillRating int) (player.Player, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerService.UpdateSkill")
	defer span.End()

	p, err := s.Get(ctx, playerID)
	if err != nil {
		return player.Player{}, err
	}

	p.SkillRating = skillRating
	if err := p.Validate(); err != nil {
		return player.Player{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.playerRepo.Update(ctx, p); err != nil {
		return player.Player{}, fmt.Errorf("update player: %w", err)
	}
	return p, nil
}

// Remove soft-deletes a player. A player taking part in the active
// session cannot be removed; end the session or dequeue them first.
func (s *PlayerService) Remove(ctx context.Context, playerID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerService.Remove")
	defer span.End()

	if _, err := s.Get(ctx, playerID); err != nil {
		return err
	}

	active, exists, err := s.sessionRepo.GetActive(ctx)
	if err != nil {
		return fmt.Errorf("%w: get active session: %v", ErrDataUnavailable, err)
	}
	if exists {
		entries, err := s.queueRepo.ListBySession(ctx, active.ID)
		if err != nil {
			return fmt.Errorf("%w: list queue entries: %v", ErrDataUnavailable, err)
		}
		for _, entry := range entries {
			if entry.PlayerID == playerID {
				return fmt.Errorf("%w: player %s is part of the active session", ErrInvalidTransition, playerID)
			}
		}
	}

	if err := s.playerRepo.SoftDelete(ctx, playerID); err != nil {
		return fmt.Errorf("delete player: %w", err)
	}
	return nil
}
