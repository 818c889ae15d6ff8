package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"github.com/peladahub/pelada-manager/internal/domain/goal"
	"github.com/peladahub/pelada-manager/internal/domain/match"
	"github.com/peladahub/pelada-manager/internal/domain/player"
	"github.com/peladahub/pelada-manager/internal/platform/cache"
)

// PlayerLine is one row of a session scoreboard.
type PlayerLine struct {
	Player      player.Player
	GamesPlayed int
	Wins        int
	Goals       int
}

type SessionStats struct {
	SessionID       string
	MatchesPlayed   int
	MatchesFinished int
	Lines           []PlayerLine
}

type StatsService struct {
	matchRepo  match.Repository
	goalRepo   goal.Repository
	playerRepo player.Repository
	store      *cache.Store
}

func NewStatsService(
	matchRepo match.Repository,
	goalRepo goal.Repository,
	playerRepo player.Repository,
	store *cache.Store,
) *StatsService {
	return &StatsService{
		matchRepo:  matchRepo,
		goalRepo:   goalRepo,
		playerRepo: playerRepo,
		store:      store,
	}
}

// SessionScoreboard aggregates the day so far: per participant, the
// games, wins, and goals inside this session. Results are cached for a
// short TTL with request coalescing, since every spectator screen polls
// the same scoreboard.
func (s *StatsService) SessionScoreboard(ctx context.Context, sessionID string) (SessionStats, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsService.SessionScoreboard")
	defer span.End()

	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return SessionStats{}, fmt.Errorf("%w: session_id is required", ErrInvalidInput)
	}

	if s.store == nil {
		return s.buildScoreboard(ctx, sessionID)
	}

	value, err := s.store.GetOrLoad(ctx, "session_stats:"+sessionID, func(ctx context.Context) (any, error) {
		return s.buildScoreboard(ctx, sessionID)
	})
	if err != nil {
		return SessionStats{}, err
	}
	stats, ok := value.(SessionStats)
	if !ok {
		return SessionStats{}, fmt.Errorf("unexpected cache entry type %T", value)
	}
	return stats, nil
}

// Invalidate drops the cached scoreboard of a session, used after a
// result is confirmed so the next poll sees it immediately.
func (s *StatsService) Invalidate(ctx context.Context, sessionID string) {
	if s.store == nil {
		return
	}
	s.store.Delete(ctx, "session_stats:"+strings.TrimSpace(sessionID))
}

func (s *StatsService) buildScoreboard(ctx context.Context, sessionID string) (SessionStats, error) {
	var (
		matches []match.Match
		goals   []goal.Goal
	)
	p := pool.New().WithErrors().WithContext(ctx)
	p.Go(func(ctx context.Context) error {
		var err error
		matches, err = s.matchRepo.ListBySession(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("list matches: %w", err)
		}
		return nil
	})
	p.Go(func(ctx context.Context) error {
		var err error
		goals, err = s.goalRepo.ListBySession(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("list goals: %w", err)
		}
		return nil
	})
	if err := p.Wait(); err != nil {
		return SessionStats{}, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}

	type tally struct {
		games int
		wins  int
		goals int
	}
	byPlayer := make(map[string]*tally)
	line := func(pid string) *tally {
		t, ok := byPlayer[pid]
		if !ok {
			t = &tally{}
			byPlayer[pid] = t
		}
		return t
	}

	stats := SessionStats{SessionID: sessionID}
	for _, m := range matches {
		if m.Status == match.StatusCancelled {
			continue
		}
		stats.MatchesPlayed++
		if m.Status != match.StatusFinished {
			continue
		}
		stats.MatchesFinished++
		for _, pid := range m.TeamA {
			t := line(pid)
			t.games++
			if m.Winner == match.SideA {
				t.wins++
			}
		}
		for _, pid := range m.TeamB {
			t := line(pid)
			t.games++
			if m.Winner == match.SideB {
				t.wins++
			}
		}
	}
	for _, g := range goals {
		if g.PlayerID != nil {
			line(*g.PlayerID).goals++
		}
	}

	ids := make([]string, 0, len(byPlayer))
	for pid := range byPlayer {
		ids = append(ids, pid)
	}
	players, err := s.playerRepo.GetByIDs(ctx, ids)
	if err != nil {
		return SessionStats{}, fmt.Errorf("%w: get players: %v", ErrDataUnavailable, err)
	}

	for _, pl := range players {
		t := byPlayer[pl.ID]
		stats.Lines = append(stats.Lines, PlayerLine{
			Player:      pl,
			GamesPlayed: t.games,
			Wins:        t.wins,
			Goals:       t.goals,
		})
	}
	sort.SliceStable(stats.Lines, func(i, j int) bool {
		if stats.Lines[i].Wins != stats.Lines[j].Wins {
			return stats.Lines[i].Wins > stats.Lines[j].Wins
		}
		if stats.Lines[i].Goals != stats.Lines[j].Goals {
			return stats.Lines[i].Goals > stats.Lines[j].Goals
		}
		return stats.Lines[i].Player.Name < stats.Lines[j].Player.Name
	})

	return stats, nil
}

// LifetimeLeaderboard ranks every registered player by accumulated wins,
// then goals, across all finalized sessions.
func (s *StatsService) LifetimeLeaderboard(ctx context.Context) ([]player.Player, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsService.LifetimeLeaderboard")
	defer span.End()

	players, err := s.playerRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	sort.SliceStable(players, func(i, j int) bool {
		if players[i].Wins != players[j].Wins {
			return players[i].Wins > players[j].Wins
		}
		if players[i].Goals != players[j].Goals {
			return players[i].Goals > players[j].Goals
		}
		return players[i].Name < players[j].Name
	})
	return players, nil
}
