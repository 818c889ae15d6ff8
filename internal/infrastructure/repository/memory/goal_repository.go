package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/peladahub/pelada-manager/internal/domain/goal"
)

type GoalRepository struct {
	mu      sync.RWMutex
	byMatch map[string][]goal.Goal
	// matches resolves session membership for ListBySession, mirroring the
	// join the SQL implementation does.
	matches *MatchRepository
}

func NewGoalRepository(matches *MatchRepository) *GoalRepository {
	return &GoalRepository{
		byMatch: make(map[string][]goal.Goal),
		matches: matches,
	}
}

func (r *GoalRepository) ListByMatch(_ context.Context, matchID string) ([]goal.Goal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	goals := r.byMatch[matchID]
	out := make([]goal.Goal, 0, len(goals))
	out = append(out, goals...)

	return out, nil
}

func (r *GoalRepository) Create(_ context.Context, g goal.Goal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byMatch[g.MatchID] = append(r.byMatch[g.MatchID], g)

	return nil
}

func (r *GoalRepository) DeleteLatest(_ context.Context, matchID string) (goal.Goal, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	goals := r.byMatch[matchID]
	if len(goals) == 0 {
		return goal.Goal{}, false, nil
	}
	last := goals[len(goals)-1]
	r.byMatch[matchID] = goals[:len(goals)-1]

	return last, true, nil
}

func (r *GoalRepository) ListBySession(ctx context.Context, sessionID string) ([]goal.Goal, error) {
	matches, err := r.matches.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]goal.Goal, 0)
	for _, m := range matches {
		out = append(out, r.byMatch[m.ID]...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })

	return out, nil
}
