package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/peladahub/pelada-manager/internal/domain/match"
)

type MatchRepository struct {
	mu      sync.RWMutex
	matches map[string]match.Match
}

func NewMatchRepository() *MatchRepository {
	return &MatchRepository{matches: make(map[string]match.Match)}
}

func (r *MatchRepository) GetByID(_ context.Context, matchID string) (match.Match, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.matches[matchID]
	return m, ok, nil
}

func (r *MatchRepository) GetActiveBySession(_ context.Context, sessionID string) (match.Match, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.matches {
		if m.SessionID == sessionID && m.Active() {
			return m, true, nil
		}
	}

	return match.Match{}, false, nil
}

func (r *MatchRepository) ListBySession(_ context.Context, sessionID string) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.Match, 0)
	for _, m := range r.matches {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })

	return out, nil
}

func (r *MatchRepository) Create(_ context.Context, m match.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.matches[m.ID]; exists {
		return fmt.Errorf("match %s already exists", m.ID)
	}
	r.matches[m.ID] = m

	return nil
}

func (r *MatchRepository) UpdateStatus(_ context.Context, m match.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.matches[m.ID]; !exists {
		return fmt.Errorf("match %s does not exist", m.ID)
	}
	r.matches[m.ID] = m

	return nil
}

func (r *MatchRepository) UpdateElapsed(_ context.Context, matchID string, elapsedSeconds int, startedAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, exists := r.matches[matchID]
	if !exists {
		return fmt.Errorf("match %s does not exist", matchID)
	}
	m.ElapsedSeconds = elapsedSeconds
	m.StartedAt = startedAt
	r.matches[matchID] = m

	return nil
}

func (r *MatchRepository) UpdateScore(_ context.Context, matchID string, scoreA, scoreB int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, exists := r.matches[matchID]
	if !exists {
		return fmt.Errorf("match %s does not exist", matchID)
	}
	m.ScoreA = scoreA
	m.ScoreB = scoreB
	r.matches[matchID] = m

	return nil
}
