package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/peladahub/pelada-manager/internal/domain/player"
)

type PlayerRepository struct {
	mu      sync.RWMutex
	players map[string]player.Player
}

func NewPlayerRepository(players []player.Player) *PlayerRepository {
	index := make(map[string]player.Player, len(players))
	for _, p := range players {
		index[p.ID] = p
	}
	return &PlayerRepository{players: index}
}

func (r *PlayerRepository) List(_ context.Context) ([]player.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]player.Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out, nil
}

func (r *PlayerRepository) GetByID(_ context.Context, playerID string) (player.Player, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.players[playerID]
	return p, ok, nil
}

func (r *PlayerRepository) GetByIDs(_ context.Context, playerIDs []string) ([]player.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]player.Player, 0, len(playerIDs))
	seen := make(map[string]struct{}, len(playerIDs))
	for _, id := range playerIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if p, ok := r.players[id]; ok {
			out = append(out, p)
		}
	}

	return out, nil
}

func (r *PlayerRepository) Create(_ context.Context, p player.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.players[p.ID]; exists {
		return fmt.Errorf("player %s already exists", p.ID)
	}
	r.players[p.ID] = p

	return nil
}

func (r *PlayerRepository) Update(_ context.Context, p player.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.players[p.ID]; !exists {
		return fmt.Errorf("player %s does not exist", p.ID)
	}
	r.players[p.ID] = p

	return nil
}

func (r *PlayerRepository) SoftDelete(_ context.Context, playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.players[playerID]; !exists {
		return fmt.Errorf("player %s does not exist", playerID)
	}
	delete(r.players, playerID)

	return nil
}

func (r *PlayerRepository) ApplyStatDeltas(_ context.Context, deltas map[string]player.StatDelta) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, d := range deltas {
		p, exists := r.players[id]
		if !exists {
			return fmt.Errorf("player %s does not exist", id)
		}
		p.GamesPlayed += d.GamesPlayed
		p.Wins += d.Wins
		p.Goals += d.Goals
		r.players[id] = p
	}

	return nil
}
