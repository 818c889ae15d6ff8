package memory

import (
	"context"
	"sync"

	"github.com/peladahub/pelada-manager/internal/domain/queue"
)

type QueueRepository struct {
	mu        sync.RWMutex
	bySession map[string][]queue.Entry
}

func NewQueueRepository() *QueueRepository {
	return &QueueRepository{bySession: make(map[string][]queue.Entry)}
}

func (r *QueueRepository) ListBySession(_ context.Context, sessionID string) ([]queue.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := r.bySession[sessionID]
	out := make([]queue.Entry, 0, len(entries))
	out = append(out, entries...)

	return out, nil
}

func (r *QueueRepository) ReplaceOrdering(_ context.Context, sessionID string, ordering, reserves []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := make([]queue.Entry, 0, len(ordering)+len(reserves))
	for i, pid := range ordering {
		entries = append(entries, queue.Entry{
			SessionID: sessionID,
			PlayerID:  pid,
			Position:  i + 1,
			Status:    queue.StatusQueued,
		})
	}
	for _, pid := range reserves {
		entries = append(entries, queue.Entry{
			SessionID: sessionID,
			PlayerID:  pid,
			Status:    queue.StatusReserve,
		})
	}
	r.bySession[sessionID] = entries

	return nil
}
