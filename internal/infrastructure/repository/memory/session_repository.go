package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/peladahub/pelada-manager/internal/domain/session"
)

type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]session.Session
}

func NewSessionRepository(sessions []session.Session) *SessionRepository {
	index := make(map[string]session.Session, len(sessions))
	for _, s := range sessions {
		index[s.ID] = s
	}
	return &SessionRepository{sessions: index}
}

func (r *SessionRepository) GetActive(_ context.Context) (session.Session, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.sessions {
		if s.Status == session.StatusActive {
			return s, true, nil
		}
	}

	return session.Session{}, false, nil
}

func (r *SessionRepository) GetByID(_ context.Context, sessionID string) (session.Session, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[sessionID]
	return s, ok, nil
}

func (r *SessionRepository) Create(_ context.Context, s session.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[s.ID]; exists {
		return fmt.Errorf("session %s already exists", s.ID)
	}
	r.sessions[s.ID] = s

	return nil
}

func (r *SessionRepository) SetConsecutiveWins(_ context.Context, sessionID string, wins int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, exists := r.sessions[sessionID]
	if !exists {
		return fmt.Errorf("session %s does not exist", sessionID)
	}
	s.ConsecutiveWins = wins
	r.sessions[sessionID] = s

	return nil
}

func (r *SessionRepository) Finalize(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, exists := r.sessions[sessionID]
	if !exists {
		return fmt.Errorf("session %s does not exist", sessionID)
	}
	now := time.Now().UTC()
	s.Status = session.StatusFinalized
	s.FinalizedAt = &now
	r.sessions[sessionID] = s

	return nil
}
