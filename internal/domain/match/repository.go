package match

import (
	"context"
	"time"
)

type Repository interface {
	GetByID(ctx context.Context, matchID string) (Match, bool, error)
	// GetActiveBySession returns the session's match that has not yet been
	// finished or cancelled, if any.
	GetActiveBySession(ctx context.Context, sessionID string) (Match, bool, error)
	ListBySession(ctx context.Context, sessionID string) ([]Match, error)
	Create(ctx context.Context, m Match) error

	// UpdateStatus persists a state transition together with the clock
	// fields it fixes.
	UpdateStatus(ctx context.Context, m Match) error

	// UpdateElapsed persists only the clock checkpoint. It is kept separate
	// from UpdateStatus so a stale periodic tick can never resurrect an
	// already-superseded status.
	UpdateElapsed(ctx context.Context, matchID string, elapsedSeconds int, startedAt *time.Time) error

	UpdateScore(ctx context.Context, matchID string, scoreA, scoreB int) error
}
