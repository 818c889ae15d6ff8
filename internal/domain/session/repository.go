package session

import "context"

// Repository describes session persistence needs from use cases.
type Repository interface {
	GetActive(ctx context.Context) (Session, bool, error)
	GetByID(ctx context.Context, sessionID string) (Session, bool, error)
	Create(ctx context.Context, s Session) error
	SetConsecutiveWins(ctx context.Context, sessionID string, wins int) error
	Finalize(ctx context.Context, sessionID string) error
}
