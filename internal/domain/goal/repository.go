package goal

import "context"

type Repository interface {
	ListByMatch(ctx context.Context, matchID string) ([]Goal, error)
	Create(ctx context.Context, g Goal) error
	// DeleteLatest removes the most recent goal of a match and returns it.
	// Returns exists=false when the match has no goals left.
	DeleteLatest(ctx context.Context, matchID string) (Goal, bool, error)
	ListBySession(ctx context.Context, sessionID string) ([]Goal, error)
}
