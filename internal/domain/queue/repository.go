package queue

import "context"

type Repository interface {
	// ListBySession returns all entries for a session, queued entries first
	// in position order, reserves after.
	ListBySession(ctx context.Context, sessionID string) ([]Entry, error)

	// ReplaceOrdering atomically rewrites the session's entries: queued
	// players take dense positions 1..len(ordering) in slice order and
	// reserves are stored without positions. Either the whole rewrite lands
	// or none of it does.
	ReplaceOrdering(ctx context.Context, sessionID string, ordering, reserves []string) error
}
