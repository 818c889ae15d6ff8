package queue

import (
	"errors"
	"fmt"
)

var (
	ErrCapacityExceeded      = errors.New("queue capacity exceeded")
	ErrDuplicatePlayer       = errors.New("player already queued")
	ErrInsufficientPlayers   = errors.New("not enough players for two teams")
	ErrMissingTieBreak       = errors.New("tie requires a priority team")
	ErrPlayerNotQueued       = errors.New("player is not in the queue")
	ErrPositionOutOfBounds   = errors.New("queue position out of bounds")
	ErrOrderingNotContiguous = errors.New("queue positions are not contiguous")
)

type EntryStatus string

const (
	// StatusQueued entries hold a position in the ordering; positions 1
	// through 2*TeamSize are the current field players.
	StatusQueued EntryStatus = "queued"
	// StatusReserve entries are registered for the session but outside the
	// ordering; they hold no position.
	StatusReserve EntryStatus = "reserve"
)

type Entry struct {
	SessionID string
	PlayerID  string
	Position  int
	Status    EntryStatus
}

// Ordering extracts the dense 1..N player ordering from a session's
// entries. Entries must arrive sorted by position; reserves are skipped.
// A gap or duplicate position is a corruption the caller must surface,
// not repair silently.
func Ordering(entries []Entry) ([]string, error) {
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Status == StatusReserve {
			continue
		}
		if e.Position != len(ids)+1 {
			return nil, fmt.Errorf("%w: position %d held by player %s, want %d",
				ErrOrderingNotContiguous, e.Position, e.PlayerID, len(ids)+1)
		}
		ids = append(ids, e.PlayerID)
	}
	return ids, nil
}

// Reserves extracts the reserve player IDs from a session's entries.
func Reserves(entries []Entry) []string {
	ids := make([]string, 0)
	for _, e := range entries {
		if e.Status == StatusReserve {
			ids = append(ids, e.PlayerID)
		}
	}
	return ids
}

// Remove returns the ordering with one player taken out and the gap
// closed. The relative order of everyone else is preserved.
func Remove(ordering []string, playerID string) ([]string, error) {
	out := make([]string, 0, len(ordering))
	found := false
	for _, id := range ordering {
		if id == playerID {
			found = true
			continue
		}
		out = append(out, id)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrPlayerNotQueued, playerID)
	}
	return out, nil
}

// Replace swaps the player at the given 1-based position for another,
// preserving the position. The incoming player must not already hold one.
func Replace(ordering []string, position int, playerID string) ([]string, error) {
	if position < 1 || position > len(ordering) {
		return nil, fmt.Errorf("%w: %d of %d", ErrPositionOutOfBounds, position, len(ordering))
	}
	for _, id := range ordering {
		if id == playerID {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePlayer, playerID)
		}
	}
	out := make([]string, len(ordering))
	copy(out, ordering)
	out[position-1] = playerID
	return out, nil
}

func Contains(ordering []string, playerID string) bool {
	for _, id := range ordering {
		if id == playerID {
			return true
		}
	}
	return false
}
