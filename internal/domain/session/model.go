package session

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusFinalized Status = "finalized"
)

// Session is one day of play. It owns exactly one queue ordering and
// zero-or-more matches; at most one session is active at a time.
type Session struct {
	ID        string
	Date      time.Time
	Location  string
	Status    Status
	CreatedAt time.Time

	// FinalizedAt is set when the session is explicitly ended.
	FinalizedAt *time.Time

	// ConsecutiveWins counts how many matches the current Team A lineup
	// has won in a row. Reset by ties and by the win cap; set to 1 when a
	// winning Team B takes over the Team A slot.
	ConsecutiveWins int
}

func (s Session) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("session id is required")
	}
	if s.Status != StatusActive && s.Status != StatusFinalized {
		return fmt.Errorf("invalid session status: %s", s.Status)
	}
	if s.ConsecutiveWins < 0 {
		return fmt.Errorf("consecutive wins cannot be negative")
	}

	return nil
}

func (s Session) Active() bool {
	return s.Status == StatusActive
}
