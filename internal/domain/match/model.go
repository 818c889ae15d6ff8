package match

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusRunning    Status = "running"
	StatusPaused     Status = "paused"
	StatusFinished   Status = "finished"
	StatusCancelled  Status = "cancelled"
)

// Side identifies one of the two lineups on the field. The zero value
// stands for "no side": a tie when used as a winner.
type Side string

const (
	SideA Side = "A"
	SideB Side = "B"
)

func (s Side) Valid() bool {
	return s == SideA || s == SideB
}

func (s Side) Opponent() Side {
	if s == SideA {
		return SideB
	}
	return SideA
}

// Result is the outcome handed to the queue rotation. Winner is empty on a
// tie, in which case TieBreakPriority names the team that re-enters the
// queue ahead of the other.
type Result struct {
	Winner           Side
	TieBreakPriority Side
}

func (r Result) Tie() bool {
	return r.Winner == ""
}

// Match is a single timed contest between two six-player lineups. Rosters
// are ordered lists of player IDs; ScoreA/ScoreB always equal the count of
// non-reverted goal records attributed to each side.
type Match struct {
	ID        string
	SessionID string
	Sequence  int
	TeamA     []string
	TeamB     []string
	ScoreA    int
	ScoreB    int
	Status    Status

	// StartedAt is the wall-clock start, rewritten to a synthetic value on
	// resume so that now-StartedAt always yields cumulative elapsed time.
	StartedAt *time.Time

	// ElapsedSeconds is the checkpointed elapsed time, the single source of
	// truth across pause/resume cycles and reloads.
	ElapsedSeconds int

	FinishedAt *time.Time
	Winner     Side
}

func (m Match) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("match id is required")
	}
	if m.SessionID == "" {
		return fmt.Errorf("match session id is required")
	}
	if len(m.TeamA) == 0 || len(m.TeamB) == 0 {
		return fmt.Errorf("match rosters cannot be empty")
	}
	if len(m.TeamA) != len(m.TeamB) {
		return fmt.Errorf("match rosters must be the same size: %d vs %d", len(m.TeamA), len(m.TeamB))
	}
	if m.ScoreA < 0 || m.ScoreB < 0 {
		return fmt.Errorf("match score cannot be negative")
	}

	return nil
}

// Active reports whether the match still occupies the session's single
// active slot.
func (m Match) Active() bool {
	return m.Status == StatusNotStarted || m.Status == StatusRunning || m.Status == StatusPaused
}

func (m Match) OnTeam(side Side, playerID string) bool {
	roster := m.TeamA
	if side == SideB {
		roster = m.TeamB
	}
	for _, id := range roster {
		if id == playerID {
			return true
		}
	}
	return false
}

// SideOf returns the side a participant plays on, or "" if the player is
// not on the field.
func (m Match) SideOf(playerID string) Side {
	if m.OnTeam(SideA, playerID) {
		return SideA
	}
	if m.OnTeam(SideB, playerID) {
		return SideB
	}
	return ""
}

// CanTransition reports whether the state machine allows moving from the
// current status to the target one. Cancellation additionally requires a
// 0-0 score, which is checked by the engine, not here.
func (m Match) CanTransition(to Status) bool {
	switch to {
	case StatusRunning:
		return m.Status == StatusNotStarted || m.Status == StatusPaused
	case StatusPaused:
		return m.Status == StatusRunning
	case StatusFinished:
		return m.Status == StatusRunning || m.Status == StatusPaused
	case StatusCancelled:
		return m.Status == StatusNotStarted || m.Status == StatusRunning || m.Status == StatusPaused
	default:
		return false
	}
}
