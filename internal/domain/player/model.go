package player

import "fmt"

const (
	MinSkillRating = 1
	MaxSkillRating = 5
)

// Player is a registered pelada regular. Players are soft-deleted only and
// are never removed while historical match records reference them.
type Player struct {
	ID          string
	Name        string
	SkillRating int

	// Lifetime totals, incremented when a match is finished.
	GamesPlayed int
	Wins        int
	Goals       int
}

func (p Player) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("player id is required")
	}
	if p.Name == "" {
		return fmt.Errorf("player name is required")
	}
	if p.SkillRating < MinSkillRating || p.SkillRating > MaxSkillRating {
		return fmt.Errorf("player skill rating must be between %d and %d: got %d", MinSkillRating, MaxSkillRating, p.SkillRating)
	}

	return nil
}

// StatDelta is the per-match statistics increment applied to a player.
type StatDelta struct {
	GamesPlayed int
	Wins        int
	Goals       int
}
