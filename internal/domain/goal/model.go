package goal

import (
	"fmt"
	"time"

	"github.com/peladahub/pelada-manager/internal/domain/match"
)

// Goal is one scoring event. PlayerID is nil for own goals, which credit
// the scoring side without crediting any player.
type Goal struct {
	ID        string
	MatchID   string
	PlayerID  *string
	Team      match.Side
	IsOwnGoal bool
	CreatedAt time.Time
}

func (g Goal) Validate() error {
	if g.ID == "" {
		return fmt.Errorf("goal id is required")
	}
	if g.MatchID == "" {
		return fmt.Errorf("goal match id is required")
	}
	if !g.Team.Valid() {
		return fmt.Errorf("goal team must be A or B, got %q", g.Team)
	}
	if g.IsOwnGoal && g.PlayerID != nil {
		return fmt.Errorf("own goal cannot credit a player")
	}
	if !g.IsOwnGoal && g.PlayerID == nil {
		return fmt.Errorf("goal requires a scorer")
	}
	return nil
}

// Tally counts goals per side. With the ledger as the source of truth the
// match score columns are always derivable from it.
func Tally(goals []Goal) (scoreA, scoreB int) {
	for _, g := range goals {
		if g.Team == match.SideA {
			scoreA++
		} else {
			scoreB++
		}
	}
	return scoreA, scoreB
}
