package queue

import (
	"fmt"

	"github.com/peladahub/pelada-manager/internal/domain/match"
)

// Rules carries the rotation parameters. They are configuration, not
// constants, so a pelada that plays 5-a-side or rotates winners out after
// two games only needs different settings.
type Rules struct {
	// TeamSize is the number of players per side.
	TeamSize int
	// WinCap is the consecutive-win count at which the winning team is
	// rotated out anyway.
	WinCap int
	// MaxQueue caps the total number of queued entries per session.
	MaxQueue int
}

func DefaultRules() Rules {
	return Rules{
		TeamSize: 6,
		WinCap:   3,
		MaxQueue: 30,
	}
}

func (r Rules) Validate() error {
	if r.TeamSize < 1 {
		return fmt.Errorf("team size must be positive, got %d", r.TeamSize)
	}
	if r.WinCap < 1 {
		return fmt.Errorf("win cap must be positive, got %d", r.WinCap)
	}
	if r.MaxQueue < 2*r.TeamSize {
		return fmt.Errorf("max queue %d cannot hold two teams of %d", r.MaxQueue, r.TeamSize)
	}
	return nil
}

// FieldSize is the number of positions occupied by the two teams on the
// field, i.e. the prefix of the ordering that is currently playing.
func (r Rules) FieldSize() int {
	return 2 * r.TeamSize
}

// Plan is the outcome of applying a match result to the ordering: the
// complete new ordering plus the derived next lineups and win counter.
type Plan struct {
	Ordering        []string
	TeamA           []string
	TeamB           []string
	ConsecutiveWins int
}

// NextTeams splits the head of the ordering into the two lineups. Fails
// when the ordering cannot fill both teams.
func NextTeams(ordering []string, rules Rules) (teamA, teamB []string, err error) {
	if len(ordering) < rules.FieldSize() {
		return nil, nil, fmt.Errorf("%w: have %d, need %d",
			ErrInsufficientPlayers, len(ordering), rules.FieldSize())
	}
	return ordering[:rules.TeamSize], ordering[rules.TeamSize:rules.FieldSize()], nil
}

// PlanRotation computes the post-match ordering from the current one.
//
// The ordering is read as [team A | team B | waiting line]. Depending on
// the result:
//
//   - the loser goes to the back of the line,
//   - a winner below the cap keeps the field and the counter increments,
//   - a winner at the cap leaves to the front of the line, ahead of the
//     loser, and the counter resets,
//   - on a tie both teams leave, the priority team ahead of the other,
//     and the counter resets.
//
// "Front of the line" means immediately behind the waiters promoted onto
// the field, ahead of anyone still waiting after them. The internal order
// of each departing team is preserved.
func PlanRotation(ordering []string, result match.Result, consecutiveWins int, rules Rules) (Plan, error) {
	if err := rules.Validate(); err != nil {
		return Plan{}, err
	}
	teamA, teamB, err := NextTeams(ordering, rules)
	if err != nil {
		return Plan{}, err
	}
	waiting := ordering[rules.FieldSize():]

	// When both field teams depart, the next full field's worth of
	// waiters is promoted and the departing teams re-enter ahead of any
	// waiters left over.
	cut := len(waiting)
	if cut > rules.FieldSize() {
		cut = rules.FieldSize()
	}
	promoted, overflow := waiting[:cut], waiting[cut:]

	var next []string
	var wins int
	switch {
	case result.Tie():
		if !result.TieBreakPriority.Valid() {
			return Plan{}, ErrMissingTieBreak
		}
		first, second := teamA, teamB
		if result.TieBreakPriority == match.SideB {
			first, second = teamB, teamA
		}
		next = concat(promoted, first, second, overflow)
		wins = 0

	case result.Winner == match.SideA:
		wins = consecutiveWins + 1
		if wins >= rules.WinCap {
			next = concat(promoted, teamA, teamB, overflow)
			wins = 0
		} else {
			next = concat(teamA, waiting, teamB)
		}

	case result.Winner == match.SideB:
		// The challengers won: they take the field as the new incumbent
		// side and start their own streak at one.
		next = concat(teamB, waiting, teamA)
		wins = 1

	default:
		return Plan{}, fmt.Errorf("unknown winner %q", result.Winner)
	}

	plan := Plan{Ordering: next, ConsecutiveWins: wins}
	plan.TeamA, plan.TeamB, err = NextTeams(next, rules)
	if err != nil {
		return Plan{}, err
	}
	return plan, nil
}

func concat(parts ...[]string) []string {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]string, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
