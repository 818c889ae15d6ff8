package queue

import (
	"errors"
	"testing"

	"github.com/peladahub/pelada-manager/internal/domain/match"
)

func players(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = string(rune('a'+i/26)) + string(rune('a'+i%26))
	}
	return ids
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestPlanRotationLoserGoesToBack(t *testing.T) {
	rules := DefaultRules()
	ordering := players(14)
	teamA := ordering[:6]
	teamB := ordering[6:12]
	waiting := ordering[12:]

	plan, err := PlanRotation(ordering, match.Result{Winner: match.SideA}, 0, rules)
	if err != nil {
		t.Fatalf("PlanRotation: %v", err)
	}
	want := concat(teamA, waiting, teamB)
	if !equal(plan.Ordering, want) {
		t.Fatalf("ordering = %v, want %v", plan.Ordering, want)
	}
	if len(plan.Ordering) != len(ordering) {
		t.Fatalf("rotation changed queue size: %d -> %d", len(ordering), len(plan.Ordering))
	}
	if plan.ConsecutiveWins != 1 {
		t.Fatalf("consecutive wins = %d, want 1", plan.ConsecutiveWins)
	}
	if !equal(plan.TeamA, teamA) {
		t.Fatalf("winning team lost the field: %v", plan.TeamA)
	}
	// The two waiting players take the first two slots of the opposing
	// lineup and the loser's front four fill the rest, in order.
	wantB := concat(waiting, teamB[:4])
	if !equal(plan.TeamB, wantB) {
		t.Fatalf("next team B = %v, want %v", plan.TeamB, wantB)
	}
}

func TestPlanRotationChallengerWinResetsStreak(t *testing.T) {
	ordering := players(14)
	teamA := ordering[:6]
	teamB := ordering[6:12]
	waiting := ordering[12:]

	plan, err := PlanRotation(ordering, match.Result{Winner: match.SideB}, 2, DefaultRules())
	if err != nil {
		t.Fatalf("PlanRotation: %v", err)
	}
	want := concat(teamB, waiting, teamA)
	if !equal(plan.Ordering, want) {
		t.Fatalf("ordering = %v, want %v", plan.Ordering, want)
	}
	if plan.ConsecutiveWins != 1 {
		t.Fatalf("consecutive wins = %d, want 1", plan.ConsecutiveWins)
	}
}

func TestPlanRotationWinCapRotatesWinnerOut(t *testing.T) {
	ordering := players(14)
	teamA := ordering[:6]
	teamB := ordering[6:12]
	waiting := ordering[12:]

	plan, err := PlanRotation(ordering, match.Result{Winner: match.SideA}, 2, DefaultRules())
	if err != nil {
		t.Fatalf("PlanRotation: %v", err)
	}
	// At the cap the winner leaves too, but re-enters ahead of the loser.
	want := concat(waiting, teamA, teamB)
	if !equal(plan.Ordering, want) {
		t.Fatalf("ordering = %v, want %v", plan.Ordering, want)
	}
	if plan.ConsecutiveWins != 0 {
		t.Fatalf("consecutive wins = %d, want 0 after cap", plan.ConsecutiveWins)
	}
}

func TestPlanRotationTieUsesPriority(t *testing.T) {
	ordering := players(14)
	teamA := ordering[:6]
	teamB := ordering[6:12]
	waiting := ordering[12:]

	plan, err := PlanRotation(ordering, match.Result{TieBreakPriority: match.SideB}, 1, DefaultRules())
	if err != nil {
		t.Fatalf("PlanRotation: %v", err)
	}
	want := concat(waiting, teamB, teamA)
	if !equal(plan.Ordering, want) {
		t.Fatalf("ordering = %v, want %v", plan.Ordering, want)
	}
	if plan.ConsecutiveWins != 0 {
		t.Fatalf("consecutive wins = %d, want 0 after tie", plan.ConsecutiveWins)
	}
}

func TestPlanRotationTieLongWaitingLine(t *testing.T) {
	// With more waiters than a full field, the departing teams re-enter
	// ahead of the waiters that were not promoted.
	ordering := players(26)
	teamA := ordering[:6]
	teamB := ordering[6:12]
	waiting := ordering[12:]

	plan, err := PlanRotation(ordering, match.Result{TieBreakPriority: match.SideB}, 1, DefaultRules())
	if err != nil {
		t.Fatalf("PlanRotation: %v", err)
	}
	want := concat(waiting[:12], teamB, teamA, waiting[12:])
	if !equal(plan.Ordering, want) {
		t.Fatalf("ordering = %v, want %v", plan.Ordering, want)
	}
	if !equal(plan.TeamA, waiting[:6]) || !equal(plan.TeamB, waiting[6:12]) {
		t.Fatalf("next field = %v / %v, want the first twelve waiters", plan.TeamA, plan.TeamB)
	}
}

func TestPlanRotationWinCapLongWaitingLine(t *testing.T) {
	ordering := players(26)
	teamA := ordering[:6]
	teamB := ordering[6:12]
	waiting := ordering[12:]

	plan, err := PlanRotation(ordering, match.Result{Winner: match.SideA}, 2, DefaultRules())
	if err != nil {
		t.Fatalf("PlanRotation: %v", err)
	}
	want := concat(waiting[:12], teamA, teamB, waiting[12:])
	if !equal(plan.Ordering, want) {
		t.Fatalf("ordering = %v, want %v", plan.Ordering, want)
	}
}

func TestPlanRotationTieWithoutPriority(t *testing.T) {
	_, err := PlanRotation(players(14), match.Result{}, 0, DefaultRules())
	if !errors.Is(err, ErrMissingTieBreak) {
		t.Fatalf("err = %v, want ErrMissingTieBreak", err)
	}
}

func TestPlanRotationExactlyTwoTeams(t *testing.T) {
	// With no waiting line a loss just swaps the halves.
	ordering := players(12)
	plan, err := PlanRotation(ordering, match.Result{Winner: match.SideB}, 0, DefaultRules())
	if err != nil {
		t.Fatalf("PlanRotation: %v", err)
	}
	want := concat(ordering[6:12], ordering[:6])
	if !equal(plan.Ordering, want) {
		t.Fatalf("ordering = %v, want %v", plan.Ordering, want)
	}
}

func TestPlanRotationInsufficientPlayers(t *testing.T) {
	_, err := PlanRotation(players(11), match.Result{Winner: match.SideA}, 0, DefaultRules())
	if !errors.Is(err, ErrInsufficientPlayers) {
		t.Fatalf("err = %v, want ErrInsufficientPlayers", err)
	}
}

func TestNextTeams(t *testing.T) {
	ordering := players(13)
	teamA, teamB, err := NextTeams(ordering, DefaultRules())
	if err != nil {
		t.Fatalf("NextTeams: %v", err)
	}
	if !equal(teamA, ordering[:6]) || !equal(teamB, ordering[6:12]) {
		t.Fatalf("teams = %v / %v", teamA, teamB)
	}
}

func TestOrderingRejectsGaps(t *testing.T) {
	entries := []Entry{
		{PlayerID: "p1", Position: 1, Status: StatusQueued},
		{PlayerID: "p2", Position: 3, Status: StatusQueued},
	}
	if _, err := Ordering(entries); !errors.Is(err, ErrOrderingNotContiguous) {
		t.Fatalf("err = %v, want ErrOrderingNotContiguous", err)
	}
}

func TestRemoveClosesGap(t *testing.T) {
	out, err := Remove([]string{"p1", "p2", "p3"}, "p2")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if !equal(out, []string{"p1", "p3"}) {
		t.Fatalf("out = %v", out)
	}
	if _, err := Remove(out, "p2"); !errors.Is(err, ErrPlayerNotQueued) {
		t.Fatalf("err = %v, want ErrPlayerNotQueued", err)
	}
}

func TestReplaceKeepsPosition(t *testing.T) {
	out, err := Replace([]string{"p1", "p2", "p3"}, 2, "p9")
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if !equal(out, []string{"p1", "p9", "p3"}) {
		t.Fatalf("out = %v", out)
	}
	if _, err := Replace(out, 1, "p9"); !errors.Is(err, ErrDuplicatePlayer) {
		t.Fatalf("err = %v, want ErrDuplicatePlayer", err)
	}
	if _, err := Replace(out, 4, "p8"); !errors.Is(err, ErrPositionOutOfBounds) {
		t.Fatalf("err = %v, want ErrPositionOutOfBounds", err)
	}
}
