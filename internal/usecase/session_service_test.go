package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/peladahub/pelada-manager/internal/domain/match"
	"github.com/peladahub/pelada-manager/internal/domain/queue"
	"github.com/peladahub/pelada-manager/internal/infrastructure/repository/memory"
)

func newSessionFixture(t *testing.T) (*SessionService, *MatchService, *QueueService) {
	t.Helper()

	sessionRepo := memory.NewSessionRepository(nil)
	queueRepo := memory.NewQueueRepository()
	playerRepo := memory.NewPlayerRepository(memory.SeedPlayers())
	matchRepo := memory.NewMatchRepository()
	goalRepo := memory.NewGoalRepository(matchRepo)

	rules := queue.DefaultRules()
	queueSvc := NewQueueService(queueRepo, sessionRepo, playerRepo, rules)
	matchSvc := NewMatchService(
		matchRepo,
		goalRepo,
		playerRepo,
		queueSvc,
		&sequenceIDGenerator{prefix: "m"},
		nil,
		DefaultMatchSettings(),
		nil,
	)
	sessionSvc := NewSessionService(
		sessionRepo,
		queueRepo,
		playerRepo,
		matchRepo,
		&sequenceIDGenerator{prefix: "s"},
		rules,
	)
	sessionSvc.now = func() time.Time { return time.Date(2026, 8, 29, 18, 0, 0, 0, time.UTC) }

	return sessionSvc, matchSvc, queueSvc
}

func TestSessionService_StartSeedsOrdering(t *testing.T) {
	sessionSvc, _, queueSvc := newSessionFixture(t)
	ids := seedPlayerIDs()

	sess, err := sessionSvc.Start(context.Background(), StartSessionInput{
		Location:  "Quadra da Vila",
		PlayerIDs: ids,
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	snap, err := queueSvc.Load(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(snap.TeamA) != 6 || len(snap.TeamB) != 6 || len(snap.Waiting) != len(ids)-12 {
		t.Fatalf("draw split = %d/%d/%d", len(snap.TeamA), len(snap.TeamB), len(snap.Waiting))
	}
	// Without shuffle the arrival order is the ordering.
	if snap.TeamA[0].ID != ids[0] {
		t.Fatalf("position 1 = %s, want %s", snap.TeamA[0].ID, ids[0])
	}

	// Only one session may be active.
	if _, err := sessionSvc.Start(context.Background(), StartSessionInput{PlayerIDs: ids}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestSessionService_StartBalancedDraw(t *testing.T) {
	sessionSvc, _, queueSvc := newSessionFixture(t)
	ids := seedPlayerIDs()

	sess, err := sessionSvc.Start(context.Background(), StartSessionInput{
		PlayerIDs: ids,
		Shuffle:   true,
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	snap, err := queueSvc.Load(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	sumA, sumB := 0, 0
	for _, p := range snap.TeamA {
		sumA += p.SkillRating
	}
	for _, p := range snap.TeamB {
		sumB += p.SkillRating
	}
	diff := sumA - sumB
	if diff < 0 {
		diff = -diff
	}
	if diff > 2 {
		t.Fatalf("skill totals %d vs %d, want near-even split", sumA, sumB)
	}
}

func TestSessionService_StartRejectsShortList(t *testing.T) {
	sessionSvc, _, _ := newSessionFixture(t)
	ids := seedPlayerIDs()

	if _, err := sessionSvc.Start(context.Background(), StartSessionInput{PlayerIDs: ids[:11]}); !errors.Is(err, queue.ErrInsufficientPlayers) {
		t.Fatalf("err = %v, want ErrInsufficientPlayers", err)
	}
	if _, err := sessionSvc.Start(context.Background(), StartSessionInput{PlayerIDs: append(ids[:5], ids[4])}); !errors.Is(err, queue.ErrDuplicatePlayer) {
		t.Fatalf("err = %v, want ErrDuplicatePlayer", err)
	}
}

func TestSessionService_EndFinalizesAfterStatsLanded(t *testing.T) {
	sessionSvc, matchSvc, _ := newSessionFixture(t)
	ids := seedPlayerIDs()

	sess, err := sessionSvc.Start(context.Background(), StartSessionInput{PlayerIDs: ids})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	state, err := matchSvc.CreateNext(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("CreateNext: %v", err)
	}
	if _, err := matchSvc.Start(context.Background(), state.Match.ID); err != nil {
		t.Fatalf("start match: %v", err)
	}
	if _, err := matchSvc.RecordGoal(context.Background(), state.Match.ID, GoalInput{Team: match.SideA, PlayerID: ids[0]}); err != nil {
		t.Fatalf("RecordGoal: %v", err)
	}

	// A live match blocks finalization.
	if _, err := sessionSvc.End(context.Background(), sess.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition with live match", err)
	}

	if _, _, err := matchSvc.Finish(context.Background(), state.Match.ID, ""); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	// The finished match already credited everyone; ending the session
	// must not change the counters again.
	ended, err := sessionSvc.End(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("End: %v", err)
	}
	if ended.FinalizedAt == nil {
		t.Fatal("finalized session missing timestamp")
	}

	scorer, err := NewPlayerService(sessionSvc.playerRepo, sessionSvc.sessionRepo, sessionSvc.queueRepo, &sequenceIDGenerator{prefix: "p"}).Get(context.Background(), ids[0])
	if err != nil {
		t.Fatalf("Get scorer: %v", err)
	}
	if scorer.GamesPlayed != 1 || scorer.Wins != 1 || scorer.Goals != 1 {
		t.Fatalf("scorer stats = %d/%d/%d, want 1/1/1", scorer.GamesPlayed, scorer.Wins, scorer.Goals)
	}
	loser, err := NewPlayerService(sessionSvc.playerRepo, sessionSvc.sessionRepo, sessionSvc.queueRepo, &sequenceIDGenerator{prefix: "p"}).Get(context.Background(), ids[6])
	if err != nil {
		t.Fatalf("Get loser: %v", err)
	}
	if loser.GamesPlayed != 1 || loser.Wins != 0 {
		t.Fatalf("loser stats = %d/%d, want 1/0", loser.GamesPlayed, loser.Wins)
	}

	// No double end.
	if _, err := sessionSvc.End(context.Background(), sess.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition on second end", err)
	}
}
