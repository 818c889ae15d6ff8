package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	cerrors "github.com/cockroachdb/errors"
	"github.com/jonboulle/clockwork"

	"github.com/peladahub/pelada-manager/internal/domain/match"
	"github.com/peladahub/pelada-manager/internal/infrastructure/repository/memory"
)

type matchFixture struct {
	svc        *MatchService
	queueSvc   *QueueService
	matchRepo  *flakyMatchRepo
	goalRepo   *memory.GoalRepository
	playerRepo *memory.PlayerRepository
	clock      *clockwork.FakeClock
}

// flakyMatchRepo wraps the in-memory repository with switchable write
// failures.
type flakyMatchRepo struct {
	*memory.MatchRepository
	failElapsed bool
	failScore   bool
	failStatus  bool
}

func (r *flakyMatchRepo) UpdateElapsed(ctx context.Context, matchID string, elapsedSeconds int, startedAt *time.Time) error {
	if r.failElapsed {
		return cerrors.New("storage offline")
	}
	return r.MatchRepository.UpdateElapsed(ctx, matchID, elapsedSeconds, startedAt)
}

func (r *flakyMatchRepo) UpdateScore(ctx context.Context, matchID string, scoreA, scoreB int) error {
	if r.failScore {
		return cerrors.New("storage offline")
	}
	return r.MatchRepository.UpdateScore(ctx, matchID, scoreA, scoreB)
}

func (r *flakyMatchRepo) UpdateStatus(ctx context.Context, m match.Match) error {
	if r.failStatus {
		return cerrors.New("storage offline")
	}
	return r.MatchRepository.UpdateStatus(ctx, m)
}

func newMatchFixture(t *testing.T) *matchFixture {
	t.Helper()

	ids := seedPlayerIDs()
	queueSvc, _, _ := newQueueFixture(t, ids)

	matchRepo := &flakyMatchRepo{MatchRepository: memory.NewMatchRepository()}
	goalRepo := memory.NewGoalRepository(matchRepo.MatchRepository)
	playerRepo := memory.NewPlayerRepository(memory.SeedPlayers())
	fake := clockwork.NewFakeClockAt(time.Date(2026, 8, 29, 19, 0, 0, 0, time.UTC))

	svc := NewMatchService(
		matchRepo,
		goalRepo,
		playerRepo,
		queueSvc,
		&sequenceIDGenerator{prefix: "m"},
		fake,
		DefaultMatchSettings(),
		nil,
	)

	return &matchFixture{
		svc:        svc,
		queueSvc:   queueSvc,
		matchRepo:  matchRepo,
		goalRepo:   goalRepo,
		playerRepo: playerRepo,
		clock:      fake,
	}
}

func (f *matchFixture) startMatch(t *testing.T) MatchState {
	t.Helper()

	state, err := f.svc.CreateNext(context.Background(), "s1")
	if err != nil {
		t.Fatalf("CreateNext: %v", err)
	}
	state, err = f.svc.Start(context.Background(), state.Match.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	return state
}

func TestMatchService_CreateNextTakesHeadOfQueue(t *testing.T) {
	f := newMatchFixture(t)
	ids := seedPlayerIDs()

	state, err := f.svc.CreateNext(context.Background(), "s1")
	if err != nil {
		t.Fatalf("CreateNext: %v", err)
	}
	if state.Match.Sequence != 1 || state.Match.Status != match.StatusNotStarted {
		t.Fatalf("unexpected match: %+v", state.Match)
	}
	if state.Match.TeamA[0] != ids[0] || state.Match.TeamB[0] != ids[6] {
		t.Fatalf("lineups not from queue head: %v / %v", state.Match.TeamA, state.Match.TeamB)
	}

	if _, err := f.svc.CreateNext(context.Background(), "s1"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition for second active match", err)
	}
}

func TestMatchService_PauseResumeKeepsElapsed(t *testing.T) {
	f := newMatchFixture(t)
	state := f.startMatch(t)

	f.clock.Advance(45 * time.Second)
	state, err := f.svc.Pause(context.Background(), state.Match.ID)
	if err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if state.Match.ElapsedSeconds != 45 {
		t.Fatalf("checkpoint = %d, want 45", state.Match.ElapsedSeconds)
	}

	// Five idle minutes must not leak into the clock.
	f.clock.Advance(5 * time.Minute)
	state, err = f.svc.Resume(context.Background(), state.Match.ID)
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}

	f.clock.Advance(10 * time.Second)
	state, err = f.svc.Get(context.Background(), state.Match.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if state.Elapsed != 55*time.Second {
		t.Fatalf("elapsed = %v, want 55s", state.Elapsed)
	}
}

func TestMatchService_TickCheckpointsOnInterval(t *testing.T) {
	f := newMatchFixture(t)
	state := f.startMatch(t)

	f.clock.Advance(10 * time.Second)
	if _, err := f.svc.Tick(context.Background(), state.Match.ID); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	stored, _, err := f.matchRepo.GetByID(context.Background(), state.Match.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.ElapsedSeconds != 10 {
		t.Fatalf("stored checkpoint = %d, want 10", stored.ElapsedSeconds)
	}
}

func TestMatchService_TickSkipsResumeGrace(t *testing.T) {
	f := newMatchFixture(t)
	state := f.startMatch(t)

	f.clock.Advance(30 * time.Second)
	if _, err := f.svc.Pause(context.Background(), state.Match.ID); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if _, err := f.svc.Resume(context.Background(), state.Match.ID); err != nil {
		t.Fatalf("Resume: %v", err)
	}

	// A tick landing 2s after resume is inside the grace window and must
	// not write.
	f.clock.Advance(2 * time.Second)
	if _, err := f.svc.Tick(context.Background(), state.Match.ID); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	stored, _, _ := f.matchRepo.GetByID(context.Background(), state.Match.ID)
	if stored.ElapsedSeconds != 30 {
		t.Fatalf("grace-window tick overwrote checkpoint: %d", stored.ElapsedSeconds)
	}
}

func TestMatchService_FailedCheckpointMarksStale(t *testing.T) {
	f := newMatchFixture(t)
	state := f.startMatch(t)

	f.matchRepo.failElapsed = true
	f.clock.Advance(20 * time.Second)
	state, err := f.svc.Tick(context.Background(), state.Match.ID)
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if !state.Stale {
		t.Fatal("state not marked stale after failed checkpoint")
	}
	// The in-memory clock is untouched by the failure.
	if state.Elapsed != 20*time.Second {
		t.Fatalf("elapsed = %v, want 20s", state.Elapsed)
	}

	f.matchRepo.failElapsed = false
	f.clock.Advance(10 * time.Second)
	state, err = f.svc.Tick(context.Background(), state.Match.ID)
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if state.Stale {
		t.Fatal("state still stale after successful checkpoint")
	}
}

func TestMatchService_GoalsDriveScoreAndUndo(t *testing.T) {
	f := newMatchFixture(t)
	state := f.startMatch(t)
	ids := seedPlayerIDs()

	state, err := f.svc.RecordGoal(context.Background(), state.Match.ID, GoalInput{Team: match.SideA, PlayerID: ids[0]})
	if err != nil {
		t.Fatalf("RecordGoal: %v", err)
	}
	state, err = f.svc.RecordGoal(context.Background(), state.Match.ID, GoalInput{Team: match.SideB, OwnGoal: true})
	if err != nil {
		t.Fatalf("RecordGoal own goal: %v", err)
	}
	if state.Match.ScoreA != 1 || state.Match.ScoreB != 1 {
		t.Fatalf("score = %d-%d, want 1-1", state.Match.ScoreA, state.Match.ScoreB)
	}

	goals, err := f.goalRepo.ListByMatch(context.Background(), state.Match.ID)
	if err != nil {
		t.Fatalf("ListByMatch: %v", err)
	}
	if len(goals) != 2 {
		t.Fatalf("goal ledger has %d entries, want 2", len(goals))
	}
	if goals[1].PlayerID != nil {
		t.Fatal("own goal credited a player")
	}

	// Scorer must be on the team credited.
	if _, err := f.svc.RecordGoal(context.Background(), state.Match.ID, GoalInput{Team: match.SideA, PlayerID: ids[6]}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput for wrong side", err)
	}

	state, err = f.svc.UndoLastGoal(context.Background(), state.Match.ID)
	if err != nil {
		t.Fatalf("UndoLastGoal: %v", err)
	}
	if state.Match.ScoreA != 1 || state.Match.ScoreB != 0 {
		t.Fatalf("score after undo = %d-%d, want 1-0", state.Match.ScoreA, state.Match.ScoreB)
	}
	goals, _ = f.goalRepo.ListByMatch(context.Background(), state.Match.ID)
	if len(goals) != 1 {
		t.Fatalf("goal ledger has %d entries after undo, want 1", len(goals))
	}

	state, err = f.svc.UndoLastGoal(context.Background(), state.Match.ID)
	if err != nil {
		t.Fatalf("UndoLastGoal second: %v", err)
	}
	if _, err := f.svc.UndoLastGoal(context.Background(), state.Match.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound with empty ledger", err)
	}
}

func TestMatchService_RecordGoalOnlyWhileRunning(t *testing.T) {
	f := newMatchFixture(t)
	state := f.startMatch(t)
	ids := seedPlayerIDs()

	if _, err := f.svc.Pause(context.Background(), state.Match.ID); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if _, err := f.svc.RecordGoal(context.Background(), state.Match.ID, GoalInput{Team: match.SideA, PlayerID: ids[0]}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition while paused", err)
	}
	// The undo window stays open through a pause.
	if _, err := f.svc.Resume(context.Background(), state.Match.ID); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	state, err := f.svc.RecordGoal(context.Background(), state.Match.ID, GoalInput{Team: match.SideA, PlayerID: ids[0]})
	if err != nil {
		t.Fatalf("RecordGoal after resume: %v", err)
	}
	if _, err := f.svc.Pause(context.Background(), state.Match.ID); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if _, err := f.svc.UndoLastGoal(context.Background(), state.Match.ID); err != nil {
		t.Fatalf("UndoLastGoal while paused: %v", err)
	}
}

func TestMatchService_FinishRotatesQueue(t *testing.T) {
	f := newMatchFixture(t)
	state := f.startMatch(t)
	ids := seedPlayerIDs()

	if _, err := f.svc.RecordGoal(context.Background(), state.Match.ID, GoalInput{Team: match.SideB, PlayerID: ids[7]}); err != nil {
		t.Fatalf("RecordGoal: %v", err)
	}

	f.clock.Advance(10 * time.Minute)
	state, snap, err := f.svc.Finish(context.Background(), state.Match.ID, "")
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if state.Match.Status != match.StatusFinished || state.Match.Winner != match.SideB {
		t.Fatalf("unexpected final state: %+v", state.Match)
	}

	// Challengers take the field, the losers go to the back.
	if snap.TeamA[0].ID != ids[6] {
		t.Fatalf("next team A head = %s, want %s", snap.TeamA[0].ID, ids[6])
	}
	if snap.ConsecutiveWins != 1 {
		t.Fatalf("consecutive wins = %d, want 1", snap.ConsecutiveWins)
	}

	// The session slot is free again.
	if _, err := f.svc.CreateNext(context.Background(), "s1"); err != nil {
		t.Fatalf("CreateNext after finish: %v", err)
	}
}

func TestMatchService_FinishFoldsLifetimeStats(t *testing.T) {
	f := newMatchFixture(t)
	state := f.startMatch(t)
	ids := seedPlayerIDs()

	if _, err := f.svc.RecordGoal(context.Background(), state.Match.ID, GoalInput{Team: match.SideA, PlayerID: ids[0]}); err != nil {
		t.Fatalf("RecordGoal: %v", err)
	}
	if _, err := f.svc.RecordGoal(context.Background(), state.Match.ID, GoalInput{Team: match.SideA, OwnGoal: true}); err != nil {
		t.Fatalf("RecordGoal own goal: %v", err)
	}

	if _, _, err := f.svc.Finish(context.Background(), state.Match.ID, ""); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	// Counters land the moment the result is confirmed, not at session end.
	scorer, _, err := f.playerRepo.GetByID(context.Background(), ids[0])
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if scorer.GamesPlayed != 1 || scorer.Wins != 1 || scorer.Goals != 1 {
		t.Fatalf("scorer stats = %d/%d/%d, want 1/1/1", scorer.GamesPlayed, scorer.Wins, scorer.Goals)
	}
	loser, _, err := f.playerRepo.GetByID(context.Background(), ids[6])
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if loser.GamesPlayed != 1 || loser.Wins != 0 || loser.Goals != 0 {
		t.Fatalf("loser stats = %d/%d/%d, want 1/0/0", loser.GamesPlayed, loser.Wins, loser.Goals)
	}
}

func TestMatchService_FinishTieRequiresPriority(t *testing.T) {
	f := newMatchFixture(t)
	state := f.startMatch(t)

	if _, _, err := f.svc.Finish(context.Background(), state.Match.ID, ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput for unresolved tie", err)
	}

	_, snap, err := f.svc.Finish(context.Background(), state.Match.ID, match.SideB)
	if err != nil {
		t.Fatalf("Finish with priority: %v", err)
	}
	if snap.ConsecutiveWins != 0 {
		t.Fatalf("consecutive wins = %d, want 0 after tie", snap.ConsecutiveWins)
	}
}

func TestMatchService_CancelOnlyScoreless(t *testing.T) {
	f := newMatchFixture(t)
	state := f.startMatch(t)
	ids := seedPlayerIDs()

	if _, err := f.svc.RecordGoal(context.Background(), state.Match.ID, GoalInput{Team: match.SideA, PlayerID: ids[0]}); err != nil {
		t.Fatalf("RecordGoal: %v", err)
	}
	if _, err := f.svc.Cancel(context.Background(), state.Match.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition at 1-0", err)
	}

	if _, err := f.svc.UndoLastGoal(context.Background(), state.Match.ID); err != nil {
		t.Fatalf("UndoLastGoal: %v", err)
	}
	state, err := f.svc.Cancel(context.Background(), state.Match.ID)
	if err != nil {
		t.Fatalf("Cancel at 0-0: %v", err)
	}
	if state.Match.Status != match.StatusCancelled {
		t.Fatalf("status = %s, want cancelled", state.Match.Status)
	}
}

func TestMatchService_ExpiryFreezesClock(t *testing.T) {
	f := newMatchFixture(t)
	state := f.startMatch(t)
	ids := seedPlayerIDs()

	f.clock.Advance(11 * time.Minute)
	state, err := f.svc.Tick(context.Background(), state.Match.ID)
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if !state.Expired {
		t.Fatal("match not reported expired")
	}
	if state.Elapsed != 10*time.Minute || state.Remaining != 0 {
		t.Fatalf("clock = %v / %v, want capped at regulation", state.Elapsed, state.Remaining)
	}

	if _, err := f.svc.RecordGoal(context.Background(), state.Match.ID, GoalInput{Team: match.SideA, PlayerID: ids[0]}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition after expiry", err)
	}

	// The match stays open until the operator confirms the result.
	if _, _, err := f.svc.Finish(context.Background(), state.Match.ID, match.SideA); err != nil {
		t.Fatalf("Finish after expiry: %v", err)
	}
}

func TestMatchService_RecoveryFromCheckpoint(t *testing.T) {
	f := newMatchFixture(t)
	state := f.startMatch(t)

	f.clock.Advance(40 * time.Second)
	if _, err := f.svc.Tick(context.Background(), state.Match.ID); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	// A fresh service instance simulates a process restart five seconds
	// later. It must pick the clock up from the 40s checkpoint; the
	// downtime does not count as playing time.
	f.clock.Advance(5 * time.Second)
	restarted := NewMatchService(
		f.matchRepo,
		f.goalRepo,
		f.playerRepo,
		f.queueSvc,
		&sequenceIDGenerator{prefix: "m2"},
		f.clock,
		DefaultMatchSettings(),
		nil,
	)
	recovered, exists, err := restarted.GetActive(context.Background(), "s1")
	if err != nil {
		t.Fatalf("GetActive: %v", err)
	}
	if !exists {
		t.Fatal("active match lost across restart")
	}
	if recovered.Elapsed != 40*time.Second {
		t.Fatalf("recovered elapsed = %v, want the 40s checkpoint", recovered.Elapsed)
	}
	// And it keeps counting from there.
	f.clock.Advance(5 * time.Second)
	recovered, err = restarted.Get(context.Background(), recovered.Match.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if recovered.Elapsed != 45*time.Second {
		t.Fatalf("elapsed after recovery = %v, want 45s", recovered.Elapsed)
	}
}

func TestMatchService_FailedStatusWriteKeepsInMemoryState(t *testing.T) {
	f := newMatchFixture(t)
	state := f.startMatch(t)

	f.clock.Advance(30 * time.Second)
	f.matchRepo.failStatus = true
	state, err := f.svc.Pause(context.Background(), state.Match.ID)
	if err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if state.Match.Status != match.StatusPaused || !state.Stale {
		t.Fatalf("state = %s stale=%v, want paused and stale", state.Match.Status, state.Stale)
	}
	if state.Match.ElapsedSeconds != 30 {
		t.Fatalf("checkpoint = %d, want 30", state.Match.ElapsedSeconds)
	}
}
