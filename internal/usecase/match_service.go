package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/peladahub/pelada-manager/internal/domain/goal"
	"github.com/peladahub/pelada-manager/internal/domain/match"
	"github.com/peladahub/pelada-manager/internal/domain/player"
	"github.com/peladahub/pelada-manager/internal/platform/id"
	"github.com/peladahub/pelada-manager/internal/platform/logging"
	"github.com/peladahub/pelada-manager/internal/platform/resilience"
)

// MatchSettings carries the clock parameters of a single game.
type MatchSettings struct {
	// Duration is regulation playing time.
	Duration time.Duration
	// CheckpointInterval throttles how often a periodic tick persists the
	// elapsed counter.
	CheckpointInterval time.Duration
	// ResumeGrace suppresses checkpoints right after a resume so a racing
	// tick cannot overwrite the fresh synthetic start.
	ResumeGrace time.Duration
}

func DefaultMatchSettings() MatchSettings {
	return MatchSettings{
		Duration:           10 * time.Minute,
		CheckpointInterval: 10 * time.Second,
		ResumeGrace:        5 * time.Second,
	}
}

// EventPublisher pushes match lifecycle events to interested outsiders,
// typically a webhook. Failures are the publisher's problem; the engine
// never blocks on it.
type EventPublisher interface {
	Publish(ctx context.Context, event string, payload any) error
}

// MatchState is a point-in-time view of a match with the derived clock
// values attached. Stale means the in-memory state is ahead of storage
// because a clock or score write failed; the in-memory values remain
// authoritative.
type MatchState struct {
	Match     match.Match
	Elapsed   time.Duration
	Remaining time.Duration
	Expired   bool
	Stale     bool
}

type GoalInput struct {
	Team match.Side
	// PlayerID credits the scorer. Empty together with OwnGoal set records
	// an own goal: the side still scores, nobody is credited.
	PlayerID string
	OwnGoal  bool
}

// liveMatch is the in-memory authority for a running match. Storage only
// holds checkpoints of it.
type liveMatch struct {
	match          match.Match
	lastCheckpoint time.Time
	resumedAt      time.Time
	expired        bool
	stale          bool
}

// MatchService drives the state machine of the session's single active
// match. All mutations run under one mutex, so persistence writes are
// naturally serialized: a pause can never be overtaken by an in-flight
// tick checkpoint.
type MatchService struct {
	matchRepo  match.Repository
	goalRepo   goal.Repository
	playerRepo player.Repository
	queueSvc   *QueueService
	idGen      id.Generator
	clock      clockwork.Clock
	settings   MatchSettings
	breaker    *resilience.CircuitBreaker
	publisher  EventPublisher
	logger     *logging.Logger

	mu   sync.Mutex
	live map[string]*liveMatch
}

func NewMatchService(
	matchRepo match.Repository,
	goalRepo goal.Repository,
	playerRepo player.Repository,
	queueSvc *QueueService,
	idGen id.Generator,
	clock clockwork.Clock,
	settings MatchSettings,
	breaker *resilience.CircuitBreaker,
) *MatchService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MatchService{
		matchRepo:  matchRepo,
		goalRepo:   goalRepo,
		playerRepo: playerRepo,
		queueSvc:   queueSvc,
		idGen:      idGen,
		clock:      clock,
		settings:   settings,
		breaker:    breaker,
		logger:     logging.Default(),
		live:       make(map[string]*liveMatch),
	}
}

func (s *MatchService) SetPublisher(p EventPublisher) {
	s.publisher = p
}

// CreateNext sets up the next game of a session from the head of the
// queue ordering. Only one active match may exist per session.
func (s *MatchService) CreateNext(ctx context.Context, sessionID string) (MatchState, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.CreateNext")
	defer span.End()

	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return MatchState{}, fmt.Errorf("%w: session_id is required", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, active, err := s.matchRepo.GetActiveBySession(ctx, sessionID); err != nil {
		return MatchState{}, fmt.Errorf("%w: get active match: %v", ErrDataUnavailable, err)
	} else if active {
		return MatchState{}, fmt.Errorf("%w: a match is already in progress", ErrInvalidTransition)
	}

	teamA, teamB, err := s.queueSvc.NextTeams(ctx, sessionID)
	if err != nil {
		return MatchState{}, err
	}

	previous, err := s.matchRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return MatchState{}, fmt.Errorf("%w: list matches: %v", ErrDataUnavailable, err)
	}

	matchID, err := s.idGen.NewID()
	if err != nil {
		return MatchState{}, fmt.Errorf("generate match id: %w", err)
	}

	m := match.Match{
		ID:        matchID,
		SessionID: sessionID,
		Sequence:  len(previous) + 1,
		TeamA:     teamA,
		TeamB:     teamB,
		Status:    match.StatusNotStarted,
	}
	if err := m.Validate(); err != nil {
		return MatchState{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.matchRepo.Create(ctx, m); err != nil {
		return MatchState{}, fmt.Errorf("create match: %w", err)
	}

	lm := &liveMatch{match: m}
	s.live[m.ID] = lm
	return s.stateLocked(lm), nil
}

// Get returns the live view of a match. The in-memory state wins over
// storage whenever it exists; storage is only consulted for matches this
// process has not touched yet, e.g. right after a restart.
func (s *MatchService) Get(ctx context.Context, matchID string) (MatchState, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.Get")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	lm, err := s.ensureLive(ctx, matchID)
	if err != nil {
		return MatchState{}, err
	}
	return s.stateLocked(lm), nil
}

// GetActive returns the session's current match, recovering it into
// memory from the last checkpoint if needed.
func (s *MatchService) GetActive(ctx context.Context, sessionID string) (MatchState, bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.GetActive")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	m, exists, err := s.matchRepo.GetActiveBySession(ctx, strings.TrimSpace(sessionID))
	if err != nil {
		return MatchState{}, false, fmt.Errorf("%w: get active match: %v", ErrDataUnavailable, err)
	}
	if !exists {
		return MatchState{}, false, nil
	}
	lm, err := s.ensureLive(ctx, m.ID)
	if err != nil {
		return MatchState{}, false, err
	}
	return s.stateLocked(lm), true, nil
}

// Start kicks the match off.
func (s *MatchService) Start(ctx context.Context, matchID string) (MatchState, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.Start")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	lm, err := s.ensureLive(ctx, matchID)
	if err != nil {
		return MatchState{}, err
	}
	if lm.match.Status != match.StatusNotStarted {
		return MatchState{}, fmt.Errorf("%w: cannot start a %s match", ErrInvalidTransition, lm.match.Status)
	}

	now := s.clock.Now().UTC()
	lm.match.Status = match.StatusRunning
	lm.match.StartedAt = &now
	lm.match.ElapsedSeconds = 0
	lm.lastCheckpoint = now
	lm.resumedAt = now

	s.persistStatus(ctx, lm)
	return s.stateLocked(lm), nil
}

// Pause stops the clock and checkpoints the elapsed time. The checkpoint
// becomes the single source of truth until resume.
func (s *MatchService) Pause(ctx context.Context, matchID string) (MatchState, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.Pause")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	lm, err := s.ensureLive(ctx, matchID)
	if err != nil {
		return MatchState{}, err
	}
	if !lm.match.CanTransition(match.StatusPaused) {
		return MatchState{}, fmt.Errorf("%w: cannot pause a %s match", ErrInvalidTransition, lm.match.Status)
	}

	now := s.clock.Now().UTC()
	lm.match.ElapsedSeconds = int(s.elapsedLocked(lm, now) / time.Second)
	lm.match.Status = match.StatusPaused
	lm.lastCheckpoint = now

	s.persistStatus(ctx, lm)
	return s.stateLocked(lm), nil
}

// Resume restarts the clock from the checkpoint. The recorded start is
// rewritten to a synthetic instant so elapsed time keeps deriving as
// now minus start.
func (s *MatchService) Resume(ctx context.Context, matchID string) (MatchState, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.Resume")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	lm, err := s.ensureLive(ctx, matchID)
	if err != nil {
		return MatchState{}, err
	}
	if lm.match.Status != match.StatusPaused {
		return MatchState{}, fmt.Errorf("%w: cannot resume a %s match", ErrInvalidTransition, lm.match.Status)
	}

	now := s.clock.Now().UTC()
	synthetic := match.SyntheticStart(now, time.Duration(lm.match.ElapsedSeconds)*time.Second)
	lm.match.Status = match.StatusRunning
	lm.match.StartedAt = &synthetic
	lm.resumedAt = now
	lm.lastCheckpoint = now

	s.persistStatus(ctx, lm)
	return s.stateLocked(lm), nil
}

// Tick is the host-driven heartbeat: the caller invokes it periodically
// while a match runs. It checkpoints the elapsed counter on the
// configured interval and freezes the clock when regulation runs out,
// leaving the match waiting for the operator to confirm the result. A
// failed checkpoint write never disturbs the in-memory clock; the state
// is just reported stale until a later write lands.
func (s *MatchService) Tick(ctx context.Context, matchID string) (MatchState, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.Tick")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	lm, err := s.ensureLive(ctx, matchID)
	if err != nil {
		return MatchState{}, err
	}
	if lm.match.Status != match.StatusRunning {
		return s.stateLocked(lm), nil
	}

	now := s.clock.Now().UTC()
	if !lm.expired && match.Expired(lm.match, s.settings.Duration, now) {
		lm.expired = true
		lm.match.ElapsedSeconds = int(s.settings.Duration / time.Second)
		lm.lastCheckpoint = now
		s.checkpointClock(ctx, lm)
		return s.stateLocked(lm), nil
	}

	if match.ShouldCheckpoint(lm.lastCheckpoint, lm.resumedAt, now, s.settings.CheckpointInterval, s.settings.ResumeGrace) {
		lm.match.ElapsedSeconds = int(s.elapsedLocked(lm, now) / time.Second)
		lm.lastCheckpoint = now
		s.checkpointClock(ctx, lm)
	}
	return s.stateLocked(lm), nil
}

// RecordGoal appends a goal and keeps the score columns equal to the
// goal count per side. Goals are rejected once regulation time is over.
func (s *MatchService) RecordGoal(ctx context.Context, matchID string, input GoalInput) (MatchState, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.RecordGoal")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	lm, err := s.ensureLive(ctx, matchID)
	if err != nil {
		return MatchState{}, err
	}
	if lm.match.Status != match.StatusRunning {
		return MatchState{}, fmt.Errorf("%w: cannot score in a %s match", ErrInvalidTransition, lm.match.Status)
	}
	if lm.expired {
		return MatchState{}, fmt.Errorf("%w: regulation time is over", ErrInvalidTransition)
	}
	if !input.Team.Valid() {
		return MatchState{}, fmt.Errorf("%w: team must be A or B", ErrInvalidInput)
	}

	input.PlayerID = strings.TrimSpace(input.PlayerID)
	var scorer *string
	if !input.OwnGoal {
		if input.PlayerID == "" {
			return MatchState{}, fmt.Errorf("%w: player_id is required for a regular goal", ErrInvalidInput)
		}
		if !lm.match.OnTeam(input.Team, input.PlayerID) {
			return MatchState{}, fmt.Errorf("%w: player %s is not on team %s", ErrInvalidInput, input.PlayerID, input.Team)
		}
		scorer = &input.PlayerID
	} else if input.PlayerID != "" {
		return MatchState{}, fmt.Errorf("%w: own goal cannot credit a player", ErrInvalidInput)
	}

	goalID, err := s.idGen.NewID()
	if err != nil {
		return MatchState{}, fmt.Errorf("generate goal id: %w", err)
	}
	g := goal.Goal{
		ID:        goalID,
		MatchID:   lm.match.ID,
		PlayerID:  scorer,
		Team:      input.Team,
		IsOwnGoal: input.OwnGoal,
		CreatedAt: s.clock.Now().UTC(),
	}
	if err := g.Validate(); err != nil {
		return MatchState{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.goalRepo.Create(ctx, g); err != nil {
		return MatchState{}, fmt.Errorf("create goal: %w", err)
	}

	if input.Team == match.SideA {
		lm.match.ScoreA++
	} else {
		lm.match.ScoreB++
	}
	s.persistScore(ctx, lm)

	return s.stateLocked(lm), nil
}

// UndoLastGoal reverts the single most recent goal of the match. There is
// no deeper history: calling it twice in a row without a new goal in
// between fails the second time.
func (s *MatchService) UndoLastGoal(ctx context.Context, matchID string) (MatchState, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.UndoLastGoal")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	lm, err := s.ensureLive(ctx, matchID)
	if err != nil {
		return MatchState{}, err
	}
	if !lm.match.Active() {
		return MatchState{}, fmt.Errorf("%w: cannot revise a %s match", ErrInvalidTransition, lm.match.Status)
	}

	g, exists, err := s.goalRepo.DeleteLatest(ctx, lm.match.ID)
	if err != nil {
		return MatchState{}, fmt.Errorf("delete latest goal: %w", err)
	}
	if !exists {
		return MatchState{}, fmt.Errorf("%w: no goal to revert", ErrNotFound)
	}

	if g.Team == match.SideA {
		lm.match.ScoreA--
	} else {
		lm.match.ScoreB--
	}
	s.persistScore(ctx, lm)

	return s.stateLocked(lm), nil
}

// Finish confirms the result, closes the match, folds the result into
// each participant's lifetime counters, and rotates the queue. On a
// level score the operator must name the tie-break priority side. The
// status write, the stat fold, and the rotation are structural: if any
// of them fails the whole confirmation fails.
func (s *MatchService) Finish(ctx context.Context, matchID string, tieBreak match.Side) (MatchState, QueueSnapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.Finish")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	lm, err := s.ensureLive(ctx, matchID)
	if err != nil {
		return MatchState{}, QueueSnapshot{}, err
	}
	if !lm.match.CanTransition(match.StatusFinished) {
		return MatchState{}, QueueSnapshot{}, fmt.Errorf("%w: cannot finish a %s match", ErrInvalidTransition, lm.match.Status)
	}

	var result match.Result
	switch {
	case lm.match.ScoreA > lm.match.ScoreB:
		result.Winner = match.SideA
	case lm.match.ScoreB > lm.match.ScoreA:
		result.Winner = match.SideB
	default:
		if !tieBreak.Valid() {
			return MatchState{}, QueueSnapshot{}, fmt.Errorf("%w: tie requires a priority team", ErrInvalidInput)
		}
		result.TieBreakPriority = tieBreak
	}

	now := s.clock.Now().UTC()
	finished := lm.match
	finished.Status = match.StatusFinished
	finished.Winner = result.Winner
	finished.FinishedAt = &now
	finished.ElapsedSeconds = int(s.elapsedLocked(lm, now) / time.Second)
	if limit := int(s.settings.Duration / time.Second); finished.ElapsedSeconds > limit {
		finished.ElapsedSeconds = limit
	}

	if err := s.matchRepo.UpdateStatus(ctx, finished); err != nil {
		return MatchState{}, QueueSnapshot{}, fmt.Errorf("finish match: %w", err)
	}

	deltas, err := s.matchStatDeltas(ctx, finished, result)
	if err != nil {
		return MatchState{}, QueueSnapshot{}, err
	}
	if err := s.playerRepo.ApplyStatDeltas(ctx, deltas); err != nil {
		return MatchState{}, QueueSnapshot{}, fmt.Errorf("apply stat deltas: %w", err)
	}

	snap, err := s.queueSvc.ApplyRotation(ctx, finished.SessionID, result)
	if err != nil {
		return MatchState{}, QueueSnapshot{}, err
	}

	lm.match = finished
	lm.stale = false
	state := s.stateLocked(lm)
	delete(s.live, matchID)

	s.publish(ctx, "match.finished", finished)
	return state, snap, nil
}

// matchStatDeltas turns one finished match into a lifetime delta per
// participant: a game for all twelve, a win for the winning side, and a
// goal per credited scorer. Own goals credit nobody.
func (s *MatchService) matchStatDeltas(ctx context.Context, finished match.Match, result match.Result) (map[string]player.StatDelta, error) {
	deltas := make(map[string]player.StatDelta, len(finished.TeamA)+len(finished.TeamB))
	for _, pid := range finished.TeamA {
		d := deltas[pid]
		d.GamesPlayed++
		if result.Winner == match.SideA {
			d.Wins++
		}
		deltas[pid] = d
	}
	for _, pid := range finished.TeamB {
		d := deltas[pid]
		d.GamesPlayed++
		if result.Winner == match.SideB {
			d.Wins++
		}
		deltas[pid] = d
	}

	goals, err := s.goalRepo.ListByMatch(ctx, finished.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: list goals: %v", ErrDataUnavailable, err)
	}
	for _, g := range goals {
		if g.PlayerID == nil {
			continue
		}
		d := deltas[*g.PlayerID]
		d.Goals++
		deltas[*g.PlayerID] = d
	}

	return deltas, nil
}

// Cancel voids a match that never produced a goal. Anything with a score
// on the board has already influenced the session and must be finished,
// not cancelled.
func (s *MatchService) Cancel(ctx context.Context, matchID string) (MatchState, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.Cancel")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	lm, err := s.ensureLive(ctx, matchID)
	if err != nil {
		return MatchState{}, err
	}
	if !lm.match.CanTransition(match.StatusCancelled) {
		return MatchState{}, fmt.Errorf("%w: cannot cancel a %s match", ErrInvalidTransition, lm.match.Status)
	}
	if lm.match.ScoreA != 0 || lm.match.ScoreB != 0 {
		return MatchState{}, fmt.Errorf("%w: cannot cancel at %d-%d", ErrInvalidTransition, lm.match.ScoreA, lm.match.ScoreB)
	}

	now := s.clock.Now().UTC()
	cancelled := lm.match
	cancelled.Status = match.StatusCancelled
	cancelled.FinishedAt = &now

	if err := s.matchRepo.UpdateStatus(ctx, cancelled); err != nil {
		return MatchState{}, fmt.Errorf("cancel match: %w", err)
	}

	lm.match = cancelled
	lm.stale = false
	state := s.stateLocked(lm)
	delete(s.live, matchID)

	s.publish(ctx, "match.cancelled", cancelled)
	return state, nil
}

// ensureLive returns the in-memory record for a match, recovering it from
// the stored checkpoint when this process has none. Callers hold s.mu.
func (s *MatchService) ensureLive(ctx context.Context, matchID string) (*liveMatch, error) {
	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return nil, fmt.Errorf("%w: match_id is required", ErrInvalidInput)
	}
	if lm, ok := s.live[matchID]; ok {
		return lm, nil
	}

	m, exists, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("%w: get match: %v", ErrDataUnavailable, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: match %s", ErrNotFound, matchID)
	}

	lm := &liveMatch{match: m, lastCheckpoint: s.clock.Now().UTC()}
	if m.Status == match.StatusRunning {
		// Recovery after a restart: trust the checkpoint, not the stored
		// start instant, and rebuild a synthetic start from it.
		now := s.clock.Now().UTC()
		synthetic := match.SyntheticStart(now, time.Duration(m.ElapsedSeconds)*time.Second)
		lm.match.StartedAt = &synthetic
		lm.resumedAt = now
	}
	if lm.match.Active() {
		s.live[matchID] = lm
	}
	return lm, nil
}

func (s *MatchService) elapsedLocked(lm *liveMatch, now time.Time) time.Duration {
	if lm.expired {
		return s.settings.Duration
	}
	e := match.Elapsed(lm.match, now)
	if e > s.settings.Duration {
		e = s.settings.Duration
	}
	return e
}

func (s *MatchService) stateLocked(lm *liveMatch) MatchState {
	now := s.clock.Now().UTC()
	elapsed := s.elapsedLocked(lm, now)
	return MatchState{
		Match:     lm.match,
		Elapsed:   elapsed,
		Remaining: s.settings.Duration - elapsed,
		Expired:   lm.expired || elapsed >= s.settings.Duration,
		Stale:     lm.stale,
	}
}

// persistStatus mirrors a clock transition (start, pause, resume) to
// storage. Best effort: the operator's action already happened on the
// field, so a failed write leaves the in-memory state authoritative and
// the snapshot stale. Finish and cancel do not come through here; those
// are structural and fail hard.
func (s *MatchService) persistStatus(ctx context.Context, lm *liveMatch) {
	if err := s.matchRepo.UpdateStatus(ctx, lm.match); err != nil {
		lm.stale = true
		s.logger.WarnContext(ctx, "match status write failed",
			"match_id", lm.match.ID,
			"status", string(lm.match.Status),
			"error", err,
		)
		return
	}
	lm.stale = false
}

// checkpointClock writes only the elapsed counter. Best effort: on a
// refused or failed write the in-memory clock stands and the snapshot is
// reported stale.
func (s *MatchService) checkpointClock(ctx context.Context, lm *liveMatch) {
	if s.breaker != nil {
		if err := s.breaker.Allow(); err != nil {
			lm.stale = true
			return
		}
	}
	err := s.matchRepo.UpdateElapsed(ctx, lm.match.ID, lm.match.ElapsedSeconds, lm.match.StartedAt)
	if err != nil {
		if s.breaker != nil {
			s.breaker.RecordFailure()
		}
		lm.stale = true
		s.logger.WarnContext(ctx, "clock checkpoint write failed",
			"match_id", lm.match.ID,
			"elapsed_seconds", lm.match.ElapsedSeconds,
			"error", err,
		)
		return
	}
	if s.breaker != nil {
		s.breaker.RecordSuccess()
	}
	lm.stale = false
}

// persistScore mirrors the in-memory score to storage, best effort like
// the clock checkpoint. The goal ledger was already written, so the
// score columns can always be rebuilt from it.
func (s *MatchService) persistScore(ctx context.Context, lm *liveMatch) {
	err := s.matchRepo.UpdateScore(ctx, lm.match.ID, lm.match.ScoreA, lm.match.ScoreB)
	if err != nil {
		lm.stale = true
		s.logger.WarnContext(ctx, "score write failed",
			"match_id", lm.match.ID,
			"error", err,
		)
		return
	}
	lm.stale = false
}

func (s *MatchService) publish(ctx context.Context, event string, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event, payload); err != nil {
		s.logger.WarnContext(ctx, "publish match event failed",
			"event", event,
			"error", err,
		)
	}
}
