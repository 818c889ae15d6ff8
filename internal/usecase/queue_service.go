package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/peladahub/pelada-manager/internal/domain/match"
	"github.com/peladahub/pelada-manager/internal/domain/player"
	"github.com/peladahub/pelada-manager/internal/domain/queue"
	"github.com/peladahub/pelada-manager/internal/domain/session"
)

// QueueSnapshot is the full rotation state of a session: the two lineups
// drawn from the head of the ordering, everyone waiting behind them, the
// reserves outside the ordering, and the incumbent side's win streak.
type QueueSnapshot struct {
	Session         session.Session
	TeamA           []player.Player
	TeamB           []player.Player
	Waiting         []player.Player
	Reserves        []player.Player
	ConsecutiveWins int
}

type QueueService struct {
	queueRepo   queue.Repository
	sessionRepo session.Repository
	playerRepo  player.Repository
	rules       queue.Rules
}

func NewQueueService(
	queueRepo queue.Repository,
	sessionRepo session.Repository,
	playerRepo player.Repository,
	rules queue.Rules,
) *QueueService {
	return &QueueService{
		queueRepo:   queueRepo,
		sessionRepo: sessionRepo,
		playerRepo:  playerRepo,
		rules:       rules,
	}
}

func (s *QueueService) Rules() queue.Rules {
	return s.rules
}

// Load reassembles the rotation state from storage. Any inconsistency in
// the stored ordering is surfaced as unavailable state rather than
// repaired, so the operator sees the problem instead of a silently
// reshuffled queue.
func (s *QueueService) Load(ctx context.Context, sessionID string) (QueueSnapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueueService.Load")
	defer span.End()

	sess, ordering, reserves, err := s.loadOrdering(ctx, sessionID)
	if err != nil {
		return QueueSnapshot{}, err
	}
	return s.snapshot(ctx, sess, ordering, reserves)
}

// Enqueue appends a player to the back of the waiting line. A reserve
// joining the line stops being a reserve.
func (s *QueueService) Enqueue(ctx context.Context, sessionID, playerID string) (QueueSnapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueueService.Enqueue")
	defer span.End()

	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return QueueSnapshot{}, fmt.Errorf("%w: player_id is required", ErrInvalidInput)
	}

	sess, ordering, reserves, err := s.loadOrdering(ctx, sessionID)
	if err != nil {
		return QueueSnapshot{}, err
	}
	if !sess.Active() {
		return QueueSnapshot{}, fmt.Errorf("%w: session %s is finalized", ErrInvalidTransition, sess.ID)
	}
	if queue.Contains(ordering, playerID) {
		return QueueSnapshot{}, fmt.Errorf("%w: %s", queue.ErrDuplicatePlayer, playerID)
	}
	if len(ordering) >= s.rules.MaxQueue {
		return QueueSnapshot{}, fmt.Errorf("%w: limit %d", queue.ErrCapacityExceeded, s.rules.MaxQueue)
	}
	if _, exists, err := s.playerRepo.GetByID(ctx, playerID); err != nil {
		return QueueSnapshot{}, fmt.Errorf("get player: %w", err)
	} else if !exists {
		return QueueSnapshot{}, fmt.Errorf("%w: player %s", ErrNotFound, playerID)
	}

	ordering = append(ordering, playerID)
	reserves = removeID(reserves, playerID)

	if err := s.queueRepo.ReplaceOrdering(ctx, sess.ID, ordering, reserves); err != nil {
		return QueueSnapshot{}, fmt.Errorf("replace queue ordering: %w", err)
	}
	return s.snapshot(ctx, sess, ordering, reserves)
}

// Dequeue removes a player from the ordering and closes the gap, keeping
// positions dense. Everyone behind moves up one slot.
func (s *QueueService) Dequeue(ctx context.Context, sessionID, playerID string) (QueueSnapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueueService.Dequeue")
	defer span.End()

	sess, ordering, reserves, err := s.loadOrdering(ctx, sessionID)
	if err != nil {
		return QueueSnapshot{}, err
	}
	if !sess.Active() {
		return QueueSnapshot{}, fmt.Errorf("%w: session %s is finalized", ErrInvalidTransition, sess.ID)
	}

	next, err := queue.Remove(ordering, strings.TrimSpace(playerID))
	if err != nil {
		return QueueSnapshot{}, err
	}
	if err := s.queueRepo.ReplaceOrdering(ctx, sess.ID, next, reserves); err != nil {
		return QueueSnapshot{}, fmt.Errorf("replace queue ordering: %w", err)
	}
	return s.snapshot(ctx, sess, next, reserves)
}

// MoveToReserve takes a player out of the ordering but keeps them
// registered for the session as a reserve.
func (s *QueueService) MoveToReserve(ctx context.Context, sessionID, playerID string) (QueueSnapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueueService.MoveToReserve")
	defer span.End()

	sess, ordering, reserves, err := s.loadOrdering(ctx, sessionID)
	if err != nil {
		return QueueSnapshot{}, err
	}
	if !sess.Active() {
		return QueueSnapshot{}, fmt.Errorf("%w: session %s is finalized", ErrInvalidTransition, sess.ID)
	}

	playerID = strings.TrimSpace(playerID)
	next, err := queue.Remove(ordering, playerID)
	if err != nil {
		return QueueSnapshot{}, err
	}
	reserves = append(removeID(reserves, playerID), playerID)

	if err := s.queueRepo.ReplaceOrdering(ctx, sess.ID, next, reserves); err != nil {
		return QueueSnapshot{}, fmt.Errorf("replace queue ordering: %w", err)
	}
	return s.snapshot(ctx, sess, next, reserves)
}

// Substitute puts a new player into an occupied position. The outgoing
// player becomes a reserve; the slot number does not change, so a
// substitution inside the field swaps a single body without disturbing
// the rotation.
func (s *QueueService) Substitute(ctx context.Context, sessionID string, position int, playerID string) (QueueSnapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueueService.Substitute")
	defer span.End()

	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return QueueSnapshot{}, fmt.Errorf("%w: player_id is required", ErrInvalidInput)
	}

	sess, ordering, reserves, err := s.loadOrdering(ctx, sessionID)
	if err != nil {
		return QueueSnapshot{}, err
	}
	if !sess.Active() {
		return QueueSnapshot{}, fmt.Errorf("%w: session %s is finalized", ErrInvalidTransition, sess.ID)
	}
	if _, exists, err := s.playerRepo.GetByID(ctx, playerID); err != nil {
		return QueueSnapshot{}, fmt.Errorf("get player: %w", err)
	} else if !exists {
		return QueueSnapshot{}, fmt.Errorf("%w: player %s", ErrNotFound, playerID)
	}

	next, err := queue.Replace(ordering, position, playerID)
	if err != nil {
		return QueueSnapshot{}, err
	}
	outgoing := ordering[position-1]
	reserves = append(removeID(reserves, playerID), outgoing)

	if err := s.queueRepo.ReplaceOrdering(ctx, sess.ID, next, reserves); err != nil {
		return QueueSnapshot{}, fmt.Errorf("replace queue ordering: %w", err)
	}
	return s.snapshot(ctx, sess, next, reserves)
}

// ApplyRotation rewrites the whole ordering from a match result and
// stores the new win streak. The rewrite is a single atomic replace; a
// failure leaves the previous ordering untouched.
func (s *QueueService) ApplyRotation(ctx context.Context, sessionID string, result match.Result) (QueueSnapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueueService.ApplyRotation")
	defer span.End()

	sess, ordering, reserves, err := s.loadOrdering(ctx, sessionID)
	if err != nil {
		return QueueSnapshot{}, err
	}
	if !sess.Active() {
		return QueueSnapshot{}, fmt.Errorf("%w: session %s is finalized", ErrInvalidTransition, sess.ID)
	}

	plan, err := queue.PlanRotation(ordering, result, sess.ConsecutiveWins, s.rules)
	if err != nil {
		return QueueSnapshot{}, err
	}

	if err := s.queueRepo.ReplaceOrdering(ctx, sess.ID, plan.Ordering, reserves); err != nil {
		return QueueSnapshot{}, fmt.Errorf("replace queue ordering: %w", err)
	}
	if err := s.sessionRepo.SetConsecutiveWins(ctx, sess.ID, plan.ConsecutiveWins); err != nil {
		return QueueSnapshot{}, fmt.Errorf("set consecutive wins: %w", err)
	}

	sess.ConsecutiveWins = plan.ConsecutiveWins
	return s.snapshot(ctx, sess, plan.Ordering, reserves)
}

// NextTeams reports the lineups that would take the field right now.
func (s *QueueService) NextTeams(ctx context.Context, sessionID string) (teamA, teamB []string, err error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueueService.NextTeams")
	defer span.End()

	_, ordering, _, err := s.loadOrdering(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	return queue.NextTeams(ordering, s.rules)
}

func (s *QueueService) loadOrdering(ctx context.Context, sessionID string) (session.Session, []string, []string, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return session.Session{}, nil, nil, fmt.Errorf("%w: session_id is required", ErrInvalidInput)
	}

	sess, exists, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return session.Session{}, nil, nil, fmt.Errorf("%w: get session: %v", ErrDataUnavailable, err)
	}
	if !exists {
		return session.Session{}, nil, nil, fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
	}

	entries, err := s.queueRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return session.Session{}, nil, nil, fmt.Errorf("%w: list queue entries: %v", ErrDataUnavailable, err)
	}
	ordering, err := queue.Ordering(entries)
	if err != nil {
		return session.Session{}, nil, nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	return sess, ordering, queue.Reserves(entries), nil
}

func (s *QueueService) snapshot(ctx context.Context, sess session.Session, ordering, reserves []string) (QueueSnapshot, error) {
	byID, err := s.playersByID(ctx, append(append([]string{}, ordering...), reserves...))
	if err != nil {
		return QueueSnapshot{}, err
	}

	snap := QueueSnapshot{Session: sess, ConsecutiveWins: sess.ConsecutiveWins}
	field := s.rules.FieldSize()
	for i, id := range ordering {
		p, ok := byID[id]
		if !ok {
			return QueueSnapshot{}, fmt.Errorf("%w: queued player %s has no record", ErrDataUnavailable, id)
		}
		switch {
		case i < s.rules.TeamSize:
			snap.TeamA = append(snap.TeamA, p)
		case i < field:
			snap.TeamB = append(snap.TeamB, p)
		default:
			snap.Waiting = append(snap.Waiting, p)
		}
	}
	for _, id := range reserves {
		p, ok := byID[id]
		if !ok {
			return QueueSnapshot{}, fmt.Errorf("%w: reserve player %s has no record", ErrDataUnavailable, id)
		}
		snap.Reserves = append(snap.Reserves, p)
	}
	return snap, nil
}

func (s *QueueService) playersByID(ctx context.Context, ids []string) (map[string]player.Player, error) {
	if len(ids) == 0 {
		return map[string]player.Player{}, nil
	}
	players, err := s.playerRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: get players: %v", ErrDataUnavailable, err)
	}
	byID := make(map[string]player.Player, len(players))
	for _, p := range players {
		byID[p.ID] = p
	}
	return byID, nil
}

func removeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
