package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/peladahub/pelada-manager/internal/domain/match"
	"github.com/peladahub/pelada-manager/internal/domain/player"
	"github.com/peladahub/pelada-manager/internal/domain/queue"
	"github.com/peladahub/pelada-manager/internal/domain/session"
	"github.com/peladahub/pelada-manager/internal/platform/id"
)

type StartSessionInput struct {
	Date     time.Time
	Location string
	// PlayerIDs is everyone present at kickoff time let into the draw.
	PlayerIDs []string
	// Shuffle balances the draw by skill when true; otherwise arrival
	// order is kept as the initial ordering.
	Shuffle bool
}

type SessionService struct {
	sessionRepo session.Repository
	queueRepo   queue.Repository
	playerRepo  player.Repository
	matchRepo   match.Repository
	idGen       id.Generator
	rules       queue.Rules
	now         func() time.Time
}

func NewSessionService(
	sessionRepo session.Repository,
	queueRepo queue.Repository,
	playerRepo player.Repository,
	matchRepo match.Repository,
	idGen id.Generator,
	rules queue.Rules,
) *SessionService {
	return &SessionService{
		sessionRepo: sessionRepo,
		queueRepo:   queueRepo,
		playerRepo:  playerRepo,
		matchRepo:   matchRepo,
		idGen:       idGen,
		rules:       rules,
		now:         time.Now,
	}
}

func (s *SessionService) GetActive(ctx context.Context) (session.Session, bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SessionService.GetActive")
	defer span.End()

	sess, exists, err := s.sessionRepo.GetActive(ctx)
	if err != nil {
		return session.Session{}, false, fmt.Errorf("%w: get active session: %v", ErrDataUnavailable, err)
	}
	return sess, exists, nil
}

// Start opens a new session and seeds its ordering from the draw. The
// first 2*TeamSize drawn players are the opening lineups; everyone else
// forms the waiting line in draw order.
func (s *SessionService) Start(ctx context.Context, input StartSessionInput) (session.Session, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SessionService.Start")
	defer span.End()

	input.Location = strings.TrimSpace(input.Location)
	ids, err := normalizeIDs(input.PlayerIDs)
	if err != nil {
		return session.Session{}, err
	}
	if len(ids) < s.rules.FieldSize() {
		return session.Session{}, fmt.Errorf("%w: have %d players, need %d",
			queue.ErrInsufficientPlayers, len(ids), s.rules.FieldSize())
	}
	if len(ids) > s.rules.MaxQueue {
		return session.Session{}, fmt.Errorf("%w: %d players over limit %d",
			queue.ErrCapacityExceeded, len(ids), s.rules.MaxQueue)
	}

	if _, exists, err := s.sessionRepo.GetActive(ctx); err != nil {
		return session.Session{}, fmt.Errorf("%w: get active session: %v", ErrDataUnavailable, err)
	} else if exists {
		return session.Session{}, fmt.Errorf("%w: a session is already active", ErrInvalidTransition)
	}

	players, err := s.playerRepo.GetByIDs(ctx, ids)
	if err != nil {
		return session.Session{}, fmt.Errorf("get players: %w", err)
	}
	if len(players) != len(ids) {
		return session.Session{}, fmt.Errorf("%w: %d of %d players are not registered",
			ErrNotFound, len(ids)-len(players), len(ids))
	}

	ordering := ids
	if input.Shuffle {
		ordering = drawOrdering(ids, players, s.rules.TeamSize)
	}

	sessionID, err := s.idGen.NewID()
	if err != nil {
		return session.Session{}, fmt.Errorf("generate session id: %w", err)
	}

	date := input.Date
	if date.IsZero() {
		date = s.now().UTC()
	}
	sess := session.Session{
		ID:        sessionID,
		Date:      date,
		Location:  input.Location,
		Status:    session.StatusActive,
		CreatedAt: s.now().UTC(),
	}
	if err := sess.Validate(); err != nil {
		return session.Session{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.sessionRepo.Create(ctx, sess); err != nil {
		return session.Session{}, fmt.Errorf("create session: %w", err)
	}
	if err := s.queueRepo.ReplaceOrdering(ctx, sess.ID, ordering, nil); err != nil {
		return session.Session{}, fmt.Errorf("seed queue ordering: %w", err)
	}

	return sess, nil
}

// End finalizes a session: the queue is frozen and no further matches can
// start. Lifetime stats were already folded match by match as each result
// was confirmed. An active match blocks the finalization.
func (s *SessionService) End(ctx context.Context, sessionID string) (session.Session, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SessionService.End")
	defer span.End()

	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return session.Session{}, fmt.Errorf("%w: session_id is required", ErrInvalidInput)
	}

	sess, exists, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return session.Session{}, fmt.Errorf("%w: get session: %v", ErrDataUnavailable, err)
	}
	if !exists {
		return session.Session{}, fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
	}
	if !sess.Active() {
		return session.Session{}, fmt.Errorf("%w: session %s is already finalized", ErrInvalidTransition, sessionID)
	}

	if _, active, err := s.matchRepo.GetActiveBySession(ctx, sessionID); err != nil {
		return session.Session{}, fmt.Errorf("%w: get active match: %v", ErrDataUnavailable, err)
	} else if active {
		return session.Session{}, fmt.Errorf("%w: a match is still in progress", ErrInvalidTransition)
	}

	if err := s.sessionRepo.Finalize(ctx, sessionID); err != nil {
		return session.Session{}, fmt.Errorf("finalize session: %w", err)
	}

	now := s.now().UTC()
	sess.Status = session.StatusFinalized
	sess.FinalizedAt = &now
	return sess, nil
}

// drawOrdering balances the opening lineups by skill. The first
// 2*teamSize arrivals take the field: they are sorted by skill and dealt
// in snake order (A B B A A B ...) so the two sides come out with
// comparable totals. Everyone after that keeps arrival order in the
// waiting line. The sort is stable, so the draw is deterministic for a
// given arrival list.
func drawOrdering(arrival []string, players []player.Player, teamSize int) []string {
	byID := make(map[string]player.Player, len(players))
	for _, p := range players {
		byID[p.ID] = p
	}

	field := 2 * teamSize
	deck := make([]player.Player, 0, field)
	for _, pid := range arrival[:field] {
		deck = append(deck, byID[pid])
	}
	sort.SliceStable(deck, func(i, j int) bool {
		return deck[i].SkillRating > deck[j].SkillRating
	})

	sideA := make([]string, 0, teamSize)
	sideB := make([]string, 0, teamSize)
	for i, p := range deck {
		if (i/2)%2 == i%2 {
			sideA = append(sideA, p.ID)
		} else {
			sideB = append(sideB, p.ID)
		}
	}

	out := make([]string, 0, len(arrival))
	out = append(out, sideA...)
	out = append(out, sideB...)
	out = append(out, arrival[field:]...)
	return out
}

func normalizeIDs(ids []string) ([]string, error) {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, raw := range ids {
		v := strings.TrimSpace(raw)
		if v == "" {
			return nil, fmt.Errorf("%w: empty player id", ErrInvalidInput)
		}
		if _, dup := seen[v]; dup {
			return nil, fmt.Errorf("%w: %s", queue.ErrDuplicatePlayer, v)
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out, nil
}
