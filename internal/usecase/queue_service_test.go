package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/peladahub/pelada-manager/internal/domain/match"
	"github.com/peladahub/pelada-manager/internal/domain/player"
	"github.com/peladahub/pelada-manager/internal/domain/queue"
	"github.com/peladahub/pelada-manager/internal/domain/session"
	"github.com/peladahub/pelada-manager/internal/infrastructure/repository/memory"
)

type sequenceIDGenerator struct {
	prefix string
	next   int
}

func (g *sequenceIDGenerator) NewID() (string, error) {
	g.next++
	return fmt.Sprintf("%s-%03d", g.prefix, g.next), nil
}

func seedPlayerIDs() []string {
	players := memory.SeedPlayers()
	ids := make([]string, 0, len(players))
	for _, p := range players {
		ids = append(ids, p.ID)
	}
	return ids
}

func newQueueFixture(t *testing.T, ordering []string) (*QueueService, *memory.SessionRepository, *memory.QueueRepository) {
	t.Helper()

	sessionRepo := memory.NewSessionRepository([]session.Session{{
		ID:        "s1",
		Date:      time.Date(2026, 8, 29, 19, 0, 0, 0, time.UTC),
		Location:  "Quadra da Vila",
		Status:    session.StatusActive,
		CreatedAt: time.Date(2026, 8, 29, 18, 0, 0, 0, time.UTC),
	}})
	queueRepo := memory.NewQueueRepository()
	if err := queueRepo.ReplaceOrdering(context.Background(), "s1", ordering, nil); err != nil {
		t.Fatalf("seed ordering: %v", err)
	}
	playerRepo := memory.NewPlayerRepository(memory.SeedPlayers())

	return NewQueueService(queueRepo, sessionRepo, playerRepo, queue.DefaultRules()), sessionRepo, queueRepo
}

func snapshotOrdering(snap QueueSnapshot) []string {
	out := make([]string, 0)
	for _, p := range snap.TeamA {
		out = append(out, p.ID)
	}
	for _, p := range snap.TeamB {
		out = append(out, p.ID)
	}
	for _, p := range snap.Waiting {
		out = append(out, p.ID)
	}
	return out
}

func TestQueueService_LoadSplitsTeamsAndWaiting(t *testing.T) {
	ids := seedPlayerIDs()
	svc, _, _ := newQueueFixture(t, ids)

	snap, err := svc.Load(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(snap.TeamA) != 6 || len(snap.TeamB) != 6 {
		t.Fatalf("teams = %d/%d, want 6/6", len(snap.TeamA), len(snap.TeamB))
	}
	if len(snap.Waiting) != len(ids)-12 {
		t.Fatalf("waiting = %d, want %d", len(snap.Waiting), len(ids)-12)
	}
	if snap.TeamA[0].ID != ids[0] || snap.TeamB[0].ID != ids[6] {
		t.Fatalf("lineups out of order: %s / %s", snap.TeamA[0].ID, snap.TeamB[0].ID)
	}
}

func TestQueueService_EnqueueRejectsDuplicateAndOverflow(t *testing.T) {
	ids := seedPlayerIDs()
	svc, _, _ := newQueueFixture(t, ids[:12])

	if _, err := svc.Enqueue(context.Background(), "s1", ids[0]); !errors.Is(err, queue.ErrDuplicatePlayer) {
		t.Fatalf("err = %v, want ErrDuplicatePlayer", err)
	}

	snap, err := svc.Enqueue(context.Background(), "s1", ids[12])
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if got := snapshotOrdering(snap); got[len(got)-1] != ids[12] {
		t.Fatalf("new player not at the back: %v", got)
	}

	if _, err := svc.Enqueue(context.Background(), "s1", "p-ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestQueueService_EnqueueCapacity(t *testing.T) {
	ids := seedPlayerIDs()
	rules := queue.DefaultRules()
	rules.MaxQueue = 13
	svc, _, _ := newQueueFixture(t, ids[:13])
	svc.rules = rules

	if _, err := svc.Enqueue(context.Background(), "s1", ids[13]); !errors.Is(err, queue.ErrCapacityExceeded) {
		t.Fatalf("err = %v, want ErrCapacityExceeded", err)
	}
}

func TestQueueService_DequeueKeepsPositionsDense(t *testing.T) {
	ids := seedPlayerIDs()
	svc, _, queueRepo := newQueueFixture(t, ids)

	snap, err := svc.Dequeue(context.Background(), "s1", ids[3])
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	got := snapshotOrdering(snap)
	if len(got) != len(ids)-1 {
		t.Fatalf("ordering size = %d, want %d", len(got), len(ids)-1)
	}

	entries, err := queueRepo.ListBySession(context.Background(), "s1")
	if err != nil {
		t.Fatalf("ListBySession: %v", err)
	}
	if _, err := queue.Ordering(entries); err != nil {
		t.Fatalf("positions not dense after dequeue: %v", err)
	}

	if _, err := svc.Dequeue(context.Background(), "s1", ids[3]); !errors.Is(err, queue.ErrPlayerNotQueued) {
		t.Fatalf("err = %v, want ErrPlayerNotQueued", err)
	}
}

func TestQueueService_SubstituteSwapsBodyNotSlot(t *testing.T) {
	ids := seedPlayerIDs()
	svc, _, _ := newQueueFixture(t, ids[:13])

	snap, err := svc.Substitute(context.Background(), "s1", 2, ids[13])
	if err != nil {
		t.Fatalf("Substitute: %v", err)
	}
	got := snapshotOrdering(snap)
	if got[1] != ids[13] {
		t.Fatalf("position 2 = %s, want %s", got[1], ids[13])
	}
	// The outgoing player stays registered as a reserve.
	foundReserve := false
	for _, p := range snap.Reserves {
		if p.ID == ids[1] {
			foundReserve = true
		}
	}
	if !foundReserve {
		t.Fatalf("outgoing player missing from reserves: %+v", snap.Reserves)
	}
}

func TestQueueService_ApplyRotationPersistsStreak(t *testing.T) {
	ids := seedPlayerIDs()
	svc, sessionRepo, _ := newQueueFixture(t, ids)

	snap, err := svc.ApplyRotation(context.Background(), "s1", match.Result{Winner: match.SideA})
	if err != nil {
		t.Fatalf("ApplyRotation: %v", err)
	}
	if snap.ConsecutiveWins != 1 {
		t.Fatalf("consecutive wins = %d, want 1", snap.ConsecutiveWins)
	}

	sess, _, err := sessionRepo.GetByID(context.Background(), "s1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if sess.ConsecutiveWins != 1 {
		t.Fatalf("stored wins = %d, want 1", sess.ConsecutiveWins)
	}

	// Winners keep the field.
	if snap.TeamA[0].ID != ids[0] {
		t.Fatalf("team A changed after win: %s", snap.TeamA[0].ID)
	}
}

func TestQueueService_LoadSurfacesCorruptOrdering(t *testing.T) {
	ids := seedPlayerIDs()
	svc, _, _ := newQueueFixture(t, ids)
	svc.queueRepo = gapQueueRepo{}

	if _, err := svc.Load(context.Background(), "s1"); !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("err = %v, want ErrDataUnavailable", err)
	}
}

func TestQueueService_InsufficientPlayersForRotation(t *testing.T) {
	ids := seedPlayerIDs()
	svc, _, _ := newQueueFixture(t, ids[:11])

	_, err := svc.ApplyRotation(context.Background(), "s1", match.Result{Winner: match.SideA})
	if !errors.Is(err, queue.ErrInsufficientPlayers) {
		t.Fatalf("err = %v, want ErrInsufficientPlayers", err)
	}
}

// gapQueueRepo returns entries with a hole at position 2.
type gapQueueRepo struct{}

func (gapQueueRepo) ListBySession(context.Context, string) ([]queue.Entry, error) {
	return []queue.Entry{
		{SessionID: "s1", PlayerID: "p-careca", Position: 1, Status: queue.StatusQueued},
		{SessionID: "s1", PlayerID: "p-dinho", Position: 3, Status: queue.StatusQueued},
	}, nil
}

func (gapQueueRepo) ReplaceOrdering(context.Context, string, []string, []string) error {
	return nil
}

var _ player.Repository = (*memory.PlayerRepository)(nil)
