package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/peladahub/pelada-manager/internal/domain/queue"
	qb "github.com/peladahub/pelada-manager/internal/platform/querybuilder"
)

type QueueRepository struct {
	db *sqlx.DB
}

func NewQueueRepository(db *sqlx.DB) *QueueRepository {
	return &QueueRepository{db: db}
}

func (r *QueueRepository) ListBySession(ctx context.Context, sessionID string) ([]queue.Entry, error) {
	query, args, err := qb.Select("*").From("queue_entries").
		Where(qb.Eq("session_public_id", sessionID)).
		OrderBy("position NULLS LAST", "created_at").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select queue entries query: %w", err)
	}

	var rows []queueEntryTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select queue entries: %w", err)
	}

	out := make([]queue.Entry, 0, len(rows))
	for _, row := range rows {
		entry := queue.Entry{
			SessionID: row.SessionPublicID,
			PlayerID:  row.PlayerPublicID,
			Status:    queue.EntryStatus(row.Status),
		}
		if row.Position.Valid {
			entry.Position = int(row.Position.Int64)
		}
		out = append(out, entry)
	}

	return out, nil
}

// ReplaceOrdering rewrites the session's queue wholesale. The rotation
// engine computes a complete new ordering on every mutation, so a
// delete-and-reinsert inside one transaction is both the simplest and
// the only correct write shape here.
func (r *QueueRepository) ReplaceOrdering(ctx context.Context, sessionID string, ordering, reserves []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx replace ordering: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	deleteQuery, deleteArgs, err := qb.DeleteFrom("queue_entries").
		Where(qb.Eq("session_public_id", sessionID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete queue entries query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, deleteQuery, deleteArgs...); err != nil {
		return fmt.Errorf("delete queue entries: %w", err)
	}

	for i, playerID := range ordering {
		insertQuery, insertArgs, err := qb.InsertInto("queue_entries").
			Columns("session_public_id", "player_public_id", "position", "status").
			Values(sessionID, playerID, i+1, string(queue.StatusQueued)).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build insert queued entry query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
			return fmt.Errorf("insert queued entry: %w", err)
		}
	}

	for _, playerID := range reserves {
		insertQuery, insertArgs, err := qb.InsertInto("queue_entries").
			Columns("session_public_id", "player_public_id", "position", "status").
			Values(sessionID, playerID, nil, string(queue.StatusReserve)).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build insert reserve entry query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
			return fmt.Errorf("insert reserve entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace ordering tx: %w", err)
	}

	return nil
}
