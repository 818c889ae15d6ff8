package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/peladahub/pelada-manager/internal/domain/session"
	qb "github.com/peladahub/pelada-manager/internal/platform/querybuilder"
)

type SessionRepository struct {
	db *sqlx.DB
}

func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) GetActive(ctx context.Context) (session.Session, bool, error) {
	query, args, err := qb.Select("*").From("sessions").
		Where(
			qb.Eq("status", string(session.StatusActive)),
			qb.IsNull("deleted_at"),
		).
		OrderBy("created_at DESC").
		Limit(1).
		ToSQL()
	if err != nil {
		return session.Session{}, false, fmt.Errorf("build get active session query: %w", err)
	}

	var row sessionTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return session.Session{}, false, nil
		}
		return session.Session{}, false, fmt.Errorf("get active session: %w", err)
	}

	return sessionRowToDomain(row), true, nil
}

func (r *SessionRepository) GetByID(ctx context.Context, sessionID string) (session.Session, bool, error) {
	query, args, err := qb.Select("*").From("sessions").
		Where(
			qb.Eq("public_id", sessionID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return session.Session{}, false, fmt.Errorf("build get session by id query: %w", err)
	}

	var row sessionTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return session.Session{}, false, nil
		}
		return session.Session{}, false, fmt.Errorf("get session by id: %w", err)
	}

	return sessionRowToDomain(row), true, nil
}

func (r *SessionRepository) Create(ctx context.Context, s session.Session) error {
	query, args, err := qb.InsertModel("sessions", sessionInsertModel{
		PublicID:        s.ID,
		Date:            s.Date,
		Location:        s.Location,
		Status:          string(s.Status),
		ConsecutiveWins: s.ConsecutiveWins,
	}, "")
	if err != nil {
		return fmt.Errorf("build insert session query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	return nil
}

func (r *SessionRepository) SetConsecutiveWins(ctx context.Context, sessionID string, wins int) error {
	query, args, err := qb.Update("sessions").
		Set("consecutive_wins", wins).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("public_id", sessionID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build set consecutive wins query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("set consecutive wins: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected set consecutive wins: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("set consecutive wins: session not found")
	}

	return nil
}

func (r *SessionRepository) Finalize(ctx context.Context, sessionID string) error {
	query, args, err := qb.Update("sessions").
		Set("status", string(session.StatusFinalized)).
		SetExpr("finalized_at", "NOW()").
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("public_id", sessionID),
			qb.Eq("status", string(session.StatusActive)),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build finalize session query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("finalize session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected finalize session: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("finalize session: active session not found")
	}

	return nil
}

func sessionRowToDomain(row sessionTableModel) session.Session {
	return session.Session{
		ID:              row.PublicID,
		Date:            row.Date,
		Location:        row.Location,
		Status:          session.Status(row.Status),
		ConsecutiveWins: row.ConsecutiveWins,
		CreatedAt:       row.CreatedAt,
		FinalizedAt:     row.FinalizedAt,
	}
}
