package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/peladahub/pelada-manager/internal/domain/match"
	qb "github.com/peladahub/pelada-manager/internal/platform/querybuilder"
)

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) GetByID(ctx context.Context, matchID string) (match.Match, bool, error) {
	query, args, err := qb.Select("*").From("matches").
		Where(qb.Eq("public_id", matchID)).
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build get match by id query: %w", err)
	}

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("get match by id: %w", err)
	}

	m, err := matchRowToDomain(row)
	if err != nil {
		return match.Match{}, false, err
	}

	return m, true, nil
}

func (r *MatchRepository) GetActiveBySession(ctx context.Context, sessionID string) (match.Match, bool, error) {
	query, args, err := qb.Select("*").From("matches").
		Where(
			qb.Eq("session_public_id", sessionID),
			qb.In("status", []any{
				string(match.StatusNotStarted),
				string(match.StatusRunning),
				string(match.StatusPaused),
			}),
		).
		OrderBy("sequence DESC").
		Limit(1).
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build get active match query: %w", err)
	}

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("get active match: %w", err)
	}

	m, err := matchRowToDomain(row)
	if err != nil {
		return match.Match{}, false, err
	}

	return m, true, nil
}

func (r *MatchRepository) ListBySession(ctx context.Context, sessionID string) ([]match.Match, error) {
	query, args, err := qb.Select("*").From("matches").
		Where(qb.Eq("session_public_id", sessionID)).
		OrderBy("sequence").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list matches query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		m, err := matchRowToDomain(row)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}

	return out, nil
}

func (r *MatchRepository) Create(ctx context.Context, m match.Match) error {
	teamA, err := encodeRoster(m.TeamA)
	if err != nil {
		return fmt.Errorf("encode team_a roster: %w", err)
	}
	teamB, err := encodeRoster(m.TeamB)
	if err != nil {
		return fmt.Errorf("encode team_b roster: %w", err)
	}

	query, args, err := qb.InsertInto("matches").
		Columns("public_id", "session_public_id", "sequence", "team_a", "team_b", "score_a", "score_b", "status", "elapsed_seconds").
		Values(m.ID, m.SessionID, m.Sequence, teamA, teamB, m.ScoreA, m.ScoreB, string(m.Status), m.ElapsedSeconds).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert match query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert match: %w", err)
	}

	return nil
}

func (r *MatchRepository) UpdateStatus(ctx context.Context, m match.Match) error {
	builder := qb.Update("matches").
		Set("status", string(m.Status)).
		Set("score_a", m.ScoreA).
		Set("score_b", m.ScoreB).
		Set("elapsed_seconds", m.ElapsedSeconds).
		Set("started_at", m.StartedAt).
		Set("finished_at", m.FinishedAt).
		SetExpr("updated_at", "NOW()")
	if m.Winner.Valid() {
		builder = builder.Set("winner", string(m.Winner))
	}

	query, args, err := builder.
		Where(qb.Eq("public_id", m.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update match status query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update match status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected update match status: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update match status: not found")
	}

	return nil
}

// UpdateElapsed only touches clock columns. A periodic checkpoint racing
// a status change must never win the status column back.
func (r *MatchRepository) UpdateElapsed(ctx context.Context, matchID string, elapsedSeconds int, startedAt *time.Time) error {
	query, args, err := qb.Update("matches").
		Set("elapsed_seconds", elapsedSeconds).
		Set("started_at", startedAt).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("public_id", matchID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update match elapsed query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update match elapsed: %w", err)
	}

	return nil
}

func (r *MatchRepository) UpdateScore(ctx context.Context, matchID string, scoreA, scoreB int) error {
	query, args, err := qb.Update("matches").
		Set("score_a", scoreA).
		Set("score_b", scoreB).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("public_id", matchID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update match score query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update match score: %w", err)
	}

	return nil
}
