package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/peladahub/pelada-manager/internal/domain/goal"
	"github.com/peladahub/pelada-manager/internal/domain/match"
	qb "github.com/peladahub/pelada-manager/internal/platform/querybuilder"
)

type GoalRepository struct {
	db *sqlx.DB
}

func NewGoalRepository(db *sqlx.DB) *GoalRepository {
	return &GoalRepository{db: db}
}

func (r *GoalRepository) ListByMatch(ctx context.Context, matchID string) ([]goal.Goal, error) {
	query, args, err := qb.Select("*").From("goals").
		Where(qb.Eq("match_public_id", matchID)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list goals by match query: %w", err)
	}

	var rows []goalTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list goals by match: %w", err)
	}

	out := make([]goal.Goal, 0, len(rows))
	for _, row := range rows {
		out = append(out, goalRowToDomain(row))
	}

	return out, nil
}

func (r *GoalRepository) Create(ctx context.Context, g goal.Goal) error {
	query, args, err := qb.InsertInto("goals").
		Columns("public_id", "match_public_id", "player_public_id", "team", "is_own_goal", "created_at").
		Values(g.ID, g.MatchID, ptrNullString(g.PlayerID), string(g.Team), g.IsOwnGoal, g.CreatedAt).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert goal query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert goal: %w", err)
	}

	return nil
}

// DeleteLatest pops the most recent goal of the match. The serial id is
// the insertion order, which is exactly the undo order the operator
// expects.
func (r *GoalRepository) DeleteLatest(ctx context.Context, matchID string) (goal.Goal, bool, error) {
	const query = `
DELETE FROM goals
WHERE id = (
    SELECT id FROM goals
    WHERE match_public_id = $1
    ORDER BY id DESC
    LIMIT 1
)
RETURNING id, public_id, match_public_id, player_public_id, team, is_own_goal, created_at`

	var row goalTableModel
	if err := r.db.GetContext(ctx, &row, query, matchID); err != nil {
		if isNotFound(err) {
			return goal.Goal{}, false, nil
		}
		return goal.Goal{}, false, fmt.Errorf("delete latest goal: %w", err)
	}

	return goalRowToDomain(row), true, nil
}

func (r *GoalRepository) ListBySession(ctx context.Context, sessionID string) ([]goal.Goal, error) {
	const query = `
SELECT g.id, g.public_id, g.match_public_id, g.player_public_id, g.team, g.is_own_goal, g.created_at
FROM goals g
JOIN matches m ON m.public_id = g.match_public_id
WHERE m.session_public_id = $1
ORDER BY g.id`

	var rows []goalTableModel
	if err := r.db.SelectContext(ctx, &rows, query, sessionID); err != nil {
		return nil, fmt.Errorf("list goals by session: %w", err)
	}

	out := make([]goal.Goal, 0, len(rows))
	for _, row := range rows {
		out = append(out, goalRowToDomain(row))
	}

	return out, nil
}

func goalRowToDomain(row goalTableModel) goal.Goal {
	return goal.Goal{
		ID:        row.PublicID,
		MatchID:   row.MatchPublicID,
		PlayerID:  nullStringPtr(row.PlayerPublicID),
		Team:      match.Side(row.Team),
		IsOwnGoal: row.IsOwnGoal,
		CreatedAt: row.CreatedAt,
	}
}
