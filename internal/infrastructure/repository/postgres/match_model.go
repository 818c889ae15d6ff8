package postgres

import (
	"database/sql"
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/peladahub/pelada-manager/internal/domain/match"
)

type matchTableModel struct {
	ID              int64          `db:"id"`
	PublicID        string         `db:"public_id"`
	SessionPublicID string         `db:"session_public_id"`
	Sequence        int            `db:"sequence"`
	TeamA           []byte         `db:"team_a"`
	TeamB           []byte         `db:"team_b"`
	ScoreA          int            `db:"score_a"`
	ScoreB          int            `db:"score_b"`
	Status          string         `db:"status"`
	StartedAt       *time.Time     `db:"started_at"`
	ElapsedSeconds  int            `db:"elapsed_seconds"`
	FinishedAt      *time.Time     `db:"finished_at"`
	Winner          sql.NullString `db:"winner"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

func matchRowToDomain(row matchTableModel) (match.Match, error) {
	var teamA, teamB []string
	if err := sonic.Unmarshal(row.TeamA, &teamA); err != nil {
		return match.Match{}, fmt.Errorf("decode team_a roster: %w", err)
	}
	if err := sonic.Unmarshal(row.TeamB, &teamB); err != nil {
		return match.Match{}, fmt.Errorf("decode team_b roster: %w", err)
	}

	winner := match.Side("")
	if row.Winner.Valid {
		winner = match.Side(row.Winner.String)
	}

	return match.Match{
		ID:             row.PublicID,
		SessionID:      row.SessionPublicID,
		Sequence:       row.Sequence,
		TeamA:          teamA,
		TeamB:          teamB,
		ScoreA:         row.ScoreA,
		ScoreB:         row.ScoreB,
		Status:         match.Status(row.Status),
		StartedAt:      row.StartedAt,
		ElapsedSeconds: row.ElapsedSeconds,
		FinishedAt:     row.FinishedAt,
		Winner:         winner,
	}, nil
}

func encodeRoster(playerIDs []string) ([]byte, error) {
	if playerIDs == nil {
		playerIDs = []string{}
	}
	return sonic.Marshal(playerIDs)
}
