package postgres

import (
	"database/sql"
	"time"
)

type goalTableModel struct {
	ID             int64          `db:"id"`
	PublicID       string         `db:"public_id"`
	MatchPublicID  string         `db:"match_public_id"`
	PlayerPublicID sql.NullString `db:"player_public_id"`
	Team           string         `db:"team"`
	IsOwnGoal      bool           `db:"is_own_goal"`
	CreatedAt      time.Time      `db:"created_at"`
}
