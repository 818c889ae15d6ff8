package postgres

import (
	"database/sql"
	"time"
)

type queueEntryTableModel struct {
	ID              int64         `db:"id"`
	SessionPublicID string        `db:"session_public_id"`
	PlayerPublicID  string        `db:"player_public_id"`
	Position        sql.NullInt64 `db:"position"`
	Status          string        `db:"status"`
	CreatedAt       time.Time     `db:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at"`
}
