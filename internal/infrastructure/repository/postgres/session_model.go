package postgres

import "time"

type sessionTableModel struct {
	ID              int64      `db:"id"`
	PublicID        string     `db:"public_id"`
	Date            time.Time  `db:"session_date"`
	Location        string     `db:"location"`
	Status          string     `db:"status"`
	ConsecutiveWins int        `db:"consecutive_wins"`
	FinalizedAt     *time.Time `db:"finalized_at"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
	DeletedAt       *time.Time `db:"deleted_at"`
}

type sessionInsertModel struct {
	PublicID        string    `db:"public_id"`
	Date            time.Time `db:"session_date"`
	Location        string    `db:"location"`
	Status          string    `db:"status"`
	ConsecutiveWins int       `db:"consecutive_wins"`
}
