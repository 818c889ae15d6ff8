package postgres

import "time"

type playerTableModel struct {
	ID          int64      `db:"id"`
	PublicID    string     `db:"public_id"`
	Name        string     `db:"name"`
	SkillRating int        `db:"skill_rating"`
	GamesPlayed int        `db:"games_played"`
	Wins        int        `db:"wins"`
	Goals       int        `db:"goals"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
	DeletedAt   *time.Time `db:"deleted_at"`
}

type playerInsertModel struct {
	PublicID    string `db:"public_id"`
	Name        string `db:"name"`
	SkillRating int    `db:"skill_rating"`
	GamesPlayed int    `db:"games_played"`
	Wins        int    `db:"wins"`
	Goals       int    `db:"goals"`
}
