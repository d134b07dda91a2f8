package postgres

import (
	"database/sql"
	"time"
)

type gameTableModel struct {
	ID               int64          `db:"id"`
	PublicID         string         `db:"public_id"`
	Round            string         `db:"round"`
	Region           sql.NullString `db:"region"`
	Slot             int            `db:"slot"`
	Team1ID          sql.NullString `db:"team1_public_id"`
	Team2ID          sql.NullString `db:"team2_public_id"`
	WinnerTeamID     sql.NullString `db:"winner_team_public_id"`
	Status           sql.NullString `db:"status"`
	GameDate         *time.Time     `db:"game_date"`
	SportsDataGameID sql.NullInt64  `db:"sportsdata_game_id"`
	ExternalGameID   sql.NullString `db:"external_game_id"`
	LastSyncedAt     *time.Time     `db:"last_synced_at"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
	DeletedAt        *time.Time     `db:"deleted_at"`
}

type gameInsertModel struct {
	PublicID         string     `db:"public_id"`
	Round            string     `db:"round"`
	Region           *string    `db:"region"`
	Slot             int        `db:"slot"`
	Team1ID          *string    `db:"team1_public_id"`
	Team2ID          *string    `db:"team2_public_id"`
	Status           *string    `db:"status"`
	GameDate         *time.Time `db:"game_date"`
	SportsDataGameID *int64     `db:"sportsdata_game_id"`
	LastSyncedAt     *time.Time `db:"last_synced_at"`
}
