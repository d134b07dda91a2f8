package postgres

import (
	"database/sql"
	"time"
)

type teamTableModel struct {
	ID               int64          `db:"id"`
	PublicID         string         `db:"public_id"`
	Name             string         `db:"name"`
	Region           string         `db:"region"`
	Seed             int            `db:"seed"`
	Cost             int            `db:"cost"`
	SportsDataTeamID sql.NullInt64  `db:"sportsdata_team_id"`
	ESPNTeamID       sql.NullInt64  `db:"espn_team_id"`
	ExternalTeamID   sql.NullString `db:"external_team_id"`
	LogoURL          sql.NullString `db:"logo_url"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
	DeletedAt        *time.Time     `db:"deleted_at"`
}
