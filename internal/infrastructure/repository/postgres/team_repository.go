package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/bracket-pool/internal/domain/team"
	qb "github.com/riskibarqy/bracket-pool/internal/platform/querybuilder"
)

type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) List(ctx context.Context) ([]team.Team, error) {
	query, args, err := qb.Select("*").From("teams").
		Where(qb.IsNull("deleted_at")).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select teams query: %w", err)
	}

	var rows []teamTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select teams: %w", err)
	}

	out := make([]team.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, teamFromRow(row))
	}

	return out, nil
}

func (r *TeamRepository) UpdateLogo(ctx context.Context, teamID, logoURL string, espnTeamID *int64) error {
	builder := qb.Update("teams").
		Set("logo_url", logoURL).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("public_id", teamID),
			qb.IsNull("deleted_at"),
		)
	if espnTeamID != nil {
		builder = builder.Set("espn_team_id", *espnTeamID)
	}

	query, args, err := builder.ToSQL()
	if err != nil {
		return fmt.Errorf("build update team logo query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update team logo team=%s: %w", teamID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update team logo rows affected team=%s: %w", teamID, err)
	}
	if affected == 0 {
		return fmt.Errorf("team %s not found", teamID)
	}

	return nil
}

func teamFromRow(row teamTableModel) team.Team {
	return team.Team{
		ID:               row.PublicID,
		Name:             row.Name,
		Region:           row.Region,
		Seed:             row.Seed,
		Cost:             row.Cost,
		SportsDataTeamID: nullInt64ToPtr(row.SportsDataTeamID),
		ESPNTeamID:       nullInt64ToPtr(row.ESPNTeamID),
		ExternalTeamID:   nullStringToPtr(row.ExternalTeamID),
		LogoURL:          nullStringToPtr(row.LogoURL),
	}
}
