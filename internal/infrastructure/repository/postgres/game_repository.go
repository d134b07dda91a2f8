package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/bracket-pool/internal/domain/game"
	"github.com/riskibarqy/bracket-pool/internal/platform/id"
	qb "github.com/riskibarqy/bracket-pool/internal/platform/querybuilder"
)

type GameRepository struct {
	db    *sqlx.DB
	idgen id.Generator
}

func NewGameRepository(db *sqlx.DB, idgen id.Generator) *GameRepository {
	return &GameRepository{db: db, idgen: idgen}
}

func (r *GameRepository) List(ctx context.Context) ([]game.Game, error) {
	query, args, err := qb.Select("*").From("games").
		Where(qb.IsNull("deleted_at")).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select games query: %w", err)
	}

	var rows []gameTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select games: %w", err)
	}

	return gamesFromRows(rows), nil
}

func (r *GameRepository) GetByProviderGameID(ctx context.Context, providerGameID int64) (game.Game, bool, error) {
	query, args, err := qb.Select("*").From("games").
		Where(
			qb.Eq("sportsdata_game_id", providerGameID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return game.Game{}, false, fmt.Errorf("build get game by provider id query: %w", err)
	}

	var row gameTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return game.Game{}, false, nil
		}
		return game.Game{}, false, fmt.Errorf("get game by provider id: %w", err)
	}

	return gameFromRow(row), true, nil
}

func (r *GameRepository) GetByPosition(ctx context.Context, round game.Round, region game.Region, slot int) (game.Game, bool, error) {
	query, args, err := qb.Select("*").From("games").
		Where(
			qb.Eq("round", string(round)),
			qb.Eq("region", string(region)),
			qb.Eq("slot", slot),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return game.Game{}, false, fmt.Errorf("build get game by position query: %w", err)
	}

	var row gameTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return game.Game{}, false, nil
		}
		return game.Game{}, false, fmt.Errorf("get game by position: %w", err)
	}

	return gameFromRow(row), true, nil
}

func (r *GameRepository) ListUnlinked(ctx context.Context) ([]game.Game, error) {
	query, args, err := qb.Select("*").From("games").
		Where(
			qb.IsNull("sportsdata_game_id"),
			qb.Expr("game_date IS NOT NULL"),
			qb.Expr("team1_public_id IS NOT NULL"),
			qb.Expr("team2_public_id IS NOT NULL"),
			qb.IsNull("deleted_at"),
		).
		OrderBy("game_date", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select unlinked games query: %w", err)
	}

	var rows []gameTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select unlinked games: %w", err)
	}

	return gamesFromRows(rows), nil
}

func (r *GameRepository) ListWithExternalID(ctx context.Context) ([]game.Game, error) {
	query, args, err := qb.Select("*").From("games").
		Where(
			qb.Expr("external_game_id IS NOT NULL"),
			qb.IsNull("deleted_at"),
		).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select games with external id query: %w", err)
	}

	var rows []gameTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select games with external id: %w", err)
	}

	return gamesFromRows(rows), nil
}

// UpsertByProviderGameID replaces the schedule-owned columns on conflict and
// always clears the stored winner so finished results are re-derived from the
// provider on the next score pass.
func (r *GameRepository) UpsertByProviderGameID(ctx context.Context, item game.Game) error {
	if item.SportsDataGameID == nil {
		return fmt.Errorf("provider game id is required for upsert")
	}

	publicID := item.ID
	if publicID == "" {
		generated, err := r.idgen.NewID()
		if err != nil {
			return fmt.Errorf("generate game id: %w", err)
		}
		publicID = generated
	}

	model := gameInsertModel{
		PublicID:         publicID,
		Round:            string(item.Round),
		Slot:             item.Slot,
		Team1ID:          item.Team1ID,
		Team2ID:          item.Team2ID,
		Status:           item.Status,
		GameDate:         nullableTime(item.GameDate),
		SportsDataGameID: item.SportsDataGameID,
		LastSyncedAt:     nullableTime(item.LastSyncedAt),
	}
	if item.Region != nil {
		region := string(*item.Region)
		model.Region = &region
	}

	query, args, err := qb.InsertModel("games", model, `ON CONFLICT (sportsdata_game_id) WHERE deleted_at IS NULL
DO UPDATE SET
    round = EXCLUDED.round,
    region = EXCLUDED.region,
    slot = EXCLUDED.slot,
    team1_public_id = EXCLUDED.team1_public_id,
    team2_public_id = EXCLUDED.team2_public_id,
    status = EXCLUDED.status,
    game_date = EXCLUDED.game_date,
    last_synced_at = EXCLUDED.last_synced_at,
    winner_team_public_id = NULL,
    updated_at = NOW(),
    deleted_at = NULL`)
	if err != nil {
		return fmt.Errorf("build upsert game query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert game sportsdata_game_id=%d: %w", *item.SportsDataGameID, err)
	}

	return nil
}

func (r *GameRepository) SetProviderGameID(ctx context.Context, gameID string, providerGameID int64, syncedAt time.Time) error {
	query, args, err := qb.Update("games").
		Set("sportsdata_game_id", providerGameID).
		Set("last_synced_at", syncedAt.UTC()).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("public_id", gameID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build set provider game id query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("set provider game id game=%s: %w", gameID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set provider game id rows affected game=%s: %w", gameID, err)
	}
	if affected == 0 {
		return fmt.Errorf("game %s not found", gameID)
	}

	return nil
}

func (r *GameRepository) SetWinner(ctx context.Context, gameID string, winnerTeamID *string, syncedAt time.Time) error {
	query, args, err := qb.Update("games").
		Set("winner_team_public_id", winnerTeamID).
		Set("last_synced_at", syncedAt.UTC()).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("public_id", gameID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build set game winner query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("set game winner game=%s: %w", gameID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set game winner rows affected game=%s: %w", gameID, err)
	}
	if affected == 0 {
		return fmt.Errorf("game %s not found", gameID)
	}

	return nil
}

func gamesFromRows(rows []gameTableModel) []game.Game {
	out := make([]game.Game, 0, len(rows))
	for _, row := range rows {
		out = append(out, gameFromRow(row))
	}
	return out
}

func gameFromRow(row gameTableModel) game.Game {
	item := game.Game{
		ID:               row.PublicID,
		Round:            game.Round(row.Round),
		Slot:             row.Slot,
		Team1ID:          nullStringToPtr(row.Team1ID),
		Team2ID:          nullStringToPtr(row.Team2ID),
		WinnerTeamID:     nullStringToPtr(row.WinnerTeamID),
		Status:           nullStringToPtr(row.Status),
		GameDate:         nullableTime(row.GameDate),
		SportsDataGameID: nullInt64ToPtr(row.SportsDataGameID),
		ExternalGameID:   nullStringToPtr(row.ExternalGameID),
		LastSyncedAt:     nullableTime(row.LastSyncedAt),
	}
	if row.Region.Valid {
		region := game.Region(row.Region.String)
		item.Region = &region
	}
	return item
}
