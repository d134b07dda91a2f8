package game

import (
	"context"
	"time"
)

// Repository describes game persistence needs from use cases. Every write is
// its own atomic unit; jobs never wrap a run in one transaction.
type Repository interface {
	List(ctx context.Context) ([]Game, error)
	GetByProviderGameID(ctx context.Context, providerGameID int64) (Game, bool, error)
	GetByPosition(ctx context.Context, round Round, region Region, slot int) (Game, bool, error)
	// ListUnlinked returns games lacking a provider game id but carrying a
	// date and both team references, the eligibility bar for pair matching.
	ListUnlinked(ctx context.Context) ([]Game, error)
	ListWithExternalID(ctx context.Context) ([]Game, error)
	UpsertByProviderGameID(ctx context.Context, item Game) error
	SetProviderGameID(ctx context.Context, gameID string, providerGameID int64, syncedAt time.Time) error
	SetWinner(ctx context.Context, gameID string, winnerTeamID *string, syncedAt time.Time) error
}
