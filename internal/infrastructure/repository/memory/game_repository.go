package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/bracket-pool/internal/domain/game"
	"github.com/riskibarqy/bracket-pool/internal/platform/id"
)

type GameRepository struct {
	mu    sync.RWMutex
	items map[string]game.Game
	idGen id.Generator
}

func NewGameRepository(games []game.Game) *GameRepository {
	items := make(map[string]game.Game, len(games))
	for _, item := range games {
		items[item.ID] = item
	}

	return &GameRepository{items: items, idGen: id.NewRandomGenerator()}
}

func (r *GameRepository) List(_ context.Context) ([]game.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]game.Game, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item)
	}
	sortGames(out)

	return out, nil
}

func (r *GameRepository) GetByID(_ context.Context, gameID string) (game.Game, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[gameID]
	return item, ok, nil
}

func (r *GameRepository) GetByProviderGameID(_ context.Context, providerGameID int64) (game.Game, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.items {
		if item.SportsDataGameID != nil && *item.SportsDataGameID == providerGameID {
			return item, true, nil
		}
	}

	return game.Game{}, false, nil
}

func (r *GameRepository) GetByPosition(_ context.Context, round game.Round, region game.Region, slot int) (game.Game, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.items {
		if item.Round != round || item.Slot != slot {
			continue
		}
		if item.Region == nil || *item.Region != region {
			continue
		}
		return item, true, nil
	}

	return game.Game{}, false, nil
}

func (r *GameRepository) ListUnlinked(_ context.Context) ([]game.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]game.Game, 0)
	for _, item := range r.items {
		if item.SportsDataGameID == nil {
			out = append(out, item)
		}
	}
	sortGames(out)

	return out, nil
}

func (r *GameRepository) ListWithExternalID(_ context.Context) ([]game.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]game.Game, 0)
	for _, item := range r.items {
		if item.ExternalGameID != nil && *item.ExternalGameID != "" {
			out = append(out, item)
		}
	}
	sortGames(out)

	return out, nil
}

// UpsertByProviderGameID replaces the schedule-owned fields of the game
// carrying the same provider identifier, or inserts a new game. The
// stored winner is always cleared; a re-import resets results.
func (r *GameRepository) UpsertByProviderGameID(_ context.Context, item game.Game) error {
	if item.SportsDataGameID == nil {
		return fmt.Errorf("provider game id is required for upsert")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for storedID, stored := range r.items {
		if stored.SportsDataGameID == nil || *stored.SportsDataGameID != *item.SportsDataGameID {
			continue
		}
		stored.Round = item.Round
		stored.Region = item.Region
		stored.Slot = item.Slot
		stored.Team1ID = item.Team1ID
		stored.Team2ID = item.Team2ID
		stored.Status = item.Status
		stored.GameDate = item.GameDate
		stored.WinnerTeamID = nil
		stored.LastSyncedAt = item.LastSyncedAt
		r.items[storedID] = stored
		return nil
	}

	if item.ID == "" {
		newID, err := r.idGen.NewID()
		if err != nil {
			return fmt.Errorf("generate game id: %w", err)
		}
		item.ID = newID
	}
	item.WinnerTeamID = nil
	r.items[item.ID] = item

	return nil
}

func (r *GameRepository) SetProviderGameID(_ context.Context, gameID string, providerGameID int64, syncedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[gameID]
	if !ok {
		return fmt.Errorf("game %s not found", gameID)
	}
	item.SportsDataGameID = &providerGameID
	item.LastSyncedAt = &syncedAt
	r.items[gameID] = item

	return nil
}

func (r *GameRepository) SetWinner(_ context.Context, gameID string, winnerTeamID *string, syncedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[gameID]
	if !ok {
		return fmt.Errorf("game %s not found", gameID)
	}
	item.WinnerTeamID = winnerTeamID
	item.LastSyncedAt = &syncedAt
	r.items[gameID] = item

	return nil
}

func sortGames(items []game.Game) {
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
}
