package usecase

import (
	"context"
	"testing"

	"github.com/riskibarqy/bracket-pool/internal/domain/game"
)

func regionPtr(r game.Region) *game.Region {
	return &r
}

func TestSyncBracketNotReleased(t *testing.T) {
	t.Parallel()

	f := newSyncFixture(tournamentTeams(), nil, nil)
	f.schedule.released = false

	report, err := f.service.SyncBracket(context.Background())
	if err != nil {
		t.Fatalf("SyncBracket: %v", err)
	}
	if report.Note != "bracket not available yet" || report.Linked != 0 {
		t.Fatalf("report = %+v", report)
	}
	if report.Season != 2026 {
		t.Fatalf("season = %d", report.Season)
	}
}

func TestSyncBracketLinksByPosition(t *testing.T) {
	t.Parallel()

	games := []game.Game{
		{
			ID:     "game-s16-east-1",
			Round:  game.RoundSweet16,
			Region: regionPtr(game.RegionEast),
			Slot:   1,
		},
		{
			ID:               "game-already-linked",
			Round:            game.RoundElite8,
			Region:           regionPtr(game.RegionWest),
			Slot:             1,
			SportsDataGameID: int64Ptr(801),
		},
	}
	f := newSyncFixture(tournamentTeams(), games, nil)
	f.schedule.released = true
	f.schedule.tournament = []ProviderGame{
		{GameID: 800, RoundNumber: 0, Bracket: "East Regional", Slot: 1},
		{GameID: 801, RoundNumber: 1, Bracket: "West Regional", Slot: 1},
		{GameID: 802, RoundNumber: 9, Bracket: "???", Slot: 0},
	}

	report, err := f.service.SyncBracket(context.Background())
	if err != nil {
		t.Fatalf("SyncBracket: %v", err)
	}
	if report.Linked != 1 || report.SkippedNoMap != 1 {
		t.Fatalf("report = %+v", report)
	}
	if len(report.SampleRounds) != 1 || report.SampleRounds[0] != 9 {
		t.Fatalf("sample rounds = %v", report.SampleRounds)
	}
	if len(report.SampleBrackets) != 1 || report.SampleBrackets[0] != "???" {
		t.Fatalf("sample brackets = %v", report.SampleBrackets)
	}

	stored, ok, _ := f.gameRepo.GetByProviderGameID(context.Background(), 800)
	if !ok || stored.ID != "game-s16-east-1" {
		t.Fatalf("position link failed: ok=%v id=%s", ok, stored.ID)
	}
}

func TestSyncBracketIsIdempotent(t *testing.T) {
	t.Parallel()

	games := []game.Game{
		{
			ID:               "game-s16-east-1",
			Round:            game.RoundSweet16,
			Region:           regionPtr(game.RegionEast),
			Slot:             1,
			SportsDataGameID: int64Ptr(800),
		},
	}
	f := newSyncFixture(tournamentTeams(), games, nil)
	f.schedule.released = true
	f.schedule.tournament = []ProviderGame{
		{GameID: 800, RoundNumber: 0, Bracket: "East Regional", Slot: 1},
	}

	report, err := f.service.SyncBracket(context.Background())
	if err != nil {
		t.Fatalf("SyncBracket: %v", err)
	}
	if report.Linked != 0 || report.SkippedNoMap != 0 {
		t.Fatalf("report = %+v, want no writes for an unchanged link", report)
	}
}
