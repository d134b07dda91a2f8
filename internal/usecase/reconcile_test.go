package usecase

import (
	"testing"

	"github.com/riskibarqy/bracket-pool/internal/domain/game"
	"github.com/riskibarqy/bracket-pool/internal/domain/team"
)

func int64Ptr(v int64) *int64 {
	return &v
}

func TestBuildTeamIndexRoundTrips(t *testing.T) {
	t.Parallel()

	idx := buildTeamIndex([]team.Team{
		{ID: "team-duke", Name: "Duke", SportsDataTeamID: int64Ptr(101)},
		{ID: "team-unlinked", Name: "Unlinked"},
		{ID: "team-uconn", Name: "UConn", SportsDataTeamID: int64Ptr(202)},
	})

	if got, ok := idx.internalID(101); !ok || got != "team-duke" {
		t.Fatalf("internalID(101) = %q, %v", got, ok)
	}
	if got, ok := idx.providerID("team-uconn"); !ok || got != 202 {
		t.Fatalf("providerID(team-uconn) = %d, %v", got, ok)
	}
	if _, ok := idx.providerID("team-unlinked"); ok {
		t.Fatal("expected unlinked team to be absent from index")
	}
}

func TestBuildPairIndexIsSymmetric(t *testing.T) {
	t.Parallel()

	idx := buildPairIndex([]ProviderGame{
		{GameID: 900, HomeTeamProviderID: 11, AwayTeamProviderID: 22},
		{GameID: 901, HomeTeamProviderID: 33, AwayTeamProviderID: 0},
	})

	if got := idx[pairKey(11, 22)]; got != 900 {
		t.Fatalf("pair 11-22 = %d, want 900", got)
	}
	if got := idx[pairKey(22, 11)]; got != 900 {
		t.Fatalf("pair 22-11 = %d, want 900", got)
	}
	if _, ok := idx[pairKey(33, 0)]; ok {
		t.Fatal("games with a missing side must not be indexed")
	}
}

func TestMapScheduleRound(t *testing.T) {
	t.Parallel()

	cases := map[int]game.Round{
		1:  game.RoundOf64,
		2:  game.RoundOf32,
		3:  game.RoundSweet16,
		4:  game.RoundElite8,
		5:  game.RoundFinalFour,
		6:  game.RoundChampionship,
		7:  game.RoundUnknown,
		0:  game.RoundUnknown,
		-1: game.RoundUnknown,
	}
	for in, want := range cases {
		if got := mapScheduleRound(in); got != want {
			t.Fatalf("mapScheduleRound(%d) = %s, want %s", in, got, want)
		}
	}
}

func TestMapBracketRoundStartsAtSweet16(t *testing.T) {
	t.Parallel()

	cases := map[int]game.Round{
		0: game.RoundSweet16,
		1: game.RoundElite8,
		2: game.RoundFinalFour,
		3: game.RoundChampionship,
		4: game.RoundUnknown,
	}
	for in, want := range cases {
		if got := mapBracketRound(in); got != want {
			t.Fatalf("mapBracketRound(%d) = %s, want %s", in, got, want)
		}
	}
}

func TestMapBracketRegionMatchesSubstrings(t *testing.T) {
	t.Parallel()

	cases := map[string]game.Region{
		"East Regional": game.RegionEast,
		"MIDWEST":       game.RegionMidwest,
		"south bracket": game.RegionSouth,
		"West":          game.RegionWest,
		"Final Four":    game.RegionUnknown,
		"":              game.RegionUnknown,
	}
	for in, want := range cases {
		if got := mapBracketRegion(in); got != want {
			t.Fatalf("mapBracketRegion(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestNormalizeTeamName(t *testing.T) {
	t.Parallel()

	left := normalizeTeamName("St. John's & Mary")
	right := normalizeTeamName("st johns and mary")
	if left != right {
		t.Fatalf("normalization mismatch: %q vs %q", left, right)
	}

	if got := normalizeTeamName("  Miami (OH)  RedHawks "); got != "miami (oh) redhawks" {
		t.Fatalf("normalizeTeamName = %q", got)
	}
	if got := normalizeTeamName("Texas A&M"); got != "texas a and m" {
		t.Fatalf("normalizeTeamName = %q", got)
	}
}

func TestDirectoryKeyFallbacks(t *testing.T) {
	t.Parallel()

	if got := directoryKeyFallbacks("michigan state"); len(got) != 1 || got[0] != "michigan st" {
		t.Fatalf("fallbacks for 'michigan state' = %v", got)
	}
	if got := directoryKeyFallbacks("miami oh"); len(got) != 1 || got[0] != "miami (oh)" {
		t.Fatalf("fallbacks for 'miami oh' = %v", got)
	}
	if got := directoryKeyFallbacks("miami (oh)"); len(got) != 1 || got[0] != "miami oh" {
		t.Fatalf("fallbacks for 'miami (oh)' = %v", got)
	}
	if got := directoryKeyFallbacks("duke"); len(got) != 0 {
		t.Fatalf("fallbacks for 'duke' = %v", got)
	}
}
