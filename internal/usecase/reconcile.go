package usecase

import (
	"fmt"
	"strings"

	"github.com/riskibarqy/bracket-pool/internal/domain/game"
	"github.com/riskibarqy/bracket-pool/internal/domain/team"
)

// teamIndex maps between internal team identifiers and the primary
// provider's numeric team identifiers.
type teamIndex struct {
	internalByProvider map[int64]string
	providerByInternal map[string]int64
}

func buildTeamIndex(teams []team.Team) teamIndex {
	idx := teamIndex{
		internalByProvider: make(map[int64]string, len(teams)),
		providerByInternal: make(map[string]int64, len(teams)),
	}
	for _, t := range teams {
		if t.SportsDataTeamID == nil {
			continue
		}
		idx.internalByProvider[*t.SportsDataTeamID] = t.ID
		idx.providerByInternal[t.ID] = *t.SportsDataTeamID
	}
	return idx
}

func (idx teamIndex) internalID(providerID int64) (string, bool) {
	id, ok := idx.internalByProvider[providerID]
	return id, ok
}

func (idx teamIndex) providerID(internalID string) (int64, bool) {
	id, ok := idx.providerByInternal[internalID]
	return id, ok
}

// pairKey builds the lookup key for a provider team pair. The pair
// index stores both orderings so home and away assignments on either
// side never affect matching.
func pairKey(a, b int64) string {
	return fmt.Sprintf("%d-%d", a, b)
}

type pairIndex map[string]int64

func buildPairIndex(games []ProviderGame) pairIndex {
	idx := make(pairIndex, len(games)*2)
	for _, g := range games {
		if g.HomeTeamProviderID == 0 || g.AwayTeamProviderID == 0 {
			continue
		}
		idx[pairKey(g.HomeTeamProviderID, g.AwayTeamProviderID)] = g.GameID
		idx[pairKey(g.AwayTeamProviderID, g.HomeTeamProviderID)] = g.GameID
	}
	return idx
}

// mapScheduleRound translates the season schedule feed's round numbers.
// That feed counts tournament rounds from 1.
func mapScheduleRound(round int) game.Round {
	switch round {
	case 1:
		return game.RoundOf64
	case 2:
		return game.RoundOf32
	case 3:
		return game.RoundSweet16
	case 4:
		return game.RoundElite8
	case 5:
		return game.RoundFinalFour
	case 6:
		return game.RoundChampionship
	default:
		return game.RoundUnknown
	}
}

// mapBracketRound translates the tournament bracket feed's round
// numbers. That feed counts from 0 and starts at the Sweet 16.
func mapBracketRound(round int) game.Round {
	switch round {
	case 0:
		return game.RoundSweet16
	case 1:
		return game.RoundElite8
	case 2:
		return game.RoundFinalFour
	case 3:
		return game.RoundChampionship
	default:
		return game.RoundUnknown
	}
}

// mapBracketRegion resolves a free-form bracket label to a region by
// case-insensitive substring match.
func mapBracketRegion(label string) game.Region {
	lowered := strings.ToLower(label)
	switch {
	case strings.Contains(lowered, "east"):
		return game.RegionEast
	case strings.Contains(lowered, "west"):
		return game.RegionWest
	case strings.Contains(lowered, "south"):
		return game.RegionSouth
	case strings.Contains(lowered, "midwest"):
		return game.RegionMidwest
	default:
		return game.RegionUnknown
	}
}

var strippedNameRunes = []string{"'", "’", "‘", "“", "”", "."}

// normalizeTeamName folds a display name into the canonical key used
// for directory matching. Lowercases, expands ampersands, strips
// quotes and periods, and collapses whitespace runs.
func normalizeTeamName(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "&", " and ")
	for _, r := range strippedNameRunes {
		s = strings.ReplaceAll(s, r, "")
	}
	return strings.Join(strings.Fields(s), " ")
}

// directoryKeyFallbacks lists alternate keys to try when a normalized
// name misses the directory index. Covers the common "State" vs "St"
// abbreviation and the "(OH)" disambiguation suffix.
func directoryKeyFallbacks(key string) []string {
	var out []string
	if strings.HasSuffix(key, " state") {
		out = append(out, strings.TrimSuffix(key, " state")+" st")
	}
	if strings.HasSuffix(key, " st") {
		out = append(out, strings.TrimSuffix(key, " st")+" state")
	}
	if strings.HasSuffix(key, " oh") {
		out = append(out, strings.TrimSuffix(key, " oh")+" (oh)")
	}
	if strings.HasSuffix(key, " (oh)") {
		out = append(out, strings.TrimSuffix(key, " (oh)")+" oh")
	}
	return out
}

// directoryNameOverrides maps stored team names to the name the public
// directory actually uses. Applied before normalization. An empty
// value marks a team that has no directory entry at all, such as
// play-in placeholders, so the lookup is never attempted.
var directoryNameOverrides = map[string]string{
	"UConn":          "Connecticut",
	"Ole Miss":       "Mississippi",
	"St. Peter's":    "Saint Peter's",
	"UNC":            "North Carolina",
	"USC":            "Southern California",
	"SMU":            "Southern Methodist",
	"Play-In Winner": "",
	"First Four TBD": "",
}
