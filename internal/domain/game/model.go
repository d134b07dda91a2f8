package game

import (
	"fmt"
	"time"
)

// Round is a closed bracket-stage vocabulary. Provider round numbers are
// mapped into it with explicit tables; anything unmapped becomes RoundUnknown.
type Round string

const (
	RoundOf64         Round = "R64"
	RoundOf32         Round = "R32"
	RoundSweet16      Round = "S16"
	RoundElite8       Round = "E8"
	RoundFinalFour    Round = "F4"
	RoundChampionship Round = "CHIP"
	RoundUnknown      Round = "UNK"
)

func (r Round) Valid() bool {
	switch r {
	case RoundOf64, RoundOf32, RoundSweet16, RoundElite8, RoundFinalFour, RoundChampionship:
		return true
	default:
		return false
	}
}

// Region is a bracket quadrant. Final Four and Championship games carry no region.
type Region string

const (
	RegionEast    Region = "East"
	RegionWest    Region = "West"
	RegionSouth   Region = "South"
	RegionMidwest Region = "Midwest"
	RegionUnknown Region = "UNK"
)

func (r Region) Valid() bool {
	switch r {
	case RegionEast, RegionWest, RegionSouth, RegionMidwest:
		return true
	default:
		return false
	}
}

// Game is one bracket matchup. Team slots are nil until earlier-round winners
// advance; team1 holds the away side and team2 the home side by convention.
type Game struct {
	ID           string
	Round        Round
	Region       *Region
	Slot         int
	Team1ID      *string
	Team2ID      *string
	WinnerTeamID *string
	Status       *string
	GameDate     *time.Time

	SportsDataGameID *int64
	ExternalGameID   *string
	LastSyncedAt     *time.Time
}

func (g Game) Validate() error {
	if g.ID == "" {
		return fmt.Errorf("game id is required")
	}
	if g.Round == "" {
		return fmt.Errorf("game round is required")
	}
	if g.Team1ID != nil && g.Team2ID != nil && *g.Team1ID == *g.Team2ID {
		return fmt.Errorf("game teams must be distinct, got team=%s twice", *g.Team1ID)
	}
	if g.WinnerTeamID != nil {
		if !g.HasTeam(*g.WinnerTeamID) {
			return fmt.Errorf("game winner %s is not one of the matchup teams", *g.WinnerTeamID)
		}
	}

	return nil
}

// HasTeam reports whether teamID occupies either side of the matchup.
func (g Game) HasTeam(teamID string) bool {
	if g.Team1ID != nil && *g.Team1ID == teamID {
		return true
	}
	if g.Team2ID != nil && *g.Team2ID == teamID {
		return true
	}
	return false
}
