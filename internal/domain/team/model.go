package team

import "fmt"

// Team is one tournament participant available for drafting.
type Team struct {
	ID     string
	Name   string
	Region string
	Seed   int
	Cost   int

	// Provider linkage columns populated by the sync jobs.
	SportsDataTeamID *int64
	ESPNTeamID       *int64
	ExternalTeamID   *string
	LogoURL          *string
}

func (t Team) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("team id is required")
	}
	if t.Name == "" {
		return fmt.Errorf("team name is required")
	}
	if t.Seed != 0 && (t.Seed < 1 || t.Seed > 16) {
		return fmt.Errorf("team seed must be between 1 and 16, got=%d", t.Seed)
	}

	return nil
}
