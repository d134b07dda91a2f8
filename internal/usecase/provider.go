package usecase

import (
	"context"
	"time"
)

// ProviderGame is the normalized shape of one schedule row from the
// primary upstream, after the client has flattened wrapped and bare
// array responses into the same struct.
type ProviderGame struct {
	GameID             int64
	Season             int
	RoundNumber        int
	Bracket            string
	Slot               int
	Day                *time.Time
	Status             string
	HomeTeamProviderID int64
	AwayTeamProviderID int64
	HomeScore          *int
	AwayScore          *int
}

// ScheduleProvider is the primary upstream schedule and results feed.
type ScheduleProvider interface {
	GamesBySeason(ctx context.Context, season int) ([]ProviderGame, error)
	GamesByDate(ctx context.Context, day time.Time) ([]ProviderGame, error)
	// TournamentBySeason returns ok=false when the upstream responds with
	// an empty body, which it does until the bracket is released.
	TournamentBySeason(ctx context.Context, season int) ([]ProviderGame, bool, error)
}

// DirectoryTeam is one entry from the public team directory feed.
type DirectoryTeam struct {
	ExternalID       string
	DisplayName      string
	ShortDisplayName string
	LogoURL          string
}

type TeamDirectoryProvider interface {
	TeamDirectory(ctx context.Context) ([]DirectoryTeam, error)
}

// SecondaryResult is one game result from the secondary provider, keyed
// by its own external identifiers rather than the primary provider's.
type SecondaryResult struct {
	ExternalGameID     string
	HomeTeamExternalID string
	AwayTeamExternalID string
	HomeScore          *int
	AwayScore          *int
	Finished           bool
}

type ResultsProvider interface {
	// GameByExternalID returns ok=false when the provider has no record
	// for the identifier.
	GameByExternalID(ctx context.Context, externalGameID string) (SecondaryResult, bool, error)
}

// CompletionPublisher notifies an external scheduler that a full sync
// pass finished.
type CompletionPublisher interface {
	Publish(ctx context.Context, path string, payload any, deduplicationID string) error
}
