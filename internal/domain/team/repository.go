package team

import "context"

// Repository describes team persistence needs from use cases.
type Repository interface {
	List(ctx context.Context) ([]Team, error)
	UpdateLogo(ctx context.Context, teamID, logoURL string, espnTeamID *int64) error
}
