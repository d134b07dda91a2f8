package usecase

import (
	"context"
	"fmt"
	"strconv"
)

// LogoSyncInput identifies the pool whose creator is requesting the
// sync and the user making the request.
type LogoSyncInput struct {
	PoolID string
	UserID string
}

// LogoReport summarizes one logo sync pass. Missing always carries the
// lookup key that failed so override entries can be added from the
// report alone.
type LogoReport struct {
	Updated int           `json:"updated"`
	Missing []MissingLogo `json:"missing"`
}

type MissingLogo struct {
	Name string `json:"name"`
	Key  string `json:"key"`
}

// SyncLogos resolves team logos from the public directory feed. Unlike
// the admin jobs this one is gated on pool-creator identity, not the
// shared secret. Stored names go through the override table first;
// an empty override means the team intentionally has no directory
// entry and the lookup is never attempted.
func (s *GameSyncService) SyncLogos(ctx context.Context, input LogoSyncInput) (LogoReport, error) {
	ctx, span := startUsecaseSpan(ctx, "GameSyncService.SyncLogos")
	defer span.End()

	var report LogoReport
	if input.PoolID == "" || input.UserID == "" {
		return report, fmt.Errorf("%w: pool id and user id are required", ErrInvalidInput)
	}
	if s.directory == nil || s.teamRepo == nil || s.poolRepo == nil {
		return report, fmt.Errorf("%w: logo sync is not fully wired", ErrDependencyUnavailable)
	}

	p, ok, err := s.poolRepo.GetByID(ctx, input.PoolID)
	if err != nil {
		return report, fmt.Errorf("load pool %s: %w", input.PoolID, err)
	}
	if !ok {
		return report, fmt.Errorf("%w: pool %s", ErrNotFound, input.PoolID)
	}
	if p.CreatedBy != input.UserID {
		return report, fmt.Errorf("%w: only the pool creator may sync logos", ErrForbidden)
	}

	directory, err := s.directory.TeamDirectory(ctx)
	if err != nil {
		return report, fmt.Errorf("fetch team directory: %w", err)
	}
	index := make(map[string]DirectoryTeam, len(directory)*2)
	for _, entry := range directory {
		for _, name := range []string{entry.DisplayName, entry.ShortDisplayName} {
			key := normalizeTeamName(name)
			if key == "" {
				continue
			}
			if _, exists := index[key]; !exists {
				index[key] = entry
			}
		}
	}

	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return report, fmt.Errorf("list teams: %w", err)
	}

	for _, t := range teams {
		name := t.Name
		if override, found := directoryNameOverrides[t.Name]; found {
			if override == "" {
				report.Missing = append(report.Missing, MissingLogo{Name: t.Name})
				continue
			}
			name = override
		}

		key := normalizeTeamName(name)
		entry, found := index[key]
		if !found {
			for _, fallback := range directoryKeyFallbacks(key) {
				if alt, altFound := index[fallback]; altFound {
					entry, found = alt, true
					break
				}
			}
		}
		if !found {
			report.Missing = append(report.Missing, MissingLogo{Name: t.Name, Key: key})
			continue
		}

		var espnID *int64
		if parsed, perr := strconv.ParseInt(entry.ExternalID, 10, 64); perr == nil {
			espnID = &parsed
		}
		if t.LogoURL != nil && *t.LogoURL == entry.LogoURL && equalInt64Ptr(t.ESPNTeamID, espnID) {
			continue
		}
		if err := s.teamRepo.UpdateLogo(ctx, t.ID, entry.LogoURL, espnID); err != nil {
			return report, fmt.Errorf("update logo for team %s: %w", t.ID, err)
		}
		report.Updated++
	}

	s.logger.InfoContext(ctx, "logo sync finished",
		"pool_id", input.PoolID,
		"updated", report.Updated,
		"missing", len(report.Missing),
	)
	return report, nil
}

func equalInt64Ptr(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
