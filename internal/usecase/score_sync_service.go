package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"
)

// ScoreReport summarizes one score sweep over the recent game dates.
type ScoreReport struct {
	Dates               []string `json:"dates"`
	FinalsSeen          int      `json:"finals_seen"`
	UpdatedGames        int      `json:"updated_games"`
	SkippedTieOrNoScore int      `json:"skipped_tie_or_no_score"`
	SkippedNoMatch      int      `json:"skipped_no_match"`
}

type dateSlate struct {
	day   string
	games []ProviderGame
}

// SyncScores fetches the provider slates for today and yesterday in
// UTC, filters to finalized games, and records winners on the stored
// games linked to them. Ties and finals without both scores are
// skipped. A winner equal to the stored one is never rewritten.
func (s *GameSyncService) SyncScores(ctx context.Context) (ScoreReport, error) {
	ctx, span := startUsecaseSpan(ctx, "GameSyncService.SyncScores")
	defer span.End()

	var report ScoreReport
	if err := s.scheduleReady(); err != nil {
		return report, err
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	days := []time.Time{today, today.AddDate(0, 0, -1)}
	for _, day := range days {
		report.Dates = append(report.Dates, day.Format(dayKeyLayout))
	}

	fetch := pool.NewWithResults[dateSlate]().WithContext(ctx).WithMaxGoroutines(len(days))
	for _, day := range days {
		day := day
		fetch.Go(func(ctx context.Context) (dateSlate, error) {
			slate, err := s.schedule.GamesByDate(ctx, day)
			if err != nil {
				return dateSlate{}, fmt.Errorf("fetch slate for %s: %w", day.Format(dayKeyLayout), err)
			}
			return dateSlate{day: day.Format(dayKeyLayout), games: slate}, nil
		})
	}
	slates, err := fetch.Wait()
	if err != nil {
		return report, err
	}
	sort.Slice(slates, func(i, j int) bool { return slates[i].day > slates[j].day })

	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return report, fmt.Errorf("list teams: %w", err)
	}
	idx := buildTeamIndex(teams)

	syncedAt := s.now().UTC()
	seen := make(map[int64]struct{})
	for _, slate := range slates {
		for _, pg := range slate.games {
			if pg.Status != providerStatusFinal {
				continue
			}
			if _, dup := seen[pg.GameID]; dup {
				continue
			}
			seen[pg.GameID] = struct{}{}
			report.FinalsSeen++

			if pg.HomeScore == nil || pg.AwayScore == nil || *pg.HomeScore == *pg.AwayScore {
				report.SkippedTieOrNoScore++
				continue
			}

			stored, ok, err := s.gameRepo.GetByProviderGameID(ctx, pg.GameID)
			if err != nil {
				return report, fmt.Errorf("load game %d: %w", pg.GameID, err)
			}
			if !ok {
				report.SkippedNoMatch++
				continue
			}

			winnerProviderID := pg.HomeTeamProviderID
			if *pg.AwayScore > *pg.HomeScore {
				winnerProviderID = pg.AwayTeamProviderID
			}
			winnerID, ok := idx.internalID(winnerProviderID)
			if !ok {
				report.SkippedNoMatch++
				continue
			}
			if !stored.HasTeam(winnerID) {
				report.SkippedNoMatch++
				continue
			}
			if stored.WinnerTeamID != nil && *stored.WinnerTeamID == winnerID {
				continue
			}
			if err := s.gameRepo.SetWinner(ctx, stored.ID, &winnerID, syncedAt); err != nil {
				return report, fmt.Errorf("record winner for game %s: %w", stored.ID, err)
			}
			report.UpdatedGames++
		}
	}

	s.logger.InfoContext(ctx, "score sync finished",
		"dates", strings.Join(report.Dates, ","),
		"finals_seen", report.FinalsSeen,
		"updated_games", report.UpdatedGames,
	)
	return report, nil
}

// ConfirmReport summarizes one cross-check of stored winners against
// the secondary provider.
type ConfirmReport struct {
	Checked           int                  `json:"checked"`
	Confirmed         int                  `json:"confirmed"`
	SkippedUnfinished int                  `json:"skipped_unfinished"`
	Disagreements     []ResultDisagreement `json:"disagreements,omitempty"`
}

// ResultDisagreement records a game where the secondary provider's
// winner differs from the stored one. Nothing is written; the record
// exists for an operator to review.
type ResultDisagreement struct {
	GameID          string `json:"game_id"`
	ExternalGameID  string `json:"external_game_id"`
	StoredWinner    string `json:"stored_winner,omitempty"`
	SecondaryWinner string `json:"secondary_winner,omitempty"`
}

// ConfirmResults re-checks stored winners against the secondary
// provider for every game carrying a secondary external identifier.
// Read only. Disagreements are reported, never applied.
func (s *GameSyncService) ConfirmResults(ctx context.Context) (ConfirmReport, error) {
	ctx, span := startUsecaseSpan(ctx, "GameSyncService.ConfirmResults")
	defer span.End()

	var report ConfirmReport
	if s.results == nil {
		return report, fmt.Errorf("%w: secondary results provider disabled", ErrDependencyUnavailable)
	}
	if s.teamRepo == nil || s.gameRepo == nil {
		return report, fmt.Errorf("%w: sync service is not fully wired", ErrDependencyUnavailable)
	}

	games, err := s.gameRepo.ListWithExternalID(ctx)
	if err != nil {
		return report, fmt.Errorf("list externally linked games: %w", err)
	}

	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return report, fmt.Errorf("list teams: %w", err)
	}
	byExternal := make(map[string]string, len(teams))
	for _, t := range teams {
		if t.ExternalTeamID != nil {
			byExternal[*t.ExternalTeamID] = t.ID
		}
	}

	for _, g := range games {
		res, ok, err := s.results.GameByExternalID(ctx, *g.ExternalGameID)
		if err != nil {
			return report, fmt.Errorf("fetch secondary result for %s: %w", *g.ExternalGameID, err)
		}
		if !ok || !res.Finished || res.HomeScore == nil || res.AwayScore == nil || *res.HomeScore == *res.AwayScore {
			report.SkippedUnfinished++
			continue
		}
		report.Checked++

		winnerExternal := res.HomeTeamExternalID
		if *res.AwayScore > *res.HomeScore {
			winnerExternal = res.AwayTeamExternalID
		}
		secondaryWinner := byExternal[winnerExternal]

		stored := ""
		if g.WinnerTeamID != nil {
			stored = *g.WinnerTeamID
		}
		if secondaryWinner != "" && secondaryWinner == stored {
			report.Confirmed++
			continue
		}
		report.Disagreements = append(report.Disagreements, ResultDisagreement{
			GameID:          g.ID,
			ExternalGameID:  *g.ExternalGameID,
			StoredWinner:    stored,
			SecondaryWinner: secondaryWinner,
		})
	}

	s.logger.InfoContext(ctx, "result confirmation finished",
		"checked", report.Checked,
		"confirmed", report.Confirmed,
		"disagreements", len(report.Disagreements),
	)
	return report, nil
}
