package usecase

import (
	"context"
	"fmt"
)

const bracketSampleLimit = 3

// BracketReport summarizes one bracket-position linking pass.
type BracketReport struct {
	Season         int      `json:"season"`
	Note           string   `json:"note,omitempty"`
	Linked         int      `json:"linked"`
	SkippedNoMap   int      `json:"skipped_no_map"`
	SampleRounds   []int    `json:"sample_rounds,omitempty"`
	SampleBrackets []string `json:"sample_brackets,omitempty"`
}

// SyncBracket links provider game identifiers by bracket position
// instead of team pairs, which works for late-round games whose
// participants are not known yet. An empty upstream body means the
// bracket has not been released; that is a soft outcome, not an error.
// Skipped rows feed a small diagnostic sample of the raw round numbers
// and bracket labels so an unrecognized feed shape is visible in the
// report.
func (s *GameSyncService) SyncBracket(ctx context.Context) (BracketReport, error) {
	ctx, span := startUsecaseSpan(ctx, "GameSyncService.SyncBracket")
	defer span.End()

	report := BracketReport{Season: s.cfg.Season}
	if err := s.scheduleReady(); err != nil {
		return report, err
	}

	rows, released, err := s.schedule.TournamentBySeason(ctx, s.cfg.Season)
	if err != nil {
		return report, fmt.Errorf("fetch season %d bracket: %w", s.cfg.Season, err)
	}
	if !released {
		report.Note = "bracket not available yet"
		return report, nil
	}

	syncedAt := s.now().UTC()
	for _, row := range rows {
		round := mapBracketRound(row.RoundNumber)
		region := mapBracketRegion(row.Bracket)
		if !round.Valid() || !region.Valid() || row.Slot <= 0 {
			report.skipRow(row)
			continue
		}

		stored, ok, err := s.gameRepo.GetByPosition(ctx, round, region, row.Slot)
		if err != nil {
			return report, fmt.Errorf("load game at %s/%s/%d: %w", round, region, row.Slot, err)
		}
		if !ok {
			report.skipRow(row)
			continue
		}
		if stored.SportsDataGameID != nil && *stored.SportsDataGameID == row.GameID {
			continue
		}
		if err := s.gameRepo.SetProviderGameID(ctx, stored.ID, row.GameID, syncedAt); err != nil {
			return report, fmt.Errorf("link game %s: %w", stored.ID, err)
		}
		report.Linked++
	}

	s.logger.InfoContext(ctx, "bracket sync finished",
		"season", report.Season,
		"linked", report.Linked,
		"skipped_no_map", report.SkippedNoMap,
	)
	return report, nil
}

func (r *BracketReport) skipRow(row ProviderGame) {
	r.SkippedNoMap++
	if len(r.SampleRounds) < bracketSampleLimit {
		r.SampleRounds = append(r.SampleRounds, row.RoundNumber)
		r.SampleBrackets = append(r.SampleBrackets, row.Bracket)
	}
}
