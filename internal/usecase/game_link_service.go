package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/riskibarqy/bracket-pool/internal/domain/game"
)

const dayKeyLayout = "2006-01-02"

// LinkReport summarizes one identifier linking pass.
type LinkReport struct {
	Linked   int    `json:"linked"`
	NotFound int    `json:"not_found"`
	Note     string `json:"note,omitempty"`
}

// LinkGames attaches provider game identifiers to stored games that
// were created without one. Candidates are grouped by game date, the
// provider slate for each date is fetched once, and games are matched
// through the symmetric team-pair index so the provider's home and
// away assignment never matters.
func (s *GameSyncService) LinkGames(ctx context.Context) (LinkReport, error) {
	ctx, span := startUsecaseSpan(ctx, "GameSyncService.LinkGames")
	defer span.End()

	var report LinkReport
	if err := s.scheduleReady(); err != nil {
		return report, err
	}

	unlinked, err := s.gameRepo.ListUnlinked(ctx)
	if err != nil {
		return report, fmt.Errorf("list unlinked games: %w", err)
	}
	eligible := make(map[string][]game.Game)
	for _, g := range unlinked {
		if g.GameDate == nil || g.Team1ID == nil || g.Team2ID == nil {
			continue
		}
		key := g.GameDate.UTC().Format(dayKeyLayout)
		eligible[key] = append(eligible[key], g)
	}
	if len(eligible) == 0 {
		report.Note = "no games eligible for linking"
		return report, nil
	}

	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return report, fmt.Errorf("list teams: %w", err)
	}
	idx := buildTeamIndex(teams)

	days := make([]string, 0, len(eligible))
	for day := range eligible {
		days = append(days, day)
	}
	sort.Strings(days)

	syncedAt := s.now().UTC()
	for _, day := range days {
		parsed, err := time.Parse(dayKeyLayout, day)
		if err != nil {
			return report, fmt.Errorf("parse game date %q: %w", day, err)
		}
		slate, err := s.schedule.GamesByDate(ctx, parsed)
		if err != nil {
			return report, fmt.Errorf("fetch slate for %s: %w", day, err)
		}
		pairs := buildPairIndex(slate)

		for _, g := range eligible[day] {
			p1, ok1 := idx.providerID(*g.Team1ID)
			p2, ok2 := idx.providerID(*g.Team2ID)
			if !ok1 || !ok2 {
				report.NotFound++
				continue
			}
			providerGameID, ok := pairs[pairKey(p1, p2)]
			if !ok {
				report.NotFound++
				continue
			}
			if err := s.gameRepo.SetProviderGameID(ctx, g.ID, providerGameID, syncedAt); err != nil {
				return report, fmt.Errorf("link game %s: %w", g.ID, err)
			}
			report.Linked++
		}
	}

	s.logger.InfoContext(ctx, "game linking finished",
		"dates", len(days),
		"linked", report.Linked,
		"not_found", report.NotFound,
	)
	return report, nil
}
