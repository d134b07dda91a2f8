package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/bracket-pool/internal/domain/game"
	"github.com/riskibarqy/bracket-pool/internal/domain/pool"
	"github.com/riskibarqy/bracket-pool/internal/domain/team"
	"github.com/riskibarqy/bracket-pool/internal/platform/logging"
)

const providerStatusFinal = "Final"

// GameSyncConfig carries the sync tunables resolved from the
// environment.
type GameSyncConfig struct {
	Enabled bool
	Season  int
}

// GameSyncService runs the tournament sync jobs against the relational
// store. Jobs are safe to re-run; every write is conditional on the
// stored value actually differing.
type GameSyncService struct {
	cfg       GameSyncConfig
	schedule  ScheduleProvider
	directory TeamDirectoryProvider
	results   ResultsProvider
	teamRepo  team.Repository
	gameRepo  game.Repository
	poolRepo  pool.Repository
	logger    *logging.Logger
	now       func() time.Time
}

func NewGameSyncService(
	cfg GameSyncConfig,
	schedule ScheduleProvider,
	directory TeamDirectoryProvider,
	results ResultsProvider,
	teamRepo team.Repository,
	gameRepo game.Repository,
	poolRepo pool.Repository,
	logger *logging.Logger,
) *GameSyncService {
	if logger == nil {
		logger = logging.Default()
	}
	return &GameSyncService{
		cfg:       cfg,
		schedule:  schedule,
		directory: directory,
		results:   results,
		teamRepo:  teamRepo,
		gameRepo:  gameRepo,
		poolRepo:  poolRepo,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *GameSyncService) scheduleReady() error {
	if !s.cfg.Enabled {
		return fmt.Errorf("%w: schedule provider disabled", ErrDependencyUnavailable)
	}
	if s.schedule == nil || s.teamRepo == nil || s.gameRepo == nil {
		return fmt.Errorf("%w: sync service is not fully wired", ErrDependencyUnavailable)
	}
	return nil
}

// ImportReport summarizes one schedule import pass.
type ImportReport struct {
	TotalFetched        int `json:"total_fetched"`
	Upserted            int `json:"upserted"`
	SkippedMissingTeams int `json:"skipped_missing_teams"`
}

// ImportSchedule pulls the season slate from the primary provider and
// upserts games keyed by the provider game identifier. Rows whose
// participants are not yet mapped to stored teams are skipped and
// counted, never written partially. Each upsert clears any stored
// winner so a re-import resets results to the provider's slate.
func (s *GameSyncService) ImportSchedule(ctx context.Context) (ImportReport, error) {
	ctx, span := startUsecaseSpan(ctx, "GameSyncService.ImportSchedule")
	defer span.End()

	var report ImportReport
	if err := s.scheduleReady(); err != nil {
		return report, err
	}

	fetched, err := s.schedule.GamesBySeason(ctx, s.cfg.Season)
	if err != nil {
		return report, fmt.Errorf("fetch season %d slate: %w", s.cfg.Season, err)
	}
	report.TotalFetched = len(fetched)

	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return report, fmt.Errorf("list teams: %w", err)
	}
	idx := buildTeamIndex(teams)

	syncedAt := s.now().UTC()
	for _, pg := range fetched {
		if pg.GameID <= 0 {
			report.SkippedMissingTeams++
			continue
		}
		awayID, okAway := idx.internalID(pg.AwayTeamProviderID)
		homeID, okHome := idx.internalID(pg.HomeTeamProviderID)
		if !okAway || !okHome || awayID == homeID {
			report.SkippedMissingTeams++
			continue
		}

		item := game.Game{
			Round:            mapScheduleRound(pg.RoundNumber),
			Slot:             pg.Slot,
			Team1ID:          &awayID,
			Team2ID:          &homeID,
			GameDate:         pg.Day,
			SportsDataGameID: &pg.GameID,
			LastSyncedAt:     &syncedAt,
		}
		if pg.Status != "" {
			status := pg.Status
			item.Status = &status
		}
		if region := mapBracketRegion(pg.Bracket); region.Valid() {
			item.Region = &region
		}

		if err := s.gameRepo.UpsertByProviderGameID(ctx, item); err != nil {
			return report, fmt.Errorf("upsert game %d: %w", pg.GameID, err)
		}
		report.Upserted++
	}

	s.logger.InfoContext(ctx, "schedule import finished",
		"season", s.cfg.Season,
		"total_fetched", report.TotalFetched,
		"upserted", report.Upserted,
		"skipped_missing_teams", report.SkippedMissingTeams,
	)
	return report, nil
}
