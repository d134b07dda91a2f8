package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/bracket-pool/internal/platform/logging"
)

// SyncOrchestratorService chains the nightly jobs in dependency order.
type SyncOrchestratorService struct {
	games     *GameSyncService
	publisher CompletionPublisher
	logger    *logging.Logger
	now       func() time.Time
}

func NewSyncOrchestratorService(games *GameSyncService, publisher CompletionPublisher, logger *logging.Logger) *SyncOrchestratorService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SyncOrchestratorService{
		games:     games,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// FullSyncReport combines the per-job reports of one orchestrated run.
type FullSyncReport struct {
	OK     bool         `json:"ok"`
	Import ImportReport `json:"import"`
	Link   LinkReport   `json:"link"`
	Scores ScoreReport  `json:"scores"`
}

// RunFullSync executes import, link, and score sync in that order and
// stops at the first failure. The partial report up to the failing job
// is returned alongside the error so the caller can surface both.
// On success a completion event is published to the scheduler webhook;
// a publish failure only logs, the sync itself already succeeded.
func (s *SyncOrchestratorService) RunFullSync(ctx context.Context) (FullSyncReport, error) {
	ctx, span := startUsecaseSpan(ctx, "SyncOrchestratorService.RunFullSync")
	defer span.End()

	var report FullSyncReport
	if s.games == nil {
		return report, fmt.Errorf("%w: game sync service is not wired", ErrDependencyUnavailable)
	}

	var err error
	if report.Import, err = s.games.ImportSchedule(ctx); err != nil {
		return report, fmt.Errorf("import step: %w", err)
	}
	if report.Link, err = s.games.LinkGames(ctx); err != nil {
		return report, fmt.Errorf("link step: %w", err)
	}
	if report.Scores, err = s.games.SyncScores(ctx); err != nil {
		return report, fmt.Errorf("score step: %w", err)
	}
	report.OK = true

	if s.publisher != nil {
		dedupeID := "full-sync-" + s.now().UTC().Format("2006-01-02")
		if pubErr := s.publisher.Publish(ctx, "/v1/internal/sync-completed", report, dedupeID); pubErr != nil {
			s.logger.WarnContext(ctx, "sync completion publish failed", "error", pubErr.Error())
		}
	}

	s.logger.InfoContext(ctx, "full sync finished",
		"upserted", report.Import.Upserted,
		"linked", report.Link.Linked,
		"updated_games", report.Scores.UpdatedGames,
	)
	return report, nil
}
