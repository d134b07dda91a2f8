package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
)

type ResyncInput struct {
	SyncData   []string
	MaxWorkers int
}

type ResyncResult struct {
	TaskCount     int                `json:"task_count"`
	SuccessCount  int                `json:"success_count"`
	FailedCount   int                `json:"failed_count"`
	SkippedCount  int                `json:"skipped_count"`
	WorkerCount   int                `json:"worker_count"`
	Tasks         []ResyncTaskResult `json:"tasks"`
	RequestedData []string           `json:"requested_data"`
}

type ResyncTaskResult struct {
	SyncData   string `json:"sync_data"`
	Status     string `json:"status"`
	Records    int    `json:"records"`
	DurationMs int64  `json:"duration_ms"`
	Message    string `json:"message,omitempty"`
}

type resyncDataKind string

const (
	resyncStatusSuccess = "success"
	resyncStatusFailed  = "failed"
	resyncStatusSkipped = "skipped"

	resyncDataSchedule resyncDataKind = "schedule"
	resyncDataLinks    resyncDataKind = "links"
	resyncDataScores   resyncDataKind = "scores"
	resyncDataBracket  resyncDataKind = "bracket"
	resyncDataResults  resyncDataKind = "results"
)

// Resync re-runs a selected set of sync jobs through a small worker
// pool. It exists for operator repair after a provider outage; the
// nightly path is the orchestrator, which keeps strict ordering.
func (s *GameSyncService) Resync(ctx context.Context, input ResyncInput) (ResyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "GameSyncService.Resync")
	defer span.End()

	if err := s.scheduleReady(); err != nil {
		return ResyncResult{}, err
	}

	kinds, rawKinds, err := normalizeResyncKinds(input.SyncData)
	if err != nil {
		return ResyncResult{}, err
	}

	workerCount := normalizeResyncWorkerCount(input.MaxWorkers, len(kinds))
	result := ResyncResult{
		TaskCount:     len(kinds),
		WorkerCount:   workerCount,
		RequestedData: rawKinds,
		Tasks:         make([]ResyncTaskResult, 0, len(kinds)),
	}
	if len(kinds) == 0 {
		return result, nil
	}

	results := make(chan ResyncTaskResult, len(kinds))

	var successCount atomic.Int32
	var failedCount atomic.Int32
	var skippedCount atomic.Int32

	workerPool, err := ants.NewPool(workerCount)
	if err != nil {
		return ResyncResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer workerPool.Release()

	var workers sync.WaitGroup
	for _, kind := range kinds {
		kind := kind
		workers.Add(1)
		if err := workerPool.Submit(func() {
			defer workers.Done()

			start := time.Now()
			row := ResyncTaskResult{SyncData: string(kind)}

			records, status, message := s.runResyncTask(ctx, kind)
			row.Records = records
			row.Status = status
			row.Message = message
			row.DurationMs = time.Since(start).Milliseconds()

			switch status {
			case resyncStatusSuccess:
				successCount.Add(1)
			case resyncStatusSkipped:
				skippedCount.Add(1)
			default:
				failedCount.Add(1)
			}

			results <- row
		}); err != nil {
			workers.Done()
			return ResyncResult{}, fmt.Errorf("submit task to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(results)

	for row := range results {
		result.Tasks = append(result.Tasks, row)
	}
	sort.SliceStable(result.Tasks, func(i, j int) bool {
		return result.Tasks[i].SyncData < result.Tasks[j].SyncData
	})

	result.SuccessCount = int(successCount.Load())
	result.FailedCount = int(failedCount.Load())
	result.SkippedCount = int(skippedCount.Load())
	return result, nil
}

func (s *GameSyncService) runResyncTask(ctx context.Context, kind resyncDataKind) (int, string, string) {
	switch kind {
	case resyncDataSchedule:
		report, err := s.ImportSchedule(ctx)
		if err != nil {
			return 0, resyncStatusFailed, err.Error()
		}
		if report.Upserted == 0 {
			return 0, resyncStatusSkipped, "no games upserted from provider slate"
		}
		return report.Upserted, resyncStatusSuccess, ""
	case resyncDataLinks:
		report, err := s.LinkGames(ctx)
		if err != nil {
			return 0, resyncStatusFailed, err.Error()
		}
		if report.Linked == 0 {
			return 0, resyncStatusSkipped, "no games linked"
		}
		return report.Linked, resyncStatusSuccess, ""
	case resyncDataScores:
		report, err := s.SyncScores(ctx)
		if err != nil {
			return 0, resyncStatusFailed, err.Error()
		}
		if report.UpdatedGames == 0 {
			return 0, resyncStatusSkipped, "no winners recorded"
		}
		return report.UpdatedGames, resyncStatusSuccess, ""
	case resyncDataBracket:
		report, err := s.SyncBracket(ctx)
		if err != nil {
			return 0, resyncStatusFailed, err.Error()
		}
		if report.Note != "" {
			return 0, resyncStatusSkipped, report.Note
		}
		if report.Linked == 0 {
			return 0, resyncStatusSkipped, "no bracket positions linked"
		}
		return report.Linked, resyncStatusSuccess, ""
	case resyncDataResults:
		report, err := s.ConfirmResults(ctx)
		if err != nil {
			return 0, resyncStatusFailed, err.Error()
		}
		if report.Checked == 0 {
			return 0, resyncStatusSkipped, "no finished games to cross-check"
		}
		message := ""
		if len(report.Disagreements) > 0 {
			message = fmt.Sprintf("%d disagreements need review", len(report.Disagreements))
		}
		return report.Checked, resyncStatusSuccess, message
	default:
		return 0, resyncStatusSkipped, "unsupported sync_data"
	}
}

func normalizeResyncKinds(raw []string) ([]resyncDataKind, []string, error) {
	if len(raw) == 0 {
		return nil, nil, fmt.Errorf("%w: sync_data is required", ErrInvalidInput)
	}

	seen := make(map[resyncDataKind]struct{}, len(raw))
	kinds := make([]resyncDataKind, 0, len(raw))
	requested := make([]string, 0, len(raw))
	for _, item := range raw {
		normalized := normalizeResyncKey(item)
		if normalized == "" {
			continue
		}
		kind, ok := toResyncDataKind(normalized)
		if !ok {
			return nil, nil, fmt.Errorf("%w: unsupported sync_data=%s", ErrInvalidInput, item)
		}
		if _, exists := seen[kind]; exists {
			continue
		}
		seen[kind] = struct{}{}
		kinds = append(kinds, kind)
		requested = append(requested, normalized)
	}
	if len(kinds) == 0 {
		return nil, nil, fmt.Errorf("%w: sync_data is required", ErrInvalidInput)
	}
	return kinds, requested, nil
}

func toResyncDataKind(value string) (resyncDataKind, bool) {
	switch value {
	case "schedule", "games", "import":
		return resyncDataSchedule, true
	case "links", "link":
		return resyncDataLinks, true
	case "scores", "score", "winners":
		return resyncDataScores, true
	case "bracket", "positions":
		return resyncDataBracket, true
	case "results", "confirm":
		return resyncDataResults, true
	default:
		return "", false
	}
}

func normalizeResyncKey(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return ""
	}
	value = strings.ReplaceAll(value, "-", "_")
	value = strings.ReplaceAll(value, " ", "_")
	return value
}

func normalizeResyncWorkerCount(value int, taskCount int) int {
	if taskCount <= 0 {
		return 1
	}
	if value <= 0 {
		value = 1
	}
	if value > 2 {
		value = 2
	}
	if value > taskCount {
		value = taskCount
	}
	return value
}
