package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/riskibarqy/bracket-pool/internal/domain/jobdispatch"
	"github.com/riskibarqy/bracket-pool/internal/usecase"
	"go.opentelemetry.io/otel/trace"
)

var dispatchUnsafeRegex = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

type adminSyncRequest struct {
	DispatchID string `json:"dispatch_id"`
}

type logoSyncRequest struct {
	PoolID     string `json:"pool_id" validate:"required"`
	UserID     string `json:"user_id" validate:"required"`
	DispatchID string `json:"dispatch_id"`
}

type resyncRequest struct {
	SyncData   []string `json:"sync_data" validate:"required,min=1,dive,required"`
	MaxWorkers int      `json:"max_workers" validate:"min=0"`
	DispatchID string   `json:"dispatch_id"`
}

func (h *Handler) RunFullSync(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunFullSync")
	defer span.End()

	if h.orchestrator == nil {
		writeError(ctx, w, fmt.Errorf("%w: sync orchestrator is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	req, err := decodeAdminSyncRequest(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	h.runSyncJob(ctx, w, req.DispatchID, "full-sync", "/v1/admin/sync/full", nil, func(ctx context.Context) (any, error) {
		return h.orchestrator.RunFullSync(ctx)
	})
}

func (h *Handler) RunScheduleImport(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunScheduleImport")
	defer span.End()

	req, err := decodeAdminSyncRequest(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	h.runSyncJob(ctx, w, req.DispatchID, "sync-schedule", "/v1/admin/sync/schedule", nil, func(ctx context.Context) (any, error) {
		return h.gameSyncService.ImportSchedule(ctx)
	})
}

func (h *Handler) RunGameLinking(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunGameLinking")
	defer span.End()

	req, err := decodeAdminSyncRequest(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	h.runSyncJob(ctx, w, req.DispatchID, "sync-links", "/v1/admin/sync/links", nil, func(ctx context.Context) (any, error) {
		return h.gameSyncService.LinkGames(ctx)
	})
}

func (h *Handler) RunScoreSync(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunScoreSync")
	defer span.End()

	req, err := decodeAdminSyncRequest(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	h.runSyncJob(ctx, w, req.DispatchID, "sync-scores", "/v1/admin/sync/scores", nil, func(ctx context.Context) (any, error) {
		return h.gameSyncService.SyncScores(ctx)
	})
}

func (h *Handler) RunResultConfirmation(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunResultConfirmation")
	defer span.End()

	req, err := decodeAdminSyncRequest(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	h.runSyncJob(ctx, w, req.DispatchID, "sync-results", "/v1/admin/sync/results", nil, func(ctx context.Context) (any, error) {
		return h.gameSyncService.ConfirmResults(ctx)
	})
}

func (h *Handler) RunBracketSync(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunBracketSync")
	defer span.End()

	req, err := decodeAdminSyncRequest(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	h.runSyncJob(ctx, w, req.DispatchID, "sync-bracket", "/v1/admin/sync/bracket", nil, func(ctx context.Context) (any, error) {
		return h.gameSyncService.SyncBracket(ctx)
	})
}

// RunLogoSync is authorized by pool ownership instead of the admin secret:
// the request must name a pool and the requesting user must be its creator.
func (h *Handler) RunLogoSync(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunLogoSync")
	defer span.End()

	var req logoSyncRequest
	decoder := jsoniter.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	payload := map[string]any{
		"pool_id": req.PoolID,
		"user_id": req.UserID,
	}
	h.runSyncJob(ctx, w, req.DispatchID, "sync-logos", "/v1/admin/sync/logos", payload, func(ctx context.Context) (any, error) {
		return h.gameSyncService.SyncLogos(ctx, usecase.LogoSyncInput{
			PoolID: req.PoolID,
			UserID: req.UserID,
		})
	})
}

func (h *Handler) RunResync(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunResync")
	defer span.End()

	var req resyncRequest
	decoder := jsoniter.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	payload := map[string]any{
		"sync_data":   req.SyncData,
		"max_workers": req.MaxWorkers,
	}
	h.runSyncJob(ctx, w, req.DispatchID, "resync", "/v1/admin/sync/resync", payload, func(ctx context.Context) (any, error) {
		return h.gameSyncService.Resync(ctx, usecase.ResyncInput{
			SyncData:   req.SyncData,
			MaxWorkers: req.MaxWorkers,
		})
	})
}

func (h *Handler) runSyncJob(
	ctx context.Context,
	w http.ResponseWriter,
	dispatchID, jobName, jobPath string,
	payload map[string]any,
	run func(ctx context.Context) (any, error),
) {
	if h.gameSyncService == nil {
		writeError(ctx, w, fmt.Errorf("%w: sync service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	dispatchID = strings.TrimSpace(dispatchID)
	if dispatchID == "" {
		dispatchID = buildManualDispatchID(jobName, time.Now().UTC())
	}
	if payload == nil {
		payload = map[string]any{}
	}
	payload["dispatch_id"] = dispatchID

	h.recordSyncDispatch(ctx, jobdispatch.Event{
		DispatchID: dispatchID,
		JobName:    jobName,
		JobPath:    jobPath,
		Season:     h.season,
		Status:     jobdispatch.StatusStarted,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	})

	result, err := run(ctx)
	if err != nil {
		h.recordSyncDispatch(ctx, jobdispatch.Event{
			DispatchID:   dispatchID,
			JobName:      jobName,
			JobPath:      jobPath,
			Season:       h.season,
			Status:       jobdispatch.StatusFailed,
			Payload:      payload,
			ErrorMessage: err.Error(),
			OccurredAt:   time.Now().UTC(),
		})
		h.logger.WarnContext(ctx, "admin sync job failed", "job_name", jobName, "dispatch_id", dispatchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	h.recordSyncDispatch(ctx, jobdispatch.Event{
		DispatchID: dispatchID,
		JobName:    jobName,
		JobPath:    jobPath,
		Season:     h.season,
		Status:     jobdispatch.StatusCompleted,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	})

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) recordSyncDispatch(ctx context.Context, event jobdispatch.Event) {
	if h.jobDispatchRepo == nil {
		return
	}

	traceID, spanID := traceMetaFromContext(ctx)
	event.TraceID = traceID
	event.SpanID = spanID

	if err := h.jobDispatchRepo.UpsertEvent(ctx, event); err != nil {
		h.logger.WarnContext(ctx, "record sync dispatch failed",
			"dispatch_id", event.DispatchID,
			"job_name", event.JobName,
			"status", event.Status,
			"error", err,
		)
	}
}

func decodeAdminSyncRequest(r *http.Request) (adminSyncRequest, error) {
	decoder := jsoniter.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var req adminSyncRequest
	if err := decoder.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return adminSyncRequest{}, nil
		}
		return adminSyncRequest{}, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}

	return req, nil
}

func buildManualDispatchID(jobName string, now time.Time) string {
	jobName = sanitizeDispatchPart(jobName)
	ts := now.UTC().Format("20060102T150405.000000000Z")
	return "manual-" + jobName + "-" + ts
}

func sanitizeDispatchPart(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return dispatchUnsafeRegex.ReplaceAllString(value, "-")
}

func traceMetaFromContext(ctx context.Context) (string, string) {
	spanContext := trace.SpanFromContext(ctx).SpanContext()
	if !spanContext.IsValid() {
		return "", ""
	}
	return spanContext.TraceID().String(), spanContext.SpanID().String()
}
