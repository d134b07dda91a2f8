package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/riskibarqy/bracket-pool/internal/domain/jobdispatch"
	"github.com/riskibarqy/bracket-pool/internal/domain/pool"
	"github.com/riskibarqy/bracket-pool/internal/domain/team"
	"github.com/riskibarqy/bracket-pool/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/bracket-pool/internal/platform/logging"
	"github.com/riskibarqy/bracket-pool/internal/usecase"
)

type stubSchedule struct {
	seasonGames []usecase.ProviderGame
}

func (s *stubSchedule) GamesBySeason(context.Context, int) ([]usecase.ProviderGame, error) {
	return s.seasonGames, nil
}

func (s *stubSchedule) GamesByDate(context.Context, time.Time) ([]usecase.ProviderGame, error) {
	return nil, nil
}

func (s *stubSchedule) TournamentBySeason(context.Context, int) ([]usecase.ProviderGame, bool, error) {
	return nil, false, nil
}

type stubDirectory struct {
	entries []usecase.DirectoryTeam
}

func (s *stubDirectory) TeamDirectory(context.Context) ([]usecase.DirectoryTeam, error) {
	return s.entries, nil
}

type routerFixture struct {
	router   http.Handler
	dispatch *memory.JobDispatchRepository
	teamRepo *memory.TeamRepository
	gameRepo *memory.GameRepository
}

const testAdminSecret = "sync-secret"

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	teamAID := int64(11)
	teamBID := int64(22)
	teams := []team.Team{
		{ID: "team-a", Name: "Connecticut", SportsDataTeamID: &teamAID},
		{ID: "team-b", Name: "Houston", SportsDataTeamID: &teamBID},
	}
	pools := []pool.Pool{
		{ID: "pool-1", Name: "Office Pool", Season: 2026, CreatedBy: "user-creator"},
	}

	teamRepo := memory.NewTeamRepository(teams)
	gameRepo := memory.NewGameRepository(nil)
	poolRepo := memory.NewPoolRepository(pools)
	dispatchRepo := memory.NewJobDispatchRepository()

	schedule := &stubSchedule{
		seasonGames: []usecase.ProviderGame{
			{GameID: 100, Season: 2026, RoundNumber: 1, HomeTeamProviderID: 22, AwayTeamProviderID: 11, Slot: 1},
		},
	}
	directory := &stubDirectory{
		entries: []usecase.DirectoryTeam{
			{ExternalID: "41", DisplayName: "Connecticut Huskies", ShortDisplayName: "Connecticut", LogoURL: "https://cdn.example.com/uconn.png"},
			{ExternalID: "248", DisplayName: "Houston Cougars", ShortDisplayName: "Houston", LogoURL: "https://cdn.example.com/houston.png"},
		},
	}

	service := usecase.NewGameSyncService(
		usecase.GameSyncConfig{Enabled: true, Season: 2026},
		schedule,
		directory,
		nil,
		teamRepo,
		gameRepo,
		poolRepo,
		logging.NewNop(),
	)
	orchestrator := usecase.NewSyncOrchestratorService(service, nil, logging.NewNop())
	handler := NewHandler(service, orchestrator, dispatchRepo, 2026, logging.NewNop())

	return &routerFixture{
		router:   NewRouter(handler, logging.NewNop(), []string{"*"}, testAdminSecret),
		dispatch: dispatchRepo,
		teamRepo: teamRepo,
		gameRepo: gameRepo,
	}
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var envelope map[string]any
	if err := jsoniter.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response envelope: %v", err)
	}
	return envelope
}

func TestScheduleImportEndpoint(t *testing.T) {
	fixture := newRouterFixture(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/admin/sync/schedule", strings.NewReader(`{"dispatch_id":"manual-test-1"}`))
	req.Header.Set("X-Admin-Sync-Secret", testAdminSecret)

	fixture.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}

	envelope := decodeEnvelope(t, rec)
	if envelope["apiVersion"] != "2.0" {
		t.Fatalf("apiVersion = %v", envelope["apiVersion"])
	}
	data, ok := envelope["data"].(map[string]any)
	if !ok {
		t.Fatalf("data = %v", envelope["data"])
	}
	if data["upserted"] != float64(1) {
		t.Fatalf("upserted = %v", data["upserted"])
	}

	events := fixture.dispatch.Events()
	if len(events) == 0 {
		t.Fatal("expected dispatch audit events")
	}
	last := events[len(events)-1]
	if last.DispatchID != "manual-test-1" || last.Status != jobdispatch.StatusCompleted {
		t.Fatalf("last event = %+v", last)
	}
}

func TestAdminRoutesRequireSecret(t *testing.T) {
	fixture := newRouterFixture(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/admin/sync/schedule", nil)

	fixture.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 without secret", rec.Code)
	}
}

func TestLogoSyncEndpointUsesPoolOwnership(t *testing.T) {
	fixture := newRouterFixture(t)

	t.Run("creator succeeds without admin secret", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/admin/sync/logos", strings.NewReader(`{"pool_id":"pool-1","user_id":"user-creator"}`))

		fixture.router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
		}

		envelope := decodeEnvelope(t, rec)
		data, ok := envelope["data"].(map[string]any)
		if !ok {
			t.Fatalf("data = %v", envelope["data"])
		}
		if data["updated"] != float64(2) {
			t.Fatalf("updated = %v", data["updated"])
		}
	})

	t.Run("non-creator is forbidden", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/admin/sync/logos", strings.NewReader(`{"pool_id":"pool-1","user_id":"user-other"}`))

		fixture.router.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("missing body fields rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/admin/sync/logos", strings.NewReader(`{"pool_id":"pool-1"}`))

		fixture.router.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})
}

func TestResyncEndpointValidation(t *testing.T) {
	fixture := newRouterFixture(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/admin/sync/resync", strings.NewReader(`{"sync_data":["players"]}`))
	req.Header.Set("X-Admin-Sync-Secret", testAdminSecret)

	fixture.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for unknown sync data kind", rec.Code)
	}

	events := fixture.dispatch.Events()
	if len(events) == 0 {
		t.Fatal("expected failed dispatch audit event")
	}
	if events[len(events)-1].Status != jobdispatch.StatusFailed {
		t.Fatalf("last event status = %s", events[len(events)-1].Status)
	}
}

func TestHealthz(t *testing.T) {
	fixture := newRouterFixture(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	fixture.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
