package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/bracket-pool/internal/domain/pool"
	"github.com/riskibarqy/bracket-pool/internal/domain/team"
	poolmock "github.com/riskibarqy/bracket-pool/internal/mocks/domain/pool"
	teammock "github.com/riskibarqy/bracket-pool/internal/mocks/domain/team"
	"github.com/riskibarqy/bracket-pool/internal/platform/logging"
	"github.com/stretchr/testify/mock"
)

func newMockeryLogoService(t *testing.T, directory *stubDirectoryProvider) (*GameSyncService, *teammock.Repository, *poolmock.Repository) {
	t.Helper()

	teamRepo := teammock.NewRepository(t)
	poolRepo := poolmock.NewRepository(t)
	service := NewGameSyncService(
		GameSyncConfig{Enabled: true, Season: 2026},
		nil,
		directory,
		nil,
		teamRepo,
		nil,
		poolRepo,
		logging.NewNop(),
	)
	return service, teamRepo, poolRepo
}

func TestSyncLogos_UpdatesFromDirectoryUsingMockery(t *testing.T) {
	t.Parallel()

	directory := &stubDirectoryProvider{
		entries: []DirectoryTeam{
			{ExternalID: "150", DisplayName: "Duke Blue Devils", ShortDisplayName: "Duke", LogoURL: "https://cdn.example.com/duke.png"},
		},
	}
	service, teamRepo, poolRepo := newMockeryLogoService(t, directory)

	poolRepo.
		On("GetByID", mock.Anything, "pool-1").
		Return(pool.Pool{ID: "pool-1", Name: "Office Pool", Season: 2026, CreatedBy: "user-1"}, true, nil).
		Once()
	teamRepo.
		On("List", mock.Anything).
		Return([]team.Team{{ID: "team-duke", Name: "Duke"}}, nil).
		Once()
	teamRepo.
		On("UpdateLogo", mock.Anything, "team-duke", "https://cdn.example.com/duke.png", mock.MatchedBy(func(v *int64) bool {
			return v != nil && *v == 150
		})).
		Return(nil).
		Once()

	report, err := service.SyncLogos(context.Background(), LogoSyncInput{PoolID: "pool-1", UserID: "user-1"})
	if err != nil {
		t.Fatalf("SyncLogos: %v", err)
	}
	if report.Updated != 1 || len(report.Missing) != 0 {
		t.Fatalf("report = %+v", report)
	}
}

func TestSyncLogos_ForbiddenForNonCreatorUsingMockery(t *testing.T) {
	t.Parallel()

	service, _, poolRepo := newMockeryLogoService(t, &stubDirectoryProvider{})

	poolRepo.
		On("GetByID", mock.Anything, "pool-1").
		Return(pool.Pool{ID: "pool-1", CreatedBy: "user-1"}, true, nil).
		Once()

	_, err := service.SyncLogos(context.Background(), LogoSyncInput{PoolID: "pool-1", UserID: "user-2"})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestSyncLogos_PropagatesUpdateErrorUsingMockery(t *testing.T) {
	t.Parallel()

	directory := &stubDirectoryProvider{
		entries: []DirectoryTeam{
			{ExternalID: "150", DisplayName: "Duke Blue Devils", ShortDisplayName: "Duke", LogoURL: "https://cdn.example.com/duke.png"},
		},
	}
	service, teamRepo, poolRepo := newMockeryLogoService(t, directory)

	poolRepo.
		On("GetByID", mock.Anything, "pool-1").
		Return(pool.Pool{ID: "pool-1", CreatedBy: "user-1"}, true, nil).
		Once()
	teamRepo.
		On("List", mock.Anything).
		Return([]team.Team{{ID: "team-duke", Name: "Duke"}}, nil).
		Once()
	teamRepo.
		On("UpdateLogo", mock.Anything, "team-duke", "https://cdn.example.com/duke.png", mock.Anything).
		Return(errors.New("write failed")).
		Once()

	if _, err := service.SyncLogos(context.Background(), LogoSyncInput{PoolID: "pool-1", UserID: "user-1"}); err == nil {
		t.Fatal("expected repository error to propagate")
	}
}
