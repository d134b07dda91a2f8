package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/bracket-pool/internal/domain/pool"
	"github.com/riskibarqy/bracket-pool/internal/domain/team"
)

func logoFixture(teams []team.Team) *syncFixture {
	f := newSyncFixture(teams, nil, []pool.Pool{
		{ID: "pool-1", Name: "Office Pool", Season: 2026, CreatedBy: "user-creator"},
	})
	f.directory.entries = []DirectoryTeam{
		{
			ExternalID:       "41",
			DisplayName:      "Connecticut Huskies",
			ShortDisplayName: "Connecticut",
			LogoURL:          "https://cdn.example.com/uconn.png",
		},
		{
			ExternalID:       "193",
			DisplayName:      "Miami (OH) RedHawks",
			ShortDisplayName: "Miami (OH)",
			LogoURL:          "https://cdn.example.com/miami-oh.png",
		},
		{
			ExternalID:       "127",
			DisplayName:      "Michigan State Spartans",
			ShortDisplayName: "Michigan St",
			LogoURL:          "https://cdn.example.com/msu.png",
		},
	}
	return f
}

func TestSyncLogosResolvesOverridesAndFallbacks(t *testing.T) {
	t.Parallel()

	f := logoFixture([]team.Team{
		{ID: "team-uconn", Name: "UConn"},
		{ID: "team-miami", Name: "Miami (OH)"},
		{ID: "team-msu", Name: "Michigan State"},
		{ID: "team-missing", Name: "Northern Nowhere"},
		{ID: "team-placeholder", Name: "Play-In Winner"},
	})

	report, err := f.service.SyncLogos(context.Background(), LogoSyncInput{PoolID: "pool-1", UserID: "user-creator"})
	if err != nil {
		t.Fatalf("SyncLogos: %v", err)
	}
	if report.Updated != 3 {
		t.Fatalf("updated = %d, want 3", report.Updated)
	}
	if len(report.Missing) != 2 {
		t.Fatalf("missing = %+v", report.Missing)
	}

	byName := make(map[string]MissingLogo, len(report.Missing))
	for _, m := range report.Missing {
		byName[m.Name] = m
	}
	if m, ok := byName["Northern Nowhere"]; !ok || m.Key != "northern nowhere" {
		t.Fatalf("missing entry for unmatched team = %+v", m)
	}
	if m, ok := byName["Play-In Winner"]; !ok || m.Key != "" {
		t.Fatalf("placeholder must report an empty key, got %+v", m)
	}

	uconn, _, _ := f.teamRepo.GetByID(context.Background(), "team-uconn")
	if uconn.LogoURL == nil || *uconn.LogoURL != "https://cdn.example.com/uconn.png" {
		t.Fatalf("uconn logo = %v", uconn.LogoURL)
	}
	if uconn.ESPNTeamID == nil || *uconn.ESPNTeamID != 41 {
		t.Fatalf("uconn espn id = %v", uconn.ESPNTeamID)
	}
	msu, _, _ := f.teamRepo.GetByID(context.Background(), "team-msu")
	if msu.LogoURL == nil || *msu.LogoURL != "https://cdn.example.com/msu.png" {
		t.Fatalf("michigan state logo = %v, fallback lookup failed", msu.LogoURL)
	}
}

func TestSyncLogosIsIdempotent(t *testing.T) {
	t.Parallel()

	f := logoFixture([]team.Team{{ID: "team-uconn", Name: "UConn"}})

	input := LogoSyncInput{PoolID: "pool-1", UserID: "user-creator"}
	first, err := f.service.SyncLogos(context.Background(), input)
	if err != nil {
		t.Fatalf("first SyncLogos: %v", err)
	}
	if first.Updated != 1 {
		t.Fatalf("first run updated = %d, want 1", first.Updated)
	}

	second, err := f.service.SyncLogos(context.Background(), input)
	if err != nil {
		t.Fatalf("second SyncLogos: %v", err)
	}
	if second.Updated != 0 {
		t.Fatalf("second run updated = %d, want 0", second.Updated)
	}
}

func TestSyncLogosRejectsNonCreator(t *testing.T) {
	t.Parallel()

	f := logoFixture([]team.Team{{ID: "team-uconn", Name: "UConn"}})

	_, err := f.service.SyncLogos(context.Background(), LogoSyncInput{PoolID: "pool-1", UserID: "user-other"})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
	if f.directory.calls != 0 {
		t.Fatal("directory must not be fetched for a rejected caller")
	}
}

func TestSyncLogosUnknownPool(t *testing.T) {
	t.Parallel()

	f := logoFixture(nil)

	_, err := f.service.SyncLogos(context.Background(), LogoSyncInput{PoolID: "pool-missing", UserID: "user-creator"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSyncLogosValidatesInput(t *testing.T) {
	t.Parallel()

	f := logoFixture(nil)

	_, err := f.service.SyncLogos(context.Background(), LogoSyncInput{PoolID: "pool-1"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}
