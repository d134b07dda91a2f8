package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/bracket-pool/internal/domain/game"
	"github.com/riskibarqy/bracket-pool/internal/domain/pool"
	"github.com/riskibarqy/bracket-pool/internal/domain/team"
	"github.com/riskibarqy/bracket-pool/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/bracket-pool/internal/platform/logging"
)

type stubScheduleProvider struct {
	mu sync.Mutex

	seasonGames []ProviderGame
	seasonErr   error

	slatesByDate map[string][]ProviderGame
	dateErr      error
	dateCalls    []string

	tournament    []ProviderGame
	released      bool
	tournamentErr error
}

func (s *stubScheduleProvider) GamesBySeason(_ context.Context, _ int) ([]ProviderGame, error) {
	if s.seasonErr != nil {
		return nil, s.seasonErr
	}
	return s.seasonGames, nil
}

func (s *stubScheduleProvider) GamesByDate(_ context.Context, day time.Time) ([]ProviderGame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dateErr != nil {
		return nil, s.dateErr
	}
	key := day.UTC().Format(dayKeyLayout)
	s.dateCalls = append(s.dateCalls, key)
	return s.slatesByDate[key], nil
}

func (s *stubScheduleProvider) TournamentBySeason(_ context.Context, _ int) ([]ProviderGame, bool, error) {
	if s.tournamentErr != nil {
		return nil, false, s.tournamentErr
	}
	return s.tournament, s.released, nil
}

type stubDirectoryProvider struct {
	entries []DirectoryTeam
	err     error
	calls   int
}

func (s *stubDirectoryProvider) TeamDirectory(_ context.Context) ([]DirectoryTeam, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.entries, nil
}

type stubResultsProvider struct {
	results map[string]SecondaryResult
	err     error
}

func (s *stubResultsProvider) GameByExternalID(_ context.Context, externalGameID string) (SecondaryResult, bool, error) {
	if s.err != nil {
		return SecondaryResult{}, false, s.err
	}
	res, ok := s.results[externalGameID]
	return res, ok, nil
}

type syncFixture struct {
	service   *GameSyncService
	schedule  *stubScheduleProvider
	directory *stubDirectoryProvider
	results   *stubResultsProvider
	teamRepo  *memory.TeamRepository
	gameRepo  *memory.GameRepository
	poolRepo  *memory.PoolRepository
}

func newSyncFixture(teams []team.Team, games []game.Game, pools []pool.Pool) *syncFixture {
	f := &syncFixture{
		schedule:  &stubScheduleProvider{slatesByDate: make(map[string][]ProviderGame)},
		directory: &stubDirectoryProvider{},
		results:   &stubResultsProvider{results: make(map[string]SecondaryResult)},
		teamRepo:  memory.NewTeamRepository(teams),
		gameRepo:  memory.NewGameRepository(games),
		poolRepo:  memory.NewPoolRepository(pools),
	}
	f.service = NewGameSyncService(
		GameSyncConfig{Enabled: true, Season: 2026},
		f.schedule,
		f.directory,
		f.results,
		f.teamRepo,
		f.gameRepo,
		f.poolRepo,
		logging.NewNop(),
	)
	return f
}

func strPtr(v string) *string {
	return &v
}

func intPtr(v int) *int {
	return &v
}

func timePtr(v time.Time) *time.Time {
	return &v
}

func tournamentTeams() []team.Team {
	return []team.Team{
		{ID: "team-a", Name: "Duke", SportsDataTeamID: int64Ptr(11), ExternalTeamID: strPtr("ext-a")},
		{ID: "team-b", Name: "UConn", SportsDataTeamID: int64Ptr(22), ExternalTeamID: strPtr("ext-b")},
		{ID: "team-c", Name: "Houston", SportsDataTeamID: int64Ptr(33), ExternalTeamID: strPtr("ext-c")},
	}
}

func TestImportScheduleCountsAndSkips(t *testing.T) {
	t.Parallel()

	f := newSyncFixture(tournamentTeams(), nil, nil)
	day := time.Date(2026, time.March, 19, 0, 0, 0, 0, time.UTC)
	f.schedule.seasonGames = []ProviderGame{
		{GameID: 100, RoundNumber: 1, Bracket: "East", Day: &day, HomeTeamProviderID: 22, AwayTeamProviderID: 11},
		{GameID: 101, RoundNumber: 1, Bracket: "West", Day: &day, HomeTeamProviderID: 33, AwayTeamProviderID: 22},
		{GameID: 102, RoundNumber: 1, Bracket: "South", Day: &day, HomeTeamProviderID: 99, AwayTeamProviderID: 11},
	}

	report, err := f.service.ImportSchedule(context.Background())
	if err != nil {
		t.Fatalf("ImportSchedule: %v", err)
	}
	if report.TotalFetched != 3 || report.Upserted != 2 || report.SkippedMissingTeams != 1 {
		t.Fatalf("report = %+v", report)
	}

	stored, ok, err := f.gameRepo.GetByProviderGameID(context.Background(), 100)
	if err != nil || !ok {
		t.Fatalf("game 100 not stored: ok=%v err=%v", ok, err)
	}
	if stored.Round != game.RoundOf64 {
		t.Fatalf("round = %s, want R64", stored.Round)
	}
	if stored.Team1ID == nil || *stored.Team1ID != "team-a" {
		t.Fatalf("team1 (away) = %v, want team-a", stored.Team1ID)
	}
	if stored.Team2ID == nil || *stored.Team2ID != "team-b" {
		t.Fatalf("team2 (home) = %v, want team-b", stored.Team2ID)
	}
	if stored.Region == nil || *stored.Region != game.RegionEast {
		t.Fatalf("region = %v, want East", stored.Region)
	}
}

func TestImportScheduleResetsStoredWinner(t *testing.T) {
	t.Parallel()

	seeded := game.Game{
		ID:               "game-1",
		Round:            game.RoundOf64,
		Team1ID:          strPtr("team-a"),
		Team2ID:          strPtr("team-b"),
		WinnerTeamID:     strPtr("team-a"),
		SportsDataGameID: int64Ptr(100),
	}
	f := newSyncFixture(tournamentTeams(), []game.Game{seeded}, nil)
	f.schedule.seasonGames = []ProviderGame{
		{GameID: 100, RoundNumber: 1, HomeTeamProviderID: 22, AwayTeamProviderID: 11},
	}

	if _, err := f.service.ImportSchedule(context.Background()); err != nil {
		t.Fatalf("ImportSchedule: %v", err)
	}

	stored, _, _ := f.gameRepo.GetByProviderGameID(context.Background(), 100)
	if stored.WinnerTeamID != nil {
		t.Fatalf("winner = %v, want reset to nil", *stored.WinnerTeamID)
	}
	if stored.ID != "game-1" {
		t.Fatalf("upsert replaced the row instead of updating, id = %s", stored.ID)
	}
}

func TestImportScheduleFailsFastOnProviderError(t *testing.T) {
	t.Parallel()

	f := newSyncFixture(tournamentTeams(), nil, nil)
	f.schedule.seasonErr = errors.New("upstream 503")

	if _, err := f.service.ImportSchedule(context.Background()); err == nil {
		t.Fatal("expected provider error to propagate")
	}
}

func TestImportScheduleDisabled(t *testing.T) {
	t.Parallel()

	f := newSyncFixture(tournamentTeams(), nil, nil)
	f.service.cfg.Enabled = false

	_, err := f.service.ImportSchedule(context.Background())
	if !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("err = %v, want ErrDependencyUnavailable", err)
	}
}

func TestLinkGamesMatchesSymmetricPairs(t *testing.T) {
	t.Parallel()

	day := time.Date(2026, time.March, 20, 0, 0, 0, 0, time.UTC)
	games := []game.Game{
		{
			ID:       "game-unlinked",
			Round:    game.RoundOf32,
			Team1ID:  strPtr("team-a"),
			Team2ID:  strPtr("team-b"),
			GameDate: timePtr(day),
		},
		{
			ID:       "game-unmapped-team",
			Round:    game.RoundOf32,
			Team1ID:  strPtr("team-x"),
			Team2ID:  strPtr("team-b"),
			GameDate: timePtr(day),
		},
	}
	f := newSyncFixture(append(tournamentTeams(), team.Team{ID: "team-x", Name: "Unmapped"}), games, nil)
	// Provider has the pair reversed relative to the stored game.
	f.schedule.slatesByDate[day.Format(dayKeyLayout)] = []ProviderGame{
		{GameID: 700, HomeTeamProviderID: 11, AwayTeamProviderID: 22},
	}

	report, err := f.service.LinkGames(context.Background())
	if err != nil {
		t.Fatalf("LinkGames: %v", err)
	}
	if report.Linked != 1 || report.NotFound != 1 {
		t.Fatalf("report = %+v", report)
	}

	stored, ok, _ := f.gameRepo.GetByProviderGameID(context.Background(), 700)
	if !ok || stored.ID != "game-unlinked" {
		t.Fatalf("game not linked: ok=%v id=%s", ok, stored.ID)
	}
}

func TestLinkGamesNothingEligible(t *testing.T) {
	t.Parallel()

	f := newSyncFixture(tournamentTeams(), nil, nil)

	report, err := f.service.LinkGames(context.Background())
	if err != nil {
		t.Fatalf("LinkGames: %v", err)
	}
	if report.Note == "" || report.Linked != 0 {
		t.Fatalf("report = %+v, want explanatory note", report)
	}
	if len(f.schedule.dateCalls) != 0 {
		t.Fatalf("provider called %d times with nothing to link", len(f.schedule.dateCalls))
	}
}

func TestSyncScoresRecordsWinnersAndSkipsTies(t *testing.T) {
	t.Parallel()

	games := []game.Game{
		{
			ID:               "game-final",
			Round:            game.RoundOf64,
			Team1ID:          strPtr("team-a"),
			Team2ID:          strPtr("team-b"),
			SportsDataGameID: int64Ptr(100),
		},
		{
			ID:               "game-tie",
			Round:            game.RoundOf64,
			Team1ID:          strPtr("team-b"),
			Team2ID:          strPtr("team-c"),
			SportsDataGameID: int64Ptr(101),
		},
	}
	f := newSyncFixture(tournamentTeams(), games, nil)

	today := time.Now().UTC().Truncate(24 * time.Hour)
	f.schedule.slatesByDate[today.Format(dayKeyLayout)] = []ProviderGame{
		{GameID: 100, Status: "Final", HomeTeamProviderID: 22, AwayTeamProviderID: 11, HomeScore: intPtr(71), AwayScore: intPtr(68)},
		{GameID: 101, Status: "Final", HomeTeamProviderID: 33, AwayTeamProviderID: 22, HomeScore: intPtr(60), AwayScore: intPtr(60)},
		{GameID: 102, Status: "InProgress", HomeTeamProviderID: 33, AwayTeamProviderID: 11},
	}

	report, err := f.service.SyncScores(context.Background())
	if err != nil {
		t.Fatalf("SyncScores: %v", err)
	}
	if len(report.Dates) != 2 {
		t.Fatalf("dates = %v, want today and yesterday", report.Dates)
	}
	if report.FinalsSeen != 2 || report.UpdatedGames != 1 || report.SkippedTieOrNoScore != 1 {
		t.Fatalf("report = %+v", report)
	}

	stored, _, _ := f.gameRepo.GetByProviderGameID(context.Background(), 100)
	if stored.WinnerTeamID == nil || *stored.WinnerTeamID != "team-b" {
		t.Fatalf("winner = %v, want team-b", stored.WinnerTeamID)
	}
	tie, _, _ := f.gameRepo.GetByProviderGameID(context.Background(), 101)
	if tie.WinnerTeamID != nil {
		t.Fatal("tie game must not record a winner")
	}
}

func TestSyncScoresIsIdempotent(t *testing.T) {
	t.Parallel()

	games := []game.Game{
		{
			ID:               "game-final",
			Round:            game.RoundOf64,
			Team1ID:          strPtr("team-a"),
			Team2ID:          strPtr("team-b"),
			SportsDataGameID: int64Ptr(100),
		},
	}
	f := newSyncFixture(tournamentTeams(), games, nil)

	today := time.Now().UTC().Truncate(24 * time.Hour)
	f.schedule.slatesByDate[today.Format(dayKeyLayout)] = []ProviderGame{
		{GameID: 100, Status: "Final", HomeTeamProviderID: 22, AwayTeamProviderID: 11, HomeScore: intPtr(71), AwayScore: intPtr(68)},
	}

	first, err := f.service.SyncScores(context.Background())
	if err != nil {
		t.Fatalf("first SyncScores: %v", err)
	}
	if first.UpdatedGames != 1 {
		t.Fatalf("first run updated %d games, want 1", first.UpdatedGames)
	}

	second, err := f.service.SyncScores(context.Background())
	if err != nil {
		t.Fatalf("second SyncScores: %v", err)
	}
	if second.UpdatedGames != 0 {
		t.Fatalf("second run updated %d games, want 0", second.UpdatedGames)
	}
}

func TestSyncScoresSkipsWinnerOutsideMatchup(t *testing.T) {
	t.Parallel()

	games := []game.Game{
		{
			ID:               "game-final",
			Round:            game.RoundOf64,
			Team1ID:          strPtr("team-a"),
			Team2ID:          strPtr("team-b"),
			SportsDataGameID: int64Ptr(100),
		},
	}
	f := newSyncFixture(tournamentTeams(), games, nil)

	today := time.Now().UTC().Truncate(24 * time.Hour)
	// Provider reports team-c as the home side even though the stored
	// matchup is team-a vs team-b.
	f.schedule.slatesByDate[today.Format(dayKeyLayout)] = []ProviderGame{
		{GameID: 100, Status: "Final", HomeTeamProviderID: 33, AwayTeamProviderID: 11, HomeScore: intPtr(80), AwayScore: intPtr(70)},
	}

	report, err := f.service.SyncScores(context.Background())
	if err != nil {
		t.Fatalf("SyncScores: %v", err)
	}
	if report.UpdatedGames != 0 || report.SkippedNoMatch != 1 {
		t.Fatalf("report = %+v", report)
	}
}

func TestConfirmResultsReportsDisagreements(t *testing.T) {
	t.Parallel()

	games := []game.Game{
		{
			ID:             "game-agree",
			Round:          game.RoundOf64,
			Team1ID:        strPtr("team-a"),
			Team2ID:        strPtr("team-b"),
			WinnerTeamID:   strPtr("team-b"),
			ExternalGameID: strPtr("ext-game-1"),
		},
		{
			ID:             "game-differ",
			Round:          game.RoundOf64,
			Team1ID:        strPtr("team-b"),
			Team2ID:        strPtr("team-c"),
			WinnerTeamID:   strPtr("team-c"),
			ExternalGameID: strPtr("ext-game-2"),
		},
		{
			ID:             "game-pending",
			Round:          game.RoundOf64,
			Team1ID:        strPtr("team-a"),
			Team2ID:        strPtr("team-c"),
			ExternalGameID: strPtr("ext-game-3"),
		},
	}
	f := newSyncFixture(tournamentTeams(), games, nil)
	f.results.results = map[string]SecondaryResult{
		"ext-game-1": {
			ExternalGameID:     "ext-game-1",
			HomeTeamExternalID: "ext-b",
			AwayTeamExternalID: "ext-a",
			HomeScore:          intPtr(75),
			AwayScore:          intPtr(70),
			Finished:           true,
		},
		"ext-game-2": {
			ExternalGameID:     "ext-game-2",
			HomeTeamExternalID: "ext-b",
			AwayTeamExternalID: "ext-c",
			HomeScore:          intPtr(82),
			AwayScore:          intPtr(79),
			Finished:           true,
		},
		"ext-game-3": {ExternalGameID: "ext-game-3", Finished: false},
	}

	report, err := f.service.ConfirmResults(context.Background())
	if err != nil {
		t.Fatalf("ConfirmResults: %v", err)
	}
	if report.Checked != 2 || report.Confirmed != 1 || report.SkippedUnfinished != 1 {
		t.Fatalf("report = %+v", report)
	}
	if len(report.Disagreements) != 1 {
		t.Fatalf("disagreements = %+v", report.Disagreements)
	}
	d := report.Disagreements[0]
	if d.GameID != "game-differ" || d.StoredWinner != "team-c" || d.SecondaryWinner != "team-b" {
		t.Fatalf("disagreement = %+v", d)
	}

	// Read only: the stored winner must be untouched.
	stored, _, _ := f.gameRepo.GetByID(context.Background(), "game-differ")
	if stored.WinnerTeamID == nil || *stored.WinnerTeamID != "team-c" {
		t.Fatalf("stored winner changed to %v", stored.WinnerTeamID)
	}
}

func TestConfirmResultsWithoutProvider(t *testing.T) {
	t.Parallel()

	f := newSyncFixture(tournamentTeams(), nil, nil)
	f.service.results = nil

	_, err := f.service.ConfirmResults(context.Background())
	if !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("err = %v, want ErrDependencyUnavailable", err)
	}
}

func TestSyncScoresPropagatesFetchError(t *testing.T) {
	t.Parallel()

	f := newSyncFixture(tournamentTeams(), nil, nil)
	f.schedule.dateErr = fmt.Errorf("upstream timeout")

	if _, err := f.service.SyncScores(context.Background()); err == nil {
		t.Fatal("expected fetch error to propagate")
	}
}
