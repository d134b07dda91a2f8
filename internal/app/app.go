package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/riskibarqy/bracket-pool/external/espn"
	"github.com/riskibarqy/bracket-pool/external/highlightly"
	"github.com/riskibarqy/bracket-pool/external/sportsdataio"
	"github.com/riskibarqy/bracket-pool/external/webhook"
	"github.com/riskibarqy/bracket-pool/internal/config"
	"github.com/riskibarqy/bracket-pool/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/bracket-pool/internal/interfaces/httpapi"
	"github.com/riskibarqy/bracket-pool/internal/platform/cache"
	idgen "github.com/riskibarqy/bracket-pool/internal/platform/id"
	"github.com/riskibarqy/bracket-pool/internal/platform/logging"
	"github.com/riskibarqy/bracket-pool/internal/platform/resilience"
	"github.com/riskibarqy/bracket-pool/internal/usecase"
)

// NewHTTPServer assembles the sync pipeline on top of a traced Postgres
// connection and returns the API server ready to listen.
func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*http.Server, error) {
	if logger == nil {
		logger = logging.Default()
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	teamRepo := postgres.NewTeamRepository(db)
	gameRepo := postgres.NewGameRepository(db, idgen.NewRandomGenerator())
	poolRepo := postgres.NewPoolRepository(db)
	dispatchRepo := postgres.NewJobDispatchRepository(db)

	// Disabled providers stay nil so the jobs that need them report the
	// dependency as unavailable instead of calling a dead client.
	var schedule usecase.ScheduleProvider
	if cfg.SportsDataEnabled {
		schedule = sportsdataio.NewClient(sportsdataio.ClientConfig{
			BaseURL:    cfg.SportsDataBaseURL,
			APIKey:     cfg.SportsDataAPIKey,
			Timeout:    cfg.SportsDataTimeout,
			MaxRetries: cfg.SportsDataMaxRetries,
			Logger:     logger,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.SportsDataCircuitEnabled,
				FailureThreshold: cfg.SportsDataCircuitFailureCount,
				OpenTimeout:      cfg.SportsDataCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.SportsDataCircuitHalfOpenMaxReq,
			},
		})
	}

	var directoryCache *cache.Store
	if cfg.CacheEnabled {
		directoryCache = cache.NewStore(cfg.CacheTTL)
	}
	directory := espn.NewClient(espn.ClientConfig{
		BaseURL: cfg.ESPNBaseURL,
		Timeout: cfg.ESPNTimeout,
		Cache:   directoryCache,
		Logger:  logger,
	})

	var results usecase.ResultsProvider
	if cfg.HighlightlyEnabled {
		results = highlightly.NewClient(highlightly.ClientConfig{
			BaseURL:    cfg.HighlightlyBaseURL,
			APIKey:     cfg.HighlightlyAPIKey,
			APIHost:    cfg.HighlightlyAPIHost,
			Timeout:    cfg.HighlightlyTimeout,
			MaxRetries: cfg.HighlightlyMaxRetries,
			Logger:     logger,
		})
	}

	var publisher usecase.CompletionPublisher
	if cfg.WebhookEnabled {
		publisher = webhook.NewPublisher(webhook.PublisherConfig{
			TargetBaseURL: cfg.WebhookTargetBaseURL,
			Token:         cfg.WebhookToken,
			Retries:       cfg.WebhookRetries,
			Timeout:       cfg.WebhookTimeout,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.WebhookCircuitEnabled,
				FailureThreshold: cfg.WebhookCircuitFailureCount,
				OpenTimeout:      cfg.WebhookCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.WebhookCircuitHalfOpenMaxReq,
			},
		}, logger)
	}

	gameSyncSvc := usecase.NewGameSyncService(
		usecase.GameSyncConfig{Enabled: cfg.SportsDataEnabled, Season: cfg.SyncSeason},
		schedule,
		directory,
		results,
		teamRepo,
		gameRepo,
		poolRepo,
		logger,
	)
	orchestrator := usecase.NewSyncOrchestratorService(gameSyncSvc, publisher, logger)

	handler := httpapi.NewHandler(gameSyncSvc, orchestrator, dispatchRepo, cfg.SyncSeason, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins, cfg.AdminSyncSecret)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, nil
}

func openDatabase(cfg config.Config) (*sqlx.DB, error) {
	dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)

	db, err := otelsqlx.Connect("postgres", dsn,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return db, nil
}
