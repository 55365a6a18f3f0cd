package app

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"go.opentelemetry.io/otel/attribute"

	"github.com/vaultheim/crucible/internal/config"
	"github.com/vaultheim/crucible/internal/domain/deck"
	"github.com/vaultheim/crucible/internal/domain/league"
	"github.com/vaultheim/crucible/internal/domain/match"
	"github.com/vaultheim/crucible/internal/infrastructure/account"
	"github.com/vaultheim/crucible/internal/infrastructure/catalog"
	"github.com/vaultheim/crucible/internal/infrastructure/repository/memory"
	"github.com/vaultheim/crucible/internal/infrastructure/repository/postgres"
	"github.com/vaultheim/crucible/internal/interfaces/httpapi"
	idgen "github.com/vaultheim/crucible/internal/platform/id"
	"github.com/vaultheim/crucible/internal/platform/logging"
	"github.com/vaultheim/crucible/internal/platform/resilience"
	"github.com/vaultheim/crucible/internal/usecase"
)

// App bundles the wired HTTP server with the background pieces the command
// entrypoint drives itself (the stale-match sweeper and the DB handle).
type App struct {
	Server  *http.Server
	Sweeper *usecase.SweeperService

	db *sqlx.DB
}

func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	var (
		matchRepo  match.Repository
		leagueRepo league.Repository
		db         *sqlx.DB
	)

	switch cfg.StorageDriver {
	case config.StoragePostgres:
		opened, err := openDB(cfg)
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
		db = opened
		matchRepo = postgres.NewMatchRepository(db)
		leagueRepo = postgres.NewLeagueRepository(db)
	default:
		matchRepo = memory.NewMatchRepository()
		leagueRepo = memory.NewLeagueRepository()
	}

	catalogSvc := newDeckCatalog(cfg)

	idGen := idgen.NewRandomGenerator()
	alloc := usecase.NewSealedAllocator(catalogSvc)
	matchSvc := usecase.NewMatchService(matchRepo, catalogSvc, alloc, idGen, logger)
	leagueSvc := usecase.NewLeagueService(leagueRepo, idGen, logger)
	sweeperSvc := usecase.NewSweeperService(matchRepo, cfg.SweepMaxAge, cfg.SweepWorkers, logger)

	verifier := account.NewClient(
		&http.Client{Timeout: cfg.AccountTimeout},
		cfg.AccountBaseURL,
		cfg.AccountIntrospectPath,
		logger,
	)

	handler := httpapi.NewHandler(matchSvc, leagueSvc, sweeperSvc, logger)
	router := httpapi.NewRouter(handler, verifier, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return &App{
		Server:  server,
		Sweeper: sweeperSvc,
		db:      db,
	}, nil
}

// Close releases resources that outlive the HTTP server.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}

	return a.db.Close()
}

func newDeckCatalog(cfg config.Config) deck.Catalog {
	if !cfg.CatalogEnabled {
		return memory.NewCatalog(memory.SeedDecks())
	}

	return catalog.NewClient(catalog.ClientConfig{
		HTTPClient: &http.Client{Timeout: cfg.CatalogTimeout},
		BaseURL:    cfg.CatalogBaseURL,
		Token:      cfg.CatalogToken,
		Timeout:    cfg.CatalogTimeout,
		MaxRetries: cfg.CatalogMaxRetries,
		PageSize:   cfg.CatalogPageSize,
		CacheTTL:   cfg.CatalogCacheTTL,
		Logger:     logging.NewJSON(cfg.LogLevel),
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.CatalogCircuitEnabled,
			FailureThreshold: cfg.CatalogCircuitFailureCount,
			OpenTimeout:      cfg.CatalogCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.CatalogCircuitHalfOpenMaxReq,
		},
	})
}

func openDB(cfg config.Config) (*sqlx.DB, error) {
	dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)

	attrs := []attribute.KeyValue{attribute.String("db.system", "postgresql")}
	if name := dbNameFromURL(cfg.DBURL); name != "" {
		attrs = append(attrs, attribute.String("db.name", name))
	}

	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithAttributes(attrs...),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return db, nil
}
