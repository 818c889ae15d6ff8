package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"

	"github.com/peladahub/pelada-manager/internal/config"
	"github.com/peladahub/pelada-manager/internal/domain/goal"
	"github.com/peladahub/pelada-manager/internal/domain/match"
	"github.com/peladahub/pelada-manager/internal/domain/player"
	"github.com/peladahub/pelada-manager/internal/domain/queue"
	"github.com/peladahub/pelada-manager/internal/domain/session"
	"github.com/peladahub/pelada-manager/internal/infrastructure/account/gatekeeper"
	"github.com/peladahub/pelada-manager/internal/infrastructure/notify"
	"github.com/peladahub/pelada-manager/internal/infrastructure/repository/memory"
	"github.com/peladahub/pelada-manager/internal/infrastructure/repository/postgres"
	"github.com/peladahub/pelada-manager/internal/interfaces/httpapi"
	"github.com/peladahub/pelada-manager/internal/platform/cache"
	idgen "github.com/peladahub/pelada-manager/internal/platform/id"
	"github.com/peladahub/pelada-manager/internal/platform/logging"
	"github.com/peladahub/pelada-manager/internal/platform/resilience"
	"github.com/peladahub/pelada-manager/internal/usecase"
)

type repositories struct {
	players  player.Repository
	sessions session.Repository
	queues   queue.Repository
	matches  match.Repository
	goals    goal.Repository
}

// NewHTTPServer wires repositories, services and the HTTP surface into a
// ready-to-run server. The returned cleanup releases background workers
// and the database pool and must be called after shutdown.
func NewHTTPServer(ctx context.Context, cfg config.Config, logger *slog.Logger) (*http.Server, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		repos repositories
		db    *sqlx.DB
	)
	if strings.TrimSpace(cfg.DBURL) == "" {
		// No database configured. In-memory storage keeps local
		// development and demos runnable without Postgres.
		logger.Warn("DB_URL is empty, using in-memory repositories")
		matchRepo := memory.NewMatchRepository()
		repos = repositories{
			players:  memory.NewPlayerRepository(memory.SeedPlayers()),
			sessions: memory.NewSessionRepository(nil),
			queues:   memory.NewQueueRepository(),
			matches:  matchRepo,
			goals:    memory.NewGoalRepository(matchRepo),
		}
	} else {
		var err error
		db, err = connectDB(ctx, cfg.DBURL, cfg.DBDisablePreparedBinary)
		if err != nil {
			return nil, nil, fmt.Errorf("connect database: %w", err)
		}
		repos = repositories{
			players:  postgres.NewPlayerRepository(db),
			sessions: postgres.NewSessionRepository(db),
			queues:   postgres.NewQueueRepository(db),
			matches:  postgres.NewMatchRepository(db),
			goals:    postgres.NewGoalRepository(db),
		}
	}

	rules := queue.Rules{
		TeamSize: cfg.TeamSize,
		WinCap:   cfg.WinCap,
		MaxQueue: cfg.QueueLimit,
	}
	idGen := idgen.NewUUIDGenerator()

	playerSvc := usecase.NewPlayerService(repos.players, repos.sessions, repos.queues, idGen)
	queueSvc := usecase.NewQueueService(repos.queues, repos.sessions, repos.players, rules)
	sessionSvc := usecase.NewSessionService(
		repos.sessions,
		repos.queues,
		repos.players,
		repos.matches,
		idGen,
		rules,
	)

	var clockBreaker *resilience.CircuitBreaker
	if cfg.ClockCircuitEnabled {
		clockBreaker = resilience.NewCircuitBreaker(
			cfg.ClockCircuitFailureCount,
			cfg.ClockCircuitOpenTimeout,
			cfg.ClockCircuitHalfOpenMax,
		)
	}
	matchSvc := usecase.NewMatchService(
		repos.matches,
		repos.goals,
		repos.players,
		queueSvc,
		idGen,
		clockwork.NewRealClock(),
		usecase.MatchSettings{
			Duration:           cfg.MatchDuration,
			CheckpointInterval: cfg.ClockCheckpointInterval,
			ResumeGrace:        cfg.ClockResumeGrace,
		},
		clockBreaker,
	)

	var statsCache *cache.Store
	if cfg.CacheEnabled {
		statsCache = cache.NewStore(cfg.CacheTTL)
	}
	statsSvc := usecase.NewStatsService(repos.matches, repos.goals, repos.players, statsCache)

	var publisher *notify.WebhookPublisher
	if cfg.WebhookEnabled {
		var err error
		publisher, err = notify.NewWebhookPublisher(notify.WebhookConfig{
			TargetURL:      cfg.WebhookTargetURL,
			Token:          cfg.WebhookToken,
			Timeout:        cfg.WebhookTimeout,
			Workers:        cfg.WebhookWorkers,
			Retries:        2,
			CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: true},
		}, logging.Default())
		if err != nil {
			if db != nil {
				_ = db.Close()
			}
			return nil, nil, fmt.Errorf("create webhook publisher: %w", err)
		}
		matchSvc.SetPublisher(publisher)
	}

	gatekeeperClient := gatekeeper.NewClient(
		&http.Client{Timeout: cfg.GatekeeperTimeout},
		cfg.GatekeeperBaseURL,
		cfg.GatekeeperIntrospectPath,
		resilience.CircuitBreakerConfig{Enabled: true},
		logger,
	)

	handler := httpapi.NewHandler(playerSvc, sessionSvc, queueSvc, matchSvc, statsSvc, logger)
	router := httpapi.NewRouter(handler, gatekeeperClient, logger, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		if publisher != nil {
			publisher.Close()
		}
		if db != nil {
			_ = db.Close()
		}
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	cleanup := func() {
		if publisher != nil {
			publisher.Close()
		}
		if db != nil {
			_ = db.Close()
		}
	}

	return server, cleanup, nil
}
