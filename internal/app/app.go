package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/lexdrill-backend/internal/data/aggregates"
	"github.com/yungbote/lexdrill-backend/internal/data/db"
	"github.com/yungbote/lexdrill-backend/internal/data/memstore"
	repolearning "github.com/yungbote/lexdrill-backend/internal/data/repos/learning"
	"github.com/yungbote/lexdrill-backend/internal/data/store"
	"github.com/yungbote/lexdrill-backend/internal/domain/learning"
	httpapi "github.com/yungbote/lexdrill-backend/internal/http"
	httpH "github.com/yungbote/lexdrill-backend/internal/http/handlers"
	"github.com/yungbote/lexdrill-backend/internal/modules/scheduler"
	"github.com/yungbote/lexdrill-backend/internal/modules/scheduler/challenge"
	"github.com/yungbote/lexdrill-backend/internal/modules/scheduler/events"
	"github.com/yungbote/lexdrill-backend/internal/modules/scheduler/reward"
	"github.com/yungbote/lexdrill-backend/internal/observability"
	"github.com/yungbote/lexdrill-backend/internal/platform/clock"
	"github.com/yungbote/lexdrill-backend/internal/platform/dbctx"
	"github.com/yungbote/lexdrill-backend/internal/platform/logger"
)

type App struct {
	Log       *logger.Logger
	Cfg       Config
	Metrics   *observability.Metrics
	Scheduler *scheduler.Facade
	Server    *httpapi.Server

	sweeper   *scheduler.Sweeper
	dbService *db.Service
	redisSink *events.RedisSink
	redis     *redis.Client
	shutdown  func(context.Context) error
}

// Stores groups the persistence ports the scheduler runs on.
type Stores struct {
	Items      store.ItemStore
	Learners   store.LearnerStore
	Challenges store.ChallengeCatalog
	Boosts     store.BoostSource
}

func New(ctx context.Context) (*App, error) {
	bootLog, err := logger.New(envReader{log: logger.Nop()}.String("LOG_MODE", "development"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	bootLog.Info("Loading environment variables...")
	cfg := LoadConfig(bootLog)
	return NewWithConfig(ctx, bootLog, cfg)
}

// NewWithConfig wires the service from an explicit Config.
func NewWithConfig(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	if log == nil {
		log = logger.Nop()
	}
	a := &App{Log: log, Cfg: cfg}

	a.shutdown = observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
	})
	if cfg.MetricsEnabled {
		a.Metrics = observability.Init(log)
	}

	items, err := LoadCatalog(cfg.CatalogPath)
	if err != nil {
		a.Close()
		return nil, err
	}
	stores, err := a.wireStores(ctx, items)
	if err != nil {
		a.Close()
		return nil, err
	}

	table := reward.DefaultTable()
	if cfg.RewardTablePath != "" {
		if table, err = reward.LoadTable(cfg.RewardTablePath); err != nil {
			a.Close()
			return nil, fmt.Errorf("load reward table: %w", err)
		}
	}

	bus := events.NewBus(log)
	if cfg.RedisAddr != "" {
		sink, err := events.NewRedisSink(ctx, log, events.RedisConfig{Addr: cfg.RedisAddr, Channel: cfg.RedisChannel})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init redis sink: %w", err)
		}
		a.redisSink = sink
		a.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		bus.Subscribe("redis", sink)
	}

	facade, err := scheduler.New(cfg.Scheduler, scheduler.Deps{
		Items:      stores.Items,
		Learners:   stores.Learners,
		Challenges: stores.Challenges,
		Boosts:     stores.Boosts,
		Rewards:    reward.New(table),
		Clock:      clock.System(),
		Bus:        bus,
		Metrics:    a.Metrics,
		Log:        log,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init scheduler: %w", err)
	}
	a.Scheduler = facade
	a.sweeper = scheduler.NewSweeper(facade, cfg.SweepInterval, log)

	a.Server = httpapi.NewServer(httpapi.RouterConfig{
		ServiceName:      cfg.ServiceName,
		CORSOrigins:      cfg.CORSOrigins,
		Log:              log,
		Metrics:          a.Metrics,
		SchedulerHandler: httpH.NewSchedulerHandler(facade, log),
		HealthHandler:    httpH.NewHealthHandler(a.healthChecks()),
	})
	log.Info("lexdrill wired", "driver", cfg.DatabaseDriver, "catalog_items", len(items), "redis", cfg.RedisAddr != "")
	return a, nil
}

func (a *App) wireStores(ctx context.Context, items []learning.Item) (Stores, error) {
	cfg := a.Cfg
	if cfg.DatabaseDriver == DriverMemory {
		return Stores{
			Items:      memstore.NewItems(items...),
			Learners:   memstore.NewLearners(),
			Challenges: memstore.NewChallenges(challenge.DefaultSet),
			Boosts:     memstore.NewBoosts(),
		}, nil
	}

	svc, err := OpenDatabase(a.Log, cfg)
	if err != nil {
		return Stores{}, err
	}
	a.dbService = svc

	gdb := svc.DB()
	itemRepo := repolearning.NewItemRepo(gdb, a.Log)
	if len(items) > 0 {
		if err := itemRepo.Upsert(dbctx.Context{Ctx: ctx}, items); err != nil {
			return Stores{}, fmt.Errorf("seed item catalog: %w", err)
		}
	}
	learners := aggregates.NewLearnerStore(aggregates.LearnerStoreDeps{
		BaseDeps: aggregates.BaseDeps{
			DB:    gdb,
			Log:   a.Log,
			Hooks: aggregates.MultiHooks(
				aggregates.NewObservabilityHooks(a.Metrics),
				aggregates.NewLogHooks(a.Log, time.Second),
			),
		},
	})
	return Stores{
		Items:      itemRepo,
		Learners:   learners,
		Challenges: repolearning.NewDailyChallengeRepo(gdb, a.Log, challenge.DefaultSet),
		Boosts:     repolearning.NewBoostRepo(gdb, a.Log),
	}, nil
}

// OpenDatabase connects to the configured SQL driver and migrates the schema.
func OpenDatabase(log *logger.Logger, cfg Config) (*db.Service, error) {
	var (
		svc *db.Service
		err error
	)
	switch cfg.DatabaseDriver {
	case db.DriverSQLite:
		svc, err = db.NewSQLiteService(log, cfg.SQLitePath)
	case db.DriverPostgres:
		svc, err = db.NewPostgresService(log, cfg.Postgres)
	default:
		return nil, fmt.Errorf("driver %q has no database", cfg.DatabaseDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s: %w", cfg.DatabaseDriver, err)
	}
	if err := svc.AutoMigrateAll(); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%s automigrate: %w", cfg.DatabaseDriver, err)
	}
	return svc, nil
}

func (a *App) healthChecks() map[string]httpH.HealthCheck {
	checks := map[string]httpH.HealthCheck{}
	if a.dbService != nil {
		gdb := a.dbService.DB()
		checks["database"] = func(ctx context.Context) error {
			sqlDB, err := gdb.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	}
	if a.redis != nil {
		rdb := a.redis
		checks["redis"] = func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}
	}
	return checks
}

// Run serves HTTP and runs the background workers until ctx is done or one
// of them fails.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	g, gctx := errgroup.WithContext(ctx)

	if a.Cfg.MetricsAddr != "" {
		a.Metrics.StartServer(gctx, a.Log, a.Cfg.MetricsAddr)
	}
	if a.dbService != nil && a.dbService.Driver() == db.DriverPostgres {
		a.Metrics.StartPostgresCollector(gctx, a.Log, a.dbService.DB(), a.Cfg.StoreStatsInterval)
	}
	if a.Cfg.RedisAddr != "" {
		a.Metrics.StartRedisCollector(gctx, a.Log, a.Cfg.RedisAddr, a.Cfg.StoreStatsInterval)
	}

	g.Go(func() error {
		return a.Server.Run(gctx, a.Cfg.HTTPAddr)
	})
	g.Go(func() error {
		return a.sweeper.Run(gctx)
	})
	return g.Wait()
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.shutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.shutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		cancel()
		a.shutdown = nil
	}
	if a.redisSink != nil {
		if err := a.redisSink.Close(); err != nil {
			a.Log.Warn("redis sink close failed", "error", err)
		}
		a.redisSink = nil
	}
	if a.redis != nil {
		_ = a.redis.Close()
		a.redis = nil
	}
	if a.dbService != nil {
		if err := a.dbService.Close(); err != nil {
			a.Log.Warn("database close failed", "error", err)
		}
		a.dbService = nil
	}
	a.Log.Sync()
}
