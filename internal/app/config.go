package app

import (
	"os"
	"strings"
	"time"

	"github.com/yungbote/lexdrill-backend/internal/data/db"
	"github.com/yungbote/lexdrill-backend/internal/modules/scheduler"
	"github.com/yungbote/lexdrill-backend/internal/modules/scheduler/session"
	"github.com/yungbote/lexdrill-backend/internal/platform/envutil"
	"github.com/yungbote/lexdrill-backend/internal/platform/logger"
)

const DriverMemory = "memory"

type Config struct {
	HTTPAddr    string
	LogMode     string
	ServiceName string
	Environment string
	CORSOrigins []string

	DatabaseDriver string
	Postgres       db.PostgresConfig
	SQLitePath     string
	// CatalogPath is an optional YAML item catalog loaded at startup.
	CatalogPath string

	RedisAddr    string
	RedisChannel string

	SweepInterval      time.Duration
	MetricsEnabled     bool
	MetricsAddr        string
	StoreStatsInterval time.Duration

	RewardTablePath string
	Scheduler       scheduler.Config
}

// envReader logs where each setting came from.
type envReader struct {
	log *logger.Logger
}

func (r envReader) lookup(key string) (string, bool) {
	val, ok := os.LookupEnv(key)
	val = strings.TrimSpace(val)
	if !ok || val == "" {
		r.log.Debug("Environment variable not found, using default", "env_var", key)
		return "", false
	}
	r.log.Debug("Environment variable found, using environment", "env_var", key)
	return val, true
}

func (r envReader) String(key, def string) string {
	r.lookup(key)
	return envutil.String(key, def)
}

func (r envReader) Int(key string, def int) int {
	r.lookup(key)
	return envutil.Int(key, def)
}

func (r envReader) Float(key string, def, min, max float64) float64 {
	r.lookup(key)
	return envutil.Float(key, def, min, max)
}

func (r envReader) Bool(key string, def bool) bool {
	r.lookup(key)
	return envutil.Bool(key, def)
}

func (r envReader) Duration(key string, def time.Duration) time.Duration {
	r.lookup(key)
	return envutil.Duration(key, def)
}

func (r envReader) List(key string) []string {
	raw, ok := r.lookup(key)
	if !ok {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func LoadConfig(log *logger.Logger) Config {
	if log == nil {
		log = logger.Nop()
	}
	env := envReader{log: log.With("component", "Config")}
	def := session.DefaultConfig()

	cfg := Config{
		HTTPAddr:    env.String("HTTP_ADDR", ":"+env.String("PORT", "8080")),
		LogMode:     env.String("LOG_MODE", "development"),
		ServiceName: env.String("SERVICE_NAME", "lexdrill"),
		Environment: env.String("APP_ENV", "development"),
		CORSOrigins: env.List("CORS_ORIGINS"),

		DatabaseDriver: strings.ToLower(env.String("DATABASE_DRIVER", db.DriverPostgres)),
		Postgres: db.PostgresConfig{
			Host:     env.String("POSTGRES_HOST", "localhost"),
			Port:     env.String("POSTGRES_PORT", "5432"),
			User:     env.String("POSTGRES_USER", "postgres"),
			Password: env.String("POSTGRES_PASSWORD", ""),
			Name:     env.String("POSTGRES_NAME", "lexdrill"),
			SSLMode:  env.String("POSTGRES_SSLMODE", "disable"),
		},
		SQLitePath:  env.String("SQLITE_PATH", "lexdrill.db"),
		CatalogPath: env.String("ITEM_CATALOG_PATH", ""),

		RedisAddr:    env.String("REDIS_ADDR", ""),
		RedisChannel: env.String("REDIS_EVENTS_CHANNEL", "lexdrill.events"),

		SweepInterval:      env.Duration("SCHEDULER_SWEEP_INTERVAL", 30*time.Second),
		MetricsEnabled:     env.Bool("METRICS_ENABLED", false),
		MetricsAddr:        env.String("METRICS_ADDR", ""),
		StoreStatsInterval: env.Duration("STORE_STATS_INTERVAL", 15*time.Second),

		RewardTablePath: env.String("SCHEDULER_REWARD_TABLE_PATH", ""),
		Scheduler: scheduler.Config{
			Session: session.Config{
				DefaultMaxItems:      env.Int("SCHEDULER_DEFAULT_MAX_ITEMS", def.DefaultMaxItems),
				MaxItemsLimit:        env.Int("SCHEDULER_MAX_ITEMS_LIMIT", def.MaxItemsLimit),
				AdjustmentRate:       env.Float("SCHEDULER_ADJUSTMENT_RATE", def.AdjustmentRate, 0.01, 1),
				PerformanceThreshold: env.Float("SCHEDULER_PERFORMANCE_THRESHOLD", def.PerformanceThreshold, 0.01, 1),
				ComplexityEMAWeight:  env.Float("SCHEDULER_COMPLEXITY_EMA_WEIGHT", def.ComplexityEMAWeight, 0.01, 1),
				StrengthEMAWeight:    env.Float("SCHEDULER_STRENGTH_EMA_WEIGHT", def.StrengthEMAWeight, 0.01, 1),
				WeakMinSamples:       env.Int("SCHEDULER_WEAK_MIN_SAMPLES", def.WeakMinSamples),
				WeakAccuracy:         env.Float("SCHEDULER_WEAK_ACCURACY", def.WeakAccuracy, 0.01, 1),
			},
			ClosedRetention: env.Duration("SCHEDULER_CLOSED_RETENTION", 24*time.Hour),
		},
	}
	switch cfg.DatabaseDriver {
	case DriverMemory, db.DriverPostgres, db.DriverSQLite:
	default:
		log.Warn("Unknown DATABASE_DRIVER, falling back to postgres", "driver", cfg.DatabaseDriver)
		cfg.DatabaseDriver = db.DriverPostgres
	}
	return cfg
}
