package app

import (
	"testing"
	"time"

	"github.com/yungbote/lexdrill-backend/internal/data/db"
	"github.com/yungbote/lexdrill-backend/internal/platform/logger"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"HTTP_ADDR", "PORT", "DATABASE_DRIVER", "SCHEDULER_SWEEP_INTERVAL", "SCHEDULER_CLOSED_RETENTION"} {
		t.Setenv(key, "")
	}
	cfg := LoadConfig(logger.Nop())
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.DatabaseDriver != db.DriverPostgres {
		t.Fatalf("DatabaseDriver = %q", cfg.DatabaseDriver)
	}
	if cfg.SweepInterval != 30*time.Second || cfg.Scheduler.ClosedRetention != 24*time.Hour {
		t.Fatalf("intervals = %v %v", cfg.SweepInterval, cfg.Scheduler.ClosedRetention)
	}
	if cfg.Scheduler.Session.DefaultMaxItems <= 0 {
		t.Fatalf("DefaultMaxItems = %d", cfg.Scheduler.Session.DefaultMaxItems)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_DRIVER", "MEMORY")
	t.Setenv("CORS_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("SCHEDULER_SWEEP_INTERVAL", "5s")
	t.Setenv("SCHEDULER_DEFAULT_MAX_ITEMS", "12")
	t.Setenv("SCHEDULER_ADJUSTMENT_RATE", "0.25")

	cfg := LoadConfig(logger.Nop())
	if cfg.HTTPAddr != ":9090" {
		t.Fatalf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.DatabaseDriver != DriverMemory {
		t.Fatalf("DatabaseDriver = %q", cfg.DatabaseDriver)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.SweepInterval != 5*time.Second {
		t.Fatalf("SweepInterval = %v", cfg.SweepInterval)
	}
	if cfg.Scheduler.Session.DefaultMaxItems != 12 || cfg.Scheduler.Session.AdjustmentRate != 0.25 {
		t.Fatalf("session config = %+v", cfg.Scheduler.Session)
	}
}

func TestLoadConfigUnknownDriverFallsBack(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "mongo")
	if got := LoadConfig(logger.Nop()).DatabaseDriver; got != db.DriverPostgres {
		t.Fatalf("DatabaseDriver = %q", got)
	}
}
