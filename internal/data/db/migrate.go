package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/lexdrill-backend/internal/domain/learning"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(learning.Records()...)
}

// EnsureSchedulerIndexes adds the Postgres-only partial indexes.
func EnsureSchedulerIndexes(db *gorm.DB) error {
	// Due-review scans only look at completed rows.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_review_state_learner_due
		ON review_state (learner_id, next_due)
		WHERE completed;
	`).Error; err != nil {
		return fmt.Errorf("create idx_review_state_learner_due: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_session_log_learner_closed
		ON session_log (learner_id, closed_at DESC);
	`).Error; err != nil {
		return fmt.Errorf("create idx_session_log_learner_closed: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_learner_boost_active
		ON learner_boost (learner_id, starts_at, ends_at);
	`).Error; err != nil {
		return fmt.Errorf("create idx_learner_boost_active: %w", err)
	}
	return nil
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating scheduler tables...", "driver", s.driver)
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if s.driver != DriverPostgres {
		return nil
	}
	if err := EnsureSchedulerIndexes(s.db); err != nil {
		s.log.Error("Scheduler index migration failed", "error", err)
		return err
	}
	return nil
}
