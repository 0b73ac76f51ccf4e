package aggregates

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/lexdrill-backend/internal/domain/learning"
	"github.com/yungbote/lexdrill-backend/internal/platform/dbctx"
)

func TestGormTxRunnerNilDB(t *testing.T) {
	err := NewGormTxRunner(nil).InTx(context.Background(), func(dbctx.Context) error { return nil })
	if !learning.IsCode(err, learning.CodeStoreFatal) {
		t.Fatalf("expected store_fatal, got %v", err)
	}
}

func TestGormTxRunnerRetriesConflicts(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "tx.db")), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	tests := []struct {
		name    string
		failure error
		want    int
	}{
		{name: "lock conflict retried", failure: errors.New("database is locked"), want: 3},
		{name: "other errors returned at once", failure: errors.New("no such table"), want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := NewRetryingTxRunner(db, 3, 0)
			calls := 0
			err := runner.InTx(context.Background(), func(dbc dbctx.Context) error {
				calls++
				if dbc.Tx == nil {
					t.Fatalf("expected a transaction handle")
				}
				return tt.failure
			})
			if !errors.Is(err, tt.failure) {
				t.Fatalf("err = %v", err)
			}
			if calls != tt.want {
				t.Fatalf("calls = %d, want %d", calls, tt.want)
			}
		})
	}
}
