package aggregates

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/lexdrill-backend/internal/domain/learning"
	"github.com/yungbote/lexdrill-backend/internal/platform/dbctx"
)

// TxRunner opens the transaction a learner write runs in.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

const (
	defaultTxAttempts = 3
	defaultTxBackoff  = 25 * time.Millisecond
)

// gormTxRunner re-runs fn when the database aborts the transaction over
// lock contention. fn must not keep side effects outside the transaction.
type gormTxRunner struct {
	db       *gorm.DB
	attempts int
	backoff  time.Duration
}

func NewGormTxRunner(db *gorm.DB) TxRunner {
	return NewRetryingTxRunner(db, defaultTxAttempts, defaultTxBackoff)
}

// NewRetryingTxRunner tries each transaction up to attempts times, sleeping
// backoff*n before the n-th retry.
func NewRetryingTxRunner(db *gorm.DB, attempts int, backoff time.Duration) TxRunner {
	if attempts < 1 {
		attempts = 1
	}
	if backoff < 0 {
		backoff = 0
	}
	return &gormTxRunner{db: db, attempts: attempts, backoff: backoff}
}

func (r *gormTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	if r == nil || r.db == nil {
		return learning.NewError(learning.CodeStoreFatal, "aggregate.tx", "transaction runner has nil db", nil)
	}
	for attempt := 1; ; attempt++ {
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(dbctx.Context{Ctx: ctx, Tx: tx})
		})
		if err == nil || attempt >= r.attempts || !isConflict(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(r.backoff * time.Duration(attempt)):
		}
	}
}
