package aggregates

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/yungbote/lexdrill-backend/internal/domain/learning"
	"github.com/yungbote/lexdrill-backend/internal/observability"
	"github.com/yungbote/lexdrill-backend/internal/platform/dbctx"
	"github.com/yungbote/lexdrill-backend/internal/platform/logger"
)

type BaseDeps struct {
	DB     *gorm.DB
	Log    *logger.Logger
	Runner TxRunner
	Hooks  Hooks
}

func (d BaseDeps) withDefaults() BaseDeps {
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks{}
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	return d
}

var tracer = observability.Tracer("lexdrill/store")

// executeWrite runs fn in one transaction and reports the outcome to the
// hooks. Errors come back carrying a scheduler code.
func executeWrite(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	deps = deps.withDefaults()
	op = strings.TrimSpace(op)
	if op == "" {
		op = "aggregate.write"
	}
	ctx, span := tracer.Start(ctx, op)
	defer span.End()

	start := time.Now()
	err := deps.Runner.InTx(ctx, fn)
	mapped := MapError(op, err)
	status := aggregateErrorStatus(mapped)

	if mapped != nil {
		if isConflict(err) {
			deps.Hooks.IncConflict(op)
		}
		if learning.Retryable(mapped) {
			deps.Hooks.IncRetry(op)
		}
		span.RecordError(mapped)
		span.SetStatus(codes.Error, status)
	}
	span.SetAttributes(attribute.String("store.status", status))
	deps.Hooks.ObserveOperation(op, status, time.Since(start))
	return mapped
}

func aggregateErrorStatus(err error) string {
	if err == nil {
		return "success"
	}
	code := learning.CodeOf(err)
	if code == "" {
		code = learning.CodeOf(MapError("aggregate.status", err))
	}
	if code == "" {
		return "failure"
	}
	return string(code)
}
