package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type traceDataKey struct{}

type learnerKey struct{}

type TraceData struct {
	TraceID   string
	RequestID string
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	val := ctx.Value(traceDataKey{})
	if td, ok := val.(*TraceData); ok {
		return td
	}
	return nil
}

// WithLearnerID records the learner the request acts for.
func WithLearnerID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, learnerKey{}, id)
}

func LearnerID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(learnerKey{}).(uuid.UUID)
	return id, ok && id != uuid.Nil
}
