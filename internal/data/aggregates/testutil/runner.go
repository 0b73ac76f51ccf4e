package testutil

import (
	"context"
	"sync"

	"github.com/yungbote/lexdrill-backend/internal/data/aggregates"
	"github.com/yungbote/lexdrill-backend/internal/platform/dbctx"
)

type Stage int

const (
	StageNone Stage = iota
	StageBegin
	StageCommit
)

// Fault fails one transaction at Stage with Err.
type Fault struct {
	Stage Stage
	Err   error
}

// ScriptedRunner is an in-memory TxRunner. Each InTx call consumes the next
// entry of Script; once the script is exhausted every call succeeds.
type ScriptedRunner struct {
	mu     sync.Mutex
	Script []Fault

	Calls     int
	Commits   int
	Rollbacks int
}

var _ aggregates.TxRunner = (*ScriptedRunner)(nil)

func (r *ScriptedRunner) next() Fault {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls++
	if len(r.Script) == 0 {
		return Fault{}
	}
	f := r.Script[0]
	r.Script = r.Script[1:]
	return f
}

func (r *ScriptedRunner) record(committed bool) {
	r.mu.Lock()
	if committed {
		r.Commits++
	} else {
		r.Rollbacks++
	}
	r.mu.Unlock()
}

func (r *ScriptedRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	f := r.next()
	if f.Stage == StageBegin {
		return f.Err
	}
	if fn != nil {
		if err := fn(dbctx.Context{Ctx: ctx}); err != nil {
			r.record(false)
			return err
		}
	}
	if f.Stage == StageCommit {
		r.record(false)
		return f.Err
	}
	r.record(true)
	return nil
}
