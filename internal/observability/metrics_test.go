package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestMetricsExposition(t *testing.T) {
	m := New()
	m.IncSessionOpened("practice")
	m.ObserveSessionClosed("practice", "completed", 40*time.Millisecond)
	m.IncSchedulerError("close_session", "store_transient")
	m.IncSchedulerError("close_session", "store_transient")
	m.IncAnswer(true)

	if got := m.SchedulerErrors("close_session", "store_transient"); got != 2 {
		t.Fatalf("scheduler errors = %v", got)
	}

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"# TYPE lexdrill_sessions_opened_total counter",
		`lexdrill_sessions_opened_total{kind="practice"} 1`,
		`lexdrill_scheduler_errors_total{op="close_session",code="store_transient"} 2`,
		`lexdrill_answers_total{correct="true"} 1`,
		`lexdrill_session_close_duration_seconds_count{reason="completed",status="success"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("exposition missing %q:\n%s", want, out)
		}
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.IncSessionOpened("practice")
	m.ObserveAPI("GET", "/x", "200", time.Millisecond)
	m.IncStoreConflict("learner.tx")
	if m.SchedulerErrors("x", "y") != 0 {
		t.Fatalf("nil metrics reported a value")
	}
	if err := m.WritePrometheus(&bytes.Buffer{}); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
}
