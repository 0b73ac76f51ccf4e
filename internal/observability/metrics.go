package observability

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/lexdrill-backend/internal/platform/envutil"
	"github.com/yungbote/lexdrill-backend/internal/platform/logger"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge

	sessionsOpened       *CounterVec
	sessionsClosed       *CounterVec
	sessionsActive       *Gauge
	closeLatency         *HistogramVec
	answers              *CounterVec
	levelUps             *CounterVec
	challengeCompletions *CounterVec
	externalCompletions  *CounterVec
	schedulerErrors      *CounterVec
	sweeperClosed        *CounterVec

	storeOps       *HistogramVec
	storeConflicts *CounterVec
	storeRetries   *CounterVec

	pgStats   *GaugeVec
	redisUp   *Gauge
	redisPing *Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

func Current() *Metrics {
	return instance
}

// Init returns the process-wide metrics, or nil when METRICS_ENABLED is off.
// Every method on a nil *Metrics is a no-op.
func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = New()
		if log != nil {
			log.Info("metrics enabled")
		}
	})
	return instance
}

// New builds an unregistered Metrics set.
func New() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("lexdrill_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"lexdrill_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]string{"method", "route", "status"},
			[]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		),
		apiInflight: NewGauge("lexdrill_api_inflight_requests", "In-flight API requests."),

		sessionsOpened: NewCounterVec("lexdrill_sessions_opened_total", "Sessions opened by kind.", []string{"kind"}),
		sessionsClosed: NewCounterVec("lexdrill_sessions_closed_total", "Sessions closed by kind and reason.", []string{"kind", "reason"}),
		sessionsActive: NewGauge("lexdrill_sessions_active", "Sessions currently running."),
		closeLatency: NewHistogramVec(
			"lexdrill_session_close_duration_seconds",
			"Session close latency including the learner transaction.",
			[]string{"reason", "status"},
			nil,
		),
		answers:              NewCounterVec("lexdrill_answers_total", "Answers graded by correctness.", []string{"correct"}),
		levelUps:             NewCounterVec("lexdrill_level_ups_total", "Level-up transitions.", nil),
		challengeCompletions: NewCounterVec("lexdrill_challenge_completions_total", "Daily challenge completions by kind.", []string{"kind"}),
		externalCompletions:  NewCounterVec("lexdrill_external_completions_total", "Completions recorded outside a session by outcome.", []string{"pass"}),
		schedulerErrors:      NewCounterVec("lexdrill_scheduler_errors_total", "Scheduler operation failures by operation and error code.", []string{"op", "code"}),
		sweeperClosed:        NewCounterVec("lexdrill_sweeper_closed_total", "Sessions closed by the timeout sweeper by status.", []string{"status"}),

		storeOps: NewHistogramVec(
			"lexdrill_store_operation_duration_seconds",
			"Learner store transaction latency by operation/status.",
			[]string{"op", "status"},
			nil,
		),
		storeConflicts: NewCounterVec("lexdrill_store_conflicts_total", "Learner store conflicts by operation.", []string{"op"}),
		storeRetries:   NewCounterVec("lexdrill_store_retryable_total", "Retryable learner store failures by operation.", []string{"op"}),

		pgStats:   NewGaugeVec("lexdrill_postgres_pool", "Postgres connection pool stats.", []string{"stat"}),
		redisUp:   NewGauge("lexdrill_redis_up", "Redis reachability (1 up, 0 down)."),
		redisPing: NewGauge("lexdrill_redis_ping_seconds", "Redis ping latency in seconds."),
	}
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

type promWriter interface {
	WritePrometheus(w io.Writer) error
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, c := range []promWriter{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.sessionsOpened, m.sessionsClosed, m.sessionsActive, m.closeLatency,
		m.answers, m.levelUps, m.challengeCompletions, m.externalCompletions,
		m.schedulerErrors, m.sweeperClosed,
		m.storeOps, m.storeConflicts, m.storeRetries,
		m.pgStats, m.redisUp, m.redisPing,
	} {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) IncSessionOpened(kind string) {
	if m == nil {
		return
	}
	m.sessionsOpened.Inc(kind)
	m.sessionsActive.Inc()
}

func (m *Metrics) ObserveSessionClosed(kind, reason string, dur time.Duration) {
	if m == nil {
		return
	}
	m.sessionsClosed.Inc(kind, reason)
	m.sessionsActive.Dec()
	m.closeLatency.Observe(dur.Seconds(), reason, "success")
}

func (m *Metrics) ObserveSessionCloseFailed(reason string, dur time.Duration) {
	if m == nil {
		return
	}
	m.closeLatency.Observe(dur.Seconds(), reason, "failure")
}

func (m *Metrics) IncAnswer(correct bool) {
	if m == nil {
		return
	}
	m.answers.Inc(strconv.FormatBool(correct))
}

func (m *Metrics) IncLevelUp() {
	if m == nil {
		return
	}
	m.levelUps.Inc()
}

func (m *Metrics) IncChallengeCompleted(kind string) {
	if m == nil {
		return
	}
	m.challengeCompletions.Inc(kind)
}

func (m *Metrics) IncExternalCompletion(pass bool) {
	if m == nil {
		return
	}
	m.externalCompletions.Inc(strconv.FormatBool(pass))
}

func (m *Metrics) IncSchedulerError(op, code string) {
	if m == nil {
		return
	}
	m.schedulerErrors.Inc(op, code)
}

func (m *Metrics) IncSweeperClosed(status string) {
	if m == nil {
		return
	}
	m.sweeperClosed.Inc(status)
}

func (m *Metrics) SchedulerErrors(op, code string) float64 {
	if m == nil {
		return 0
	}
	return m.schedulerErrors.Value(op, code)
}

func (m *Metrics) ObserveStoreOperation(op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.storeOps.Observe(dur.Seconds(), op, status)
}

func (m *Metrics) IncStoreConflict(op string) {
	if m == nil {
		return
	}
	m.storeConflicts.Inc(op)
}

func (m *Metrics) IncStoreRetry(op string) {
	if m == nil {
		return
	}
	m.storeRetries.Inc(op)
}

func (m *Metrics) StartPostgresCollector(ctx context.Context, log *logger.Logger, db *gorm.DB, interval time.Duration) {
	if m == nil || db == nil {
		return
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: postgres stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.pgStats.Set(float64(stats.OpenConnections), "open_connections")
				m.pgStats.Set(float64(stats.InUse), "in_use")
				m.pgStats.Set(float64(stats.Idle), "idle")
				m.pgStats.Set(float64(stats.WaitCount), "wait_count")
				m.pgStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
			}
		}
	}()
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, addr string, interval time.Duration) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = rdb.Close()
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Add(-m.redisUp.Value())
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Add(1 - m.redisUp.Value())
				m.redisPing.Add(time.Since(start).Seconds() - m.redisPing.Value())
			}
		}
	}()
}
