package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/lexdrill-backend/internal/http/handlers"
	httpMW "github.com/yungbote/lexdrill-backend/internal/http/middleware"
	"github.com/yungbote/lexdrill-backend/internal/observability"
	"github.com/yungbote/lexdrill-backend/internal/platform/logger"
)

const metricsPath = "/metrics"

type RouterConfig struct {
	ServiceName string
	CORSOrigins []string
	Log         *logger.Logger
	Metrics     *observability.Metrics

	SchedulerHandler *httpH.SchedulerHandler
	HealthHandler    *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "lexdrill"
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics, metricsPath))
	r.Use(httpMW.CORS(cfg.CORSOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET(metricsPath, gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	api.Use(httpMW.RequireLearner())
	if h := cfg.SchedulerHandler; h != nil {
		// Sessions
		api.POST("/sessions", h.OpenSession)
		api.GET("/sessions/:id", h.GetSession)
		api.POST("/sessions/:id/next", h.NextItem)
		api.POST("/sessions/:id/answers", h.SubmitAnswer)
		api.POST("/sessions/:id/close", h.CloseSession)

		// Learner
		api.GET("/reviews/due", h.DueReviews)
		api.GET("/profile", h.Profile)
		api.POST("/completions", h.ExternalCompletion)
	}

	return r
}
