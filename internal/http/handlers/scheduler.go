package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/lexdrill-backend/internal/domain/learning"
	"github.com/yungbote/lexdrill-backend/internal/http/response"
	"github.com/yungbote/lexdrill-backend/internal/modules/scheduler"
	"github.com/yungbote/lexdrill-backend/internal/platform/ctxutil"
	"github.com/yungbote/lexdrill-backend/internal/platform/logger"
)

// Scheduler is the facade surface the handlers need.
type Scheduler interface {
	OpenSession(ctx context.Context, learnerID uuid.UUID, params learning.SessionParams) (scheduler.OpenResult, error)
	NextItem(ctx context.Context, sessionID uuid.UUID) (scheduler.NextResult, error)
	SubmitAnswer(ctx context.Context, sessionID uuid.UUID, in learning.AnswerInput) (learning.Feedback, error)
	CloseSession(ctx context.Context, sessionID uuid.UUID, reason learning.CloseReason) (learning.Summary, error)
	Session(sessionID uuid.UUID) (learning.Session, error)
	SessionOwner(sessionID uuid.UUID) (uuid.UUID, bool)
	DueReviews(ctx context.Context, learnerID uuid.UUID, window time.Duration) ([]scheduler.DueReview, error)
	ProfileSnapshot(ctx context.Context, learnerID uuid.UUID) (learning.Profile, error)
	ApplyExternalCompletion(ctx context.Context, learnerID, itemID uuid.UUID, score float64) (learning.Summary, error)
}

const defaultDueWindow = 24 * time.Hour

type SchedulerHandler struct {
	scheduler Scheduler
	log       *logger.Logger
}

func NewSchedulerHandler(s Scheduler, log *logger.Logger) *SchedulerHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &SchedulerHandler{scheduler: s, log: log.With("handler", "SchedulerHandler")}
}

func learnerFrom(c *gin.Context) (uuid.UUID, bool) {
	id, ok := ctxutil.LearnerID(c.Request.Context())
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "missing_learner_id", errors.New("no learner on request"))
	}
	return id, ok
}

// ownedSession resolves :id and makes sure it belongs to the caller. Other
// learners' sessions look like unknown ones.
func (h *SchedulerHandler) ownedSession(c *gin.Context) (uuid.UUID, bool) {
	learnerID, ok := learnerFrom(c)
	if !ok {
		return uuid.Nil, false
	}
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, string(learning.CodeInvalidParams), errors.New("invalid session id"))
		return uuid.Nil, false
	}
	owner, found := h.scheduler.SessionOwner(sessionID)
	if !found || owner != learnerID {
		response.RespondErr(c, learning.NewError(learning.CodeSessionNotFound, "http.session", "unknown session "+sessionID.String(), nil))
		return uuid.Nil, false
	}
	return sessionID, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.RespondError(c, http.StatusBadRequest, string(learning.CodeInvalidParams), err)
		return false
	}
	return true
}

// POST /api/sessions
func (h *SchedulerHandler) OpenSession(c *gin.Context) {
	learnerID, ok := learnerFrom(c)
	if !ok {
		return
	}
	var params learning.SessionParams
	if !bindJSON(c, &params) {
		return
	}
	res, err := h.scheduler.OpenSession(c.Request.Context(), learnerID, params)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": res})
}

// GET /api/sessions/:id
func (h *SchedulerHandler) GetSession(c *gin.Context) {
	sessionID, ok := h.ownedSession(c)
	if !ok {
		return
	}
	s, err := h.scheduler.Session(sessionID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"session": s})
}

// POST /api/sessions/:id/next
func (h *SchedulerHandler) NextItem(c *gin.Context) {
	sessionID, ok := h.ownedSession(c)
	if !ok {
		return
	}
	res, err := h.scheduler.NextItem(c.Request.Context(), sessionID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, res)
}

// POST /api/sessions/:id/answers
func (h *SchedulerHandler) SubmitAnswer(c *gin.Context) {
	sessionID, ok := h.ownedSession(c)
	if !ok {
		return
	}
	var in learning.AnswerInput
	if !bindJSON(c, &in) {
		return
	}
	fb, err := h.scheduler.SubmitAnswer(c.Request.Context(), sessionID, in)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"feedback": fb})
}

type closeSessionRequest struct {
	Reason string `json:"reason"`
}

// POST /api/sessions/:id/close
func (h *SchedulerHandler) CloseSession(c *gin.Context) {
	sessionID, ok := h.ownedSession(c)
	if !ok {
		return
	}
	var req closeSessionRequest
	if !bindJSON(c, &req) {
		return
	}
	reason, valid := learning.ParseCloseReason(strings.TrimSpace(req.Reason))
	if !valid {
		response.RespondErr(c, learning.Invalid("http.close", "unknown close reason %q", req.Reason))
		return
	}
	summary, err := h.scheduler.CloseSession(c.Request.Context(), sessionID, reason)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"summary": summary})
}

// GET /api/reviews/due?window=24h
func (h *SchedulerHandler) DueReviews(c *gin.Context) {
	learnerID, ok := learnerFrom(c)
	if !ok {
		return
	}
	window, err := parseWindow(c.Query("window"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	due, err := h.scheduler.DueReviews(c.Request.Context(), learnerID, window)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"reviews": due})
}

// parseWindow accepts a Go duration or a whole number of seconds.
func parseWindow(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultDueWindow, nil
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d, nil
	}
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return 0, learning.Invalid("http.due_reviews", "invalid window %q", raw)
}

// GET /api/profile
func (h *SchedulerHandler) Profile(c *gin.Context) {
	learnerID, ok := learnerFrom(c)
	if !ok {
		return
	}
	p, err := h.scheduler.ProfileSnapshot(c.Request.Context(), learnerID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"profile": p})
}

type externalCompletionRequest struct {
	ItemID uuid.UUID `json:"item_id"`
	Score  *float64  `json:"score"`
}

// POST /api/completions
func (h *SchedulerHandler) ExternalCompletion(c *gin.Context) {
	learnerID, ok := learnerFrom(c)
	if !ok {
		return
	}
	var req externalCompletionRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.ItemID == uuid.Nil || req.Score == nil {
		response.RespondErr(c, learning.Invalid("http.completion", "item_id and score are required"))
		return
	}
	summary, err := h.scheduler.ApplyExternalCompletion(c.Request.Context(), learnerID, req.ItemID, *req.Score)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	h.log.Debug("external completion recorded", "learner_id", learnerID.String(), "item_id", req.ItemID.String())
	response.RespondOK(c, gin.H{"summary": summary})
}
