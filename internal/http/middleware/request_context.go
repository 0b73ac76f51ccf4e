package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/lexdrill-backend/internal/http/response"
	"github.com/yungbote/lexdrill-backend/internal/platform/ctxutil"
)

const HeaderLearnerID = "X-Learner-Id"

// RequireLearner reads the learner identity set by the upstream gateway.
func RequireLearner() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderLearnerID))
		if raw == "" {
			response.RespondError(c, http.StatusUnauthorized, "missing_learner_id", errors.New("missing "+HeaderLearnerID+" header"))
			c.Abort()
			return
		}
		id, err := uuid.Parse(raw)
		if err != nil || id == uuid.Nil {
			response.RespondError(c, http.StatusUnauthorized, "invalid_learner_id", errors.New("invalid "+HeaderLearnerID+" header"))
			c.Abort()
			return
		}
		c.Request = c.Request.WithContext(ctxutil.WithLearnerID(c.Request.Context(), id))
		c.Set("learner_id", id.String())
		c.Next()
	}
}
