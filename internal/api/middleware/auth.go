package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/eventboard/internal/session"
	"github.com/d60-Lab/eventboard/pkg/logger"
	"github.com/d60-Lab/eventboard/pkg/response"
)

// Session loads the caller's session and identity into the context.
// A session pointing at a deleted user is answered with 404 rather than
// being downgraded to anonymous.
func Session(m *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := m.Load(c); err != nil {
			if errors.Is(err, session.ErrDanglingIdentity) {
				logger.Warn("dangling session identity", zap.Error(err))
				_ = c.Error(err)
				response.Abort(c, http.StatusNotFound, "")
				return
			}
			response.AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

// RequireAuthenticated guards handlers that need a logged-in user;
// anonymous callers get 403 and the handler never runs.
func RequireAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !session.CurrentIdentity(c).IsAuthenticated() {
			response.Forbidden(c)
			return
		}
		c.Next()
	}
}
