package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/eventboard/internal/session"
	"github.com/d60-Lab/eventboard/pkg/logger"
	"github.com/d60-Lab/eventboard/pkg/response"
)

// CSRF rejects state-changing form submissions without a valid token.
// A nil checker disables the check.
func CSRF(x *session.CSRF) gin.HandlerFunc {
	return func(c *gin.Context) {
		if x == nil {
			c.Next()
			return
		}
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}
		token := c.PostForm(session.CSRFFieldName)
		if token == "" {
			token = c.GetHeader("X-CSRF-Token")
		}
		if err := x.Check(c, token); err != nil {
			logger.Warn("csrf check failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
			response.Abort(c, http.StatusBadRequest, "The CSRF token is missing or invalid.")
			return
		}
		c.Next()
	}
}
