package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/eventboard/pkg/logger"
)

// Response JSON 统一返回结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: 0, Message: "success", Data: data})
}

func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Code: http.StatusBadRequest, Message: msg})
}

func NotFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, Response{Code: http.StatusNotFound, Message: msg})
}

func InternalError(c *gin.Context, err error) {
	logger.Error("internal error", zap.String("path", c.Request.URL.Path), zap.Error(err))
	c.JSON(http.StatusInternalServerError, Response{Code: http.StatusInternalServerError, Message: "internal server error"})
}

// ErrorTemplate is the page rendered by Abort.
const ErrorTemplate = "error.html"

// Abort renders the error page with status and stops the handler chain.
func Abort(c *gin.Context, status int, msg string) {
	if msg == "" {
		msg = defaultMessage(status)
	}
	c.HTML(status, ErrorTemplate, gin.H{
		"Title":   http.StatusText(status),
		"Status":  status,
		"Message": msg,
	})
	c.Abort()
}

// AbortWithError logs err and renders a 500 page.
func AbortWithError(c *gin.Context, err error) {
	logger.Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	_ = c.Error(err)
	Abort(c, http.StatusInternalServerError, "")
}

func Forbidden(c *gin.Context)    { Abort(c, http.StatusForbidden, "") }
func NotFoundPage(c *gin.Context) { Abort(c, http.StatusNotFound, "") }

func defaultMessage(status int) string {
	switch status {
	case http.StatusForbidden:
		return "You don't have the permission to access the requested resource."
	case http.StatusNotFound:
		return "The requested URL was not found on the server."
	case http.StatusConflict:
		return "The request conflicts with the current state of the server."
	case http.StatusBadRequest:
		return "The browser sent a request that this server could not understand."
	case http.StatusTooManyRequests:
		return "Too many requests, slow down and try again later."
	default:
		return "The server encountered an internal error and was unable to complete your request."
	}
}
