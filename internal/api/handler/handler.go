package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/eventboard/internal/form"
	"github.com/d60-Lab/eventboard/internal/service"
	"github.com/d60-Lab/eventboard/internal/session"
	"github.com/d60-Lab/eventboard/pkg/response"
)

// Handler serves every page and API route.
type Handler struct {
	authService service.AuthService
	postService service.PostService
	sessions    *session.Manager
	csrf        *session.CSRF // nil when anti-forgery tokens are disabled
}

func NewHandler(authService service.AuthService, postService service.PostService, sessions *session.Manager, csrf *session.CSRF) *Handler {
	return &Handler{authService: authService, postService: postService, sessions: sessions, csrf: csrf}
}

// render fills in the data every page layout needs and writes the template.
func (h *Handler) render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	identity := session.CurrentIdentity(c)
	data["CurrentUser"] = identity.User
	data["LoggedIn"] = identity.IsAuthenticated()
	data["Year"] = time.Now().Year()
	if _, ok := data["Errors"]; !ok {
		data["Errors"] = form.Errors(nil)
	}

	flashes, err := h.sessions.Flashes(c)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	data["Flashes"] = flashes

	if h.csrf != nil {
		token, err := h.csrf.Token(c)
		if err != nil {
			response.AbortWithError(c, err)
			return
		}
		data["CSRFToken"] = token
	}
	c.HTML(status, name, data)
}

func (h *Handler) redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusFound, location)
}

func (h *Handler) redirectWithFlash(c *gin.Context, location, msg string) {
	if err := h.sessions.AddFlash(c, msg); err != nil {
		response.AbortWithError(c, err)
		return
	}
	h.redirect(c, location)
}

// postIDParam parses :id; anything but a positive integer is a 404,
// matching an int route converter.
func postIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
