package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// About 关于页面（静态）
func (h *Handler) About(c *gin.Context) {
	h.render(c, http.StatusOK, "about.html", gin.H{"Title": "About"})
}
