package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/eventboard/internal/form"
	"github.com/d60-Lab/eventboard/internal/service"
	"github.com/d60-Lab/eventboard/pkg/response"
)

const (
	msgEmailRegistered = "This email is already registered with another account, login instead!"
	msgInvalidPassword = "Invalid Password, try again!"
	msgInvalidEmail    = "Invalid Email, please try again!"
)

// RegisterPage GET /register
func (h *Handler) RegisterPage(c *gin.Context) {
	h.render(c, http.StatusOK, "register.html", gin.H{"Title": "Sign Up", "Form": &form.RegistrationForm{}})
}

// Register POST /register
func (h *Handler) Register(c *gin.Context) {
	var f form.RegistrationForm
	if errs := form.Bind(c, &f); errs != nil {
		f.Password = ""
		h.render(c, http.StatusOK, "register.html", gin.H{"Title": "Sign Up", "Form": &f, "Errors": errs})
		return
	}

	user, err := h.authService.Register(c.Request.Context(), service.RegisterInput{
		Email:    f.Email,
		Password: f.Password,
		Name:     f.Name,
	})
	switch {
	case errors.Is(err, service.ErrEmailTaken):
		h.redirectWithFlash(c, "/login", msgEmailRegistered)
		return
	case errors.Is(err, service.ErrConflict):
		response.Abort(c, http.StatusConflict, "This email was registered by another request at the same time, try logging in.")
		return
	case err != nil:
		response.AbortWithError(c, err)
		return
	}

	if err := h.sessions.Establish(c, user); err != nil {
		response.AbortWithError(c, err)
		return
	}
	h.redirect(c, "/")
}

// LoginPage GET /login
func (h *Handler) LoginPage(c *gin.Context) {
	h.render(c, http.StatusOK, "login.html", gin.H{"Title": "Log In", "Form": &form.LoginForm{}})
}

// Login POST /login
func (h *Handler) Login(c *gin.Context) {
	var f form.LoginForm
	if errs := form.Bind(c, &f); errs != nil {
		f.Password = ""
		h.render(c, http.StatusOK, "login.html", gin.H{"Title": "Log In", "Form": &f, "Errors": errs})
		return
	}

	user, err := h.authService.Login(c.Request.Context(), f.Email, f.Password)
	switch {
	case errors.Is(err, service.ErrUnknownEmail):
		h.redirectWithFlash(c, "/login", msgInvalidEmail)
		return
	case errors.Is(err, service.ErrWrongPassword):
		h.redirectWithFlash(c, "/login", msgInvalidPassword)
		return
	case err != nil:
		response.AbortWithError(c, err)
		return
	}

	if err := h.sessions.Establish(c, user); err != nil {
		response.AbortWithError(c, err)
		return
	}
	h.redirect(c, "/")
}

// Logout GET /logout
func (h *Handler) Logout(c *gin.Context) {
	if err := h.sessions.End(c); err != nil {
		response.AbortWithError(c, err)
		return
	}
	h.redirect(c, "/")
}
