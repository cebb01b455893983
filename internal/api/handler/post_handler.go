package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/eventboard/internal/form"
	"github.com/d60-Lab/eventboard/internal/service"
	"github.com/d60-Lab/eventboard/internal/session"
	"github.com/d60-Lab/eventboard/pkg/response"
)

// Home GET / 列出全部活动
func (h *Handler) Home(c *gin.Context) {
	posts, err := h.postService.List(c.Request.Context())
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	h.render(c, http.StatusOK, "index.html", gin.H{"Title": "Events", "Posts": posts})
}

// MakePostPage GET /make-post
func (h *Handler) MakePostPage(c *gin.Context) {
	h.render(c, http.StatusOK, "make-post.html", gin.H{"Title": "Create Event", "Form": &form.PostForm{}})
}

// MakePost POST /make-post
func (h *Handler) MakePost(c *gin.Context) {
	var f form.PostForm
	errs := form.Bind(c, &f)
	if errs != nil {
		h.render(c, http.StatusOK, "make-post.html", gin.H{"Title": "Create Event", "Form": &f, "Errors": errs})
		return
	}
	start, end, err := f.Dates()
	if err != nil {
		response.AbortWithError(c, err)
		return
	}

	author := session.CurrentIdentity(c).User
	_, err = h.postService.Create(c.Request.Context(), author, service.CreatePostInput{
		Title:     f.Title,
		Subtitle:  f.Subtitle,
		StartDate: start,
		EndDate:   end,
		Details:   f.Details,
		Contact:   f.Contact,
		JoinURL:   f.JoinURL,
	})
	if errors.Is(err, service.ErrTitleTaken) {
		errs = form.Errors{"title": "An event with this title already exists."}
		h.render(c, http.StatusOK, "make-post.html", gin.H{"Title": "Create Event", "Form": &f, "Errors": errs})
		return
	}
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	h.redirect(c, "/")
}

// Profile GET /profile/:username
// The username segment is not used: the page always lists the caller's own
// posts. Anonymous callers are sent to the login page.
func (h *Handler) Profile(c *gin.Context) {
	identity := session.CurrentIdentity(c)
	if !identity.IsAuthenticated() {
		h.redirect(c, "/login")
		return
	}
	posts, err := h.postService.ListByAuthor(c.Request.Context(), identity.User.ID)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	h.render(c, http.StatusOK, "profile.html", gin.H{"Title": identity.User.Name, "Posts": posts})
}

// ViewPost GET /post/:id
func (h *Handler) ViewPost(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		response.NotFoundPage(c)
		return
	}
	post, err := h.postService.Get(c.Request.Context(), id)
	if errors.Is(err, service.ErrNotFound) {
		response.NotFoundPage(c)
		return
	}
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	h.render(c, http.StatusOK, "post.html", gin.H{"Title": post.Title, "Post": post})
}

// DeletePost GET /delete/:id
// Any authenticated user may delete any post.
func (h *Handler) DeletePost(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		response.NotFoundPage(c)
		return
	}
	err := h.postService.Delete(c.Request.Context(), id)
	if errors.Is(err, service.ErrNotFound) {
		response.NotFoundPage(c)
		return
	}
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	h.redirect(c, "/")
}
