package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/eventboard/internal/service"
	"github.com/d60-Lab/eventboard/pkg/response"
)

// ListPostsAPI 查询全部活动
// @Summary 活动列表
// @Tags 活动
// @Produce json
// @Success 200 {object} response.Response{data=[]model.Post}
// @Failure 500 {object} response.Response
// @Router /api/v1/posts [get]
func (h *Handler) ListPostsAPI(c *gin.Context) {
	posts, err := h.postService.List(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, posts)
}

// GetPostAPI 查询单个活动
// @Summary 活动详情
// @Tags 活动
// @Produce json
// @Param id path int true "活动ID"
// @Success 200 {object} response.Response{data=model.Post}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/posts/{id} [get]
func (h *Handler) GetPostAPI(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		response.BadRequest(c, "invalid post id")
		return
	}
	post, err := h.postService.Get(c.Request.Context(), id)
	if errors.Is(err, service.ErrNotFound) {
		response.NotFound(c, "post not found")
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, post)
}
