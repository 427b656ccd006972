package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/yatube/internal/middleware"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/response"
)

// ProfileFollow 关注作者后回到其主页；关注自己或重复关注不会新增记录
func (h *Handler) ProfileFollow(c *gin.Context) {
	username := c.Param("username")
	_, err := h.relService.Follow(c.Request.Context(), middleware.CurrentUser(c), username)
	if err != nil && !errors.Is(err, service.ErrFollowSelf) {
		h.handleError(c, err)
		return
	}
	c.Redirect(http.StatusFound, profileURL(username))
}

// ProfileUnfollow 取消关注；没有关注关系时返回 404
func (h *Handler) ProfileUnfollow(c *gin.Context) {
	username := c.Param("username")
	_, err := h.relService.Unfollow(c.Request.Context(), middleware.CurrentUser(c), username)
	if err != nil && !errors.Is(err, service.ErrFollowSelf) {
		h.handleError(c, err)
		return
	}
	c.Redirect(http.StatusFound, profileURL(username))
}

type followRequest struct {
	Username string `json:"username" binding:"required"`
}

type followResponse struct {
	Author    string `json:"author"`
	Following bool   `json:"following"`
}

// APIFollow 关注用户
// @Summary 关注用户
// @Tags 关系链
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body followRequest true "被关注的用户名"
// @Success 200 {object} response.Response{data=followResponse}
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/relations/follow [post]
func (h *Handler) APIFollow(c *gin.Context) {
	var req followRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	author, err := h.relService.Follow(c.Request.Context(), middleware.CurrentUser(c), req.Username)
	switch {
	case err == nil:
		response.Success(c, followResponse{Author: author.Username, Following: true})
	case errors.Is(err, service.ErrFollowSelf):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrNotFound):
		response.NotFound(c, "user not found")
	default:
		response.InternalError(c, err)
	}
}

// APIUnfollow 取消关注
// @Summary 取消关注
// @Tags 关系链
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body followRequest true "取消关注的用户名"
// @Success 200 {object} response.Response{data=followResponse}
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/relations/unfollow [post]
func (h *Handler) APIUnfollow(c *gin.Context) {
	var req followRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	author, err := h.relService.Unfollow(c.Request.Context(), middleware.CurrentUser(c), req.Username)
	switch {
	case err == nil:
		response.Success(c, followResponse{Author: author.Username, Following: false})
	case errors.Is(err, service.ErrFollowSelf):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrNotFound):
		response.NotFound(c, "user not found")
	case errors.Is(err, service.ErrNotFollowing):
		response.NotFound(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}

// ListFollowing 查询某用户关注的人
// @Summary 查询关注列表
// @Tags 关系链
// @Produce json
// @Param username path string true "用户名"
// @Param page query int false "页码" default(1)
// @Success 200 {object} response.Response{data=pageDTO[string]}
// @Failure 404 {object} response.Response
// @Router /api/v1/relations/{username}/following [get]
func (h *Handler) ListFollowing(c *gin.Context) {
	page, err := h.relService.ListFollowing(c.Request.Context(), c.Param("username"), c.Query("page"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, toPageDTO(page, func(name string) string { return name }))
}
