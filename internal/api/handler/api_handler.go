package handler

import (
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/d60-Lab/yatube/internal/middleware"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/pagination"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/response"
)

type postDTO struct {
	ID      uint      `json:"id"`
	Text    string    `json:"text"`
	PubDate time.Time `json:"pub_date"`
	Author  string    `json:"author"`
	Group   *string   `json:"group"`
	Image   *string   `json:"image"`
}

type commentDTO struct {
	ID      uint      `json:"id"`
	Author  string    `json:"author"`
	Text    string    `json:"text"`
	Created time.Time `json:"created"`
}

type postDetailDTO struct {
	postDTO
	AuthorPostsCount int64        `json:"author_posts_count"`
	Comments         []commentDTO `json:"comments"`
}

type groupDTO struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

type pageDTO[T any] struct {
	Count    int64 `json:"count"`
	Page     int   `json:"page"`
	NumPages int   `json:"num_pages"`
	Next     *int  `json:"next"`
	Previous *int  `json:"previous"`
	Results  []T   `json:"results"`
}

func toPageDTO[T, U any](p *pagination.Page[T], fn func(T) U) pageDTO[U] {
	out := pageDTO[U]{
		Count:    p.Count,
		Page:     p.Number,
		NumPages: p.NumPages,
		Results:  lo.Map(p.Items, func(item T, _ int) U { return fn(item) }),
	}
	if p.HasNext() {
		out.Next = lo.ToPtr(p.NextNumber())
	}
	if p.HasPrevious() {
		out.Previous = lo.ToPtr(p.PreviousNumber())
	}
	return out
}

func (h *Handler) toPostDTO(p *model.Post) postDTO {
	dto := postDTO{ID: p.ID, Text: p.Text, PubDate: p.PubDate, Author: p.Author.Username}
	if p.Group != nil {
		dto.Group = lo.ToPtr(p.Group.Slug)
	}
	if p.Image != "" {
		dto.Image = lo.ToPtr(h.media.URL(p.Image))
	}
	return dto
}

func toCommentDTO(c *model.Comment, _ int) commentDTO {
	dto := commentDTO{ID: c.ID, Text: c.Text, Created: c.Created}
	if c.Author != nil {
		dto.Author = c.Author.Username
	}
	return dto
}

func toGroupDTO(g *model.Group) groupDTO {
	return groupDTO{ID: g.ID, Title: g.Title, Slug: g.Slug, Description: g.Description}
}

// APIIndex 帖子列表
// @Summary 最新帖子
// @Tags 帖子
// @Produce json
// @Param page query int false "页码" default(1)
// @Success 200 {object} response.Response{data=pageDTO[postDTO]}
// @Router /api/v1/posts [get]
func (h *Handler) APIIndex(c *gin.Context) {
	page, err := h.postService.Index(c.Request.Context(), c.Query("page"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, toPageDTO(page, h.toPostDTO))
}

// APIGroupPosts 分组下的帖子
// @Summary 分组帖子
// @Tags 帖子
// @Produce json
// @Param slug path string true "分组 slug"
// @Param page query int false "页码" default(1)
// @Success 200 {object} response.Response{data=pageDTO[postDTO]}
// @Failure 404 {object} response.Response
// @Router /api/v1/groups/{slug}/posts [get]
func (h *Handler) APIGroupPosts(c *gin.Context) {
	_, page, err := h.postService.GroupPosts(c.Request.Context(), c.Param("slug"), c.Query("page"))
	if err != nil {
		h.apiError(c, err, "group not found")
		return
	}
	response.Success(c, toPageDTO(page, h.toPostDTO))
}

// APIProfilePosts 作者的帖子
// @Summary 作者帖子
// @Tags 帖子
// @Produce json
// @Param username path string true "用户名"
// @Param page query int false "页码" default(1)
// @Success 200 {object} response.Response{data=pageDTO[postDTO]}
// @Failure 404 {object} response.Response
// @Router /api/v1/profiles/{username}/posts [get]
func (h *Handler) APIProfilePosts(c *gin.Context) {
	view, err := h.postService.Profile(c.Request.Context(), c.Param("username"), middleware.CurrentUser(c), c.Query("page"))
	if err != nil {
		h.apiError(c, err, "user not found")
		return
	}
	response.Success(c, toPageDTO(view.Page, h.toPostDTO))
}

// APIPostDetail 帖子详情（含评论）
// @Summary 帖子详情
// @Tags 帖子
// @Produce json
// @Param id path int true "帖子 ID"
// @Success 200 {object} response.Response{data=postDetailDTO}
// @Failure 404 {object} response.Response
// @Router /api/v1/posts/{id} [get]
func (h *Handler) APIPostDetail(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		response.NotFound(c, "post not found")
		return
	}
	detail, err := h.postService.Detail(c.Request.Context(), uint(id))
	if err != nil {
		h.apiError(c, err, "post not found")
		return
	}
	response.Success(c, postDetailDTO{
		postDTO:          h.toPostDTO(detail.Post),
		AuthorPostsCount: detail.AuthorPostsCount,
		Comments:         lo.Map(detail.Comments, toCommentDTO),
	})
}

// APIFeed 关注作者的帖子
// @Summary 订阅流
// @Tags 帖子
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Success 200 {object} response.Response{data=pageDTO[postDTO]}
// @Failure 401 {object} response.Response
// @Router /api/v1/feed [get]
func (h *Handler) APIFeed(c *gin.Context) {
	page, err := h.postService.Feed(c.Request.Context(), middleware.CurrentUser(c), c.Query("page"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, toPageDTO(page, h.toPostDTO))
}

type groupRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	Slug        string `json:"slug" binding:"required,max=50,slug"`
	Description string `json:"description"`
}

// CreateGroup 创建分组（仅管理员）
// @Summary 创建分组
// @Tags 管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body groupRequest true "分组信息"
// @Success 201 {object} response.Response{data=groupDTO}
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/admin/groups [post]
func (h *Handler) CreateGroup(c *gin.Context) {
	var req groupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, bindingMessage(err))
		return
	}
	group, err := h.groupService.Create(c.Request.Context(), service.GroupInput{
		Title:       req.Title,
		Slug:        req.Slug,
		Description: req.Description,
	})
	switch {
	case err == nil:
		response.Created(c, toGroupDTO(group))
	case errors.Is(err, service.ErrSlugTaken), errors.Is(err, service.ErrInvalidSlug):
		response.BadRequest(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}

// DeleteGroup 删除分组，帖子保留但不再属于任何分组
// @Summary 删除分组
// @Tags 管理
// @Produce json
// @Security BearerAuth
// @Param slug path string true "分组 slug"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/admin/groups/{slug} [delete]
func (h *Handler) DeleteGroup(c *gin.Context) {
	if err := h.groupService.Delete(c.Request.Context(), c.Param("slug")); err != nil {
		h.apiError(c, err, "group not found")
		return
	}
	response.Success(c, nil)
}

// DeletePost 删除帖子及其评论（仅管理员）
// @Summary 删除帖子
// @Tags 管理
// @Produce json
// @Security BearerAuth
// @Param id path int true "帖子 ID"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/admin/posts/{id} [delete]
func (h *Handler) DeletePost(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		response.NotFound(c, "post not found")
		return
	}
	if err := h.postService.Delete(c.Request.Context(), uint(id)); err != nil {
		h.apiError(c, err, "post not found")
		return
	}
	response.Success(c, nil)
}

func (h *Handler) apiError(c *gin.Context, err error, notFoundMsg string) {
	if errors.Is(err, service.ErrNotFound) {
		response.NotFound(c, notFoundMsg)
		return
	}
	response.InternalError(c, err)
}

// bindingMessage flattens field errors into "field: message" pairs.
func bindingMessage(err error) string {
	fields := fieldErrors(err)
	if msg, ok := fields[formErrorKey]; ok && len(fields) == 1 {
		return msg
	}
	keys := lo.Keys(fields)
	sort.Strings(keys)
	return strings.Join(lo.Map(keys, func(k string, _ int) string { return k + ": " + fields[k] }), "; ")
}
