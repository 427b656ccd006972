package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/config"
	"github.com/d60-Lab/yatube/internal/middleware"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/internal/storage"
	"github.com/d60-Lab/yatube/pkg/logger"
)

// Handler 聚合所有 HTTP 处理函数
type Handler struct {
	postService  service.PostService
	relService   service.RelationshipService
	groupService service.GroupService
	authService  service.AuthService
	media        storage.MediaStorage
	cfg          *config.Config
}

func NewHandler(
	postService service.PostService,
	relService service.RelationshipService,
	groupService service.GroupService,
	authService service.AuthService,
	media storage.MediaStorage,
	cfg *config.Config,
) *Handler {
	return &Handler{
		postService:  postService,
		relService:   relService,
		groupService: groupService,
		authService:  authService,
		media:        media,
		cfg:          cfg,
	}
}

// render adds the current user to data before executing the template.
func (h *Handler) render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if u := middleware.CurrentUser(c); u != nil {
		data["user"] = u
	}
	c.HTML(status, name, data)
}

// NotFound renders the 404 page; it also serves unmatched routes.
func (h *Handler) NotFound(c *gin.Context) {
	h.render(c, http.StatusNotFound, "core/404.html", gin.H{"title": "Not found", "path": c.Request.URL.Path})
	c.Abort()
}

func (h *Handler) serverError(c *gin.Context, err error) {
	logger.Error("request failed",
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", c.GetString("request_id")),
	)
	_ = c.Error(err)
	h.render(c, http.StatusInternalServerError, "core/500.html", gin.H{"title": "Server error"})
	c.Abort()
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrNotFollowing):
		h.NotFound(c)
	default:
		h.serverError(c, err)
	}
}

// postID parses the :post_id path segment; anything but a positive integer is
// treated as an unknown route.
func postID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("post_id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func profileURL(username string) string {
	return "/profile/" + url.PathEscape(username) + "/"
}

func uintString(n uint) string { return strconv.FormatUint(uint64(n), 10) }

func postURL(id uint) string {
	return "/posts/" + uintString(id) + "/"
}
