package api

import (
	"fmt"
	"strings"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/config"
	_ "github.com/d60-Lab/yatube/docs"
	"github.com/d60-Lab/yatube/internal/api/handler"
	"github.com/d60-Lab/yatube/internal/cache"
	"github.com/d60-Lab/yatube/internal/middleware"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/internal/storage"
	"github.com/d60-Lab/yatube/internal/web"
	"github.com/d60-Lab/yatube/pkg/metrics"
)

// Options 路由可选项
type Options struct {
	Sentry bool
}

// New 组装仓储、服务与处理器并返回路由
func New(cfg *config.Config, db *gorm.DB, pages cache.Store, opts Options) (*gin.Engine, error) {
	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	followRepo := repository.NewFollowRepository(db)

	media := storage.NewLocalStorage(cfg.Media.Root, cfg.Media.URL, cfg.Media.MaxUploadMB<<20)
	perPage := cfg.Pagination.PerPage

	authService := service.NewAuthService(userRepo, cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)
	h := handler.NewHandler(
		service.NewPostService(postRepo, commentRepo, groupRepo, userRepo, followRepo, media, perPage),
		service.NewRelationshipService(followRepo, userRepo, perPage),
		service.NewGroupService(groupRepo),
		authService,
		media,
		cfg,
	)
	return SetupRouter(cfg, h, authService, media, pages, opts)
}

// SetupRouter 注册中间件与路由
func SetupRouter(
	cfg *config.Config,
	h *handler.Handler,
	authService service.AuthService,
	media storage.MediaStorage,
	pages cache.Store,
	opts Options,
) (*gin.Engine, error) {
	if err := handler.RegisterValidators(); err != nil {
		return nil, err
	}
	tmpl, err := web.Templates(media.URL)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.MaxMultipartMemory = 8 << 20

	r.Use(middleware.RequestID(), middleware.Logger())
	if opts.Sentry {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	r.Use(middleware.Recovery())
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	r.Use(
		middleware.Metrics(),
		gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics", cfg.Media.URL})),
		middleware.Session(authService, cfg.Auth.CookieName),
	)

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.Static(strings.TrimSuffix(cfg.Media.URL, "/"), cfg.Media.Root)

	login := middleware.LoginRequired(cfg.Auth.LoginURL)
	limiter := middleware.NewIPRateLimiter(cfg.RateLimit.LoginRPS, cfg.RateLimit.LoginBurst)

	// 首页走页面缓存，key 区分访客与分页
	r.GET("/", cache.Page(pages, cfg.Cache.IndexTTL, indexCacheKey), h.Index)
	r.GET("/group/:slug/", h.GroupPosts)
	r.GET("/profile/:username/", h.Profile)
	r.GET("/profile/:username/follow/", login, h.ProfileFollow)
	r.GET("/profile/:username/unfollow/", login, h.ProfileUnfollow)
	r.GET("/posts/:post_id/", h.PostDetail)
	r.GET("/posts/:post_id/edit/", login, h.PostEdit)
	r.POST("/posts/:post_id/edit/", login, h.PostEdit)
	r.POST("/posts/:post_id/comment/", login, h.AddComment)
	r.GET("/create/", login, h.PostCreate)
	r.POST("/create/", login, h.PostCreate)
	r.GET("/follow/", login, h.FollowIndex)

	auth := r.Group("/auth")
	{
		auth.GET("/signup/", h.Signup)
		auth.POST("/signup/", h.Signup)
		auth.GET("/login/", h.Login)
		auth.POST("/login/", middleware.RateLimit(limiter), h.Login)
		auth.GET("/logout/", h.Logout)
		auth.POST("/logout/", h.Logout)
	}

	v1 := r.Group("/api/v1")
	{
		v1.GET("/posts", h.APIIndex)
		v1.GET("/posts/:id", h.APIPostDetail)
		v1.GET("/groups/:slug/posts", h.APIGroupPosts)
		v1.GET("/profiles/:username/posts", h.APIProfilePosts)
		v1.GET("/relations/:username/following", h.ListFollowing)

		authed := v1.Group("", middleware.APIAuthRequired())
		authed.GET("/feed", h.APIFeed)
		authed.POST("/relations/follow", h.APIFollow)
		authed.POST("/relations/unfollow", h.APIUnfollow)

		admin := authed.Group("/admin", middleware.StaffRequired())
		admin.POST("/groups", h.CreateGroup)
		admin.DELETE("/groups/:slug", h.DeleteGroup)
		admin.DELETE("/posts/:id", h.DeletePost)
	}

	r.NoRoute(h.NotFound)
	return r, nil
}

func indexCacheKey(c *gin.Context) string {
	viewer := "anon"
	if u := middleware.CurrentUser(c); u != nil {
		viewer = fmt.Sprintf("%d", u.ID)
	}
	return "index:" + viewer + ":" + c.Request.URL.RequestURI()
}
