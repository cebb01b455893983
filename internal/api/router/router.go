package router

import (
	"fmt"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/d60-Lab/eventboard/docs"
	"github.com/d60-Lab/eventboard/internal/api/handler"
	"github.com/d60-Lab/eventboard/internal/api/middleware"
	"github.com/d60-Lab/eventboard/internal/session"
	"github.com/d60-Lab/eventboard/pkg/response"
	"github.com/d60-Lab/eventboard/web"
)

// Options 路由依赖
type Options struct {
	Handler  *handler.Handler
	Sessions *session.Manager
	CSRF     *session.CSRF // nil disables anti-forgery checks
	Limiter  *middleware.IPRateLimiter
	DB       *gorm.DB

	// TrustedProxies may set X-Forwarded-For; nil trusts none and keys
	// clients on the socket address.
	TrustedProxies []string

	TracingService string // empty disables otelgin
	Sentry         bool
}

// New builds the gin engine with every route of the site.
func New(opts Options) (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	tmpl, err := web.Templates()
	if err != nil {
		return nil, err
	}
	r.SetHTMLTemplate(tmpl)

	r.Use(gin.Recovery())
	if opts.Sentry {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	r.Use(middleware.RequestLogger())
	if opts.TracingService != "" {
		r.Use(otelgin.Middleware(opts.TracingService))
	}
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	if opts.DB != nil {
		r.GET("/healthz", handler.Health(opts.DB))
	}
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	h := opts.Handler
	api := r.Group("/api/v1")
	{
		api.GET("/posts", h.ListPostsAPI)
		api.GET("/posts/:id", h.GetPostAPI)
	}

	// 鉴权先于 CSRF：匿名访问受保护页面一律 403
	site := r.Group("/")
	site.Use(middleware.Session(opts.Sessions))
	{
		public := site.Group("/")
		public.Use(middleware.CSRF(opts.CSRF))
		public.GET("/", h.Home)
		public.GET("/about", h.About)
		public.GET("/logout", h.Logout)
		public.GET("/profile/:username", h.Profile)
		public.GET("/post/:id", h.ViewPost)

		auth := site.Group("/")
		auth.Use(middleware.RateLimit(opts.Limiter), middleware.CSRF(opts.CSRF))
		auth.GET("/register", h.RegisterPage)
		auth.POST("/register", h.Register)
		auth.GET("/login", h.LoginPage)
		auth.POST("/login", h.Login)

		// requires-authenticated
		member := site.Group("/")
		member.Use(middleware.RequireAuthenticated(), middleware.CSRF(opts.CSRF))
		member.GET("/make-post", h.MakePostPage)
		member.POST("/make-post", h.MakePost)
		member.GET("/delete/:id", h.DeletePost)
	}

	r.NoRoute(response.NotFoundPage)
	return r, nil
}
