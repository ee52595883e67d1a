package api

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/ramadan_bot_server/config"
	"github.com/qs3c/ramadan_bot_server/internal/api/handler"
	"github.com/qs3c/ramadan_bot_server/internal/api/middleware"
	"github.com/qs3c/ramadan_bot_server/internal/pkg/logging"
)

type Router struct {
	authHandler       *handler.AuthHandler
	userHandler       *handler.UserHandler
	generationHandler *handler.GenerationHandler
	flyerHandler      *handler.FlyerHandler
	adminHandler      *handler.AdminHandler
	verseHandler      *handler.VerseHandler
	websocketHandler  *handler.WebSocketHandler
	cfg               *config.Config
	logger            logging.Logger
}

func NewRouter(
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	generationHandler *handler.GenerationHandler,
	flyerHandler *handler.FlyerHandler,
	adminHandler *handler.AdminHandler,
	verseHandler *handler.VerseHandler,
	websocketHandler *handler.WebSocketHandler,
	cfg *config.Config,
	logger logging.Logger,
) *Router {
	return &Router{
		authHandler:       authHandler,
		userHandler:       userHandler,
		generationHandler: generationHandler,
		flyerHandler:      flyerHandler,
		adminHandler:      adminHandler,
		verseHandler:      verseHandler,
		websocketHandler:  websocketHandler,
		cfg:               cfg,
		logger:            logger,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(r.logger))
	engine.Use(middleware.CORS(r.cfg.CORS))

	// 本地存储的分享海报
	if (r.cfg.Storage.Backend == "" || r.cfg.Storage.Backend == "local") && r.cfg.Storage.LocalDir != "" {
		engine.Static(r.staticPrefix(), r.cfg.Storage.LocalDir)
	}

	api := engine.Group("/api/v1")
	{
		// WebSocket
		api.GET("/ws", r.websocketHandler.Handle)

		// 公开接口
		auth := api.Group("/auth")
		{
			auth.POST("/login", r.authHandler.Login)
			auth.POST("/admin/login", r.authHandler.AdminLogin)
		}
		api.GET("/verse/today", r.verseHandler.Today)

		// 需要登录的接口
		authenticated := api.Group("")
		authenticated.Use(middleware.Auth(r.cfg.JWT.Secret), middleware.RequireUser())
		{
			user := authenticated.Group("/user")
			{
				user.GET("/profile", r.userHandler.GetProfile)
				user.GET("/quota", r.userHandler.GetQuota)
			}

			generations := authenticated.Group("/generations")
			{
				generations.POST("", r.generationHandler.Create)
				generations.GET("", r.generationHandler.List)
				generations.GET("/:id", r.generationHandler.Get)
				generations.GET("/:id/flyer", r.flyerHandler.Download)
				generations.POST("/:id/share", r.flyerHandler.Share)
			}

			authenticated.GET("/flyer-jobs/:id", r.flyerHandler.GetJob)
		}

		// 管理后台
		admin := api.Group("/admin")
		admin.Use(middleware.Auth(r.cfg.JWT.Secret), middleware.AdminOnly())
		{
			admin.GET("/analytics", r.adminHandler.Analytics)
			admin.GET("/users", r.adminHandler.ListUsers)
			admin.PUT("/users/:id/limit", r.adminHandler.UpdateLimit)
			admin.PUT("/users/:id/ban", r.adminHandler.Ban)
		}
	}

	return engine
}

// staticPrefix 本地存储的 URL 前缀，public_base_url 是完整地址时退回 /flyers
func (r *Router) staticPrefix() string {
	prefix := r.cfg.Storage.PublicBaseURL
	if prefix == "" || prefix[0] != '/' {
		return "/flyers"
	}
	return prefix
}
