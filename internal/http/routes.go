package http

import (
	"context"

	"action_items/internal/config"
	"action_items/internal/http/handlers"
	"action_items/internal/http/middleware"
	"action_items/internal/service"
	"action_items/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
)

// App is everything the router needs. Redis may be nil.
type App struct {
	Handler *handlers.Handler
	Health  *handlers.HealthHandler
	Hub     *ws.Hub
	Redis   *redis.Client
	Config  *config.Config
}

// Stores groups the persistence the API is built on.
type Stores struct {
	Tasks service.TaskStore
	Users service.UserStore
	Audit service.AuditStore // optional
	DB    handlers.Pinger
}

// NewApp wires services and handlers over the given stores.
func NewApp(cfg *config.Config, stores Stores, rdb *redis.Client, version string) *App {
	var audit *service.AuditService
	if stores.Audit != nil {
		audit = service.NewAuditService(stores.Audit)
	}

	tokens := service.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	auth := service.NewAuthService(stores.Users, tokens, service.NewTokenRevoker(rdb), audit)

	hub := ws.NewHub()
	health := handlers.NewHealthHandler(stores.DB, version)
	health.Presence = hub.Total
	if rdb != nil {
		health.Redis = handlers.PingFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}

	return &App{
		Handler: handlers.NewHandler(
			service.NewTaskService(stores.Tasks, audit),
			service.NewSyncService(stores.Tasks, audit),
			auth,
			audit,
		),
		Health: health,
		Hub:    hub,
		Redis:  rdb,
		Config: cfg,
	}
}

func RegisterRoutes(r *gin.Engine, app *App) {
	cfg := app.Config

	r.Use(middleware.CORS(cfg.AllowedOrigin))

	// Health checks (no rate limiting)
	r.GET("/health", app.Health.Health)
	r.GET("/healthz", app.Health.Liveness)
	r.GET("/readyz", app.Health.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := r.Group("/api/v1")
	v1.Use(middleware.RateLimit(app.Redis, cfg.APIRateLimit, cfg.APIRateWindow))
	registerAPIRoutes(v1, app)

	// Legacy /api routes
	api := r.Group("/api")
	api.Use(middleware.RateLimit(app.Redis, cfg.APIRateLimit, cfg.APIRateWindow))
	api.GET("/health", app.Health.Health)
	registerAPIRoutes(api, app)
}

func registerAPIRoutes(api *gin.RouterGroup, app *App) {
	cfg := app.Config
	h := app.Handler
	jwt := middleware.JWT(h.Auth)

	// Auth
	authRL := middleware.RateLimit(app.Redis, cfg.AuthRateLimit, cfg.AuthRateWindow)
	auth := api.Group("/auth")
	{
		auth.POST("/register", authRL, h.Register)
		auth.POST("/login", authRL, h.Login)
		auth.GET("/me", jwt, h.Me)
		auth.GET("/activity", jwt, h.Activity)
		auth.PUT("/profile", jwt, h.UpdateProfile)
		auth.POST("/logout", jwt, h.Logout)
	}

	// Tasks
	tasks := api.Group("/tasks")
	tasks.Use(jwt)
	{
		tasks.GET("", h.ListTasks)
		tasks.POST("", h.CreateTask)
		tasks.GET("/stats", h.TaskStats)
		tasks.GET("/calendar", h.TaskCalendar)
		tasks.POST("/sync", middleware.UserRateLimit(app.Redis, cfg.SyncRateLimit, cfg.SyncRateWindow), h.SyncTasks)
		tasks.GET("/:id", h.GetTask)
		tasks.PUT("/:id", h.UpdateTask)
		tasks.DELETE("/:id", h.DeleteTask)
	}

	// Connectivity presence
	api.GET("/ws", jwt, h.WS(app.Hub, cfg.AllowedOrigin))
}
