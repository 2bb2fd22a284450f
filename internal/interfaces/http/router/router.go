package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/posterdash/backend/internal/domain/identity"
	"github.com/posterdash/backend/internal/infrastructure/logger"
	"github.com/posterdash/backend/internal/interfaces/http/dto"
	"github.com/posterdash/backend/internal/interfaces/http/handler"
	"github.com/posterdash/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// Handlers groups every HTTP handler the API serves
type Handlers struct {
	Auth       *handler.AuthHandler
	Shift      *handler.ShiftHandler
	Templates  *handler.TemplateHandler
	Expenses   *handler.ExpenseHandler
	PosAccount *handler.PosAccountHandler
	Cron       *handler.CronHandler
	System     *handler.SystemHandler
}

// Config holds router configuration
type Config struct {
	APIVersion  string
	CORS        middleware.CORSConfig
	MaxBodySize int64
	JWT         middleware.JWTMiddlewareConfig
	CronSecret  string
	// LoginLimit requests per LoginWindow per client IP; zero disables
	LoginLimit  int
	LoginWindow time.Duration
	Tracing     middleware.TracingConfig
	Logger      *zap.Logger
}

// New builds the gin engine with the middleware chain and every route.
//
// Routes under /api/<version> need an access token except login and refresh.
// /cron/* needs the cron secret instead.
func New(cfg Config, h Handlers) *gin.Engine {
	if cfg.APIVersion == "" {
		cfg.APIVersion = "v1"
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.Tracing(cfg.Tracing),
		middleware.SpanAttributes(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.Secure(),
		middleware.CORS(cfg.CORS),
	)
	if cfg.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(dto.ErrCodeNotFound, "Route not found", c.GetString(middleware.RequestIDKey)))
	})

	engine.GET("/health", h.System.Health)

	cron := engine.Group("/cron", middleware.CronSecret(cfg.CronSecret))
	cron.POST("/recurring", h.Cron.Recurring)
	cron.POST("/expenses-sync", h.Cron.ExpensesSync)

	api := engine.Group("/api/" + cfg.APIVersion)

	public := api.Group("/auth")
	if cfg.LoginLimit > 0 {
		public.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.LoginLimit, cfg.LoginWindow)))
	}
	public.POST("/login", h.Auth.Login)
	public.POST("/refresh", h.Auth.RefreshToken)

	authed := api.Group("", middleware.JWTAuthMiddleware(cfg.JWT))
	authed.POST("/auth/logout", h.Auth.Logout)
	authed.GET("/auth/me", h.Auth.GetCurrentUser)

	// every role submits its part of the day's counts
	authed.GET("/shift-data", h.Shift.GetShiftData)
	authed.POST("/shift-data", h.Shift.SubmitShiftData)

	owner := authed.Group("", middleware.RequireRole(identity.RoleOwner.String()))

	owner.POST("/users", h.Auth.CreateUser)

	closing := owner.Group("/shift-closing")
	closing.POST("", h.Shift.CloseShift)
	closing.GET("/prefill", h.Shift.Prefill)
	closing.POST("/repost", h.Shift.Repost)
	closing.GET("/history", h.Shift.History)

	owner.GET("/reconciliation", h.Shift.GetReconciliation)
	owner.PUT("/reconciliation/:source", h.Shift.SaveReconciliation)

	templates := owner.Group("/recurring")
	templates.GET("/templates", h.Templates.List)
	templates.POST("/templates", h.Templates.Create)
	templates.PUT("/templates/:id", h.Templates.Update)
	templates.POST("/templates/:id/toggle", h.Templates.Toggle)
	templates.DELETE("/templates/:id", h.Templates.Delete)
	templates.GET("/reference-data", h.Templates.ReferenceData)

	expenses := owner.Group("/expenses")
	expenses.GET("/drafts", h.Expenses.List)
	expenses.POST("/drafts", h.Expenses.Create)
	expenses.PATCH("/drafts/:id", h.Expenses.Update)
	expenses.POST("/drafts/:id/toggle-income", h.Expenses.ToggleIncome)
	expenses.POST("/process", h.Expenses.Process)
	expenses.POST("/sync", h.Expenses.Sync)

	accounts := owner.Group("/pos-accounts")
	accounts.GET("", h.PosAccount.List)
	accounts.POST("", h.PosAccount.Create)
	accounts.PUT("/:id", h.PosAccount.Update)
	accounts.POST("/:id/verify", h.PosAccount.Verify)

	return engine
}
