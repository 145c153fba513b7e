package http

import (
	"time"

	"loanlink-backend/internal/adapter/middleware"
	"loanlink-backend/internal/domain/identity"
	domainuser "loanlink-backend/internal/domain/user"
	"loanlink-backend/internal/infrastructure/logger"
	"loanlink-backend/internal/infrastructure/metrics"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	Verifier identity.Verifier
	Users    domainuser.Repository
	// Redis is optional; without it POST routes run without idempotency.
	Redis          *redis.Client
	IdempotencyTTL time.Duration
	AuthCookieName string
	AuthTimeout    time.Duration

	Health       *Handler
	UserH        *UserHandler
	LoanH        *LoanHandler
	ApplicationH *ApplicationHandler
	PaymentH     *PaymentHandler
}

// NewRouter builds the one route table of the service.
func NewRouter(cfg RouterConfig) *echo.Echo {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = HTTPErrorHandler
	e.Use(
		echomw.Recover(),
		echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}),
		logger.Middleware(log),
		cfg.Metrics.Middleware(),
	)

	auth := middleware.RequireAuth(middleware.AuthConfig{
		Verifier:   cfg.Verifier,
		CookieName: cfg.AuthCookieName,
		Timeout:    cfg.AuthTimeout,
	})
	admin := middleware.RequireRole(cfg.Users, domainuser.RoleAdmin)
	manager := middleware.RequireRole(cfg.Users, domainuser.RoleManager)
	staff := middleware.RequireRole(cfg.Users, domainuser.RoleManager, domainuser.RoleAdmin)

	idem := func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	if cfg.Redis != nil {
		idem = middleware.Idempotency(cfg.Redis, cfg.IdempotencyTTL, log)
	}

	// open
	e.GET("/health", cfg.Health.Health)
	e.GET("/metrics", echo.WrapHandler(cfg.Metrics.Handler()))
	e.GET("/users/:email/role", cfg.UserH.GetRole)
	e.GET("/public/loans", cfg.LoanH.ListPublic)

	// users
	e.POST("/users", cfg.UserH.Upsert, auth)
	e.GET("/users", cfg.UserH.List, auth, admin)
	e.PATCH("/users/:email/role", cfg.UserH.SetRole, auth, admin)
	e.PATCH("/users/:email/suspend", cfg.UserH.Suspend, auth, admin)

	// loans
	loans := e.Group("/loans", auth)
	loans.GET("", cfg.LoanH.ListLoans)
	loans.GET("/my-loans", cfg.LoanH.ListMine, manager)
	loans.GET("/:id", cfg.LoanH.GetLoan)
	loans.POST("", cfg.LoanH.CreateLoan, manager)
	loans.PATCH("/:id", cfg.LoanH.UpdateLoan)
	loans.PATCH("/:id/show", cfg.LoanH.SetVisibility, admin)
	loans.PATCH("/:id/approve", cfg.LoanH.Approve, admin)
	loans.PATCH("/:id/reject", cfg.LoanH.Reject, admin)
	loans.DELETE("/:id", cfg.LoanH.DeleteLoan)

	// loan applications
	apps := e.Group("/loan-applications", auth)
	apps.POST("", cfg.ApplicationH.Create, idem)
	apps.GET("/my-applications", cfg.ApplicationH.ListMine)
	apps.GET("", cfg.ApplicationH.List, staff)
	apps.GET("/:id", cfg.ApplicationH.Get)
	apps.PATCH("/:id/approve", cfg.ApplicationH.Approve, manager)
	apps.PATCH("/:id/reject", cfg.ApplicationH.Reject, manager)
	apps.PATCH("/:id/cancel", cfg.ApplicationH.Cancel)
	apps.PATCH("/:id/pay", cfg.ApplicationH.PayFee)

	// payments
	e.POST("/create-payment-intent", cfg.PaymentH.CreateIntent, auth, idem)

	return e
}
