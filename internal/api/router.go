package api

import (
	"context"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/clubpedal/members-system/internal/api/handler"
	"github.com/clubpedal/members-system/internal/api/middleware"
	"github.com/clubpedal/members-system/internal/core/domain"
	"github.com/clubpedal/members-system/internal/core/service"
	"github.com/clubpedal/members-system/internal/infrastructure/config"
	mongodb "github.com/clubpedal/members-system/internal/infrastructure/db/mongo"
	redisdb "github.com/clubpedal/members-system/internal/infrastructure/db/redis"
	"github.com/clubpedal/members-system/internal/session"
)

// NewRouter builds the Echo instance with all dependencies wired and routes
// registered.
func NewRouter(db *mongo.Database, rdb *goredis.Client, cfg *config.Config, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("members"))

	// --- Stores ---
	memberRepo := mongodb.NewMemberRepository(db)
	invoiceRepo := mongodb.NewInvoiceRepository(db)
	auditRepo := mongodb.NewAuditRepository(db)
	authRepo := mongodb.NewAuthRepository(db)
	revocations := redisdb.NewRevocationStore(rdb, cfg.TokenTTL)

	// --- Services ---
	auditService := service.NewAuditService(auditRepo, log)
	memberService := service.NewMemberService(memberRepo, invoiceRepo, auditService, log)
	authService := service.NewAuthService(authRepo, cfg.JWTSecret, cfg.TokenTTL)

	// One inactivity monitor per authenticated principal; forced expiry
	// revokes the principal's tokens so stale bearers stop working.
	sessions := session.NewRegistry(cfg.Session.Timeout(), session.NewScheduler(),
		func(ctx context.Context, username string) error {
			return revocations.Revoke(ctx, username)
		}, log)

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(authService, sessions)
	memberHandler := handler.NewMemberHandler(memberService)
	auditHandler := handler.NewAuditHandler(auditService)
	sessionHandler := handler.NewSessionHandler(sessions, revocations)
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(db, rdb)

	authMiddleware := middleware.Auth(cfg.JWTSecret, revocations)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	// --- Member lifecycle ---
	members := e.Group("/v1/members", authMiddleware)
	members.GET("", memberHandler.List)
	members.POST("", memberHandler.Create)
	members.GET("/deleted", memberHandler.ListDeleted)
	members.GET("/:id", memberHandler.Get)
	members.PUT("/:id", memberHandler.Update)
	members.GET("/:id/dependents", memberHandler.Dependents)
	members.GET("/:id/invoices", memberHandler.Invoices)
	// Delete and restore move records between partitions; admins only.
	members.DELETE("/:id", memberHandler.Delete, middleware.RBAC(domain.RoleAdmin))
	members.POST("/:id/restore", memberHandler.Restore, middleware.RBAC(domain.RoleAdmin))

	// --- Audit trail ---
	e.GET("/v1/audit", auditHandler.Query, authMiddleware)

	// --- Session inactivity monitor ---
	sess := e.Group("/v1/session", authMiddleware)
	sess.GET("", sessionHandler.State)
	sess.POST("/activity", sessionHandler.Activity)
	sess.POST("/reset", sessionHandler.Reset)
	sess.POST("/stay", sessionHandler.Stay)
	sess.POST("/logout", sessionHandler.Logout)

	// --- Health probes (no auth required) ---
	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Observability & docs ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	return e
}
