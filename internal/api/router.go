package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/moneyjar/jarledger/internal/api/handler"
	"github.com/moneyjar/jarledger/internal/api/middleware"
	"github.com/moneyjar/jarledger/internal/core/service"
	mongorepo "github.com/moneyjar/jarledger/internal/infrastructure/db/mongo"
	redisstore "github.com/moneyjar/jarledger/internal/infrastructure/db/redis"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(db *mongo.Database, rdb *redis.Client, jwtSecret string, tokenTTL time.Duration, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)
	e.Validator = handler.NewValidator()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("jarledger"))

	// --- Dependencies ---
	jarRepo := mongorepo.NewJarRepository(db)
	txRepo := mongorepo.NewTransactionRepository(db)
	userRepo := mongorepo.NewUserRepository(db)
	memberRepo := mongorepo.NewMemberRepository(db)
	uow := mongorepo.NewTxnRunner(db.Client())
	guard := redisstore.NewOperationGuard(rdb)

	authService := service.NewAuthService(userRepo, jwtSecret, tokenTTL)
	userService := service.NewUserService(userRepo, log)
	jarService := service.NewJarService(jarRepo, txRepo, userRepo, memberRepo, uow, log)
	ledgerService := service.NewLedgerService(jarRepo, txRepo, memberRepo, uow, guard, log)

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	jarHandler := handler.NewJarHandler(jarService)
	ledgerHandler := handler.NewLedgerHandler(ledgerService)
	authMiddleware := middleware.Auth(jwtSecret)

	// --- Auth routes ---
	e.POST("/v1/auth/register", authHandler.Register)
	e.POST("/v1/auth/login", authHandler.Login)

	// --- Profile routes ---
	me := e.Group("/v1/me", authMiddleware)
	me.GET("", userHandler.Me)
	me.PATCH("", userHandler.UpdateMe)
	me.POST("/upgrade", userHandler.Upgrade)

	// --- Jar routes ---
	jars := e.Group("/v1/jars", authMiddleware)
	jars.POST("", jarHandler.Create)
	jars.GET("", jarHandler.List)
	jars.GET("/:id", jarHandler.Get)
	jars.DELETE("/:id", jarHandler.Delete)
	jars.GET("/:id/transactions", jarHandler.ListTransactions)
	jars.POST("/:id/fill", ledgerHandler.Fill)
	jars.POST("/:id/spend", ledgerHandler.Spend)
	jars.POST("/:id/members", jarHandler.InviteMember)
	jars.POST("/:id/members/accept", jarHandler.AcceptInvite)

	// --- Cross-jar routes ---
	e.POST("/v1/transfers", ledgerHandler.Transfer, authMiddleware)
	e.GET("/v1/activity", jarHandler.Activity, authMiddleware)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)          // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
