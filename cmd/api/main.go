package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"trustlend/internal/cache"
	"trustlend/internal/config"
	"trustlend/internal/database"
	"trustlend/internal/handlers"
	"trustlend/internal/logger"
	"trustlend/internal/middleware"
	"trustlend/internal/services"
	"trustlend/internal/validator"
)

// @title           TrustLend API
// @version         1.0
// @description     TrustLend is a lending marketplace backend: loan quoting and scheduling, an income-aware schedule advisor, and a per-lender borrower trust engine.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Register custom binding validators
	validator.Register()

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Borrowing-limit cache: Redis when configured, in-process otherwise
	var limitCache cache.Cache
	if appConfig.RedisAddr != "" {
		limitCache = cache.NewRedis(appConfig.RedisAddr)
		log.Infof("Using Redis borrowing-limit cache at %s", appConfig.RedisAddr)
	} else {
		limitCache = cache.NewMemory()
		log.Info("Using in-process borrowing-limit cache")
	}

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	lenderService := services.NewLenderService(db)
	trustService := services.NewTrustService(db, limitCache)
	eligibilityService := services.NewEligibilityService(db, trustService)
	loanService := services.NewLoanService(db, eligibilityService, trustService, userService)
	auditService := services.NewAuditService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	loanHandler := handlers.NewLoanHandler(loanService, auditService)
	lenderHandler := handlers.NewLenderHandler(lenderService, loanService, auditService)
	trustHandler := handlers.NewTrustHandler(trustService, lenderService, auditService)
	eligibilityHandler := handlers.NewEligibilityHandler(eligibilityService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile
	protected.GET("/profile", authHandler.GetProfile)
	protected.GET("/profile/financial", authHandler.GetFinancialProfile)
	protected.PUT("/profile/financial", authHandler.UpsertFinancialProfile)

	// Loan routes
	loans := protected.Group("/loans")
	loans.POST("/quote", loanHandler.Quote)
	loans.POST("/suggest", loanHandler.Suggest)
	loans.POST("", loanHandler.Create)
	loans.GET("", loanHandler.List)
	loans.GET("/:id", loanHandler.Get)
	loans.POST("/:id/installments/:sequence/pay", loanHandler.PayInstallment)

	// Eligibility
	protected.POST("/eligibility", eligibilityHandler.Check)

	// Business lender routes
	businesses := protected.Group("/businesses")
	businesses.POST("", lenderHandler.CreateBusiness)
	businesses.GET("", lenderHandler.ListBusinesses)
	businesses.GET("/:id", lenderHandler.GetBusiness)
	businesses.PUT("/:id/tiers", lenderHandler.SetTierPolicy)
	businesses.GET("/:id/tiers", lenderHandler.GetTierPolicies)
	businesses.GET("/:id/trust", trustHandler.GetStanding)
	businesses.POST("/:id/borrowers/:borrowerID/ban", trustHandler.Ban)
	businesses.POST("/:id/borrowers/:borrowerID/suspend", trustHandler.Suspend)
	businesses.POST("/:id/borrowers/:borrowerID/reinstate", trustHandler.Reinstate)
	businesses.POST("/:id/borrowers/:borrowerID/reset", trustHandler.Reset)

	// Lender loan actions
	protected.POST("/lender/loans/:id/default", lenderHandler.MarkLoanDefaulted)

	log.Infof("Starting TrustLend backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
