package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"newsroom-cms/config"
	"newsroom-cms/handlers"
	"newsroom-cms/helper"
	"newsroom-cms/middleware"
	"newsroom-cms/repositories"
	"newsroom-cms/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.Load()

	zapCfg := zap.NewProductionConfig()
	if os.Getenv("DEBUG") != "" {
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := zapCfg.Build()
	if err != nil {
		log.Fatal("Failed to build logger:", err)
	}
	defer logger.Sync()

	db, err := config.OpenDB(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	articleRepo := repositories.NewArticleRepository(db)
	blobStore := repositories.NewBlobRepository(db, cfg.BlobChunkSize)

	// Services
	sanitizer := services.NewSanitizer()
	metrics := services.NewMetrics()
	go func() {
		for range time.Tick(time.Hour) {
			metrics.Sweep(24 * time.Hour)
		}
	}()
	authService := services.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpiration)
	uploadService := services.NewUploadService(blobStore, logger)
	articleService := services.NewArticleService(articleRepo, blobStore, sanitizer, logger)

	// Handlers
	httpHelper := helper.NewHTTPHelper()
	authHandler := handlers.NewAuthHandler(authService, httpHelper)
	articleHandler := handlers.NewArticleHandler(articleService, uploadService, httpHelper)
	fileHandler := handlers.NewFileHandler(blobStore, logger, httpHelper)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst, logger)

	router := gin.Default()

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.Use(middleware.Metrics(metrics))
	router.Use(rateLimiter.Middleware())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	router.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, metrics.Snapshot())
	})

	// API routes
	v1 := router.Group("/api/v1")
	{
		// Auth routes (public)
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		// Protected routes
		protected := v1.Group("/")
		protected.Use(middleware.AuthMiddleware(cfg.JWTSecret))
		{
			// Profile
			protected.GET("/profile", authHandler.GetProfile)

			// Articles
			articles := protected.Group("/articles")
			{
				articles.GET("", articleHandler.GetArticles)
				articles.GET("/:id", articleHandler.GetArticle)

				editorOnly := articles.Group("")
				editorOnly.Use(middleware.RequireRole("editor", "admin"))
				{
					editorOnly.POST("", articleHandler.CreateArticle)
					editorOnly.PUT("/:id", articleHandler.UpdateArticle)
					editorOnly.DELETE("/:id", articleHandler.DeleteArticle)
				}
			}
		}

		// Public article routes (published only)
		public := v1.Group("/public")
		{
			public.GET("/articles", articleHandler.GetPublicArticles)
			public.GET("/articles/:id", articleHandler.GetPublicArticle)
		}

		// File delivery (public, identifier acts as bearer token)
		v1.GET("/files/:id", fileHandler.GetFile)
	}

	logger.Info("Server starting", zap.String("port", cfg.Port))
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}
