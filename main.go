package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aumugisha-umu/seido-backend/config"
	"github.com/aumugisha-umu/seido-backend/database"
	"github.com/aumugisha-umu/seido-backend/handler"
	"github.com/aumugisha-umu/seido-backend/middleware"
	"github.com/aumugisha-umu/seido-backend/pkg/logger"
	"github.com/aumugisha-umu/seido-backend/service"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env for deploy-time secrets before the config file
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found")
	}

	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("configuration loaded successfully")

	// Connect database and migrate schema
	db, err := database.Connect(&cfg.Database)
	if err != nil {
		slog.Error("failed to connect database", "error", err)
		os.Exit(1)
	}

	// Initialize services
	minioSvc, err := service.NewMinioService(&cfg.Minio)
	if err != nil {
		slog.Error("failed to initialize MINIO service", "error", err)
		os.Exit(1)
	}

	// Ensure bucket exists
	if err := minioSvc.EnsureBucket(context.Background()); err != nil {
		slog.Error("failed to ensure MINIO bucket", "error", err)
		os.Exit(1)
	}

	service.InitProfileCache(5*time.Minute, 1000)

	notifier := service.NewNotifier(db)
	interventionSvc := service.NewInterventionService(db, notifier)
	documentSvc := service.NewDocumentService(db, minioSvc, cfg.Upload.MaxSizeBytes)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(db, cfg)
	interventionHandler := handler.NewInterventionHandler(interventionSvc)
	quoteHandler := handler.NewQuoteHandler(interventionSvc)
	documentHandler := handler.NewDocumentHandler(documentSvc)
	notificationHandler := handler.NewNotificationHandler(notifier)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New() // Use New() instead of Default() to avoid default middleware

	// Add custom middleware
	router.Use(middleware.RequestID())                 // Request ID for tracing
	router.Use(middleware.Recovery())                  // Panic recovery
	router.Use(middleware.RequestLogger())             // Access logging
	router.Use(corsMiddleware())                       // CORS
	router.Use(middleware.RateLimit(100, time.Minute)) // Rate limiting: 100 requests per minute

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	// Public routes
	api := router.Group("/api")
	{
		api.POST("/auth/login", authHandler.Login)
	}

	// Protected routes
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(&cfg.Auth))
	{
		protected.GET("/auth/me", authHandler.GetCurrentUser)
		protected.POST("/auth/impersonate", middleware.RequireRole(), authHandler.Impersonate)

		protected.POST("/interventions", interventionHandler.Create)
		protected.GET("/interventions", interventionHandler.List)
		protected.GET("/interventions/:id", interventionHandler.Get)
		protected.POST("/interventions/:id/approve", interventionHandler.Approve)
		protected.POST("/interventions/:id/reject", interventionHandler.Reject)
		protected.POST("/interventions/:id/request-quote", interventionHandler.RequestQuote)
		protected.POST("/interventions/:id/cancel", interventionHandler.Cancel)
		protected.POST("/interventions/:id/assignments", interventionHandler.Assign)
		protected.POST("/interventions/:id/slots", interventionHandler.ProposeSlots)
		protected.POST("/interventions/:id/slots/:slotID/select", interventionHandler.SelectSlot)
		protected.POST("/interventions/:id/confirm", interventionHandler.Confirm)
		protected.POST("/interventions/:id/start", interventionHandler.Start)
		protected.POST("/interventions/:id/work-completion", interventionHandler.WorkCompletion)
		protected.POST("/interventions/:id/validate", interventionHandler.Validate)
		protected.POST("/interventions/:id/finalize", interventionHandler.Finalize)

		protected.POST("/interventions/:id/quotes", quoteHandler.Submit)
		protected.POST("/quotes/:id/accept", quoteHandler.Accept)
		protected.POST("/quotes/:id/reject", quoteHandler.Reject)

		protected.POST("/interventions/:id/documents", documentHandler.Upload)
		protected.GET("/documents/:id/url", documentHandler.DownloadURL)

		protected.GET("/notifications", notificationHandler.List)
		protected.POST("/notifications/:id/read", notificationHandler.MarkRead)
	}

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited gracefully")
}

// corsMiddleware handles CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
