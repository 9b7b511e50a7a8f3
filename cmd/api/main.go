package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"video-catalog-api/internal/database"
	"video-catalog-api/internal/handlers"
	"video-catalog-api/internal/middleware"
	"video-catalog-api/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Fatal("Error loading .env file")
	}
}

func main() {
	// Set up signal handling for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	// Initialize database
	if err := database.InitDB(); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}

	// Create default admin user
	if err := database.CreateDefaultAdmin(); err != nil {
		log.Printf("Error creating default admin: %v", err)
	}

	// Asset store for the encrypted video files
	storagePath := os.Getenv("STORAGE_PATH")
	if storagePath == "" {
		workDir, err := os.Getwd()
		if err != nil {
			log.Fatal("Failed to get working directory:", err)
		}
		storagePath = filepath.Join(workDir, "storage", "videos")
	}

	assets, err := storage.New(storagePath, []byte(os.Getenv("ENCRYPTION_KEY")))
	if err != nil {
		log.Fatal("Failed to initialize asset storage:", err)
	}

	handlers.Init(database.DB, assets)

	// Initialize router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Add middlewares
	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.ErrorHandlingMiddleware())
	router.SetTrustedProxies(nil)

	// Set maximum file upload size (100MB)
	router.MaxMultipartMemory = 100 << 20 // 100 MB

	// API routes
	api := router.Group("/api")
	{
		api.GET("/sanity_check", func(c *gin.Context) {
			c.String(http.StatusOK, "Video catalog API is working")
		})

		// Public routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.Register)
			auth.POST("/login", handlers.Login)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			videos := protected.Group("/videos")
			{
				videos.GET("", handlers.ListVideos)
				videos.POST("", handlers.UploadVideo)
				videos.GET("/:id/stream", handlers.StreamVideo)
				videos.DELETE("/:id", handlers.DeleteVideo)
				videos.POST("/:id/tags", handlers.AttachTag)
				videos.DELETE("/:id/tags/:tag", handlers.DetachTag)
			}

			protected.GET("/tags", handlers.ListTags)

			// Admin-only routes
			admin := protected.Group("/admin")
			admin.Use(middleware.AdminMiddleware())
			{
				admin.GET("/users", handlers.ListUsers)
				admin.POST("/users/:id/deactivate", handlers.DeactivateUser)
				admin.POST("/users/:id/reactivate", handlers.ReactivateUser)
			}
		}
	}

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	<-quit
	log.Println("Server is shutting down...")

	// Give outstanding operations 5 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped gracefully")
}
