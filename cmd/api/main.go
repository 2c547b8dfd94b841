package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/chachabrian/carmitra-backend/internal/booking"
	"github.com/chachabrian/carmitra-backend/internal/config"
	"github.com/chachabrian/carmitra-backend/internal/database"
	"github.com/chachabrian/carmitra-backend/internal/handlers"
	"github.com/chachabrian/carmitra-backend/internal/middleware"
	"github.com/chachabrian/carmitra-backend/internal/models"
	"github.com/chachabrian/carmitra-backend/internal/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	limits, err := config.LoadLimits()
	if err != nil {
		log.Fatalf("Failed to load limits configuration: %v", err)
	}

	// Initialize database with better error handling
	db, err := database.InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Get underlying SQL DB instance
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database instance: %v", err)
	}

	// Configure connection pool
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// Initialize Redis
	if err := services.InitRedis(); err != nil {
		log.Fatalf("Failed to initialize Redis: %v", err)
	}

	// Initialize Firebase (optional - will log warning if not configured)
	if err := services.InitFirebase(); err != nil {
		log.Printf("Firebase initialization warning: %v", err)
	}

	// Initialize Storage (S3 or local fallback)
	if err := services.InitStorage(); err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	// Initialize WebSocket hub
	hub := services.NewHub()
	go hub.Run()

	// Wire the booking engine with the notification dispatcher
	dispatcher := services.NewDispatcher(db, hub)
	engine := booking.NewEngine(db, limits, dispatcher, nil)

	// Periodic sweeps back up the lazy expiry checks
	go runSweeps(engine, dispatcher, limits)

	// Initialize router
	r := gin.Default()

	// Configure CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	r.Use(cors.New(corsConfig))

	// Serve static files
	r.Static("/uploads", "/app/uploads")

	// Routes
	api := r.Group("/api")
	{
		// Public routes
		auth := api.Group("/auth")
		{
			auth.POST("/login", handlers.Login(db))
		}

		// WebSocket connection
		api.GET("/ws", middleware.AuthMiddleware(), handlers.WebSocketHandler(hub))

		// Protected routes
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware())
		{
			protected.POST("/auth/select-role", handlers.SelectRole(db))
			protected.POST("/auth/logout", handlers.Logout(db))

			// User routes
			users := protected.Group("/users")
			{
				users.GET("/profile", handlers.GetProfile(db))
				users.PUT("/profile", handlers.UpdateProfile(db))
				users.POST("/profile/image", handlers.UploadProfileImage(db))
				users.GET("/drivers", middleware.RequireRole(models.RoleOperator), handlers.ListDrivers(db))
			}

			// Car routes
			cars := protected.Group("/cars")
			{
				cars.GET("", handlers.GetCars(db, engine))
				cars.GET("/:id", handlers.GetCarByID(db, engine))
				cars.POST("", middleware.RequireRole(models.RoleOperator), middleware.RequireKYCApproved(), handlers.CreateCar(db, engine))
				cars.PUT("/:id", middleware.RequireRole(models.RoleOperator), middleware.RequireKYCApproved(), handlers.UpdateCar(db, engine))
				cars.DELETE("/:id", middleware.RequireRole(models.RoleOperator), middleware.RequireKYCApproved(), handlers.DeleteCar(db, engine))
			}

			// Booking request routes
			requests := protected.Group("/booking-requests")
			requests.Use(middleware.RequireKYCApproved())
			{
				requests.POST("", middleware.RequireRole(models.RoleDriver), handlers.CreateBookingRequest(engine))
				requests.POST("/invite", middleware.RequireRole(models.RoleOperator), handlers.InviteDriver(engine))
				requests.GET("/sent", handlers.ListSentRequests(engine))
				requests.GET("/received", handlers.ListReceivedRequests(engine))
				requests.GET("/counts", handlers.GetRequestCounts(engine))
				requests.GET("/limits", handlers.GetDailyLimits(engine))
				requests.GET("/:id", handlers.GetBookingRequest(engine))
				requests.PATCH("/:id/status", handlers.UpdateBookingRequestStatus(engine))
				requests.POST("/:id/cancel", handlers.CancelBookingRequest(engine))
			}

			// Notification routes
			notifications := protected.Group("/notifications")
			{
				notifications.POST("/register-token", handlers.RegisterFCMToken(db))
				notifications.DELETE("/remove-token", handlers.RemoveFCMToken(db))
				notifications.GET("", handlers.ListNotifications(db))
				notifications.GET("/unread-count", handlers.GetUnreadCount(db))
				notifications.PATCH("/:id/read", handlers.MarkNotificationRead(db))
				notifications.PATCH("/read-all", handlers.MarkAllNotificationsRead(db))
				notifications.POST("/test", handlers.TestNotification(db))
			}
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

// runSweeps periodically expires stale requests, deactivates inactive cars,
// and prunes old notifications. The lazy read-time checks keep state correct
// between ticks; the sweep keeps notifications timely.
func runSweeps(engine *booking.Engine, dispatcher *services.Dispatcher, limits config.Limits) {
	ticker := time.NewTicker(limits.SweepInterval())
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)

		if n, err := engine.SweepExpiredRequests(ctx); err != nil {
			log.Printf("Sweep: expiring requests failed: %v", err)
		} else if n > 0 {
			log.Printf("Sweep: expired %d booking requests", n)
		}

		if n, err := engine.SweepInactiveCars(ctx); err != nil {
			log.Printf("Sweep: deactivating cars failed: %v", err)
		} else if n > 0 {
			log.Printf("Sweep: deactivated %d inactive cars", n)
		}

		if n, err := dispatcher.CleanupOldNotifications(ctx, limits.NotificationRetention()); err != nil {
			log.Printf("Sweep: notification cleanup failed: %v", err)
		} else if n > 0 {
			log.Printf("Sweep: removed %d old notifications", n)
		}

		cancel()
	}
}
