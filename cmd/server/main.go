package main

import (
	"context"

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/taskflowhq/board-api/internal/broadcast"
	"github.com/taskflowhq/board-api/internal/config"
	"github.com/taskflowhq/board-api/internal/database"
	"github.com/taskflowhq/board-api/internal/handlers"
	"github.com/taskflowhq/board-api/internal/middleware"
	"github.com/taskflowhq/board-api/internal/repository"
	"github.com/taskflowhq/board-api/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	logger := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	if err := database.AddIndexes(database.GetDB()); err != nil {
		logger.Fatalf("Failed to add indexes: %v", err)
	}

	// Initialize Gin router
	r := gin.Default()

	// Session middleware reads the identity written by the external auth
	// service into the shared Redis store.
	store, err := redisStore.NewStore(
		10,              // Redis pool size
		"tcp",           // network type
		cfg.RedisAddr(), // Redis address from config
		"",              // username (empty for default user)
		"",              // password (empty = no password)
		[]byte(cfg.SessionSecret), // authentication key
	)
	if err != nil {
		logger.Fatalf("Failed to create Redis store: %v", err)
	}
	isProduction := cfg.GinMode == "release"
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: 2, // SameSite=Lax
	})
	r.Use(sessions.Sessions("board_session", store))

	// Broadcast hub, with an optional Redis relay for multi-instance fan-out
	hub := broadcast.NewHub(logger)
	if cfg.EventsBridgeEnabled() {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr()})
		bridge := broadcast.NewRedisBridge(client, cfg.EventsChannel, hub, logger)
		go bridge.Run(context.Background())
		logger.WithField("channel", cfg.EventsChannel).Info("event relay enabled")
	}

	// Initialize repositories
	db := database.GetDB()
	taskRepo := repository.NewTaskRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Initialize services
	taskService := services.NewTaskService(taskRepo, activityRepo, orgRepo, userRepo, hub, logger)
	activityService := services.NewActivityService(activityRepo, orgRepo)
	membershipService := services.NewMembershipService(orgRepo)

	// Initialize handlers
	taskHandler := handlers.NewTaskHandler(taskService)
	activityHandler := handlers.NewActivityHandler(activityService)
	orgHandler := handlers.NewOrganizationHandler(membershipService)
	streamHandler := handlers.NewStreamHandler(hub, logger)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Board API is running",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// Organization routes (read-only; membership is administered externally)
		orgs := api.Group("/organizations")
		orgs.Use(middleware.RequireAuth())
		{
			orgs.GET("", orgHandler.ListOrganizations)
			orgs.GET("/:id", middleware.RequireOrganizationAccess(), orgHandler.GetOrganization)
			orgs.GET("/:id/members", middleware.RequireOrganizationAccess(), orgHandler.ListMembers)
			orgs.GET("/:id/stream", middleware.RequireOrganizationAccess(), streamHandler.Subscribe)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(middleware.RequireAuth())
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.POST("/smart-assign", taskHandler.SmartAssign)
			tasks.GET("/:id", middleware.RequireTaskAccess(), taskHandler.GetTask)
			tasks.PUT("/:id", middleware.RequireTaskAccess(), taskHandler.UpdateTask)
			tasks.POST("/:id/resolve", middleware.RequireTaskAccess(), taskHandler.ResolveConflict)
			tasks.DELETE("/:id", middleware.RequireTaskAccess(), taskHandler.DeleteTask)
		}

		// Activity feed (protected)
		activities := api.Group("/activities")
		activities.Use(middleware.RequireAuth())
		{
			activities.GET("", activityHandler.ListActivities)
		}
	}

	// Start server
	logger.Infof("Server starting on :%s", cfg.ServerPort)
	if err := r.Run(":" + cfg.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
