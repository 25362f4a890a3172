package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"carbon-scribe/company-portal/company-portal-backend/internal/achievements"
	"carbon-scribe/company-portal/company-portal-backend/internal/campaigns"
	"carbon-scribe/company-portal/company-portal-backend/internal/config"
	"carbon-scribe/company-portal/company-portal-backend/internal/dashboard"
	"carbon-scribe/company-portal/company-portal-backend/internal/emissions"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := newLogger(cfg.Logging.Level)
	defer logger.Sync()

	// Connect to the document store
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		logger.Fatal("Failed to connect to mongo", zap.Error(err))
	}
	defer mongoClient.Disconnect(context.Background())

	if err := mongoClient.Ping(ctx, nil); err != nil {
		logger.Fatal("Failed to ping mongo", zap.Error(err))
	}
	mongoDB := mongoClient.Database(cfg.Mongo.Database)

	// Connect to postgres for the dashboard aggregates
	logger.Info("Connecting to database",
		zap.String("host", cfg.Database.Host),
		zap.String("db_name", cfg.Database.DBName))
	db, err := sqlx.Connect("postgres", cfg.Database.GetDatabaseURL())
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Initialize Emissions Module
	emissionsRepo := emissions.NewRepository(mongoDB)
	emissionsService := emissions.NewService(emissionsRepo, logger)
	emissionsHandler := emissions.NewHandler(emissionsService, logger)

	// Initialize Achievements Module
	campaignRepo := campaigns.NewRepository(mongoDB)
	achievementsRepo := achievements.NewRepository(mongoDB)
	achievementsService := achievements.NewService(achievementsRepo, campaignRepo, emissionsService, logger)
	achievementsHandler := achievements.NewHandler(achievementsService, logger)

	// Initialize Dashboard Module
	summaryCache := dashboard.NewSummaryCache(cfg.Dashboard.CacheTTL)
	defer summaryCache.Stop()
	dashboardRepo := dashboard.NewPostgresRepository(db)
	dashboardService := dashboard.NewService(emissionsService, dashboardRepo, summaryCache, logger)
	dashboardHandler := dashboard.NewHandler(dashboardService, logger)

	// Setup Router
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()

	// CORS Middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Register Routes
	api := router.Group("/api/v1")
	{
		emissionsHandler.RegisterRoutes(api)
		achievementsHandler.RegisterRoutes(api)
		dashboardHandler.RegisterRoutes(api)
	}

	// Health Check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
		})
	})

	// Start Server
	srv := &http.Server{
		Addr:    cfg.Server.GetServerAddr(),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen: %s\n", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.Int("port", cfg.Server.Port))

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown:", zap.Error(err))
	}

	logger.Info("Server exiting")
}

func newLogger(level string) *zap.Logger {
	if level == "debug" {
		logger, _ := zap.NewDevelopment()
		return logger
	}
	logger, _ := zap.NewProduction()
	return logger
}
