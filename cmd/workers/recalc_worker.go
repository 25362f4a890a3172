package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"carbon-scribe/company-portal/company-portal-backend/internal/achievements"
	"carbon-scribe/company-portal/company-portal-backend/internal/campaigns"
	"carbon-scribe/company-portal/company-portal-backend/internal/config"
	"carbon-scribe/company-portal/company-portal-backend/internal/dashboard"
	"carbon-scribe/company-portal/company-portal-backend/internal/emissions"
)

// RecalcWorker periodically re-evaluates badges for every company and
// refreshes stale dashboard aggregates
type RecalcWorker struct {
	achievements *achievements.Service
	dashboard    *dashboard.Service
	logger       *zap.Logger
	config       RecalcWorkerConfig
}

// RecalcWorkerConfig configuration for the recalculation worker
type RecalcWorkerConfig struct {
	BadgeEvaluationSchedule string
	AggregateRefreshLimit   int
	MaxConcurrent           int
}

// NewRecalcWorker creates a new recalculation worker
func NewRecalcWorker(achievementsService *achievements.Service, dashboardService *dashboard.Service, logger *zap.Logger, config RecalcWorkerConfig) *RecalcWorker {
	if config.MaxConcurrent < 1 {
		config.MaxConcurrent = 5
	}
	return &RecalcWorker{
		achievements: achievementsService,
		dashboard:    dashboardService,
		logger:       logger,
		config:       config,
	}
}

// evaluateAllCompanies sweeps a badge evaluation over every known company.
// Each evaluation commits through the same atomic award path as the API,
// so overlapping sweeps and user-triggered evaluations cannot double-award.
func (w *RecalcWorker) evaluateAllCompanies(ctx context.Context) {
	companyIDs, err := w.achievements.ListCompanies(ctx)
	if err != nil {
		w.logger.Error("Failed to list companies", zap.Error(err))
		return
	}

	if len(companyIDs) == 0 {
		return
	}

	w.logger.Info("Starting badge evaluation sweep", zap.Int("companies", len(companyIDs)))
	startTime := time.Now()

	// Process with concurrency limit
	sem := make(chan struct{}, w.config.MaxConcurrent)

	for _, companyID := range companyIDs {
		sem <- struct{}{}

		go func(companyID string) {
			defer func() { <-sem }()
			w.evaluateCompany(ctx, companyID)
		}(companyID)
	}

	// Wait for completion
	for i := 0; i < w.config.MaxConcurrent; i++ {
		sem <- struct{}{}
	}

	w.logger.Info("Badge evaluation sweep finished",
		zap.Int("companies", len(companyIDs)),
		zap.Duration("duration", time.Since(startTime)))
}

func (w *RecalcWorker) evaluateCompany(ctx context.Context, companyID string) {
	result, err := w.achievements.EvaluateBadges(ctx, companyID)
	if err != nil {
		w.logger.Error("Badge evaluation failed",
			zap.String("company_id", companyID),
			zap.Error(err))
		return
	}

	if result.CreditsAwarded > 0 {
		w.logger.Info("Credits awarded during sweep",
			zap.String("company_id", companyID),
			zap.Int64("credits", result.CreditsAwarded))
	}

	if err := w.dashboard.Invalidate(ctx, companyID); err != nil {
		w.logger.Error("Failed to invalidate dashboard aggregates",
			zap.String("company_id", companyID),
			zap.Error(err))
	}
}

// refreshStaleAggregates recomputes persisted dashboard aggregates that
// were marked stale since the last pass
func (w *RecalcWorker) refreshStaleAggregates(ctx context.Context) {
	refreshed, err := w.dashboard.RefreshStale(ctx, w.config.AggregateRefreshLimit)
	if err != nil {
		w.logger.Error("Failed to refresh stale aggregates", zap.Error(err))
		return
	}
	if refreshed > 0 {
		w.logger.Info("Refreshed stale aggregates", zap.Int("count", refreshed))
	}
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Connect to the document store
	connectCtx, connectCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer connectCancel()

	mongoClient, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		logger.Fatal("Failed to connect to mongo", zap.Error(err))
	}
	defer mongoClient.Disconnect(context.Background())

	if err := mongoClient.Ping(connectCtx, nil); err != nil {
		logger.Fatal("Failed to ping mongo", zap.Error(err))
	}
	mongoDB := mongoClient.Database(cfg.Mongo.Database)

	// Connect to postgres
	db, err := sqlx.Connect("postgres", cfg.Database.GetDatabaseURL())
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Connected to data stores")

	// Wire services
	emissionsRepo := emissions.NewRepository(mongoDB)
	emissionsService := emissions.NewService(emissionsRepo, logger)
	campaignRepo := campaigns.NewRepository(mongoDB)
	achievementsRepo := achievements.NewRepository(mongoDB)
	achievementsService := achievements.NewService(achievementsRepo, campaignRepo, emissionsService, logger)

	summaryCache := dashboard.NewSummaryCache(time.Minute)
	defer summaryCache.Stop()
	dashboardRepo := dashboard.NewPostgresRepository(db)
	dashboardService := dashboard.NewService(emissionsService, dashboardRepo, summaryCache, logger)

	worker := NewRecalcWorker(achievementsService, dashboardService, logger, RecalcWorkerConfig{
		BadgeEvaluationSchedule: cfg.Worker.BadgeEvaluationSchedule,
		AggregateRefreshLimit:   cfg.Worker.AggregateRefreshLimit,
		MaxConcurrent:           5,
	})

	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Schedule the jobs
	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.Worker.BadgeEvaluationSchedule, func() {
		worker.evaluateAllCompanies(ctx)
	})
	if err != nil {
		logger.Fatal("Invalid badge evaluation schedule",
			zap.String("schedule", cfg.Worker.BadgeEvaluationSchedule),
			zap.Error(err))
	}
	_, err = scheduler.AddFunc("@every 1m", func() {
		worker.refreshStaleAggregates(ctx)
	})
	if err != nil {
		logger.Fatal("Failed to schedule aggregate refresh", zap.Error(err))
	}

	scheduler.Start()
	logger.Info("Recalculation worker started",
		zap.String("badge_schedule", cfg.Worker.BadgeEvaluationSchedule))

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutdown signal received")
	cancel()

	stopCtx := scheduler.Stop()
	<-stopCtx.Done()

	logger.Info("Recalculation worker stopped")
}
