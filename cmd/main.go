package main

import (
	"context"
	"fmt"
	"os"

	"github.com/murmurwatch/murmur-backend/internal/db"
	"github.com/murmurwatch/murmur-backend/internal/detection"
	"github.com/murmurwatch/murmur-backend/internal/handlers"
	"github.com/murmurwatch/murmur-backend/internal/logger"
	"github.com/murmurwatch/murmur-backend/internal/observability"
	"github.com/murmurwatch/murmur-backend/internal/repos"
	"github.com/murmurwatch/murmur-backend/internal/server"
	"github.com/murmurwatch/murmur-backend/internal/services"
	"github.com/murmurwatch/murmur-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Tracing
	ctx := context.Background()
	shutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "murmur-backend",
		Environment: utils.GetEnv("ENVIRONMENT", "development", log),
		Version:     utils.GetEnv("SERVICE_VERSION", "dev", log),
	})
	if shutdown != nil {
		defer shutdown(ctx)
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Detection engine
	log.Info("Loading detection config from main...")
	detectionConfig, err := detection.LoadConfig(log)
	if err != nil {
		log.Error("Invalid detection config", "error", err)
		os.Exit(1)
	}
	detector, err := detection.NewDetector(detectionConfig, log)
	if err != nil {
		log.Error("Could not init Detector", "error", err)
		os.Exit(1)
	}

	// Repos
	log.Info("Setting up Repos from main...")
	accountRepo := repos.NewAccountRepo(thePG, log)
	postRepo := repos.NewPostRepo(thePG, log)
	edgeRepo := repos.NewEdgeRepo(thePG, log)
	clusterRepo := repos.NewClusterRepo(thePG, log)
	metricRepo := repos.NewMetricRepo(thePG, log)
	botScoreRepo := repos.NewBotScoreRepo(thePG, log)

	// Services
	log.Info("Setting up Services from main...")
	coordinationService := services.NewCoordinationService(thePG, log, detector, postRepo, edgeRepo, clusterRepo, metricRepo)
	botScoreService := services.NewBotScoreService(thePG, log, accountRepo, postRepo, botScoreRepo)
	ingestService := services.NewIngestService(thePG, log, accountRepo, postRepo)
	statsService := services.NewStatsService(thePG, log, postRepo, accountRepo, clusterRepo, botScoreRepo)
	schedulerService := services.NewSchedulerService(log, coordinationService, botScoreService)

	if utils.GetEnvAsBool("SCHEDULER_ENABLED", true, log) {
		schedulerService.Start(ctx)
		defer schedulerService.Stop()
	}

	// Handlers
	log.Info("Setting up handlers from main...")
	coordinationHandler := handlers.NewCoordinationHandler(coordinationService)
	accountHandler := handlers.NewAccountHandler(coordinationService, botScoreService)
	ingestHandler := handlers.NewIngestHandler(ingestService)
	statsHandler := handlers.NewStatsHandler(statsService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		CoordinationHandler: coordinationHandler,
		AccountHandler:      accountHandler,
		IngestHandler:       ingestHandler,
		StatsHandler:        statsHandler,
		AllowedOrigins:      utils.GetEnv("CORS_ALLOWED_ORIGINS", "", log),
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
	}
}
