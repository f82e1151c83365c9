package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/murmurwatch/murmur-backend/internal/handlers"
)

type RouterConfig struct {
	CoordinationHandler *handlers.CoordinationHandler
	AccountHandler      *handlers.AccountHandler
	IngestHandler       *handlers.IngestHandler
	StatsHandler        *handlers.StatsHandler
	AllowedOrigins      string // comma-separated
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := []string{"http://localhost:3000", "http://localhost:5173"}
	if cfg.AllowedOrigins != "" {
		origins = origins[:0]
		for _, o := range strings.Split(cfg.AllowedOrigins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		// Coordination
		api.GET("/coordination/metrics", cfg.CoordinationHandler.GetMetrics)
		api.GET("/coordination/spikes", cfg.CoordinationHandler.GetSpikes)
		api.GET("/coordination/clusters", cfg.CoordinationHandler.GetClusters)
		api.GET("/coordination/clusters/:cluster_id", cfg.CoordinationHandler.GetCluster)
		api.POST("/coordination/analyze", cfg.CoordinationHandler.Analyze)

		// Accounts
		api.GET("/accounts/flagged", cfg.AccountHandler.GetFlagged)
		api.GET("/accounts/:account_id/edges", cfg.AccountHandler.GetEdges)
		api.GET("/accounts/:account_id/clusters", cfg.AccountHandler.GetClusters)
		api.GET("/accounts/:account_id/bot-score", cfg.AccountHandler.GetBotScore)
		api.POST("/accounts/:account_id/bot-score/analyze", cfg.AccountHandler.AnalyzeBotScore)

		// Ingestion
		api.POST("/ingest/batch", cfg.IngestHandler.IngestBatch)

		// Stats
		api.GET("/stats/overview", cfg.StatsHandler.GetOverview)
	}

	return router
}
