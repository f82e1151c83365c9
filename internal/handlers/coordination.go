package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/murmurwatch/murmur-backend/internal/services"
)

type CoordinationHandler struct {
	coordinationService services.CoordinationService
}

func NewCoordinationHandler(coordinationService services.CoordinationService) *CoordinationHandler {
	return &CoordinationHandler{coordinationService: coordinationService}
}

// GetMetrics returns hourly coordination metrics for the requested lookback.
// Query params: platform (optional), hours (default 24).
func (ch *CoordinationHandler) GetMetrics(c *gin.Context) {
	platform := c.Query("platform")
	hours := queryInt(c, "hours", 24)

	metrics, err := ch.coordinationService.GetRecentMetrics(c.Request.Context(), platform, hours)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "metrics_failed", err)
		return
	}
	RespondOK(c, gin.H{"metrics": metrics, "count": len(metrics)})
}

// GetSpikes returns hours whose coordination score deviates from the recent
// baseline. Query params: platform (optional), hours (default 168),
// threshold_std (default 2.0).
func (ch *CoordinationHandler) GetSpikes(c *gin.Context) {
	platform := c.Query("platform")
	hours := queryInt(c, "hours", 168)
	threshold := queryFloat(c, "threshold_std", 2.0)

	spikes, err := ch.coordinationService.GetSpikes(c.Request.Context(), platform, hours, threshold)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "spikes_failed", err)
		return
	}
	RespondOK(c, gin.H{"spikes": spikes, "count": len(spikes)})
}

func (ch *CoordinationHandler) GetClusters(c *gin.Context) {
	platform := c.Query("platform")
	limit := queryInt(c, "limit", 50)

	clusters, err := ch.coordinationService.GetActiveClusters(c.Request.Context(), platform, limit)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "clusters_failed", err)
		return
	}
	RespondOK(c, gin.H{"clusters": clusters, "count": len(clusters)})
}

func (ch *CoordinationHandler) GetCluster(c *gin.Context) {
	clusterID := c.Param("cluster_id")
	cluster, err := ch.coordinationService.GetCluster(c.Request.Context(), clusterID)
	if err != nil {
		RespondError(c, http.StatusNotFound, "cluster_not_found", err)
		return
	}
	RespondOK(c, cluster)
}

type analyzeRequest struct {
	Platform string `json:"platform" binding:"required"`
	Start    string `json:"start" binding:"required"`
	End      string `json:"end"`
}

// Analyze triggers analysis of one hour or a range of hours on demand.
// Timestamps are RFC 3339; when end is omitted one hour is analyzed.
func (ch *CoordinationHandler) Analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	start, err := time.Parse(time.RFC3339, req.Start)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_start", err)
		return
	}

	if req.End == "" {
		result, err := ch.coordinationService.AnalyzeHour(c.Request.Context(), req.Platform, start)
		if err != nil {
			RespondError(c, http.StatusInternalServerError, "analysis_failed", err)
			return
		}
		RespondOK(c, result)
		return
	}

	end, err := time.Parse(time.RFC3339, req.End)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_end", err)
		return
	}
	if !end.After(start) {
		RespondError(c, http.StatusBadRequest, "invalid_range", fmt.Errorf("end must be after start"))
		return
	}
	results, err := ch.coordinationService.AnalyzeRange(c.Request.Context(), req.Platform, start, end)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "analysis_failed", err)
		return
	}
	RespondOK(c, gin.H{"results": results, "count": len(results)})
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func queryFloat(c *gin.Context, name string, fallback float64) float64 {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}
