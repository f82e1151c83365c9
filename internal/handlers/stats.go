package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/murmurwatch/murmur-backend/internal/services"
)

type StatsHandler struct {
	statsService services.StatsService
}

func NewStatsHandler(statsService services.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

func (sh *StatsHandler) GetOverview(c *gin.Context) {
	overview, err := sh.statsService.GetOverview(c.Request.Context(), c.Query("platform"))
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "stats_failed", err)
		return
	}
	RespondOK(c, overview)
}
