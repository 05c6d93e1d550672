package handlers

import (
	"context"
	"net/http"

	"qcmanager/services"

	"github.com/gin-gonic/gin"
)

type StatsHandler struct {
	statsService *services.StatsService
}

func NewStatsHandler(statsService *services.StatsService) *StatsHandler {
	return &StatsHandler{
		statsService: statsService,
	}
}

// count wraps a counting query as a {key: n} endpoint.
func count(key string, fn func(context.Context) (int64, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := fn(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{key: n})
	}
}

func (h *StatsHandler) CountTrainees(c *gin.Context) {
	count("nbStagiaire", h.statsService.CountTrainees)(c)
}

func (h *StatsHandler) CountQCMs(c *gin.Context) {
	count("nbQuestionnaire", h.statsService.CountQCMs)(c)
}

func (h *StatsHandler) CountCompleted(c *gin.Context) {
	count("nbCompletQuestionnaire", h.statsService.CountCompletedAttempts)(c)
}

func (h *StatsHandler) CountAttempts(c *gin.Context) {
	count("nbRealisedQuestionnaire", h.statsService.CountAttempts)(c)
}

func (h *StatsHandler) MostPopularQCM(c *gin.Context) {
	popular, err := h.statsService.MostPopularQCM(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"questionnairePopulaire": popular})
}

func (h *StatsHandler) MostActiveTrainee(c *gin.Context) {
	active, err := h.statsService.MostActiveTrainee(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"firstActivStagiaire": active})
}

func (h *StatsHandler) TraineeRanking(c *gin.Context) {
	rows, err := h.statsService.TraineeRanking(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *StatsHandler) AverageTime(c *gin.Context) {
	avg, err := h.statsService.AverageAttemptTime(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"averageTime": avg})
}
