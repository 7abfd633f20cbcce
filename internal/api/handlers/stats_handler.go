package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prepview/prepview/internal/services"
)

type StatsHandler struct {
	svc services.StatsService
}

func NewStatsHandler(svc services.StatsService) *StatsHandler {
	return &StatsHandler{svc: svc}
}

func (h *StatsHandler) Global(c *gin.Context) {
	stats, err := h.svc.Global(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
