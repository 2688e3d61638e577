package api

import (
	"net/http"

	"github.com/Domenick1991/flightdesk/internal/service/plans"
	"github.com/gin-gonic/gin"
)

type PlanHandler struct {
	service plans.PlanUseCase
}

func NewPlanHandler(service plans.PlanUseCase) *PlanHandler {
	return &PlanHandler{service: service}
}

func (h *PlanHandler) Register(router *gin.RouterGroup) {
	router.GET("/", h.plan)
}

func (h *PlanHandler) plan(c *gin.Context) {
	date, err := dateParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.Plan(c.Request.Context(), plans.PlanQuery{
		From: c.Query("from"),
		To:   c.Query("to"),
		Date: date,
		Sort: sortParam(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
