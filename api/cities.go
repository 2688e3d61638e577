package api

import (
	"net/http"

	"github.com/Domenick1991/flightdesk/internal/service/flights"
	"github.com/gin-gonic/gin"
)

// CityHandler lists the cities the schedule serves, for search pickers.
type CityHandler struct {
	service flights.FlightUseCase
}

func NewCityHandler(service flights.FlightUseCase) *CityHandler {
	return &CityHandler{service: service}
}

func (h *CityHandler) Register(router *gin.RouterGroup) {
	router.GET("/", h.list)
}

func (h *CityHandler) list(c *gin.Context) {
	cities, err := h.service.Cities(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if cities == nil {
		cities = []string{}
	}
	c.JSON(http.StatusOK, cities)
}
