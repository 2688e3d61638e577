package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/Domenick1991/flightdesk/internal/records"
	"github.com/Domenick1991/flightdesk/internal/service/flights"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type FlightHandler struct {
	service   flights.FlightUseCase
	validator *validator.Validate
}

type flightRequest struct {
	FlightNo        string    `json:"flightNo" validate:"required"`
	AirlineName     string    `json:"airlineName" validate:"required"`
	State           string    `json:"state" validate:"omitempty,oneof=BOOKING PREPARE DONE DELAYED CANCELED"`
	DepartureTime   time.Time `json:"departureTime" validate:"required"`
	LandingTime     time.Time `json:"landingTime" validate:"required,gtefield=DepartureTime"`
	Origin          string    `json:"origin" validate:"required"`
	Destination     string    `json:"destination" validate:"required,nefield=Origin"`
	Stops           []string  `json:"stops"`
	Layovers        []int64   `json:"layovers" validate:"dive,gte=0"`
	TotalCabin      int       `json:"totalCabin" validate:"gte=0"`
	RestCabin       int       `json:"restCabin" validate:"gte=0"`
	PriceCents      int64     `json:"priceCents" validate:"gte=0"`
	DurationSeconds int64     `json:"duration" validate:"gte=0"`
}

func (r flightRequest) flight() domain.Flight {
	return domain.Flight{
		FlightNo:        r.FlightNo,
		AirlineName:     r.AirlineName,
		State:           domain.FlightState(r.State),
		DepartureTime:   r.DepartureTime,
		LandingTime:     r.LandingTime,
		Origin:          r.Origin,
		Destination:     r.Destination,
		Stops:           r.Stops,
		Layovers:        r.Layovers,
		TotalCabin:      r.TotalCabin,
		RestCabin:       r.RestCabin,
		PriceCents:      r.PriceCents,
		DurationSeconds: r.DurationSeconds,
	}
}

type delayRequest struct {
	DepartureTime time.Time `json:"departureTime" validate:"required"`
}

type stateRequest struct {
	State string `json:"state" validate:"required,oneof=BOOKING PREPARE DONE"`
}

func NewFlightHandler(service flights.FlightUseCase) *FlightHandler {
	return &FlightHandler{service: service, validator: newValidator()}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.GET("/", h.list)
	router.POST("/", h.create)
	router.POST("/import", h.importFlights)
	router.GET("/no/:flightNo", h.getByFlightNo)
	router.GET("/:id", h.get)
	router.PUT("/:id", h.update)
	router.DELETE("/:id", h.delete)
	router.POST("/:id/delay", h.delay)
	router.POST("/:id/cancel", h.cancel)
	router.POST("/:id/state", h.setState)
}

func (h *FlightHandler) list(c *gin.Context) {
	flights, err := h.service.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, flights)
}

func (h *FlightHandler) get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	flight, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, flight)
}

func (h *FlightHandler) getByFlightNo(c *gin.Context) {
	flight, err := h.service.GetByFlightNo(c.Request.Context(), c.Param("flightNo"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, flight)
}

func (h *FlightHandler) create(c *gin.Context) {
	req, ok := h.bindFlight(c)
	if !ok {
		return
	}
	flight, err := h.service.Create(c.Request.Context(), req.flight())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, flight)
}

func (h *FlightHandler) update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	req, ok := h.bindFlight(c)
	if !ok {
		return
	}
	flight, err := h.service.Update(c.Request.Context(), id, req.flight())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, flight)
}

func (h *FlightHandler) delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *FlightHandler) delay(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req delayRequest
	if !h.bind(c, &req) {
		return
	}
	change, err := h.service.Delay(c.Request.Context(), id, req.DepartureTime)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, change)
}

func (h *FlightHandler) cancel(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	change, err := h.service.Cancel(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, change)
}

func (h *FlightHandler) setState(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req stateRequest
	if !h.bind(c, &req) {
		return
	}
	flight, err := h.service.SetState(c.Request.Context(), id, domain.FlightState(req.State))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, flight)
}

// importFlights takes a JSON array of raw flight records. Prices in the
// records are in currency units.
func (h *FlightHandler) importFlights(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	decoded, err := records.DecodeFlights(body)
	if err != nil {
		respondError(c, err)
		return
	}
	created, err := h.service.Import(c.Request.Context(), decoded)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"imported": len(created), "flights": created})
}

func (h *FlightHandler) bindFlight(c *gin.Context) (flightRequest, bool) {
	var req flightRequest
	ok := h.bind(c, &req)
	return req, ok
}

func (h *FlightHandler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	if err := h.validator.Struct(req); err != nil {
		respondInvalid(c, err)
		return false
	}
	return true
}

func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}
