package api

import (
	"net/http"

	"github.com/Domenick1991/flightdesk/internal/service/tickets"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type TicketHandler struct {
	service   tickets.TicketUseCase
	validator *validator.Validate
}

type ticketRequest struct {
	Phone string `json:"phone" validate:"required,e164|numeric"`
}

type withdrawResponse struct {
	FlightID  int64 `json:"flightId"`
	Withdrawn int   `json:"withdrawn"`
}

func NewTicketHandler(service tickets.TicketUseCase) *TicketHandler {
	return &TicketHandler{service: service, validator: newValidator()}
}

func (h *TicketHandler) Register(router *gin.RouterGroup) {
	router.POST("/:flightId/book", h.book)
	router.POST("/:flightId/withdraw", h.withdraw)
	router.GET("/queue", h.queue)
}

func (h *TicketHandler) book(c *gin.Context) {
	flightID, req, ok := h.bindTicket(c)
	if !ok {
		return
	}
	order, err := h.service.Book(c.Request.Context(), flightID, req.Phone)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *TicketHandler) withdraw(c *gin.Context) {
	flightID, req, ok := h.bindTicket(c)
	if !ok {
		return
	}
	n, err := h.service.Withdraw(c.Request.Context(), flightID, req.Phone)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, withdrawResponse{FlightID: flightID, Withdrawn: n})
}

func (h *TicketHandler) queue(c *gin.Context) {
	orders, err := h.service.Queue(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *TicketHandler) bindTicket(c *gin.Context) (int64, ticketRequest, bool) {
	var req ticketRequest
	flightID, ok := paramID(c, "flightId")
	if !ok {
		return 0, req, false
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return 0, req, false
	}
	if err := h.validator.Struct(&req); err != nil {
		respondInvalid(c, err)
		return 0, req, false
	}
	return flightID, req, true
}
