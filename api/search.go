package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Domenick1991/flightdesk/internal/service/flights"
	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

type SearchHandler struct {
	service flights.FlightUseCase
}

func NewSearchHandler(service flights.FlightUseCase) *SearchHandler {
	return &SearchHandler{service: service}
}

func (h *SearchHandler) Register(router *gin.RouterGroup) {
	router.GET("/between", h.search(flights.SearchBetween))
	router.GET("/from-date", h.search(flights.SearchFromDate))
	router.GET("/to-date", h.search(flights.SearchToDate))
	router.GET("/from-to-date", h.search(flights.SearchFromToDate))
}

func (h *SearchHandler) search(kind flights.SearchKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := flights.SearchQuery{
			Kind: kind,
			From: c.Query("from"),
			To:   c.Query("to"),
			Sort: sortParam(c),
		}

		var err error
		if kind == flights.SearchBetween {
			if q.Start, err = timeParam(c, "start"); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if q.End, err = timeParam(c, "end"); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		} else if q.Date, err = dateParam(c); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		result, err := h.service.Search(c.Request.Context(), q)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// sortParam is nil when the request carries no sort parameter at all, so an
// explicit empty value still reaches the parser and is rejected.
func sortParam(c *gin.Context) *string {
	spec, ok := c.GetQuery("sort")
	if !ok {
		return nil
	}
	return &spec
}

// timeParam accepts RFC 3339 timestamps. A missing value is left zero for the
// service to reject.
func timeParam(c *gin.Context, name string) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: expected RFC 3339 timestamp", name)
	}
	return t, nil
}

func dateParam(c *gin.Context) (time.Time, error) {
	raw := c.Query("date")
	if raw == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date: expected %s", dateLayout)
	}
	return d, nil
}
