package api

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/Domenick1991/flightdesk/internal/display"
	"github.com/Domenick1991/flightdesk/internal/records"
	"github.com/Domenick1991/flightdesk/internal/repository"
	"github.com/Domenick1991/flightdesk/internal/service/flights"
	"github.com/Domenick1991/flightdesk/internal/service/plans"
	"github.com/Domenick1991/flightdesk/internal/service/tickets"
	"github.com/Domenick1991/flightdesk/internal/sortspec"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var badRequest = []error{
	sortspec.ErrInvalidSortSpec,
	display.ErrInvalidDuration,
	display.ErrEmptyItinerary,
	display.ErrDurationOverflow,
	records.ErrMissingField,
	records.ErrInvalidField,
	flights.ErrInvalidFlight,
	flights.ErrInvalidState,
	flights.ErrInvalidQuery,
	plans.ErrInvalidQuery,
	tickets.ErrPhoneMissing,
}

func statusFor(err error) int {
	for _, target := range badRequest {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	switch {
	case errors.Is(err, repository.ErrFlightNotFound), errors.Is(err, repository.ErrTicketNotFound):
		return http.StatusNotFound
	case errors.Is(err, tickets.ErrNotBookable), errors.Is(err, tickets.ErrQueueBusy):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// respondInvalid reports a malformed or incomplete request body.
func respondInvalid(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = fieldMessage(fe)
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "details": details})
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte", "min":
		return "must be at least " + fe.Param()
	case "gtefield":
		return "must not be before " + lowerFirst(fe.Param())
	case "nefield":
		return "must differ from " + lowerFirst(fe.Param())
	case "e164|numeric":
		return "must be a phone number"
	case "oneof":
		return "must be one of " + fe.Param()
	}
	return fmt.Sprintf("failed %s check", fe.Tag())
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
