package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/Domenick1991/flightdesk/internal/display"
	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/Domenick1991/flightdesk/internal/service/flights"
	"github.com/Domenick1991/flightdesk/internal/sortspec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestSearchHandler_fromDate_DefaultSort(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewSearchHandler(mockService)

	date := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	result := &flights.SearchResult{
		Sort: "dpR",
		Flights: []display.FlightView{
			{Flight: domain.Flight{ID: 1, FlightNo: "CA1501", DurationSeconds: 5400}, DurationHours: "1.5"},
		},
	}
	mockService.On("Search", mock.Anything, flights.SearchQuery{
		Kind: flights.SearchFromDate, From: "PEK", Date: date,
	}).Return(result, nil)

	w := serve(handler.Register, "/search", "GET", "/search/from-date?from=PEK&date=2024-03-10", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"durationHours":"1.5"`)
	mockService.AssertExpectations(t)
}

func TestSearchHandler_between_ExplicitSort(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewSearchHandler(mockService)

	mockService.On("Search", mock.Anything, mock.MatchedBy(func(q flights.SearchQuery) bool {
		return q.Kind == flights.SearchBetween &&
			q.Sort != nil && *q.Sort == "pW" &&
			q.Start.Equal(time.Date(2024, 3, 10, 6, 0, 0, 0, time.UTC)) &&
			q.End.Equal(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC))
	})).Return(&flights.SearchResult{Sort: "pW", Flights: []display.FlightView{}}, nil)

	w := serve(handler.Register, "/search", "GET", "/search/between?start=2024-03-10T06:00:00Z&end=2024-03-10T12:00:00Z&sort=pW", "")

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestSearchHandler_EmptySortIsPassedThrough(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewSearchHandler(mockService)

	mockService.On("Search", mock.Anything, mock.MatchedBy(func(q flights.SearchQuery) bool {
		return q.Sort != nil && *q.Sort == ""
	})).Return(nil, &sortspec.InvalidSortSpecError{Position: -1})

	w := serve(handler.Register, "/search", "GET", "/search/to-date?to=SHA&date=2024-03-10&sort=", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid sort spec")
}

func TestSearchHandler_InvalidSortSpec(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewSearchHandler(mockService)

	mockService.On("Search", mock.Anything, mock.Anything).Return(nil, &sortspec.InvalidSortSpecError{Spec: "dx", Char: 'x', Position: 1})

	w := serve(handler.Register, "/search", "GET", "/search/from-to-date?from=PEK&to=SHA&date=2024-03-10&sort=dx", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `x`)
}

func TestSearchHandler_BadDate(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewSearchHandler(mockService)

	w := serve(handler.Register, "/search", "GET", "/search/from-date?from=PEK&date=10.03.2024", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid date")
	mockService.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestSearchHandler_BadTimestamp(t *testing.T) {
	handler := NewSearchHandler(&MockFlightUseCase{})

	w := serve(handler.Register, "/search", "GET", "/search/between?start=yesterday&end=2024-03-10T12:00:00Z", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid start")
}

func TestSearchHandler_NegativeDuration(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewSearchHandler(mockService)
	mockService.On("Search", mock.Anything, mock.Anything).Return(nil, &display.InvalidDurationError{Seconds: -5})

	w := serve(handler.Register, "/search", "GET", "/search/to-date?to=SHA&date=2024-03-10", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "-5 seconds")
}
