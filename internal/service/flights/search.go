package flights

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Domenick1991/flightdesk/internal/display"
	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/Domenick1991/flightdesk/internal/sortspec"
)

var ErrInvalidQuery = errors.New("invalid search query")

type SearchKind string

const (
	SearchBetween    SearchKind = "between"
	SearchFromDate   SearchKind = "from-date"
	SearchToDate     SearchKind = "to-date"
	SearchFromToDate SearchKind = "from-to-date"
)

type SearchQuery struct {
	Kind  SearchKind
	From  string
	To    string
	Date  time.Time
	Start time.Time
	End   time.Time
	// Sort is the operator's sort spec; nil selects the configured default.
	Sort *string
}

type SearchResult struct {
	Sort    string               `json:"sort"`
	Flights []display.FlightView `json:"flights"`
}

// Search fetches, annotates and orders flights. The sort spec is checked
// before any I/O so a typo never costs a database round trip.
func (s *FlightService) Search(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	spec := s.defaultSort
	if q.Sort != nil {
		spec = *q.Sort
	}
	keys, err := sortspec.Parse(spec)
	if err != nil {
		return nil, err
	}
	if err := q.validate(); err != nil {
		return nil, err
	}

	flights, err := s.fetch(ctx, q)
	if err != nil {
		return nil, err
	}

	views, err := display.AnnotateFlights(flights)
	if err != nil {
		return nil, err
	}
	return &SearchResult{Sort: spec, Flights: display.SortFlights(views, keys)}, nil
}

func (s *FlightService) fetch(ctx context.Context, q SearchQuery) ([]domain.Flight, error) {
	key := q.cacheKey()
	if s.cache != nil {
		if cached, err := s.cache.GetSearch(ctx, key); err == nil && cached != nil {
			return cached, nil
		} else if err != nil {
			log.Printf("WARNING: search cache read failed: %v", err)
		}
	}

	var (
		flights []domain.Flight
		err     error
	)
	start, end := dayBounds(q.Date)
	switch q.Kind {
	case SearchBetween:
		flights, err = s.repo.DepartingBetween(ctx, q.Start, q.End)
	case SearchFromDate:
		flights, err = s.repo.ByOriginAndDay(ctx, q.From, start, end)
	case SearchToDate:
		flights, err = s.repo.ByDestinationAndDay(ctx, q.To, start, end)
	case SearchFromToDate:
		flights, err = s.repo.ByRouteAndDay(ctx, q.From, q.To, start, end)
	}
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetSearch(ctx, key, flights); err != nil {
			log.Printf("WARNING: search cache write failed: %v", err)
		}
	}
	return flights, nil
}

func (q SearchQuery) validate() error {
	switch q.Kind {
	case SearchBetween:
		if q.Start.IsZero() || q.End.IsZero() {
			return fmt.Errorf("%w: start and end are required", ErrInvalidQuery)
		}
		if q.End.Before(q.Start) {
			return fmt.Errorf("%w: end before start", ErrInvalidQuery)
		}
		return nil
	case SearchFromDate:
		if q.From == "" {
			return fmt.Errorf("%w: origin is required", ErrInvalidQuery)
		}
	case SearchToDate:
		if q.To == "" {
			return fmt.Errorf("%w: destination is required", ErrInvalidQuery)
		}
	case SearchFromToDate:
		if q.From == "" || q.To == "" {
			return fmt.Errorf("%w: origin and destination are required", ErrInvalidQuery)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidQuery, q.Kind)
	}
	if q.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidQuery)
	}
	return nil
}

func (q SearchQuery) cacheKey() string {
	parts := []string{string(q.Kind)}
	switch q.Kind {
	case SearchBetween:
		parts = append(parts, q.Start.UTC().Format(time.RFC3339Nano), q.End.UTC().Format(time.RFC3339Nano))
	default:
		parts = append(parts, q.From, q.To, q.Date.Format("2006-01-02"))
	}
	return strings.Join(parts, "|")
}

// dayBounds returns [midnight, next midnight) of the date in its own location.
func dayBounds(date time.Time) (time.Time, time.Time) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return start, start.AddDate(0, 0, 1)
}
