package plans

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/flightdesk/internal/display"
	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/Domenick1991/flightdesk/internal/sortspec"
)

var ErrInvalidQuery = errors.New("invalid plan query")

type PlanUseCase interface {
	Plan(ctx context.Context, q PlanQuery) (*PlanResult, error)
}

// FlightFinder is the part of the flight repository the planner reads.
type FlightFinder interface {
	ByOriginAndDay(ctx context.Context, origin string, start, end time.Time) ([]domain.Flight, error)
	ByDestinationAndDay(ctx context.Context, destination string, start, end time.Time) ([]domain.Flight, error)
	ByRouteAndDay(ctx context.Context, origin, destination string, start, end time.Time) ([]domain.Flight, error)
}

type PlanQuery struct {
	From string
	To   string
	Date time.Time
	// Sort is nil when the caller did not ask for an order.
	Sort *string
}

type PlanResult struct {
	Sort  string             `json:"sort"`
	Plans []display.PlanView `json:"plans"`
}

type PlanService struct {
	flights     FlightFinder
	defaultSort string
	minConnect  time.Duration
	searchLimit int
}

type PlanServiceOption func(*PlanService)

func WithDefaultSort(spec string) PlanServiceOption {
	return func(s *PlanService) {
		if spec != "" {
			s.defaultSort = spec
		}
	}
}

func WithMinConnect(d time.Duration) PlanServiceOption {
	return func(s *PlanService) {
		if d > 0 {
			s.minConnect = d
		}
	}
}

// WithSearchLimit caps how many leg pairs one request may examine.
func WithSearchLimit(n int) PlanServiceOption {
	return func(s *PlanService) {
		if n > 0 {
			s.searchLimit = n
		}
	}
}

func NewPlanService(flights FlightFinder, opts ...PlanServiceOption) *PlanService {
	s := &PlanService{
		flights:     flights,
		defaultSort: "w",
		minConnect:  40 * time.Minute,
		searchLimit: 1000,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Plan lists bookable direct flights and one-stop connections from q.From to
// q.To departing on q.Date, ordered by the requested sort spec.
func (s *PlanService) Plan(ctx context.Context, q PlanQuery) (*PlanResult, error) {
	spec := s.defaultSort
	if q.Sort != nil {
		spec = *q.Sort
	}
	keys, err := sortspec.Parse(spec)
	if err != nil {
		return nil, err
	}
	if q.From == "" || q.To == "" {
		return nil, fmt.Errorf("%w: origin and destination are required", ErrInvalidQuery)
	}
	if q.From == q.To {
		return nil, fmt.Errorf("%w: origin equals destination", ErrInvalidQuery)
	}
	if q.Date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", ErrInvalidQuery)
	}

	start := time.Date(q.Date.Year(), q.Date.Month(), q.Date.Day(), 0, 0, 0, 0, q.Date.Location())
	end := start.AddDate(0, 0, 1)

	direct, err := s.flights.ByRouteAndDay(ctx, q.From, q.To, start, end)
	if err != nil {
		return nil, err
	}
	plans := make([]domain.Plan, 0, len(direct))
	for _, f := range direct {
		if f.Bookable() {
			plans = append(plans, domain.Plan{Legs: []domain.Flight{f}})
		}
	}

	connections, err := s.oneStop(ctx, q.From, q.To, start, end)
	if err != nil {
		return nil, err
	}
	plans = append(plans, connections...)

	views, err := display.AnnotatePlans(plans)
	if err != nil {
		return nil, err
	}
	return &PlanResult{Sort: spec, Plans: display.SortPlans(views, keys)}, nil
}

// oneStop pairs flights leaving from with flights arriving at to through a
// shared city. Both legs must be bookable and the second must leave at least
// minConnect after the first lands.
func (s *PlanService) oneStop(ctx context.Context, from, to string, start, end time.Time) ([]domain.Plan, error) {
	outbound, err := s.flights.ByOriginAndDay(ctx, from, start, end)
	if err != nil {
		return nil, err
	}
	inbound, err := s.flights.ByDestinationAndDay(ctx, to, start, end)
	if err != nil {
		return nil, err
	}

	arriving := make(map[string][]domain.Flight)
	for _, f := range inbound {
		if f.Origin != from && f.Bookable() {
			arriving[f.Origin] = append(arriving[f.Origin], f)
		}
	}

	var plans []domain.Plan
	limit := s.searchLimit
	for _, first := range outbound {
		if first.Destination == to || !first.Bookable() {
			continue
		}
		for _, second := range arriving[first.Destination] {
			if limit <= 0 {
				return plans, nil
			}
			limit--
			if second.DepartureTime.Sub(first.LandingTime) < s.minConnect {
				continue
			}
			plans = append(plans, domain.Plan{Legs: []domain.Flight{first, second}})
		}
	}
	return plans, nil
}

var _ PlanUseCase = (*PlanService)(nil)
