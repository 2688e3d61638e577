package flights

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/Domenick1991/flightdesk/internal/kafka"
	"github.com/Domenick1991/flightdesk/internal/repository"
)

var (
	ErrInvalidFlight = errors.New("invalid flight")
	ErrInvalidState  = errors.New("invalid flight state")
)

type FlightUseCase interface {
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	GetByFlightNo(ctx context.Context, flightNo string) (*domain.Flight, error)
	Create(ctx context.Context, flight domain.Flight) (*domain.Flight, error)
	Update(ctx context.Context, id int64, flight domain.Flight) (*domain.Flight, error)
	Delete(ctx context.Context, id int64) error
	Delay(ctx context.Context, id int64, departure time.Time) (*StateChange, error)
	Cancel(ctx context.Context, id int64) (*StateChange, error)
	SetState(ctx context.Context, id int64, state domain.FlightState) (*domain.Flight, error)
	Import(ctx context.Context, flights []domain.Flight) ([]domain.Flight, error)
	Search(ctx context.Context, q SearchQuery) (*SearchResult, error)
	Cities(ctx context.Context) ([]string, error)
}

// SearchCache holds raw query results. Annotation happens per request, so
// cached entries never carry derived fields.
type SearchCache interface {
	GetSearch(ctx context.Context, query string) ([]domain.Flight, error)
	SetSearch(ctx context.Context, query string, flights []domain.Flight) error
	InvalidateSearches(ctx context.Context) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// StateChange is the outcome of a delay or cancellation, with the closest
// bookable flight on the same route when there is one.
type StateChange struct {
	Flight      *domain.Flight `json:"flight"`
	Recommended *domain.Flight `json:"recommended,omitempty"`
}

type FlightService struct {
	repo        repository.FlightRepository
	cache       SearchCache
	producer    Producer
	flightTopic string
	defaultSort string
}

type FlightServiceOption func(*FlightService)

func WithEvents(producer Producer, topic string) FlightServiceOption {
	return func(s *FlightService) {
		s.producer = producer
		s.flightTopic = topic
	}
}

func WithDefaultSort(spec string) FlightServiceOption {
	return func(s *FlightService) {
		if spec != "" {
			s.defaultSort = spec
		}
	}
}

func NewFlightService(repo repository.FlightRepository, cache SearchCache, opts ...FlightServiceOption) *FlightService {
	s := &FlightService{repo: repo, cache: cache, defaultSort: "dpR"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *FlightService) List(ctx context.Context) ([]domain.Flight, error) {
	return s.repo.List(ctx)
}

func (s *FlightService) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *FlightService) GetByFlightNo(ctx context.Context, flightNo string) (*domain.Flight, error) {
	return s.repo.GetByFlightNo(ctx, flightNo)
}

func (s *FlightService) Create(ctx context.Context, flight domain.Flight) (*domain.Flight, error) {
	if err := normalize(&flight); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, &flight); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return &flight, nil
}

func (s *FlightService) Update(ctx context.Context, id int64, flight domain.Flight) (*domain.Flight, error) {
	flight.ID = id
	if err := normalize(&flight); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, &flight); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return &flight, nil
}

func (s *FlightService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Delay moves the flight to departure, keeping its flight time, and marks it DELAYED.
func (s *FlightService) Delay(ctx context.Context, id int64, departure time.Time) (*StateChange, error) {
	flight, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if departure.IsZero() {
		return nil, fmt.Errorf("%w: delayed departure is required", ErrInvalidFlight)
	}

	recommended, err := s.recommend(ctx, flight)
	if err != nil {
		return nil, err
	}

	shift := departure.Sub(flight.DepartureTime)
	flight.DepartureTime = departure
	flight.LandingTime = flight.LandingTime.Add(shift)
	flight.State = domain.FlightStateDelayed
	if err := s.repo.Update(ctx, flight); err != nil {
		return nil, err
	}
	s.invalidate(ctx)

	s.publish(ctx, kafka.EventFlightDelayed, flight, recommended)
	return &StateChange{Flight: flight, Recommended: recommended}, nil
}

func (s *FlightService) Cancel(ctx context.Context, id int64) (*StateChange, error) {
	flight, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	recommended, err := s.recommend(ctx, flight)
	if err != nil {
		return nil, err
	}

	flight.State = domain.FlightStateCanceled
	if err := s.repo.Update(ctx, flight); err != nil {
		return nil, err
	}
	s.invalidate(ctx)

	s.publish(ctx, kafka.EventFlightCanceled, flight, recommended)
	return &StateChange{Flight: flight, Recommended: recommended}, nil
}

// SetState covers the transitions that need no passenger notice.
func (s *FlightService) SetState(ctx context.Context, id int64, state domain.FlightState) (*domain.Flight, error) {
	if !state.Valid() || state == domain.FlightStateDelayed || state == domain.FlightStateCanceled {
		return nil, fmt.Errorf("%w: %q", ErrInvalidState, state)
	}
	flight, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	flight.State = state
	if err := s.repo.Update(ctx, flight); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return flight, nil
}

// Import validates every flight, then stores the whole batch or nothing.
func (s *FlightService) Import(ctx context.Context, flights []domain.Flight) ([]domain.Flight, error) {
	for i := range flights {
		if err := normalize(&flights[i]); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}

	if len(flights) == 0 {
		return flights, nil
	}
	if err := s.repo.CreateMany(ctx, flights); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return flights, nil
}

func (s *FlightService) Cities(ctx context.Context) ([]string, error) {
	return s.repo.Cities(ctx)
}

func (s *FlightService) recommend(ctx context.Context, flight *domain.Flight) (*domain.Flight, error) {
	next, err := s.repo.NextBookable(ctx, flight.Origin, flight.Destination, flight.DepartureTime, flight.ID)
	if errors.Is(err, repository.ErrFlightNotFound) {
		return nil, nil
	}
	return next, err
}

func (s *FlightService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateSearches(ctx); err != nil {
		log.Printf("WARNING: failed to invalidate search cache: %v", err)
	}
}

func (s *FlightService) publish(ctx context.Context, eventType string, flight, recommended *domain.Flight) {
	if s.producer == nil || s.flightTopic == "" {
		return
	}
	event := kafka.FlightEvent{
		Type:          eventType,
		FlightID:      flight.ID,
		FlightNo:      flight.FlightNo,
		State:         string(flight.State),
		DepartureTime: flight.DepartureTime,
	}
	if recommended != nil {
		event.RecommendedID = recommended.ID
		event.RecommendedNo = recommended.FlightNo
		event.RecommendedDepart = recommended.DepartureTime
	}
	if err := s.producer.Publish(ctx, s.flightTopic, flight.FlightNo, event); err != nil {
		log.Printf("WARNING: failed to publish %s event for flight %s: %v", eventType, flight.FlightNo, err)
	}
}

// normalize fills derived fields and rejects flights that break the record invariants.
func normalize(f *domain.Flight) error {
	switch {
	case f.FlightNo == "":
		return fmt.Errorf("%w: flight number is required", ErrInvalidFlight)
	case f.Origin == "" || f.Destination == "":
		return fmt.Errorf("%w: origin and destination are required", ErrInvalidFlight)
	case f.LandingTime.Before(f.DepartureTime):
		return fmt.Errorf("%w: landing before departure", ErrInvalidFlight)
	case f.TotalCabin < 0 || f.RestCabin < 0 || f.RestCabin > f.TotalCabin:
		return fmt.Errorf("%w: remaining cabin must be between 0 and total cabin", ErrInvalidFlight)
	case f.PriceCents < 0:
		return fmt.Errorf("%w: negative price", ErrInvalidFlight)
	case len(f.Layovers) > len(f.Stops):
		return fmt.Errorf("%w: more layovers than stops", ErrInvalidFlight)
	}
	if f.State == "" {
		f.State = domain.FlightStateBooking
	}
	if !f.State.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidState, f.State)
	}
	if f.DurationSeconds == 0 {
		f.DurationSeconds = f.FlightSeconds()
	}
	if f.DurationSeconds < 0 {
		return fmt.Errorf("%w: negative duration", ErrInvalidFlight)
	}
	return nil
}

var _ FlightUseCase = (*FlightService)(nil)
