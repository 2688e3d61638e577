package tickets

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/Domenick1991/flightdesk/internal/kafka"
	"github.com/Domenick1991/flightdesk/internal/repository"
	"github.com/google/uuid"
)

var (
	ErrNotBookable  = errors.New("flight is not open for booking")
	ErrPhoneMissing = errors.New("phone is required")
	ErrQueueBusy    = errors.New("ticket queue is being processed elsewhere")
)

type TicketUseCase interface {
	Book(ctx context.Context, flightID int64, phone string) (*domain.TicketOrder, error)
	Withdraw(ctx context.Context, flightID int64, phone string) (int, error)
	Queue(ctx context.Context) ([]domain.TicketOrder, error)
	ProcessQueue(ctx context.Context) (int, error)
}

type FlightGetter interface {
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
}

// Locker guards the queue pass so only one worker runs it at a time.
type Locker interface {
	AcquireQueueLock(ctx context.Context, owner string, ttl time.Duration) (bool, error)
	ReleaseQueueLock(ctx context.Context, owner string) error
}

// Invalidator drops cached search results after seat counts change.
type Invalidator interface {
	InvalidateSearches(ctx context.Context) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type TicketService struct {
	tickets     repository.TicketRepository
	flights     FlightGetter
	lock        Locker
	cache       Invalidator
	producer    Producer
	ticketTopic string
	lockTTL     time.Duration
	owner       string
}

type TicketServiceOption func(*TicketService)

func WithEvents(producer Producer, topic string) TicketServiceOption {
	return func(s *TicketService) {
		s.producer = producer
		s.ticketTopic = topic
	}
}

func WithQueueLock(lock Locker, ttl time.Duration) TicketServiceOption {
	return func(s *TicketService) {
		s.lock = lock
		if ttl > 0 {
			s.lockTTL = ttl
		}
	}
}

func WithCache(cache Invalidator) TicketServiceOption {
	return func(s *TicketService) {
		s.cache = cache
	}
}

func NewTicketService(tickets repository.TicketRepository, flights FlightGetter, opts ...TicketServiceOption) *TicketService {
	s := &TicketService{
		tickets: tickets,
		flights: flights,
		lockTTL: 30 * time.Second,
		owner:   uuid.NewString(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Book issues a ticket when a seat is left and queues the order otherwise.
func (s *TicketService) Book(ctx context.Context, flightID int64, phone string) (*domain.TicketOrder, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, ErrPhoneMissing
	}
	if _, err := s.bookingFlight(ctx, flightID); err != nil {
		return nil, err
	}

	order := &domain.TicketOrder{
		FlightID: flightID,
		Token:    uuid.NewString(),
		Phone:    phone,
	}
	if err := s.tickets.Create(ctx, order); err != nil {
		return nil, err
	}
	if order.State == domain.TicketStateDone {
		s.invalidate(ctx)
	}
	return order, nil
}

// Withdraw returns every ticket phone holds on the flight and reports how many
// were removed. The freed seats are handed to the queue by the worker.
func (s *TicketService) Withdraw(ctx context.Context, flightID int64, phone string) (int, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return 0, ErrPhoneMissing
	}
	flight, err := s.bookingFlight(ctx, flightID)
	if err != nil {
		return 0, err
	}

	n, err := s.tickets.Withdraw(ctx, flightID, phone)
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx)

	if s.producer != nil && s.ticketTopic != "" {
		event := kafka.FlightEvent{
			Type:          kafka.EventTicketWithdrawn,
			FlightID:      flight.ID,
			FlightNo:      flight.FlightNo,
			State:         string(flight.State),
			DepartureTime: flight.DepartureTime,
			Phone:         phone,
		}
		if err := s.producer.Publish(ctx, s.ticketTopic, flight.FlightNo, event); err != nil {
			log.Printf("WARNING: failed to publish %s event for flight %s: %v", event.Type, flight.FlightNo, err)
		}
	}
	return n, nil
}

func (s *TicketService) Queue(ctx context.Context) ([]domain.TicketOrder, error) {
	return s.tickets.ListQueued(ctx)
}

// ProcessQueue walks queued orders oldest first. Orders get a ticket while
// their flight has seats; orders for flights no longer on sale are dropped.
// It returns the number of orders promoted.
func (s *TicketService) ProcessQueue(ctx context.Context) (int, error) {
	if s.lock != nil {
		ok, err := s.lock.AcquireQueueLock(ctx, s.owner, s.lockTTL)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, ErrQueueBusy
		}
		defer func() {
			if err := s.lock.ReleaseQueueLock(context.WithoutCancel(ctx), s.owner); err != nil {
				log.Printf("WARNING: failed to release queue lock: %v", err)
			}
		}()
	}

	orders, err := s.tickets.ListQueued(ctx)
	if err != nil {
		return 0, err
	}

	promoted := 0
	flights := make(map[int64]*domain.Flight)
	for _, order := range orders {
		flight, ok := flights[order.FlightID]
		if !ok {
			flight, err = s.flights.GetByID(ctx, order.FlightID)
			if err != nil && !errors.Is(err, repository.ErrFlightNotFound) {
				return promoted, err
			}
			flights[order.FlightID] = flight
		}

		if flight == nil || flight.State != domain.FlightStateBooking {
			if err := s.tickets.DeleteQueued(ctx, order.ID); err != nil {
				return promoted, fmt.Errorf("drop order %d: %w", order.ID, err)
			}
			continue
		}

		issued, err := s.tickets.Promote(ctx, order.ID)
		if errors.Is(err, repository.ErrTicketNotFound) {
			continue
		}
		if err != nil {
			return promoted, fmt.Errorf("promote order %d: %w", order.ID, err)
		}
		if issued {
			promoted++
		}
	}

	if promoted > 0 {
		s.invalidate(ctx)
	}
	return promoted, nil
}

func (s *TicketService) bookingFlight(ctx context.Context, flightID int64) (*domain.Flight, error) {
	flight, err := s.flights.GetByID(ctx, flightID)
	if err != nil {
		return nil, err
	}
	if flight.State != domain.FlightStateBooking {
		return nil, fmt.Errorf("%w: flight %s is %s", ErrNotBookable, flight.FlightNo, flight.State)
	}
	return flight, nil
}

func (s *TicketService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateSearches(ctx); err != nil {
		log.Printf("WARNING: failed to invalidate search cache: %v", err)
	}
}

var _ TicketUseCase = (*TicketService)(nil)
