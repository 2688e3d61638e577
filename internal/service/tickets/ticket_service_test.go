package tickets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/Domenick1991/flightdesk/internal/kafka"
	"github.com/Domenick1991/flightdesk/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTicketRepository struct {
	mock.Mock
}

func (m *MockTicketRepository) Create(ctx context.Context, order *domain.TicketOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockTicketRepository) Withdraw(ctx context.Context, flightID int64, phone string) (int, error) {
	args := m.Called(ctx, flightID, phone)
	return args.Int(0), args.Error(1)
}

func (m *MockTicketRepository) ListQueued(ctx context.Context) ([]domain.TicketOrder, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TicketOrder), args.Error(1)
}

func (m *MockTicketRepository) Promote(ctx context.Context, orderID int64) (bool, error) {
	args := m.Called(ctx, orderID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTicketRepository) DeleteQueued(ctx context.Context, orderID int64) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

func (m *MockTicketRepository) PhonesByFlight(ctx context.Context, flightID int64) ([]string, error) {
	args := m.Called(ctx, flightID)
	return args.Get(0).([]string), args.Error(1)
}

type MockFlightGetter struct {
	mock.Mock
}

func (m *MockFlightGetter) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) AcquireQueueLock(ctx context.Context, owner string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, owner, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockLocker) ReleaseQueueLock(ctx context.Context, owner string) error {
	args := m.Called(ctx, owner)
	return args.Error(0)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) InvalidateSearches(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

func openFlight(id int64) *domain.Flight {
	return &domain.Flight{
		ID:            id,
		FlightNo:      "MU5101",
		State:         domain.FlightStateBooking,
		DepartureTime: time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC),
		TotalCabin:    2,
		RestCabin:     1,
	}
}

func TestTicketService_Book_Issued(t *testing.T) {
	mockTickets := &MockTicketRepository{}
	mockFlights := &MockFlightGetter{}
	mockCache := &MockCache{}
	service := NewTicketService(mockTickets, mockFlights, WithCache(mockCache))

	ctx := context.Background()
	mockFlights.On("GetByID", ctx, int64(4)).Return(openFlight(4), nil).Once()
	mockTickets.On("Create", ctx, mock.AnythingOfType("*domain.TicketOrder")).Run(func(args mock.Arguments) {
		order := args.Get(1).(*domain.TicketOrder)
		order.ID = 1
		order.State = domain.TicketStateDone
	}).Return(nil).Once()
	mockCache.On("InvalidateSearches", ctx).Return(nil).Once()

	order, err := service.Book(ctx, 4, " 13800000000 ")

	require.NoError(t, err)
	assert.Equal(t, domain.TicketStateDone, order.State)
	assert.Equal(t, "13800000000", order.Phone)
	assert.Len(t, order.Token, 36)
	mockTickets.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestTicketService_Book_Queued(t *testing.T) {
	mockTickets := &MockTicketRepository{}
	mockFlights := &MockFlightGetter{}
	mockCache := &MockCache{}
	service := NewTicketService(mockTickets, mockFlights, WithCache(mockCache))

	ctx := context.Background()
	mockFlights.On("GetByID", ctx, int64(4)).Return(openFlight(4), nil).Once()
	mockTickets.On("Create", ctx, mock.AnythingOfType("*domain.TicketOrder")).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.TicketOrder).State = domain.TicketStateQueued
	}).Return(nil).Once()

	order, err := service.Book(ctx, 4, "13800000000")

	require.NoError(t, err)
	assert.Equal(t, domain.TicketStateQueued, order.State)
	mockCache.AssertNotCalled(t, "InvalidateSearches", mock.Anything)
}

func TestTicketService_Book_Rejected(t *testing.T) {
	ctx := context.Background()

	t.Run("missing phone", func(t *testing.T) {
		service := NewTicketService(&MockTicketRepository{}, &MockFlightGetter{})
		_, err := service.Book(ctx, 4, "  ")
		assert.ErrorIs(t, err, ErrPhoneMissing)
	})

	t.Run("flight not on sale", func(t *testing.T) {
		mockFlights := &MockFlightGetter{}
		flight := openFlight(4)
		flight.State = domain.FlightStatePrepare
		mockFlights.On("GetByID", ctx, int64(4)).Return(flight, nil).Once()
		mockTickets := &MockTicketRepository{}
		service := NewTicketService(mockTickets, mockFlights)

		_, err := service.Book(ctx, 4, "13800000000")

		assert.ErrorIs(t, err, ErrNotBookable)
		mockTickets.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("unknown flight", func(t *testing.T) {
		mockFlights := &MockFlightGetter{}
		mockFlights.On("GetByID", ctx, int64(9)).Return(nil, repository.ErrFlightNotFound).Once()
		service := NewTicketService(&MockTicketRepository{}, mockFlights)

		_, err := service.Book(ctx, 9, "13800000000")

		assert.ErrorIs(t, err, repository.ErrFlightNotFound)
	})
}

func TestTicketService_Withdraw(t *testing.T) {
	mockTickets := &MockTicketRepository{}
	mockFlights := &MockFlightGetter{}
	mockProducer := &MockProducer{}
	service := NewTicketService(mockTickets, mockFlights, WithEvents(mockProducer, "ticket-events"))

	ctx := context.Background()
	mockFlights.On("GetByID", ctx, int64(4)).Return(openFlight(4), nil).Once()
	mockTickets.On("Withdraw", ctx, int64(4), "13800000000").Return(2, nil).Once()
	mockProducer.On("Publish", ctx, "ticket-events", "MU5101", mock.MatchedBy(func(e kafka.FlightEvent) bool {
		return e.Type == kafka.EventTicketWithdrawn && e.FlightID == 4 && e.Phone == "13800000000"
	})).Return(nil).Once()

	n, err := service.Withdraw(ctx, 4, "13800000000")

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	mockTickets.AssertExpectations(t)
	mockProducer.AssertExpectations(t)
}

func TestTicketService_Withdraw_NotFound(t *testing.T) {
	mockTickets := &MockTicketRepository{}
	mockFlights := &MockFlightGetter{}
	mockProducer := &MockProducer{}
	service := NewTicketService(mockTickets, mockFlights, WithEvents(mockProducer, "ticket-events"))

	ctx := context.Background()
	mockFlights.On("GetByID", ctx, int64(4)).Return(openFlight(4), nil).Once()
	mockTickets.On("Withdraw", ctx, int64(4), "13800000000").Return(0, repository.ErrTicketNotFound).Once()

	_, err := service.Withdraw(ctx, 4, "13800000000")

	assert.ErrorIs(t, err, repository.ErrTicketNotFound)
	mockProducer.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTicketService_ProcessQueue(t *testing.T) {
	mockTickets := &MockTicketRepository{}
	mockFlights := &MockFlightGetter{}
	mockLock := &MockLocker{}
	mockCache := &MockCache{}
	service := &TicketService{
		tickets: mockTickets,
		flights: mockFlights,
		lock:    mockLock,
		cache:   mockCache,
		lockTTL: time.Minute,
		owner:   "worker-1",
	}

	ctx := context.Background()
	canceled := openFlight(5)
	canceled.State = domain.FlightStateCanceled
	queued := []domain.TicketOrder{
		{ID: 1, FlightID: 4},
		{ID: 2, FlightID: 5},
		{ID: 3, FlightID: 4},
		{ID: 4, FlightID: 6},
	}

	mockLock.On("AcquireQueueLock", ctx, "worker-1", time.Minute).Return(true, nil).Once()
	mockLock.On("ReleaseQueueLock", mock.Anything, "worker-1").Return(nil).Once()
	mockTickets.On("ListQueued", ctx).Return(queued, nil).Once()
	mockFlights.On("GetByID", ctx, int64(4)).Return(openFlight(4), nil).Once()
	mockFlights.On("GetByID", ctx, int64(5)).Return(canceled, nil).Once()
	mockFlights.On("GetByID", ctx, int64(6)).Return(nil, repository.ErrFlightNotFound).Once()
	mockTickets.On("Promote", ctx, int64(1)).Return(true, nil).Once()
	mockTickets.On("DeleteQueued", ctx, int64(2)).Return(nil).Once()
	mockTickets.On("Promote", ctx, int64(3)).Return(false, nil).Once()
	mockTickets.On("DeleteQueued", ctx, int64(4)).Return(nil).Once()
	mockCache.On("InvalidateSearches", ctx).Return(nil).Once()

	promoted, err := service.ProcessQueue(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, promoted)
	mockLock.AssertExpectations(t)
	mockTickets.AssertExpectations(t)
	mockFlights.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestTicketService_ProcessQueue_LockHeld(t *testing.T) {
	mockTickets := &MockTicketRepository{}
	mockLock := &MockLocker{}
	service := NewTicketService(mockTickets, &MockFlightGetter{}, WithQueueLock(mockLock, time.Minute))

	ctx := context.Background()
	mockLock.On("AcquireQueueLock", ctx, mock.AnythingOfType("string"), time.Minute).Return(false, nil).Once()

	promoted, err := service.ProcessQueue(ctx)

	assert.ErrorIs(t, err, ErrQueueBusy)
	assert.Zero(t, promoted)
	mockTickets.AssertNotCalled(t, "ListQueued", mock.Anything)
	mockLock.AssertNotCalled(t, "ReleaseQueueLock", mock.Anything, mock.Anything)
}

func TestTicketService_ProcessQueue_PromoteError(t *testing.T) {
	mockTickets := &MockTicketRepository{}
	mockFlights := &MockFlightGetter{}
	service := NewTicketService(mockTickets, mockFlights)

	ctx := context.Background()
	expectedErr := errors.New("database error")
	mockTickets.On("ListQueued", ctx).Return([]domain.TicketOrder{{ID: 1, FlightID: 4}}, nil).Once()
	mockFlights.On("GetByID", ctx, int64(4)).Return(openFlight(4), nil).Once()
	mockTickets.On("Promote", ctx, int64(1)).Return(false, expectedErr).Once()

	_, err := service.ProcessQueue(ctx)

	assert.ErrorIs(t, err, expectedErr)
}

func TestTicketService_Queue(t *testing.T) {
	mockTickets := &MockTicketRepository{}
	service := NewTicketService(mockTickets, &MockFlightGetter{})

	ctx := context.Background()
	queued := []domain.TicketOrder{{ID: 7, FlightID: 4, State: domain.TicketStateQueued}}
	mockTickets.On("ListQueued", ctx).Return(queued, nil).Once()

	orders, err := service.Queue(ctx)

	require.NoError(t, err)
	assert.Equal(t, queued, orders)
}

var _ repository.TicketRepository = (*MockTicketRepository)(nil)
