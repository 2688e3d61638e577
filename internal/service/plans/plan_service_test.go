package plans

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/flightdesk/internal/display"
	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/Domenick1991/flightdesk/internal/sortspec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockFlightFinder struct {
	mock.Mock
}

func (m *MockFlightFinder) flights(args mock.Arguments) ([]domain.Flight, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightFinder) ByOriginAndDay(ctx context.Context, origin string, start, end time.Time) ([]domain.Flight, error) {
	return m.flights(m.Called(ctx, origin, start, end))
}

func (m *MockFlightFinder) ByDestinationAndDay(ctx context.Context, destination string, start, end time.Time) ([]domain.Flight, error) {
	return m.flights(m.Called(ctx, destination, start, end))
}

func (m *MockFlightFinder) ByRouteAndDay(ctx context.Context, origin, destination string, start, end time.Time) ([]domain.Flight, error) {
	return m.flights(m.Called(ctx, origin, destination, start, end))
}

var (
	day     = time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	nextDay = day.AddDate(0, 0, 1)
)

func leg(no, from, to, departs string, minutes int, price int64) domain.Flight {
	dep, err := time.Parse("2006-01-02 15:04", "2024-03-10 "+departs)
	if err != nil {
		panic(err)
	}
	return domain.Flight{
		FlightNo:        no,
		State:           domain.FlightStateBooking,
		DepartureTime:   dep,
		LandingTime:     dep.Add(time.Duration(minutes) * time.Minute),
		Origin:          from,
		Destination:     to,
		TotalCabin:      100,
		RestCabin:       10,
		PriceCents:      price,
		DurationSeconds: int64(minutes * 60),
	}
}

// network: one direct PEK-SHA flight plus connections through CAN and WUH.
func network() (direct, outbound, inbound []domain.Flight) {
	d1 := leg("D1", "PEK", "SHA", "08:00", 120, 1000)
	d2 := leg("D2", "PEK", "SHA", "09:00", 120, 900)
	d2.State = domain.FlightStateCanceled
	o1 := leg("O1", "PEK", "CAN", "06:00", 60, 300)
	o2 := leg("O2", "PEK", "WUH", "07:00", 60, 200)
	i1 := leg("I1", "CAN", "SHA", "07:30", 30, 100)
	i2 := leg("I2", "CAN", "SHA", "08:00", 30, 400)
	i3 := leg("I3", "WUH", "SHA", "08:40", 60, 500)
	i4 := leg("I4", "WUH", "SHA", "09:00", 60, 50)
	i4.RestCabin = 0

	return []domain.Flight{d1, d2},
		[]domain.Flight{d1, d2, o1, o2},
		[]domain.Flight{d1, i1, i2, i3, i4}
}

func expectNetwork(m *MockFlightFinder) {
	direct, outbound, inbound := network()
	m.On("ByRouteAndDay", mock.Anything, "PEK", "SHA", day, nextDay).Return(direct, nil).Once()
	m.On("ByOriginAndDay", mock.Anything, "PEK", day, nextDay).Return(outbound, nil).Once()
	m.On("ByDestinationAndDay", mock.Anything, "SHA", day, nextDay).Return(inbound, nil).Once()
}

func legNos(plans []display.PlanView) [][]string {
	out := make([][]string, 0, len(plans))
	for _, p := range plans {
		nos := make([]string, 0, len(p.Legs))
		for _, l := range p.Legs {
			nos = append(nos, l.FlightNo)
		}
		out = append(out, nos)
	}
	return out
}

func strPtr(s string) *string { return &s }

func TestPlanService_Plan_DefaultSortByDuration(t *testing.T) {
	finder := &MockFlightFinder{}
	expectNetwork(finder)
	service := NewPlanService(finder)

	result, err := service.Plan(context.Background(), PlanQuery{From: "PEK", To: "SHA", Date: day.Add(15 * time.Hour)})

	require.NoError(t, err)
	assert.Equal(t, "w", result.Sort)
	assert.Equal(t, [][]string{{"O1", "I2"}, {"D1"}, {"O2", "I3"}}, legNos(result.Plans))

	first := result.Plans[0]
	assert.Equal(t, 2, first.LegCount)
	assert.Equal(t, int64(5400), first.TotalDurationSeconds)
	assert.Equal(t, "1.5", first.TotalDurationHours)
	assert.Equal(t, int64(700), first.TotalPriceCents)
	assert.Equal(t, "1.0", first.Legs[0].DurationHours)
	finder.AssertExpectations(t)
}

func TestPlanService_Plan_SortByPrice(t *testing.T) {
	finder := &MockFlightFinder{}
	expectNetwork(finder)
	service := NewPlanService(finder)

	result, err := service.Plan(context.Background(), PlanQuery{From: "PEK", To: "SHA", Date: day, Sort: strPtr("pW")})

	require.NoError(t, err)
	assert.Equal(t, [][]string{{"O2", "I3"}, {"O1", "I2"}, {"D1"}}, legNos(result.Plans))
}

func TestPlanService_Plan_MinConnect(t *testing.T) {
	finder := &MockFlightFinder{}
	expectNetwork(finder)
	service := NewPlanService(finder, WithMinConnect(time.Hour))

	result, err := service.Plan(context.Background(), PlanQuery{From: "PEK", To: "SHA", Date: day})

	require.NoError(t, err)
	assert.Equal(t, [][]string{{"O1", "I2"}, {"D1"}}, legNos(result.Plans))
}

func TestPlanService_Plan_SearchLimit(t *testing.T) {
	finder := &MockFlightFinder{}
	expectNetwork(finder)
	service := NewPlanService(finder, WithSearchLimit(1))

	result, err := service.Plan(context.Background(), PlanQuery{From: "PEK", To: "SHA", Date: day})

	require.NoError(t, err)
	assert.Equal(t, [][]string{{"D1"}}, legNos(result.Plans))
}

func TestPlanService_Plan_NothingBookable(t *testing.T) {
	finder := &MockFlightFinder{}
	finder.On("ByRouteAndDay", mock.Anything, "PEK", "SHA", day, nextDay).Return([]domain.Flight{}, nil).Once()
	finder.On("ByOriginAndDay", mock.Anything, "PEK", day, nextDay).Return([]domain.Flight{}, nil).Once()
	finder.On("ByDestinationAndDay", mock.Anything, "SHA", day, nextDay).Return([]domain.Flight{}, nil).Once()
	service := NewPlanService(finder)

	result, err := service.Plan(context.Background(), PlanQuery{From: "PEK", To: "SHA", Date: day})

	require.NoError(t, err)
	assert.Empty(t, result.Plans)
}

func TestPlanService_Plan_InvalidSortSkipsLookup(t *testing.T) {
	finder := &MockFlightFinder{}
	service := NewPlanService(finder)

	_, err := service.Plan(context.Background(), PlanQuery{From: "PEK", To: "SHA", Date: day, Sort: strPtr("wq")})

	var specErr *sortspec.InvalidSortSpecError
	require.ErrorAs(t, err, &specErr)
	assert.Equal(t, 'q', specErr.Char)
	assert.Equal(t, 1, specErr.Position)
	finder.AssertNotCalled(t, "ByRouteAndDay", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPlanService_Plan_InvalidQuery(t *testing.T) {
	service := NewPlanService(&MockFlightFinder{})
	ctx := context.Background()

	for _, q := range []PlanQuery{
		{To: "SHA", Date: day},
		{From: "PEK", Date: day},
		{From: "PEK", To: "PEK", Date: day},
		{From: "PEK", To: "SHA"},
	} {
		_, err := service.Plan(ctx, q)
		assert.ErrorIs(t, err, ErrInvalidQuery)
	}
}

func TestPlanService_Plan_RepositoryError(t *testing.T) {
	finder := &MockFlightFinder{}
	expectedErr := errors.New("database error")
	finder.On("ByRouteAndDay", mock.Anything, "PEK", "SHA", day, nextDay).Return([]domain.Flight{}, nil).Once()
	finder.On("ByOriginAndDay", mock.Anything, "PEK", day, nextDay).Return(nil, expectedErr).Once()
	service := NewPlanService(finder)

	result, err := service.Plan(context.Background(), PlanQuery{From: "PEK", To: "SHA", Date: day})

	assert.Nil(t, result)
	assert.Equal(t, expectedErr, err)
}
