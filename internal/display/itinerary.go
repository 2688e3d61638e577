package display

import (
	"errors"
	"fmt"
	"math"

	"github.com/Domenick1991/flightdesk/internal/domain"
)

var ErrDurationOverflow = errors.New("itinerary duration overflows")

type Summary struct {
	LegCount             int    `json:"legCount"`
	TotalDurationSeconds int64  `json:"totalDuration"`
	TotalDurationHours   string `json:"totalDurationHours"`
	TotalPriceCents      int64  `json:"totalPriceCents"`
}

// Aggregate summarises an itinerary. Durations are summed in seconds and
// rounded once, so per-leg rounding never compounds. Layovers are not counted.
func Aggregate(legs []domain.Flight) (Summary, error) {
	if len(legs) == 0 {
		return Summary{}, ErrEmptyItinerary
	}

	var seconds, price int64
	for _, leg := range legs {
		if leg.DurationSeconds < 0 {
			return Summary{}, &InvalidDurationError{Seconds: leg.DurationSeconds}
		}
		if seconds > math.MaxInt64-leg.DurationSeconds {
			return Summary{}, fmt.Errorf("%w: leg %s", ErrDurationOverflow, leg.FlightNo)
		}
		seconds += leg.DurationSeconds
		price += leg.PriceCents
	}

	hours, err := ToDisplayHours(seconds)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		LegCount:             len(legs),
		TotalDurationSeconds: seconds,
		TotalDurationHours:   hours,
		TotalPriceCents:      price,
	}, nil
}
