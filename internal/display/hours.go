// Package display derives the presentation fields that list and detail views
// render next to the raw flight data.
package display

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDuration = errors.New("invalid duration")
	ErrEmptyItinerary  = errors.New("itinerary has no legs")
)

type InvalidDurationError struct {
	Seconds int64
}

func (e *InvalidDurationError) Error() string {
	return fmt.Sprintf("invalid duration: %d seconds is negative", e.Seconds)
}

func (e *InvalidDurationError) Is(target error) bool {
	return target == ErrInvalidDuration
}

const secondsPerHour = 3600

// ToDisplayHours converts seconds to hours with exactly one decimal, rounding half up.
// Whole hours are split off first so no intermediate value can overflow.
func ToDisplayHours(seconds int64) (string, error) {
	if seconds < 0 {
		return "", &InvalidDurationError{Seconds: seconds}
	}
	hours, rem := seconds/secondsPerHour, seconds%secondsPerHour
	tenths := (rem*10 + secondsPerHour/2) / secondsPerHour
	if tenths == 10 {
		hours, tenths = hours+1, 0
	}
	return fmt.Sprintf("%d.%d", hours, tenths), nil
}
