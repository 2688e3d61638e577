package domain

import "time"

type FlightState string

const (
	FlightStateBooking  FlightState = "BOOKING"
	FlightStatePrepare  FlightState = "PREPARE"
	FlightStateDone     FlightState = "DONE"
	FlightStateDelayed  FlightState = "DELAYED"
	FlightStateCanceled FlightState = "CANCELED"
)

func (s FlightState) Valid() bool {
	switch s {
	case FlightStateBooking, FlightStatePrepare, FlightStateDone, FlightStateDelayed, FlightStateCanceled:
		return true
	}
	return false
}

type Flight struct {
	ID              int64       `json:"id"`
	FlightNo        string      `json:"flightNo"`
	AirlineName     string      `json:"airlineName"`
	State           FlightState `json:"state"`
	DepartureTime   time.Time   `json:"departureTime"`
	LandingTime     time.Time   `json:"landingTime"`
	Origin          string      `json:"origin"`
	Destination     string      `json:"destination"`
	Stops           []string    `json:"stops"`
	Layovers        []int64     `json:"layovers"`
	TotalCabin      int         `json:"totalCabin"`
	RestCabin       int         `json:"restCabin"`
	PriceCents      int64       `json:"priceCents"`
	DurationSeconds int64       `json:"duration"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// Bookable reports whether tickets can still be sold on the flight.
func (f Flight) Bookable() bool {
	return f.State == FlightStateBooking && f.RestCabin > 0
}

// FlightSeconds is the airborne time between departure and landing.
func (f Flight) FlightSeconds() int64 {
	return int64(f.LandingTime.Sub(f.DepartureTime) / time.Second)
}
