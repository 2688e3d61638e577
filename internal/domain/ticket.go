package domain

import "time"

type TicketState string

const (
	TicketStateQueued TicketState = "QUEUED"
	TicketStateDone   TicketState = "DONE"
)

type TicketOrder struct {
	ID        int64       `json:"id"`
	FlightID  int64       `json:"flightId"`
	Token     string      `json:"token"`
	Phone     string      `json:"phone"`
	State     TicketState `json:"state"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}
