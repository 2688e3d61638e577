package notify

import (
	"context"
	"fmt"

	"github.com/Domenick1991/flightdesk/internal/kafka"
)

type Sender interface {
	Send(ctx context.Context, phone, message string) error
}

type PassengerLister interface {
	PhonesByFlight(ctx context.Context, flightID int64) ([]string, error)
}

type QueueProcessor interface {
	ProcessQueue(ctx context.Context) (int, error)
}

// Handler reacts to flight events: passengers of delayed or canceled flights
// are told, and withdrawn tickets trigger a pass over the waiting queue.
type Handler struct {
	passengers PassengerLister
	sender     Sender
	queue      QueueProcessor
}

func NewHandler(passengers PassengerLister, sender Sender, queue QueueProcessor) *Handler {
	return &Handler{passengers: passengers, sender: sender, queue: queue}
}

func (h *Handler) Handle(ctx context.Context, event kafka.FlightEvent) error {
	switch event.Type {
	case kafka.EventFlightDelayed, kafka.EventFlightCanceled:
		return h.notifyPassengers(ctx, event)
	case kafka.EventTicketWithdrawn:
		_, err := h.queue.ProcessQueue(ctx)
		return err
	}
	return nil
}

func (h *Handler) notifyPassengers(ctx context.Context, event kafka.FlightEvent) error {
	phones, err := h.passengers.PhonesByFlight(ctx, event.FlightID)
	if err != nil {
		return fmt.Errorf("list passengers of flight %d: %w", event.FlightID, err)
	}

	msg := Message(event)
	for _, phone := range phones {
		if err := h.sender.Send(ctx, phone, msg); err != nil {
			return fmt.Errorf("notify %s: %w", phone, err)
		}
	}
	return nil
}

// Message renders the passenger notice for a delayed or canceled flight.
func Message(event kafka.FlightEvent) string {
	var msg string
	if event.Type == kafka.EventFlightCanceled {
		msg = fmt.Sprintf("Flight %s has been canceled.", event.FlightNo)
	} else {
		msg = fmt.Sprintf("Flight %s is delayed to %s.", event.FlightNo, event.DepartureTime.Format("2006-01-02 15:04"))
	}
	if event.RecommendedNo != "" {
		msg += fmt.Sprintf(" Suggested alternative: %s departing %s.", event.RecommendedNo, event.RecommendedDepart.Format("2006-01-02 15:04"))
	}
	return msg
}
