package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	EventFlightDelayed   = "flight_delayed"
	EventFlightCanceled  = "flight_canceled"
	EventTicketWithdrawn = "ticket_withdrawn"
)

// FlightEvent is published whenever a flight or its tickets change in a way
// other services react to.
type FlightEvent struct {
	Type              string    `json:"type"`
	FlightID          int64     `json:"flight_id"`
	FlightNo          string    `json:"flight_no"`
	State             string    `json:"state"`
	DepartureTime     time.Time `json:"departure_time"`
	Phone             string    `json:"phone,omitempty"`
	RecommendedID     int64     `json:"recommended_id,omitempty"`
	RecommendedNo     string    `json:"recommended_no,omitempty"`
	RecommendedDepart time.Time `json:"recommended_departure"`
}

type Producer struct {
	brokers []string
	writer  *kafka.Writer
	retries int
}

func NewProducer(brokers []string, retries int) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}

	if retries < 1 {
		retries = 1
	}
	return &Producer{
		brokers: brokers,
		writer:  writer,
		retries: retries,
	}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	message := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}

	var lastErr error
	for i := 0; i < p.retries; i++ {
		if lastErr = p.writer.WriteMessages(ctx, message); lastErr == nil {
			return nil
		}
		log.Printf("kafka publish to %s attempt %d failed: %v", topic, i+1, lastErr)

		if i < p.retries-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(i+1) * 500 * time.Millisecond):
			}
		}
	}
	return fmt.Errorf("failed to write message to Kafka after %d attempts: %w", p.retries, lastErr)
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

// CheckConnection dials the first broker and lists partitions.
func (p *Producer) CheckConnection(ctx context.Context) error {
	if len(p.brokers) == 0 {
		return fmt.Errorf("no kafka brokers configured")
	}
	conn, err := kafka.DialContext(ctx, "tcp", p.brokers[0])
	if err != nil {
		return fmt.Errorf("failed to connect to Kafka: %w", err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions()
	if err != nil {
		return fmt.Errorf("failed to read partitions: %w", err)
	}

	log.Printf("connected to Kafka, %d partitions visible", len(partitions))
	return nil
}
