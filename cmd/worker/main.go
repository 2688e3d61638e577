package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/Domenick1991/flightdesk/config"
	"github.com/Domenick1991/flightdesk/internal/cache"
	"github.com/Domenick1991/flightdesk/internal/kafka"
	"github.com/Domenick1991/flightdesk/internal/notify"
	"github.com/Domenick1991/flightdesk/internal/repository"
	"github.com/Domenick1991/flightdesk/internal/service/tickets"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, cfg.Search.CacheTTL())
	defer redisCache.Close()

	flightRepo := repository.NewFlightRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	ticketService := tickets.NewTicketService(ticketRepo, flightRepo,
		tickets.WithCache(redisCache),
		tickets.WithQueueLock(redisCache, time.Duration(cfg.Worker.QueueLockSeconds)*time.Second),
	)

	handler := notify.NewHandler(ticketRepo, notify.NewLogSender(), ticketService)

	var wg sync.WaitGroup
	for _, topic := range []string{cfg.Kafka.FlightTopic, cfg.Kafka.TicketTopic} {
		if topic == "" {
			continue
		}
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, topic)
		defer consumer.Close()

		wg.Add(1)
		go func(topic string) {
			defer wg.Done()
			err := consumer.Consume(ctx, func(ctx context.Context, event kafka.FlightEvent) error {
				if err := handler.Handle(ctx, event); err != nil {
					log.Printf("handle %s event for flight %s: %v", event.Type, event.FlightNo, err)
				}
				return nil
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("consumer for %s stopped: %v", topic, err)
			}
		}(topic)
	}

	sweep := time.NewTicker(time.Duration(cfg.Worker.QueueSweepMinutes) * time.Minute)
	defer sweep.Stop()

	for {
		select {
		case <-sweep.C:
			promoted, err := ticketService.ProcessQueue(ctx)
			if errors.Is(err, tickets.ErrQueueBusy) {
				continue
			}
			if err != nil {
				log.Printf("process ticket queue error: %v", err)
				continue
			}
			if promoted > 0 {
				log.Printf("issued %d queued tickets", promoted)
			}
		case <-ctx.Done():
			log.Printf("shutting down worker")
			wg.Wait()
			return
		}
	}
}
