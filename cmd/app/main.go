package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/flightdesk/config"
	"github.com/Domenick1991/flightdesk/internal/bootstrap"
	"github.com/Domenick1991/flightdesk/internal/cache"
	"github.com/Domenick1991/flightdesk/internal/kafka"
	"github.com/Domenick1991/flightdesk/internal/repository"
	"github.com/Domenick1991/flightdesk/internal/service/flights"
	"github.com/Domenick1991/flightdesk/internal/service/plans"
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

	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.PublishRetry)
	defer producer.Close()
	if err := producer.CheckConnection(ctx); err != nil {
		log.Printf("WARNING: kafka unavailable, events will be retried on publish: %v", err)
	}

	flightRepo := repository.NewFlightRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)

	flightService := flights.NewFlightService(flightRepo, redisCache,
		flights.WithEvents(producer, cfg.Kafka.FlightTopic),
		flights.WithDefaultSort(cfg.Search.DefaultSort),
	)
	planService := plans.NewPlanService(flightRepo,
		plans.WithDefaultSort(cfg.Planner.DefaultSort),
		plans.WithMinConnect(time.Duration(cfg.Planner.MinConnectMinutes)*time.Minute),
		plans.WithSearchLimit(cfg.Planner.SearchLimit),
	)
	ticketService := tickets.NewTicketService(ticketRepo, flightRepo,
		tickets.WithCache(redisCache),
		tickets.WithEvents(producer, cfg.Kafka.TicketTopic),
		tickets.WithQueueLock(redisCache, time.Duration(cfg.Worker.QueueLockSeconds)*time.Second),
	)

	if err := bootstrap.Run(ctx, cfg, bootstrap.Services{
		Flights: flightService,
		Plans:   planService,
		Tickets: ticketService,
	}); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
