package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"roombook/internal/audit/consumer"
	"roombook/internal/audit/repository"
	"roombook/pkg/config"
	"roombook/pkg/kafka"
	kafka_config "roombook/pkg/kafka/config"
	kafka_middleware "roombook/pkg/kafka/middleware"
)

const ServiceName = "booking-audit"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetStore()
	defer cfg.GracefulShutdown()

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}

	handler := consumer.NewAuditHandler(initRepository(cfg), cfg.Log)
	c, err := kafka.NewConsumer(kafkaCfg, cfg.BookingEventsTopic, cfg.BookingAuditGroupID, cfg.BookingEventsDLQTopic, handler.Handle, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}

	metrics := kafka_middleware.NewMetrics()
	c.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
	c.Use(metrics.ConsumerMiddleware())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Log.Info("Starting booking audit consumer",
		"topic", cfg.BookingEventsTopic,
		"group_id", cfg.BookingAuditGroupID,
		"brokers", kafkaCfg.Brokers,
	)
	if err := c.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Consumer stopped with error", "error", err)
	}

	if err := c.Close(); err != nil {
		cfg.Log.Error("Failed to close Kafka consumer", "error", err)
	}
	cfg.Log.Info("Booking audit consumer stopped", metrics.Snapshot().LogFields()...)
}

func initRepository(cfg *config.Config) repository.EventRepository {
	if cfg.UsesPostgres() {
		return repository.NewGormEventRepository(cfg.Client.SQL, cfg.ReadTimeout, cfg.WriteTimeout)
	}
	return repository.NewMongoEventRepository(cfg)
}
