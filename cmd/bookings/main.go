package main

import (
	bookingevents "roombook/internal/bookings/events"
	bookinghandler "roombook/internal/bookings/handler"
	bookingrepo "roombook/internal/bookings/repository"
	bookingservice "roombook/internal/bookings/service"
	bookingvalidator "roombook/internal/bookings/validator"
	catalog "roombook/internal/catalog/repository"
	slothandler "roombook/internal/slots/handler"
	slotrepo "roombook/internal/slots/repository"
	slotservice "roombook/internal/slots/service"
	slotvalidator "roombook/internal/slots/validator"
	"roombook/pkg/app"
	"roombook/pkg/auth"
	"roombook/pkg/config"
	"roombook/pkg/contracts"
	"roombook/pkg/kafka"
	kafka_config "roombook/pkg/kafka/config"
	kafka_middleware "roombook/pkg/kafka/middleware"
)

const ServiceName = "bookings"

type repositories struct {
	slots    slotrepo.SlotRepository
	bookings bookingrepo.BookingRepository
	rooms    catalog.RoomCatalog
}

func main() {
	cfg := config.Load(ServiceName)
	if cfg.JWTSecret == "" {
		cfg.Log.Fatal("JWT_SECRET is required for the bookings service")
	}

	cfg.Log.Info("Starting Bookings service")
	cfg.SetStore()

	serverApp := app.NewApplication(cfg)
	repos := initRepositories(cfg)
	publisher := initPublisher(cfg, serverApp)
	serverApp.OnShutdown(cfg.GracefulShutdown)

	ledger := slotservice.NewSlotLedger(repos.slots, repos.rooms, slotvalidator.NewSlotValidator(), cfg)
	workflow := bookingservice.NewReservationWorkflow(
		repos.bookings,
		ledger,
		repos.rooms,
		bookingvalidator.NewBookingValidator(),
		publisher,
		cfg,
	)

	serverApp.SetApp(
		auth.NewVerifier(cfg.JWTSecret),
		cfg.Client,
		contracts.Handlers{
			bookinghandler.NewBookingHandler(workflow, cfg.Log),
			slothandler.NewSlotHandler(ledger, cfg.Log),
		},
	)
	serverApp.Run()
}

func initRepositories(cfg *config.Config) repositories {
	if cfg.UsesPostgres() {
		conn := cfg.Client.SQL
		cfg.Log.Info("Using Postgres store")
		return repositories{
			slots:    slotrepo.NewGormSlotRepository(conn, cfg.ReadTimeout, cfg.WriteTimeout),
			bookings: bookingrepo.NewGormBookingRepository(conn, cfg.ReadTimeout, cfg.WriteTimeout),
			rooms:    catalog.NewGormRoomCatalog(conn, cfg.ReadTimeout),
		}
	}

	cfg.Log.Info("Using Mongo store", "database", cfg.MongoDatabaseName)
	return repositories{
		slots:    slotrepo.NewMongoSlotRepository(cfg),
		bookings: bookingrepo.NewMongoBookingRepository(cfg),
		rooms:    catalog.NewMongoRoomCatalog(cfg),
	}
}

// initPublisher wires booking events to Kafka when enabled. The service
// keeps working without a broker; events are then dropped.
func initPublisher(cfg *config.Config, serverApp *app.Application) bookingevents.Publisher {
	if !cfg.KafkaEnabled {
		cfg.Log.Info("Kafka disabled, booking events will not be published")
		return bookingevents.NoopPublisher{}
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}

	producer, err := kafka.NewProducer(kafkaCfg, cfg.BookingEventsTopic, cfg.BookingEventsDLQTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}

	metrics := kafka_middleware.NewMetrics()
	producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	producer.Use(metrics.ProducerMiddleware())

	serverApp.OnShutdown(func() {
		cfg.Log.Info("Kafka producer metrics", metrics.Snapshot().LogFields()...)
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
	})

	cfg.Log.Info("Booking events publishing enabled",
		"topic", cfg.BookingEventsTopic,
		"dlq_topic", cfg.BookingEventsDLQTopic,
		"brokers", kafkaCfg.Brokers,
	)
	return bookingevents.NewKafkaPublisher(producer, kafkaCfg.PublishTimeout, cfg.Log)
}
