package events

import (
	"context"
	"roombook/pkg/kafka"
	"roombook/pkg/logger"
	"roombook/pkg/model"
	"time"

	"github.com/google/uuid"
)

const (
	SchemaVersion = "1"
	Source        = "bookings"
)

// Publisher announces committed booking changes. Implementations must not
// block the caller beyond their own timeout.
type Publisher interface {
	Publish(ctx context.Context, event model.BookingEvent)
}

// messagePublisher is satisfied by *kafka.Producer.
type messagePublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type KafkaPublisher struct {
	producer messagePublisher
	timeout  time.Duration
	log      *logger.Logger
}

func NewKafkaPublisher(producer messagePublisher, timeout time.Duration, log *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, timeout: timeout, log: log}
}

// Publish sends the event keyed by booking id so a booking's events stay
// ordered on one partition. Failures are logged and never returned.
func (p *KafkaPublisher) Publish(ctx context.Context, event model.BookingEvent) {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	log := p.log.WithContext(ctx).With("event_id", event.EventID, "event_type", event.Type, "booking_id", event.BookingID)

	msg, err := kafka.NewMessage().
		WithKey(event.BookingID).
		WithValue(event).
		WithEventID(event.EventID).
		WithEventType(string(event.Type)).
		WithCorrelationID(logger.RequestIDFromContext(ctx)).
		WithSchemaVersion(SchemaVersion).
		WithSource(Source).
		WithTimestamp(event.OccurredAt).
		Build()
	if err != nil {
		log.Error("Failed to encode booking event", "error", err)
		return
	}

	// The booking change is already committed; do not let the caller's
	// cancellation drop the event.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	if err := p.producer.Publish(ctx, msg); err != nil {
		log.Error("Failed to publish booking event", "error", err)
		return
	}
	log.Debug("Booking event published")
}

// NoopPublisher is used when Kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, model.BookingEvent) {}
