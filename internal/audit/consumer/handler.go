package consumer

import (
	"context"
	"errors"
	"fmt"
	"roombook/internal/audit/repository"
	"roombook/pkg/kafka"
	"roombook/pkg/logger"
	"roombook/pkg/model"
	"time"
)

var errIncompleteEvent = errors.New("booking event is missing required fields")

// AuditHandler stores every booking event it consumes. Redelivered events
// are recognised by event id and acknowledged without a second write.
type AuditHandler struct {
	repo repository.EventRepository
	log  *logger.Logger
	now  func() time.Time
}

func NewAuditHandler(repo repository.EventRepository, log *logger.Logger) *AuditHandler {
	return &AuditHandler{
		repo: repo,
		log:  log,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (h *AuditHandler) Handle(ctx context.Context, msg kafka.Message) error {
	var event model.BookingEvent
	if err := msg.DecodeValue(&event); err != nil {
		return err
	}

	// The header id wins so that a producer retry with a re-encoded body
	// still deduplicates.
	if id := msg.GetEventID(); id != "" {
		event.EventID = id
	}
	if event.EventID == "" || event.BookingID == "" || !event.Type.Valid() {
		return kafka.NewPermanentError(fmt.Sprintf("rejecting event %q of type %q", event.EventID, event.Type), errIncompleteEvent)
	}

	received := h.now()
	event.ReceivedAt = &received

	inserted, err := h.repo.Record(ctx, &event)
	if err != nil {
		return kafka.NewTransientError("failed to store booking event", err)
	}

	log := h.log.With(
		"event_id", event.EventID,
		"event_type", event.Type,
		"booking_id", event.BookingID,
		"correlation_id", msg.GetCorrelationID(),
	)
	if !inserted {
		log.Debug("Duplicate booking event skipped")
		return nil
	}
	log.Info("Booking event recorded", "status", event.Status, "actor_id", event.ActorID)
	return nil
}
