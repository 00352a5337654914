package model

import "time"

type BookingEventType string

const (
	EventBookingCreated     BookingEventType = "booking.created"
	EventBookingRescheduled BookingEventType = "booking.rescheduled"
	EventBookingConfirmed   BookingEventType = "booking.confirmed"
	EventBookingCancelled   BookingEventType = "booking.cancelled"
	EventBookingDeleted     BookingEventType = "booking.deleted"
)

func (t BookingEventType) Valid() bool {
	switch t {
	case EventBookingCreated, EventBookingRescheduled, EventBookingConfirmed, EventBookingCancelled, EventBookingDeleted:
		return true
	}
	return false
}

// BookingEvent is published after a booking change has been committed.
type BookingEvent struct {
	EventID        string           `json:"event_id" bson:"_id" gorm:"primaryKey;type:varchar(36)"`
	Type           BookingEventType `json:"type" bson:"type" gorm:"type:varchar(32);not null"`
	BookingID      string           `json:"booking_id" bson:"booking_id" gorm:"type:varchar(36);not null;index:idx_booking_events_booking,priority:1"`
	UserID         string           `json:"user_id" bson:"user_id" gorm:"type:varchar(64)"`
	RoomSlotID     string           `json:"room_slot_id" bson:"room_slot_id" gorm:"type:varchar(36)"`
	PreviousSlotID string           `json:"previous_slot_id,omitempty" bson:"previous_slot_id,omitempty" gorm:"type:varchar(36)"`
	Status         BookingStatus    `json:"status" bson:"status" gorm:"type:varchar(16);not null"`
	PreviousStatus BookingStatus    `json:"previous_status,omitempty" bson:"previous_status,omitempty" gorm:"type:varchar(16)"`
	ActorID        string           `json:"actor_id" bson:"actor_id" gorm:"type:varchar(64)"`
	Reason         string           `json:"reason,omitempty" bson:"reason,omitempty" gorm:"type:varchar(500)"`
	OccurredAt     time.Time        `json:"occurred_at" bson:"occurred_at" gorm:"not null;index:idx_booking_events_booking,priority:2"`
	ReceivedAt     *time.Time       `json:"received_at,omitempty" bson:"received_at,omitempty"`
}

func (BookingEvent) TableName() string {
	return "booking_events"
}
