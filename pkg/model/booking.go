package model

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled:
		return true
	}
	return false
}

// Live reports whether a booking in this status still competes for or holds its slot.
func (s BookingStatus) Live() bool {
	return s == BookingPending || s == BookingConfirmed
}

type Booking struct {
	ID           string        `json:"id,omitempty" bson:"_id,omitempty" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,mongodb|uuid"`
	UserID       string        `json:"user_id" bson:"user_id" gorm:"type:varchar(64);not null;index" validate:"required,max=64"`
	RoomSlotID   string        `json:"room_slot_id" bson:"room_slot_id" gorm:"type:varchar(36);not null;index" validate:"required,mongodb|uuid"`
	RoomID       string        `json:"room_id" bson:"room_id" gorm:"type:varchar(36);not null" validate:"required,mongodb|uuid"`
	Status       BookingStatus `json:"status" bson:"status" gorm:"type:varchar(16);not null;index" validate:"required,oneof=pending confirmed cancelled"`
	Note         string        `json:"note,omitempty" bson:"note,omitempty" gorm:"type:varchar(500)" validate:"omitempty,max=500"`
	RejectReason string        `json:"reject_reason,omitempty" bson:"reject_reason,omitempty" gorm:"type:varchar(500)" validate:"omitempty,max=500"`
	CreatedBy    string        `json:"created_by,omitempty" bson:"created_by,omitempty" gorm:"type:varchar(64)"`
	CreatedAt    time.Time     `json:"created_at" bson:"created_at" gorm:"index"`
	UpdatedBy    string        `json:"updated_by,omitempty" bson:"updated_by,omitempty" gorm:"type:varchar(64)"`
	UpdatedAt    *time.Time    `json:"updated_at,omitempty" bson:"updated_at,omitempty" gorm:"autoUpdateTime:false"`
	DeletedBy    string        `json:"deleted_by,omitempty" bson:"deleted_by,omitempty" gorm:"type:varchar(64)"`
	DeletedAt    *time.Time    `json:"deleted_at,omitempty" bson:"deleted_at,omitempty" gorm:"index"`
}

func (Booking) TableName() string {
	return "bookings"
}

type BookingCreate struct {
	RoomSlotID string `json:"room_slot_id" validate:"required,mongodb|uuid"`
	Note       string `json:"note,omitempty" validate:"omitempty,max=500"`
}

type BookingReschedule struct {
	RoomSlotID string `json:"room_slot_id" validate:"required,mongodb|uuid"`
}

type BookingStatusUpdate struct {
	Status BookingStatus `json:"status" validate:"required,oneof=pending confirmed cancelled"`
	Reason string        `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// StatusChange is a compare-and-swap on a booking's status. It only applies
// while the booking is still bound to SlotID, the slot the caller claimed or
// is about to release.
type StatusChange struct {
	SlotID string
	From   BookingStatus
	To     BookingStatus
	Reason string
	By     string
	At     time.Time
}

type BookingFilter struct {
	UserID     string
	RoomSlotID string
	RoomID     string
	Status     BookingStatus
}

type SlotSummary struct {
	StartTime  time.Time  `json:"start_time"`
	EndTime    time.Time  `json:"end_time"`
	SlotType   SlotType   `json:"slot_type"`
	RoomStatus RoomStatus `json:"room_status"`
}

// BookingDetails is a booking with the slot and room it points at. Either is
// nil once retired from the catalog.
type BookingDetails struct {
	*Booking
	Slot *SlotSummary `json:"slot,omitempty"`
	Room *RoomSummary `json:"room,omitempty"`
}

// SlotRebind moves a booking from one slot to another, provided it is still
// bound to FromSlotID with status Status.
type SlotRebind struct {
	FromSlotID string
	ToSlotID   string
	ToRoomID   string
	Status     BookingStatus
	By         string
	At         time.Time
}
