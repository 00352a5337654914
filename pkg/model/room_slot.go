package model

import "time"

type RoomStatus string

const (
	RoomStatusAvailable   RoomStatus = "available"
	RoomStatusUnavailable RoomStatus = "unavailable"
)

type SlotType string

const (
	SlotTypeLecture SlotType = "lecture"
	SlotTypeLab     SlotType = "lab"
	SlotTypeSeminar SlotType = "seminar"
	SlotTypeEvent   SlotType = "event"
)

// RoomSlot is a bookable [StartTime, EndTime) window on a room.
// RoomStatus is only ever changed through the slot ledger.
type RoomSlot struct {
	ID         string     `json:"id,omitempty" bson:"_id,omitempty" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,mongodb|uuid"`
	RoomID     string     `json:"room_id" bson:"room_id" gorm:"type:varchar(36);not null;index:idx_room_slots_room_window,priority:1" validate:"required,mongodb|uuid"`
	StartTime  time.Time  `json:"start_time" bson:"start_time" gorm:"not null;index:idx_room_slots_room_window,priority:2" validate:"required"`
	EndTime    time.Time  `json:"end_time" bson:"end_time" gorm:"not null" validate:"required,gtfield=StartTime"`
	SlotType   SlotType   `json:"slot_type" bson:"slot_type" gorm:"type:varchar(16);not null" validate:"required,oneof=lecture lab seminar event"`
	RoomStatus RoomStatus `json:"room_status" bson:"room_status" gorm:"type:varchar(16);not null;index" validate:"omitempty,oneof=available unavailable"`
	CreatedBy  string     `json:"created_by,omitempty" bson:"created_by,omitempty" gorm:"type:varchar(64)"`
	CreatedAt  time.Time  `json:"created_at" bson:"created_at"`
	UpdatedBy  string     `json:"updated_by,omitempty" bson:"updated_by,omitempty" gorm:"type:varchar(64)"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty" bson:"updated_at,omitempty" gorm:"autoUpdateTime:false"`
	DeletedBy  string     `json:"deleted_by,omitempty" bson:"deleted_by,omitempty" gorm:"type:varchar(64)"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty" bson:"deleted_at,omitempty" gorm:"index"`
}

func (RoomSlot) TableName() string {
	return "room_slots"
}

func (s *RoomSlot) IsAvailable() bool {
	return s.RoomStatus == RoomStatusAvailable
}

// Overlaps reports whether the two half-open windows intersect.
func (s *RoomSlot) Overlaps(start, end time.Time) bool {
	return s.StartTime.Before(end) && s.EndTime.After(start)
}

type SlotFilter struct {
	RoomID string
	Status RoomStatus
	From   *time.Time
	To     *time.Time
}

type RoomSlotCreate struct {
	RoomID    string    `json:"room_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	SlotType  SlotType  `json:"slot_type"`
}

func (c *RoomSlotCreate) ToRoomSlot() *RoomSlot {
	return &RoomSlot{
		RoomID:    c.RoomID,
		StartTime: c.StartTime,
		EndTime:   c.EndTime,
		SlotType:  c.SlotType,
	}
}

// RoomSlotUpdate edits the window or type of a slot. Fields left empty keep
// their stored value; availability cannot be edited.
type RoomSlotUpdate struct {
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	SlotType  SlotType   `json:"slot_type,omitempty"`
}

// SlotWindow is the full set of editable slot fields, written only while the
// slot is live and available.
type SlotWindow struct {
	StartTime time.Time
	EndTime   time.Time
	SlotType  SlotType
	By        string
	At        time.Time
}
