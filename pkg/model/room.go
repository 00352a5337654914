package model

import "time"

// Room is catalog data owned by facility management; the booking core only reads it.
// AreaName and RoomTypeName are display copies kept alongside their IDs.
type Room struct {
	ID           string     `json:"id,omitempty" bson:"_id,omitempty" gorm:"primaryKey;type:varchar(36)"`
	RoomNumber   string     `json:"room_number" bson:"room_number" gorm:"type:varchar(32);not null"`
	RoomName     string     `json:"room_name,omitempty" bson:"room_name,omitempty" gorm:"type:varchar(128)"`
	AreaID       string     `json:"area_id" bson:"area_id" gorm:"type:varchar(36)"`
	AreaName     string     `json:"area_name,omitempty" bson:"area_name,omitempty" gorm:"type:varchar(128)"`
	RoomTypeID   string     `json:"room_type_id" bson:"room_type_id" gorm:"type:varchar(36)"`
	RoomTypeName string     `json:"room_type_name,omitempty" bson:"room_type_name,omitempty" gorm:"type:varchar(128)"`
	Floor        int        `json:"floor" bson:"floor"`
	Capacity     int        `json:"capacity" bson:"capacity"`
	CreatedAt    time.Time  `json:"created_at" bson:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty" bson:"deleted_at,omitempty" gorm:"index"`
}

func (Room) TableName() string {
	return "rooms"
}

// RoomSummary is the room data shown next to a booking.
type RoomSummary struct {
	RoomNumber   string `json:"room_number"`
	RoomName     string `json:"room_name,omitempty"`
	AreaName     string `json:"area_name,omitempty"`
	RoomTypeName string `json:"room_type_name,omitempty"`
	Floor        int    `json:"floor"`
	Capacity     int    `json:"capacity"`
}

func (r *Room) Summary() *RoomSummary {
	return &RoomSummary{
		RoomNumber:   r.RoomNumber,
		RoomName:     r.RoomName,
		AreaName:     r.AreaName,
		RoomTypeName: r.RoomTypeName,
		Floor:        r.Floor,
		Capacity:     r.Capacity,
	}
}
