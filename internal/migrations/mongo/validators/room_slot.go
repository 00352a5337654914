package validators

import "go.mongodb.org/mongo-driver/bson"

var RoomSlotValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"room_id",
			"start_time",
			"end_time",
			"slot_type",
			"room_status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"room_id": objectIDString,

			"start_time": bson.M{
				"bsonType": "date",
			},

			"end_time": bson.M{
				"bsonType": "date",
			},

			"slot_type": bson.M{
				"bsonType": "string",
				"enum":     []string{"lecture", "lab", "seminar", "event"},
			},

			"room_status": bson.M{
				"bsonType": "string",
				"enum":     []string{"available", "unavailable"},
			},

			"deleted_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
