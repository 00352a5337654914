package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingEventValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"type",
			"booking_id",
			"status",
			"occurred_at",
		},
		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
			},
			"type": bson.M{
				"bsonType": "string",
				"enum": []string{
					"booking.created",
					"booking.rescheduled",
					"booking.confirmed",
					"booking.cancelled",
					"booking.deleted",
				},
			},
			"booking_id": bson.M{
				"bsonType": "string",
			},
			"occurred_at": bson.M{
				"bsonType": "date",
			},
			"received_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
