package validators

import "go.mongodb.org/mongo-driver/bson"

// RoomValidator is intentionally loose; rooms are written by facility tooling.
var RoomValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"room_number"},
		"properties": bson.M{
			"room_number": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 32,
			},
			"room_name": bson.M{
				"bsonType":  "string",
				"maxLength": 128,
			},
			"area_name": bson.M{
				"bsonType":  "string",
				"maxLength": 128,
			},
			"room_type_name": bson.M{
				"bsonType":  "string",
				"maxLength": 128,
			},
			"floor": bson.M{
				"bsonType": []string{"int", "long"},
			},
			"capacity": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},
		},
	},
}
