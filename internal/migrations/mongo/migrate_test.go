package mongo

import (
	"reflect"
	"roombook/pkg/model"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func bsonFields(v any) map[string]bool {
	fields := map[string]bool{}
	t := reflect.TypeOf(v)
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("bson")
		name, _, _ := strings.Cut(tag, ",")
		if name != "" && name != "-" {
			fields[name] = true
		}
	}
	return fields
}

// Every required validator field must be something the model actually writes.
func TestValidatorsMatchModels(t *testing.T) {
	models := map[string]any{
		"Rooms":          model.Room{},
		"Room_slots":     model.RoomSlot{},
		"Bookings":       model.Booking{},
		"Booking_events": model.BookingEvent{},
	}

	for _, def := range Collections {
		t.Run(def.Name, func(t *testing.T) {
			m, ok := models[def.Name]
			if !ok {
				t.Fatalf("no model registered for %s", def.Name)
			}
			fields := bsonFields(m)

			schema, ok := def.Validator["$jsonSchema"].(bson.M)
			if !ok {
				t.Fatalf("validator for %s has no $jsonSchema", def.Name)
			}
			required, _ := schema["required"].([]string)
			for _, field := range required {
				if !fields[field] {
					t.Errorf("%s requires %q which the model never writes", def.Name, field)
				}
			}
		})
	}
}

func TestCollectionsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, def := range Collections {
		if seen[def.Name] {
			t.Errorf("collection %s listed twice", def.Name)
		}
		seen[def.Name] = true
	}
}

func TestBookingsIndexes_LiveBookingPerUserSlot(t *testing.T) {
	var found bool
	for _, idx := range BookingsIndexes {
		if idx.Options == nil || idx.Options.Name == nil || *idx.Options.Name != "uniq_live_booking_per_user_slot" {
			continue
		}
		found = true

		if idx.Options.Unique == nil || !*idx.Options.Unique {
			t.Error("live booking index must be unique")
		}
		keys, _ := idx.Keys.(bson.D)
		if len(keys) != 2 || keys[0].Key != "user_id" || keys[1].Key != "room_slot_id" {
			t.Errorf("unexpected keys: %v", keys)
		}

		filter, _ := idx.Options.PartialFilterExpression.(bson.M)
		status, _ := filter["status"].(bson.M)
		live, _ := status["$in"].(bson.A)
		want := map[any]bool{"pending": true, "confirmed": true}
		if len(live) != len(want) {
			t.Fatalf("partial filter must cover exactly the live statuses, got %v", filter)
		}
		for _, s := range live {
			if !want[s] {
				t.Errorf("unexpected status %v in partial filter", s)
			}
		}
	}
	if !found {
		t.Fatal("uniq_live_booking_per_user_slot index missing")
	}
}
