package mongo

import (
	"context"
	"fmt"
	"roombook/internal/migrations/mongo/validators"
	"roombook/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	RoomsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "room_number", Value: 1}}},
		{Keys: bson.D{{Key: "area_id", Value: 1}, {Key: "room_type_id", Value: 1}}},
	}

	RoomSlotsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "room_id", Value: 1},
			{Key: "start_time", Value: 1},
			{Key: "end_time", Value: 1},
		}},
		{Keys: bson.D{{Key: "room_status", Value: 1}, {Key: "start_time", Value: 1}}},
	}

	BookingsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "room_slot_id", Value: 1}, {Key: "status", Value: 1}}},
		// A slot can be held by at most one confirmed booking.
		{
			Keys: bson.D{{Key: "room_slot_id", Value: 1}},
			Options: options.Index().
				SetName("uniq_confirmed_per_slot").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": "confirmed"}),
		},
		// A user holds at most one live booking per slot. Cancelled bookings,
		// including every soft-deleted one, fall outside the filter. $in in a
		// partial filter needs MongoDB 6.0.
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "room_slot_id", Value: 1}},
			Options: options.Index().
				SetName("uniq_live_booking_per_user_slot").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": bson.M{"$in": bson.A{"pending", "confirmed"}}}),
		},
	}

	BookingEventsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "booking_id", Value: 1}, {Key: "occurred_at", Value: 1}}},
	}
)

type collectionDef struct {
	Name      string
	Indexes   []mongo.IndexModel
	Validator bson.M
}

// Collections lists every collection the service owns, in creation order.
var Collections = []collectionDef{
	{Name: "Rooms", Indexes: RoomsIndexes, Validator: validators.RoomValidator},
	{Name: "Room_slots", Indexes: RoomSlotsIndexes, Validator: validators.RoomSlotValidator},
	{Name: "Bookings", Indexes: BookingsIndexes, Validator: validators.BookingValidator},
	{Name: "Booking_events", Indexes: BookingEventsIndexes, Validator: validators.BookingEventValidator},
}

func RunMigration(ctx context.Context, db *mongo.Database, log *logger.Logger) error {
	log.Info("Running Mongo migrations", "database", db.Name())

	for _, def := range Collections {
		if err := ensureCollection(ctx, db, def.Name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", def.Name, err)
		}
		if err := ensureIndexes(ctx, db, def.Name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", def.Name, err)
		}
	}

	log.Info("All Mongo migrations applied")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	log.Info("Collection exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	if len(models) == 0 {
		return nil
	}
	if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "count", len(models))
	return nil
}
