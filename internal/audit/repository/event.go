package repository

import (
	"context"
	"fmt"
	"roombook/pkg/config"
	mongotx "roombook/pkg/db/mongo"
	"roombook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Booking_events"
)

// EventRepository is the append-only booking audit trail. Record reports
// false when an event with the same id was already stored.
type EventRepository interface {
	Record(ctx context.Context, event *model.BookingEvent) (bool, error)
	FindByBooking(ctx context.Context, bookingID string) ([]*model.BookingEvent, error)
}

type mongoEventRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoEventRepository(cfg *config.Config) EventRepository {
	return &mongoEventRepository{
		cfg:        cfg,
		collection: cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection(CollectionName),
	}
}

func (r *mongoEventRepository) Record(ctx context.Context, event *model.BookingEvent) (bool, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.collection.InsertOne(ctx, event); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to record booking event: %w", err)
	}
	return true, nil
}

func (r *mongoEventRepository) FindByBooking(ctx context.Context, bookingID string) ([]*model.BookingEvent, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "occurred_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"booking_id": bookingID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find booking events: %w", err)
	}
	defer cursor.Close(ctx)

	events := []*model.BookingEvent{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode booking events: %w", err)
	}
	return events, nil
}
