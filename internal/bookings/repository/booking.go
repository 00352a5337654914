package repository

import (
	"context"
	"errors"
	"fmt"
	bookingserrors "roombook/internal/bookings/errors"
	"roombook/pkg/config"
	"roombook/pkg/db"
	mongotx "roombook/pkg/db/mongo"
	"roombook/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Bookings"
)

// BookingRepository stores bookings. Every status or binding write is a
// conditional update on the values the caller last observed; a mismatch is
// reported as ErrStatusChanged or ErrBindingChanged, never applied.
type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindAll(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, error)
	Count(ctx context.Context, filter model.BookingFilter) (int64, error)
	HasLiveBooking(ctx context.Context, userID, slotID string) (bool, error)
	UpdateStatus(ctx context.Context, id string, change model.StatusChange) (*model.Booking, error)
	Rebind(ctx context.Context, id string, rebind model.SlotRebind) (*model.Booking, error)
	SoftDelete(ctx context.Context, id string, by string, at time.Time) error
	ExecuteTransaction(ctx context.Context, fn db.TxFunc) error
}

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  db.TransactionManager
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	return &mongoBookingRepository{
		cfg:        cfg,
		collection: cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	booking.ID = ""
	booking.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %v", bookingserrors.ErrDuplicate, err)
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	return r.findLive(ctx, objectID)
}

func (r *mongoBookingRepository) FindAll(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, buildBookingFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := []*model.Booking{}
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

func (r *mongoBookingRepository) Count(ctx context.Context, filter model.BookingFilter) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildBookingFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

func (r *mongoBookingRepository) HasLiveBooking(ctx context.Context, userID, slotID string) (bool, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"user_id":      userID,
		"room_slot_id": slotID,
		"deleted_at":   nil,
		"status":       bson.M{"$in": []model.BookingStatus{model.BookingPending, model.BookingConfirmed}},
	}
	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check live bookings: %w", err)
	}
	return count > 0, nil
}

func (r *mongoBookingRepository) UpdateStatus(ctx context.Context, id string, change model.StatusChange) (*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	filter := liveByID(objectID)
	filter["status"] = change.From
	filter["room_slot_id"] = change.SlotID

	set := bson.M{
		"status":     change.To,
		"updated_by": change.By,
		"updated_at": change.At,
	}
	if change.Reason != "" {
		set["reject_reason"] = change.Reason
	}

	var booking model.Booking
	err = r.collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&booking)
	if err == nil {
		return &booking, nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return nil, fmt.Errorf("%w: %v", bookingserrors.ErrDuplicate, err)
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}

	if _, err := r.findLive(ctx, objectID); err != nil {
		return nil, err
	}
	return nil, bookingserrors.ErrStatusChanged
}

func (r *mongoBookingRepository) Rebind(ctx context.Context, id string, rebind model.SlotRebind) (*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	filter := liveByID(objectID)
	filter["status"] = rebind.Status
	filter["room_slot_id"] = rebind.FromSlotID

	update := bson.M{"$set": bson.M{
		"room_slot_id": rebind.ToSlotID,
		"room_id":      rebind.ToRoomID,
		"updated_by":   rebind.By,
		"updated_at":   rebind.At,
	}}

	var booking model.Booking
	err = r.collection.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&booking)
	if err == nil {
		return &booking, nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return nil, fmt.Errorf("%w: %v", bookingserrors.ErrDuplicate, err)
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to rebind booking: %w", err)
	}

	if _, err := r.findLive(ctx, objectID); err != nil {
		return nil, err
	}
	return nil, bookingserrors.ErrBindingChanged
}

// SoftDelete tombstones a cancelled booking.
func (r *mongoBookingRepository) SoftDelete(ctx context.Context, id string, by string, at time.Time) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	filter := liveByID(objectID)
	filter["status"] = model.BookingCancelled
	update := bson.M{"$set": bson.M{
		"deleted_by": by,
		"deleted_at": at,
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	if _, err := r.findLive(ctx, objectID); err != nil {
		return err
	}
	return bookingserrors.ErrStatusChanged
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn db.TxFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

func (r *mongoBookingRepository) findLive(ctx context.Context, objectID primitive.ObjectID) (*model.Booking, error) {
	var booking model.Booking
	err := r.collection.FindOne(ctx, liveByID(objectID)).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return &booking, nil
}

func liveByID(objectID primitive.ObjectID) bson.M {
	return bson.M{"_id": objectID, "deleted_at": nil}
}

func buildBookingFilter(f model.BookingFilter) bson.M {
	filter := bson.M{"deleted_at": nil}
	if f.UserID != "" {
		filter["user_id"] = f.UserID
	}
	if f.RoomSlotID != "" {
		filter["room_slot_id"] = f.RoomSlotID
	}
	if f.RoomID != "" {
		filter["room_id"] = f.RoomID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	return filter
}
