package repository

import (
	"context"
	"errors"
	"fmt"
	slotserrors "roombook/internal/slots/errors"
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
	CollectionName = "Room_slots"
)

// SlotRepository persists room slots. Claim, Release and SoftDelete are
// conditional updates keyed on the slot's current status; they are the only
// writes that touch room_status.
type SlotRepository interface {
	Create(ctx context.Context, slot *model.RoomSlot) error
	FindByID(ctx context.Context, id string) (*model.RoomSlot, error)
	FindAll(ctx context.Context, filter model.SlotFilter, limit int, offset int64) ([]*model.RoomSlot, error)
	Count(ctx context.Context, filter model.SlotFilter) (int64, error)
	FindOverlapping(ctx context.Context, roomID string, start, end time.Time) ([]*model.RoomSlot, error)
	Claim(ctx context.Context, id string, by string, at time.Time) (*model.RoomSlot, error)
	Release(ctx context.Context, id string, by string, at time.Time) error
	UpdateWindow(ctx context.Context, id string, window model.SlotWindow) (*model.RoomSlot, error)
	SoftDelete(ctx context.Context, id string, by string, at time.Time) error
	ExecuteTransaction(ctx context.Context, fn db.TxFunc) error
}

type mongoSlotRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  db.TransactionManager
}

func NewMongoSlotRepository(cfg *config.Config) SlotRepository {
	return &mongoSlotRepository{
		cfg:        cfg,
		collection: cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoSlotRepository) Create(ctx context.Context, slot *model.RoomSlot) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	slot.ID = ""
	slot.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, slot)
	if err != nil {
		return fmt.Errorf("failed to create room slot: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		slot.ID = oid.Hex()
	}
	return nil
}

func (r *mongoSlotRepository) FindByID(ctx context.Context, id string) (*model.RoomSlot, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", slotserrors.ErrInvalidID, id)
	}

	var slot model.RoomSlot
	err = r.collection.FindOne(ctx, liveByID(objectID)).Decode(&slot)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, slotserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find room slot: %w", err)
	}
	return &slot, nil
}

func (r *mongoSlotRepository) FindAll(ctx context.Context, filter model.SlotFilter, limit int, offset int64) ([]*model.RoomSlot, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "start_time", Value: 1}, {Key: "end_time", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, buildSlotFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find room slots: %w", err)
	}
	defer cursor.Close(ctx)

	slots := []*model.RoomSlot{}
	if err = cursor.All(ctx, &slots); err != nil {
		return nil, fmt.Errorf("failed to decode room slots: %w", err)
	}
	return slots, nil
}

func (r *mongoSlotRepository) Count(ctx context.Context, filter model.SlotFilter) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildSlotFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count room slots: %w", err)
	}
	return count, nil
}

func (r *mongoSlotRepository) FindOverlapping(ctx context.Context, roomID string, start, end time.Time) ([]*model.RoomSlot, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"room_id":    roomID,
		"deleted_at": nil,
		"start_time": bson.M{"$lt": end},
		"end_time":   bson.M{"$gt": start},
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetLimit(10))
	if err != nil {
		return nil, fmt.Errorf("failed to find overlapping room slots: %w", err)
	}
	defer cursor.Close(ctx)

	var slots []*model.RoomSlot
	if err = cursor.All(ctx, &slots); err != nil {
		return nil, fmt.Errorf("failed to decode room slots: %w", err)
	}
	return slots, nil
}

func (r *mongoSlotRepository) Claim(ctx context.Context, id string, by string, at time.Time) (*model.RoomSlot, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", slotserrors.ErrInvalidID, id)
	}

	filter := liveByID(objectID)
	filter["room_status"] = model.RoomStatusAvailable
	update := bson.M{"$set": bson.M{
		"room_status": model.RoomStatusUnavailable,
		"updated_by":  by,
		"updated_at":  at,
	}}

	var slot model.RoomSlot
	err = r.collection.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&slot)
	if err == nil {
		return &slot, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to claim room slot: %w", err)
	}

	if err := r.exists(ctx, objectID); err != nil {
		return nil, err
	}
	return nil, slotserrors.ErrUnavailable
}

func (r *mongoSlotRepository) Release(ctx context.Context, id string, by string, at time.Time) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", slotserrors.ErrInvalidID, id)
	}

	filter := liveByID(objectID)
	filter["room_status"] = model.RoomStatusUnavailable
	update := bson.M{"$set": bson.M{
		"room_status": model.RoomStatusAvailable,
		"updated_by":  by,
		"updated_at":  at,
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to release room slot: %w", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	// Nothing matched: either already available (no-op) or gone.
	return r.exists(ctx, objectID)
}

// UpdateWindow rewrites the window and type of an available slot. It returns
// ErrClaimed when a confirmed booking holds the slot.
func (r *mongoSlotRepository) UpdateWindow(ctx context.Context, id string, window model.SlotWindow) (*model.RoomSlot, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", slotserrors.ErrInvalidID, id)
	}

	filter := liveByID(objectID)
	filter["room_status"] = model.RoomStatusAvailable
	update := bson.M{"$set": bson.M{
		"start_time": window.StartTime,
		"end_time":   window.EndTime,
		"slot_type":  window.SlotType,
		"updated_by": window.By,
		"updated_at": window.At,
	}}

	var slot model.RoomSlot
	err = r.collection.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&slot)
	if err == nil {
		return &slot, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to update room slot: %w", err)
	}

	if err := r.exists(ctx, objectID); err != nil {
		return nil, err
	}
	return nil, slotserrors.ErrClaimed
}

func (r *mongoSlotRepository) SoftDelete(ctx context.Context, id string, by string, at time.Time) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", slotserrors.ErrInvalidID, id)
	}

	filter := liveByID(objectID)
	filter["room_status"] = model.RoomStatusAvailable
	update := bson.M{"$set": bson.M{
		"deleted_by": by,
		"deleted_at": at,
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to delete room slot: %w", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	if err := r.exists(ctx, objectID); err != nil {
		return err
	}
	return slotserrors.ErrClaimed
}

func (r *mongoSlotRepository) ExecuteTransaction(ctx context.Context, fn db.TxFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

// exists returns ErrNotFound unless a live slot with this id is stored.
func (r *mongoSlotRepository) exists(ctx context.Context, objectID primitive.ObjectID) error {
	err := r.collection.FindOne(ctx, liveByID(objectID)).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return slotserrors.ErrNotFound
		}
		return fmt.Errorf("failed to find room slot: %w", err)
	}
	return nil
}

func liveByID(objectID primitive.ObjectID) bson.M {
	return bson.M{"_id": objectID, "deleted_at": nil}
}

func buildSlotFilter(f model.SlotFilter) bson.M {
	filter := bson.M{"deleted_at": nil}
	if f.RoomID != "" {
		filter["room_id"] = f.RoomID
	}
	if f.Status != "" {
		filter["room_status"] = f.Status
	}
	if f.From != nil {
		filter["end_time"] = bson.M{"$gt": *f.From}
	}
	if f.To != nil {
		filter["start_time"] = bson.M{"$lt": *f.To}
	}
	return filter
}
