package repository

import (
	"context"
	"errors"
	"fmt"
	catalogerrors "roombook/internal/catalog/errors"
	"roombook/pkg/config"
	"roombook/pkg/model"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

const (
	CollectionName = "Rooms"
)

// RoomCatalog is the read-only view of facility data the booking core depends on.
type RoomCatalog interface {
	Exists(ctx context.Context, roomID string) (bool, error)
	Get(ctx context.Context, roomID string) (*model.Room, error)
}

type mongoRoomCatalog struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoRoomCatalog(cfg *config.Config) RoomCatalog {
	return &mongoRoomCatalog{
		cfg:        cfg,
		collection: cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection(CollectionName),
	}
}

func (c *mongoRoomCatalog) Exists(ctx context.Context, roomID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(roomID)
	if err != nil {
		return false, nil
	}

	err = c.collection.FindOne(ctx, bson.M{"_id": objectID, "deleted_at": nil}).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, fmt.Errorf("failed to look up room: %w", err)
	}
	return true, nil
}

func (c *mongoRoomCatalog) Get(ctx context.Context, roomID string) (*model.Room, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(roomID)
	if err != nil {
		return nil, catalogerrors.ErrNotFound
	}

	var room model.Room
	err = c.collection.FindOne(ctx, bson.M{"_id": objectID, "deleted_at": nil}).Decode(&room)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, catalogerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	return &room, nil
}

type gormRoomCatalog struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewGormRoomCatalog(db *gorm.DB, readTimeout time.Duration) RoomCatalog {
	return &gormRoomCatalog{db: db, timeout: readTimeout}
}

func (c *gormRoomCatalog) Exists(ctx context.Context, roomID string) (bool, error) {
	if _, err := uuid.Parse(roomID); err != nil {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var count int64
	err := c.db.WithContext(ctx).
		Model(&model.Room{}).
		Where("id = ? AND deleted_at IS NULL", roomID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to look up room: %w", err)
	}
	return count > 0, nil
}

func (c *gormRoomCatalog) Get(ctx context.Context, roomID string) (*model.Room, error) {
	if _, err := uuid.Parse(roomID); err != nil {
		return nil, catalogerrors.ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var room model.Room
	err := c.db.WithContext(ctx).Where("id = ? AND deleted_at IS NULL", roomID).Take(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalogerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	return &room, nil
}
