package repository

import (
	"context"
	"fmt"
	"roombook/pkg/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormEventRepository struct {
	db           *gorm.DB
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func NewGormEventRepository(conn *gorm.DB, readTimeout, writeTimeout time.Duration) EventRepository {
	return &gormEventRepository{
		db:           conn,
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

func (r *gormEventRepository) Record(ctx context.Context, event *model.BookingEvent) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.writeTimeout)
	defer cancel()

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(event)
	if result.Error != nil {
		return false, fmt.Errorf("failed to record booking event: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *gormEventRepository) FindByBooking(ctx context.Context, bookingID string) ([]*model.BookingEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, r.readTimeout)
	defer cancel()

	events := []*model.BookingEvent{}
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("occurred_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find booking events: %w", err)
	}
	return events, nil
}
