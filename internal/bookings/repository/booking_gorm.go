package repository

import (
	"context"
	"errors"
	"fmt"
	bookingserrors "roombook/internal/bookings/errors"
	"roombook/pkg/db"
	sqltx "roombook/pkg/db/sql"
	"roombook/pkg/model"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type gormBookingRepository struct {
	db           *gorm.DB
	txManager    db.TransactionManager
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func NewGormBookingRepository(conn *gorm.DB, readTimeout, writeTimeout time.Duration) BookingRepository {
	return &gormBookingRepository{
		db:           conn,
		txManager:    sqltx.NewTransactionManager(conn),
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

func (r *gormBookingRepository) conn(ctx context.Context, timeout time.Duration) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return sqltx.Conn(ctx, r.db), cancel
}

func (r *gormBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	conn, cancel := r.conn(ctx, r.writeTimeout)
	defer cancel()

	booking.ID = uuid.NewString()
	booking.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	if err := conn.Create(booking).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %v", bookingserrors.ErrDuplicate, err)
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *gormBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	conn, cancel := r.conn(ctx, r.readTimeout)
	defer cancel()

	return r.findLive(conn, id)
}

func (r *gormBookingRepository) FindAll(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, error) {
	conn, cancel := r.conn(ctx, r.readTimeout)
	defer cancel()

	bookings := []*model.Booking{}
	err := applyBookingFilter(conn.Model(&model.Booking{}), filter).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(int(offset)).
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	return bookings, nil
}

func (r *gormBookingRepository) Count(ctx context.Context, filter model.BookingFilter) (int64, error) {
	conn, cancel := r.conn(ctx, r.readTimeout)
	defer cancel()

	var count int64
	if err := applyBookingFilter(conn.Model(&model.Booking{}), filter).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

func (r *gormBookingRepository) HasLiveBooking(ctx context.Context, userID, slotID string) (bool, error) {
	conn, cancel := r.conn(ctx, r.readTimeout)
	defer cancel()

	var count int64
	err := conn.Model(&model.Booking{}).
		Where("user_id = ? AND room_slot_id = ? AND deleted_at IS NULL", userID, slotID).
		Where("status IN ?", []model.BookingStatus{model.BookingPending, model.BookingConfirmed}).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check live bookings: %w", err)
	}
	return count > 0, nil
}

func (r *gormBookingRepository) UpdateStatus(ctx context.Context, id string, change model.StatusChange) (*model.Booking, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	conn, cancel := r.conn(ctx, r.writeTimeout)
	defer cancel()

	updates := map[string]any{
		"status":     change.To,
		"updated_by": change.By,
		"updated_at": change.At,
	}
	if change.Reason != "" {
		updates["reject_reason"] = change.Reason
	}

	result := conn.Model(&model.Booking{}).
		Where("id = ? AND status = ? AND room_slot_id = ? AND deleted_at IS NULL", id, change.From, change.SlotID).
		Updates(updates)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: %v", bookingserrors.ErrDuplicate, result.Error)
		}
		return nil, fmt.Errorf("failed to update booking status: %w", result.Error)
	}

	booking, err := r.findLive(conn, id)
	if err != nil {
		return nil, err
	}
	if result.RowsAffected == 0 {
		return nil, bookingserrors.ErrStatusChanged
	}
	return booking, nil
}

func (r *gormBookingRepository) Rebind(ctx context.Context, id string, rebind model.SlotRebind) (*model.Booking, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	conn, cancel := r.conn(ctx, r.writeTimeout)
	defer cancel()

	result := conn.Model(&model.Booking{}).
		Where("id = ? AND status = ? AND room_slot_id = ? AND deleted_at IS NULL", id, rebind.Status, rebind.FromSlotID).
		Updates(map[string]any{
			"room_slot_id": rebind.ToSlotID,
			"room_id":      rebind.ToRoomID,
			"updated_by":   rebind.By,
			"updated_at":   rebind.At,
		})
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: %v", bookingserrors.ErrDuplicate, result.Error)
		}
		return nil, fmt.Errorf("failed to rebind booking: %w", result.Error)
	}

	booking, err := r.findLive(conn, id)
	if err != nil {
		return nil, err
	}
	if result.RowsAffected == 0 {
		return nil, bookingserrors.ErrBindingChanged
	}
	return booking, nil
}

func (r *gormBookingRepository) SoftDelete(ctx context.Context, id string, by string, at time.Time) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	conn, cancel := r.conn(ctx, r.writeTimeout)
	defer cancel()

	result := conn.Model(&model.Booking{}).
		Where("id = ? AND status = ? AND deleted_at IS NULL", id, model.BookingCancelled).
		Updates(map[string]any{
			"deleted_by": by,
			"deleted_at": at,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to delete booking: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	if _, err := r.findLive(conn, id); err != nil {
		return err
	}
	return bookingserrors.ErrStatusChanged
}

func (r *gormBookingRepository) ExecuteTransaction(ctx context.Context, fn db.TxFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

func (r *gormBookingRepository) findLive(conn *gorm.DB, id string) (*model.Booking, error) {
	var booking model.Booking
	err := conn.Where("id = ? AND deleted_at IS NULL", id).Take(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return &booking, nil
}

func applyBookingFilter(q *gorm.DB, f model.BookingFilter) *gorm.DB {
	q = q.Where("deleted_at IS NULL")
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.RoomSlotID != "" {
		q = q.Where("room_slot_id = ?", f.RoomSlotID)
	}
	if f.RoomID != "" {
		q = q.Where("room_id = ?", f.RoomID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	return q
}
