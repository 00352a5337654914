package repository

import (
	"context"
	"errors"
	"fmt"
	slotserrors "roombook/internal/slots/errors"
	"roombook/pkg/db"
	sqltx "roombook/pkg/db/sql"
	"roombook/pkg/model"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type gormSlotRepository struct {
	db           *gorm.DB
	txManager    db.TransactionManager
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func NewGormSlotRepository(conn *gorm.DB, readTimeout, writeTimeout time.Duration) SlotRepository {
	return &gormSlotRepository{
		db:           conn,
		txManager:    sqltx.NewTransactionManager(conn),
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

func (r *gormSlotRepository) conn(ctx context.Context, timeout time.Duration) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return sqltx.Conn(ctx, r.db), cancel
}

func (r *gormSlotRepository) Create(ctx context.Context, slot *model.RoomSlot) error {
	conn, cancel := r.conn(ctx, r.writeTimeout)
	defer cancel()

	slot.ID = uuid.NewString()
	slot.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	if err := conn.Create(slot).Error; err != nil {
		return fmt.Errorf("failed to create room slot: %w", err)
	}
	return nil
}

func (r *gormSlotRepository) FindByID(ctx context.Context, id string) (*model.RoomSlot, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", slotserrors.ErrInvalidID, id)
	}

	conn, cancel := r.conn(ctx, r.readTimeout)
	defer cancel()

	return r.findLive(conn, id)
}

func (r *gormSlotRepository) FindAll(ctx context.Context, filter model.SlotFilter, limit int, offset int64) ([]*model.RoomSlot, error) {
	conn, cancel := r.conn(ctx, r.readTimeout)
	defer cancel()

	slots := []*model.RoomSlot{}
	err := applySlotFilter(conn.Model(&model.RoomSlot{}), filter).
		Order("start_time ASC").
		Order("end_time ASC").
		Limit(limit).
		Offset(int(offset)).
		Find(&slots).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find room slots: %w", err)
	}
	return slots, nil
}

func (r *gormSlotRepository) Count(ctx context.Context, filter model.SlotFilter) (int64, error) {
	conn, cancel := r.conn(ctx, r.readTimeout)
	defer cancel()

	var count int64
	if err := applySlotFilter(conn.Model(&model.RoomSlot{}), filter).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count room slots: %w", err)
	}
	return count, nil
}

func (r *gormSlotRepository) FindOverlapping(ctx context.Context, roomID string, start, end time.Time) ([]*model.RoomSlot, error) {
	conn, cancel := r.conn(ctx, r.readTimeout)
	defer cancel()

	var slots []*model.RoomSlot
	err := conn.
		Where("room_id = ? AND deleted_at IS NULL AND start_time < ? AND end_time > ?", roomID, end, start).
		Limit(10).
		Find(&slots).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find overlapping room slots: %w", err)
	}
	return slots, nil
}

func (r *gormSlotRepository) Claim(ctx context.Context, id string, by string, at time.Time) (*model.RoomSlot, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", slotserrors.ErrInvalidID, id)
	}

	conn, cancel := r.conn(ctx, r.writeTimeout)
	defer cancel()

	result := conn.Model(&model.RoomSlot{}).
		Where("id = ? AND room_status = ? AND deleted_at IS NULL", id, model.RoomStatusAvailable).
		Updates(map[string]any{
			"room_status": model.RoomStatusUnavailable,
			"updated_by":  by,
			"updated_at":  at,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to claim room slot: %w", result.Error)
	}

	slot, err := r.findLive(conn, id)
	if err != nil {
		return nil, err
	}
	if result.RowsAffected == 0 {
		return nil, slotserrors.ErrUnavailable
	}
	return slot, nil
}

func (r *gormSlotRepository) Release(ctx context.Context, id string, by string, at time.Time) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", slotserrors.ErrInvalidID, id)
	}

	conn, cancel := r.conn(ctx, r.writeTimeout)
	defer cancel()

	result := conn.Model(&model.RoomSlot{}).
		Where("id = ? AND room_status = ? AND deleted_at IS NULL", id, model.RoomStatusUnavailable).
		Updates(map[string]any{
			"room_status": model.RoomStatusAvailable,
			"updated_by":  by,
			"updated_at":  at,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to release room slot: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	_, err := r.findLive(conn, id)
	return err
}

func (r *gormSlotRepository) UpdateWindow(ctx context.Context, id string, window model.SlotWindow) (*model.RoomSlot, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", slotserrors.ErrInvalidID, id)
	}

	conn, cancel := r.conn(ctx, r.writeTimeout)
	defer cancel()

	result := conn.Model(&model.RoomSlot{}).
		Where("id = ? AND room_status = ? AND deleted_at IS NULL", id, model.RoomStatusAvailable).
		Updates(map[string]any{
			"start_time": window.StartTime,
			"end_time":   window.EndTime,
			"slot_type":  window.SlotType,
			"updated_by": window.By,
			"updated_at": window.At,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update room slot: %w", result.Error)
	}

	slot, err := r.findLive(conn, id)
	if err != nil {
		return nil, err
	}
	if result.RowsAffected == 0 {
		return nil, slotserrors.ErrClaimed
	}
	return slot, nil
}

func (r *gormSlotRepository) SoftDelete(ctx context.Context, id string, by string, at time.Time) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", slotserrors.ErrInvalidID, id)
	}

	conn, cancel := r.conn(ctx, r.writeTimeout)
	defer cancel()

	result := conn.Model(&model.RoomSlot{}).
		Where("id = ? AND room_status = ? AND deleted_at IS NULL", id, model.RoomStatusAvailable).
		Updates(map[string]any{
			"deleted_by": by,
			"deleted_at": at,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to delete room slot: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	if _, err := r.findLive(conn, id); err != nil {
		return err
	}
	return slotserrors.ErrClaimed
}

func (r *gormSlotRepository) ExecuteTransaction(ctx context.Context, fn db.TxFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

func (r *gormSlotRepository) findLive(conn *gorm.DB, id string) (*model.RoomSlot, error) {
	var slot model.RoomSlot
	err := conn.Where("id = ? AND deleted_at IS NULL", id).Take(&slot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, slotserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find room slot: %w", err)
	}
	return &slot, nil
}

func applySlotFilter(q *gorm.DB, f model.SlotFilter) *gorm.DB {
	q = q.Where("deleted_at IS NULL")
	if f.RoomID != "" {
		q = q.Where("room_id = ?", f.RoomID)
	}
	if f.Status != "" {
		q = q.Where("room_status = ?", f.Status)
	}
	if f.From != nil {
		q = q.Where("end_time > ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("start_time < ?", *f.To)
	}
	return q
}
