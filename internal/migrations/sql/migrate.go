package sql

import (
	"context"
	"fmt"
	"roombook/pkg/logger"
	"roombook/pkg/model"

	"gorm.io/gorm"
)

// Tables lists every relational table the service owns.
var Tables = []any{
	&model.Room{},
	&model.RoomSlot{},
	&model.Booking{},
	&model.BookingEvent{},
}

// uniqConfirmedPerSlot allows at most one confirmed booking per slot.
// Postgres and SQLite both accept partial indexes with this syntax.
const uniqConfirmedPerSlot = `CREATE UNIQUE INDEX IF NOT EXISTS uniq_confirmed_per_slot ON bookings (room_slot_id) WHERE status = 'confirmed'`

// uniqLiveBookingPerUserSlot allows a user one pending or confirmed booking per slot.
const uniqLiveBookingPerUserSlot = `CREATE UNIQUE INDEX IF NOT EXISTS uniq_live_booking_per_user_slot ON bookings (user_id, room_slot_id) WHERE status IN ('pending', 'confirmed') AND deleted_at IS NULL`

func RunMigration(ctx context.Context, db *gorm.DB, log *logger.Logger) error {
	log.Info("Running SQL migrations", "dialect", db.Dialector.Name())

	conn := db.WithContext(ctx)
	if err := conn.AutoMigrate(Tables...); err != nil {
		return fmt.Errorf("failed to auto-migrate tables: %w", err)
	}
	if err := conn.Exec(uniqConfirmedPerSlot).Error; err != nil {
		return fmt.Errorf("failed to create confirmed booking index: %w", err)
	}
	if err := conn.Exec(uniqLiveBookingPerUserSlot).Error; err != nil {
		return fmt.Errorf("failed to create live booking index: %w", err)
	}

	log.Info("All SQL migrations applied")
	return nil
}
