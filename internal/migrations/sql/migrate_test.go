package sql

import (
	"context"
	"errors"
	"io"
	"roombook/pkg/logger"
	"roombook/pkg/model"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestRunMigration(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	log := logger.New(logger.Config{Level: logger.ERROR, Output: io.Discard})
	ctx := context.Background()

	if err := RunMigration(ctx, db, log); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := RunMigration(ctx, db, log); err != nil {
		t.Fatalf("migration must be re-runnable: %v", err)
	}

	for _, table := range []string{"rooms", "room_slots", "bookings", "booking_events"} {
		if !db.Migrator().HasTable(table) {
			t.Errorf("table %s missing", table)
		}
	}

	slotID := uuid.NewString()
	newBooking := func(status model.BookingStatus) *model.Booking {
		return &model.Booking{
			ID:         uuid.NewString(),
			UserID:     uuid.NewString(),
			RoomSlotID: slotID,
			RoomID:     uuid.NewString(),
			Status:     status,
			CreatedAt:  time.Now().UTC(),
		}
	}

	if err := db.Create(newBooking(model.BookingConfirmed)).Error; err != nil {
		t.Fatalf("first confirmed booking: %v", err)
	}
	if err := db.Create(newBooking(model.BookingPending)).Error; err != nil {
		t.Fatalf("pending booking on a held slot should be allowed: %v", err)
	}
	if err := db.Create(newBooking(model.BookingConfirmed)).Error; err == nil {
		t.Error("second confirmed booking on the same slot should violate the unique index")
	}

	pending := newBooking(model.BookingPending)
	if err := db.Create(pending).Error; err != nil {
		t.Fatalf("pending booking: %v", err)
	}
	again := newBooking(model.BookingPending)
	again.UserID = pending.UserID
	if err := db.Create(again).Error; !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Errorf("second live booking by the same user: expected ErrDuplicatedKey, got %v", err)
	}

	if err := db.Model(pending).Update("status", model.BookingCancelled).Error; err != nil {
		t.Fatalf("cancel pending booking: %v", err)
	}
	again.ID = uuid.NewString()
	if err := db.Create(again).Error; err != nil {
		t.Errorf("rebooking after a cancellation should be allowed: %v", err)
	}
}
