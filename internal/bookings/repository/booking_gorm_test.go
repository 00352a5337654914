package repository

import (
	"context"
	"errors"
	"io"
	bookingserrors "roombook/internal/bookings/errors"
	sqlMigration "roombook/internal/migrations/sql"
	"roombook/pkg/logger"
	"roombook/pkg/model"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	log := logger.New(logger.Config{Level: logger.ERROR, Output: io.Discard})
	if err := sqlMigration.RunMigration(context.Background(), db, log); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newPending(t *testing.T, repo BookingRepository, userID, slotID string) *model.Booking {
	t.Helper()

	b := &model.Booking{
		UserID:     userID,
		RoomSlotID: slotID,
		RoomID:     uuid.NewString(),
		Status:     model.BookingPending,
		CreatedBy:  userID,
	}
	if err := repo.Create(context.Background(), b); err != nil {
		t.Fatalf("create booking: %v", err)
	}
	return b
}

func TestGormBookingRepository_StatusCompareAndSwap(t *testing.T) {
	repo := NewGormBookingRepository(openTestDB(t), time.Second, time.Second)
	ctx := context.Background()
	b := newPending(t, repo, "user-1", uuid.NewString())
	now := time.Now().UTC()

	confirmed, err := repo.UpdateStatus(ctx, b.ID, model.StatusChange{
		SlotID: b.RoomSlotID, From: model.BookingPending, To: model.BookingConfirmed, By: "admin", At: now,
	})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if confirmed.Status != model.BookingConfirmed || confirmed.UpdatedBy != "admin" {
		t.Errorf("unexpected booking after confirm: %+v", confirmed)
	}

	_, err = repo.UpdateStatus(ctx, b.ID, model.StatusChange{
		SlotID: b.RoomSlotID, From: model.BookingPending, To: model.BookingCancelled, By: "admin", At: now,
	})
	if !errors.Is(err, bookingserrors.ErrStatusChanged) {
		t.Fatalf("stale from-status: expected ErrStatusChanged, got %v", err)
	}

	cancelled, err := repo.UpdateStatus(ctx, b.ID, model.StatusChange{
		SlotID: b.RoomSlotID, From: model.BookingConfirmed, To: model.BookingCancelled, Reason: "room closed", By: "admin", At: now,
	})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.RejectReason != "room closed" {
		t.Errorf("reject reason not stored: %+v", cancelled)
	}
}

func TestGormBookingRepository_StatusChangeRequiresBinding(t *testing.T) {
	repo := NewGormBookingRepository(openTestDB(t), time.Second, time.Second)
	ctx := context.Background()
	oldSlot, newSlot := uuid.NewString(), uuid.NewString()
	b := newPending(t, repo, "user-1", oldSlot)

	if _, err := repo.Rebind(ctx, b.ID, model.SlotRebind{
		FromSlotID: oldSlot, ToSlotID: newSlot, ToRoomID: b.RoomID,
		Status: model.BookingPending, By: "user-1", At: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("rebind: %v", err)
	}

	_, err := repo.UpdateStatus(ctx, b.ID, model.StatusChange{
		SlotID: oldSlot, From: model.BookingPending, To: model.BookingConfirmed, By: "admin", At: time.Now().UTC(),
	})
	if !errors.Is(err, bookingserrors.ErrStatusChanged) {
		t.Fatalf("stale slot: expected ErrStatusChanged, got %v", err)
	}

	got, err := repo.FindByID(ctx, b.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Status != model.BookingPending || got.RoomSlotID != newSlot {
		t.Errorf("booking changed by a stale write: %+v", got)
	}
}

func TestGormBookingRepository_DuplicateLiveBooking(t *testing.T) {
	repo := NewGormBookingRepository(openTestDB(t), time.Second, time.Second)
	ctx := context.Background()
	slotID, otherSlot := uuid.NewString(), uuid.NewString()
	newPending(t, repo, "user-1", slotID)

	err := repo.Create(ctx, &model.Booking{
		UserID: "user-1", RoomSlotID: slotID, RoomID: uuid.NewString(),
		Status: model.BookingPending, CreatedBy: "user-1",
	})
	if !errors.Is(err, bookingserrors.ErrDuplicate) {
		t.Fatalf("second live booking: expected ErrDuplicate, got %v", err)
	}

	other := newPending(t, repo, "user-1", otherSlot)
	_, err = repo.Rebind(ctx, other.ID, model.SlotRebind{
		FromSlotID: otherSlot, ToSlotID: slotID, ToRoomID: other.RoomID,
		Status: model.BookingPending, By: "user-1", At: time.Now().UTC(),
	})
	if !errors.Is(err, bookingserrors.ErrDuplicate) {
		t.Fatalf("rebind onto a slot already booked: expected ErrDuplicate, got %v", err)
	}

	got, err := repo.FindByID(ctx, other.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.RoomSlotID != otherSlot {
		t.Errorf("failed rebind moved the booking: %+v", got)
	}
}

func TestGormBookingRepository_ConcurrentCancelSingleWinner(t *testing.T) {
	repo := NewGormBookingRepository(openTestDB(t), 5*time.Second, 5*time.Second)
	b := newPending(t, repo, "user-1", uuid.NewString())

	const workers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.UpdateStatus(context.Background(), b.ID, model.StatusChange{
				SlotID: b.RoomSlotID, From: model.BookingPending, To: model.BookingCancelled, By: "user-1", At: time.Now().UTC(),
			})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			} else if !errors.Is(err, bookingserrors.ErrStatusChanged) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("expected exactly one status change, got %d", wins)
	}
}

func TestGormBookingRepository_Rebind(t *testing.T) {
	repo := NewGormBookingRepository(openTestDB(t), time.Second, time.Second)
	ctx := context.Background()
	oldSlot, newSlot, newRoom := uuid.NewString(), uuid.NewString(), uuid.NewString()
	b := newPending(t, repo, "user-1", oldSlot)

	moved, err := repo.Rebind(ctx, b.ID, model.SlotRebind{
		FromSlotID: oldSlot, ToSlotID: newSlot, ToRoomID: newRoom,
		Status: model.BookingPending, By: "user-1", At: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("rebind: %v", err)
	}
	if moved.RoomSlotID != newSlot || moved.RoomID != newRoom {
		t.Errorf("binding not updated: %+v", moved)
	}

	_, err = repo.Rebind(ctx, b.ID, model.SlotRebind{
		FromSlotID: oldSlot, ToSlotID: uuid.NewString(), ToRoomID: newRoom,
		Status: model.BookingPending, By: "user-1", At: time.Now().UTC(),
	})
	if !errors.Is(err, bookingserrors.ErrBindingChanged) {
		t.Errorf("stale binding: expected ErrBindingChanged, got %v", err)
	}
}

func TestGormBookingRepository_SoftDelete(t *testing.T) {
	repo := NewGormBookingRepository(openTestDB(t), time.Second, time.Second)
	ctx := context.Background()
	b := newPending(t, repo, "user-1", uuid.NewString())
	now := time.Now().UTC()

	if err := repo.SoftDelete(ctx, b.ID, "user-1", now); !errors.Is(err, bookingserrors.ErrStatusChanged) {
		t.Fatalf("deleting a live booking: expected ErrStatusChanged, got %v", err)
	}

	if _, err := repo.UpdateStatus(ctx, b.ID, model.StatusChange{
		SlotID: b.RoomSlotID, From: model.BookingPending, To: model.BookingCancelled, By: "user-1", At: now,
	}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := repo.SoftDelete(ctx, b.ID, "user-1", now); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := repo.FindByID(ctx, b.ID); !errors.Is(err, bookingserrors.ErrNotFound) {
		t.Errorf("find after delete: expected ErrNotFound, got %v", err)
	}
	if _, err := repo.UpdateStatus(ctx, b.ID, model.StatusChange{
		SlotID: b.RoomSlotID, From: model.BookingCancelled, To: model.BookingConfirmed, By: "admin", At: now,
	}); !errors.Is(err, bookingserrors.ErrNotFound) {
		t.Errorf("update after delete: expected ErrNotFound, got %v", err)
	}
	if err := repo.SoftDelete(ctx, b.ID, "user-1", now); !errors.Is(err, bookingserrors.ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestGormBookingRepository_ListAndLiveCheck(t *testing.T) {
	repo := NewGormBookingRepository(openTestDB(t), time.Second, time.Second)
	ctx := context.Background()
	slotID := uuid.NewString()

	first := newPending(t, repo, "user-1", slotID)
	time.Sleep(2 * time.Millisecond)
	newPending(t, repo, "user-2", slotID)
	time.Sleep(2 * time.Millisecond)
	newPending(t, repo, "user-1", uuid.NewString())

	mine, err := repo.FindAll(ctx, model.BookingFilter{UserID: "user-1"}, 10, 0)
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("expected 2 bookings for user-1, got %d", len(mine))
	}
	if mine[0].CreatedAt.Before(mine[1].CreatedAt) {
		t.Error("expected newest booking first")
	}

	count, err := repo.Count(ctx, model.BookingFilter{RoomSlotID: slotID})
	if err != nil || count != 2 {
		t.Errorf("count = %d, %v; want 2", count, err)
	}

	live, err := repo.HasLiveBooking(ctx, "user-1", slotID)
	if err != nil || !live {
		t.Errorf("HasLiveBooking = %v, %v; want true", live, err)
	}

	if _, err := repo.UpdateStatus(ctx, first.ID, model.StatusChange{
		SlotID: first.RoomSlotID, From: model.BookingPending, To: model.BookingCancelled, By: "user-1", At: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	live, err = repo.HasLiveBooking(ctx, "user-1", slotID)
	if err != nil || live {
		t.Errorf("HasLiveBooking after cancel = %v, %v; want false", live, err)
	}
}

func TestGormBookingRepository_InvalidID(t *testing.T) {
	repo := NewGormBookingRepository(openTestDB(t), time.Second, time.Second)
	if _, err := repo.FindByID(context.Background(), "507f1f77bcf86cd799439011"); !errors.Is(err, bookingserrors.ErrInvalidID) {
		t.Errorf("expected ErrInvalidID, got %v", err)
	}
}
