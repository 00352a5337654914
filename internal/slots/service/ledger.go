package service

import (
	"context"
	"errors"
	"fmt"
	catalog "roombook/internal/catalog/repository"
	slotserrors "roombook/internal/slots/errors"
	"roombook/internal/slots/repository"
	"roombook/internal/slots/validator"
	"roombook/pkg/config"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/model"
	"roombook/pkg/validation"
	"sync"
	"time"
)

// SlotLedger is the only writer of a slot's availability. TryClaim and Release
// are invoked by the booking workflow; the rest back the administrative slot
// surface.
type SlotLedger interface {
	TryClaim(ctx context.Context, slotID string, actor model.Actor) (*model.RoomSlot, error)
	Release(ctx context.Context, slotID string, actor model.Actor) error
	Get(ctx context.Context, slotID string) (*model.RoomSlot, error)
	Register(ctx context.Context, slot *model.RoomSlot, actor model.Actor) error
	Update(ctx context.Context, slotID string, update *model.RoomSlotUpdate, actor model.Actor) (*model.RoomSlot, error)
	Retire(ctx context.Context, slotID string, actor model.Actor) error
	List(ctx context.Context, filter model.SlotFilter, limit int, offset int64) ([]*model.RoomSlot, int64, error)
}

type slotLedger struct {
	repo      repository.SlotRepository
	rooms     catalog.RoomCatalog
	validator *validator.SlotValidator
	cfg       *config.Config
}

func NewSlotLedger(
	repo repository.SlotRepository,
	rooms catalog.RoomCatalog,
	validator *validator.SlotValidator,
	cfg *config.Config,
) SlotLedger {
	return &slotLedger{
		repo:      repo,
		rooms:     rooms,
		validator: validator,
		cfg:       cfg,
	}
}

func (l *slotLedger) TryClaim(ctx context.Context, slotID string, actor model.Actor) (*model.RoomSlot, error) {
	if slotID == "" {
		return nil, apperrors.InvalidInput("Room slot ID cannot be empty")
	}

	slot, err := l.repo.Claim(ctx, slotID, actor.ID, now())
	if err != nil {
		if errors.Is(err, slotserrors.ErrUnavailable) {
			l.cfg.Log.WithContext(ctx).Info("Room slot claim lost", "room_slot_id", slotID, "actor_id", actor.ID)
			return nil, apperrors.SlotUnavailable(slotID)
		}
		return nil, l.translate(ctx, err, slotID, "Failed to claim room slot")
	}

	l.cfg.Log.WithContext(ctx).Info("Room slot claimed", "room_slot_id", slotID, "actor_id", actor.ID)
	return slot, nil
}

func (l *slotLedger) Release(ctx context.Context, slotID string, actor model.Actor) error {
	if slotID == "" {
		return apperrors.InvalidInput("Room slot ID cannot be empty")
	}

	if err := l.repo.Release(ctx, slotID, actor.ID, now()); err != nil {
		return l.translate(ctx, err, slotID, "Failed to release room slot")
	}

	l.cfg.Log.WithContext(ctx).Info("Room slot released", "room_slot_id", slotID, "actor_id", actor.ID)
	return nil
}

func (l *slotLedger) Get(ctx context.Context, slotID string) (*model.RoomSlot, error) {
	if slotID == "" {
		return nil, apperrors.InvalidInput("Room slot ID cannot be empty")
	}

	slot, err := l.repo.FindByID(ctx, slotID)
	if err != nil {
		return nil, l.translate(ctx, err, slotID, "Failed to retrieve room slot")
	}
	return slot, nil
}

func (l *slotLedger) Register(ctx context.Context, slot *model.RoomSlot, actor model.Actor) error {
	if !actor.IsAdmin() {
		return apperrors.Forbidden("Only administrators can register room slots")
	}

	slot.ID = ""
	slot.StartTime = slot.StartTime.UTC().Truncate(time.Millisecond)
	slot.EndTime = slot.EndTime.UTC().Truncate(time.Millisecond)
	slot.RoomStatus = model.RoomStatusAvailable
	slot.CreatedBy = actor.ID
	slot.UpdatedBy, slot.UpdatedAt = "", nil
	slot.DeletedBy, slot.DeletedAt = "", nil

	if err := l.validator.Validate(slot); err != nil {
		l.cfg.Log.WithContext(ctx).Warn("Room slot validation failed", "room_id", slot.RoomID, "error", err)
		return apperrors.Validation("Room slot validation failed", validation.Details(err))
	}

	exists, err := l.rooms.Exists(ctx, slot.RoomID)
	if err != nil {
		l.cfg.Log.WithContext(ctx).Error("Failed to look up room", "room_id", slot.RoomID, "error", err)
		return apperrors.Internal("Failed to look up room", err)
	}
	if !exists {
		return apperrors.NotFoundWithID("Room", slot.RoomID)
	}

	err = l.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		if err := l.verifyNoOverlap(txCtx, slot); err != nil {
			return err
		}
		if err := l.repo.Create(txCtx, slot); err != nil {
			return apperrors.Internal("Failed to create room slot", err)
		}
		return nil
	})
	if err != nil {
		if !apperrors.HasCode(err, apperrors.CodeConflict) {
			l.cfg.Log.WithContext(ctx).Error("Failed to register room slot", "room_id", slot.RoomID, "error", err)
		}
		return err
	}

	l.cfg.Log.WithContext(ctx).Info("Room slot registered",
		"id", slot.ID,
		"room_id", slot.RoomID,
		"start_time", slot.StartTime,
		"end_time", slot.EndTime,
	)
	return nil
}

// Update edits the window or type of an available slot. A slot held by a
// confirmed booking keeps its window until the booking lets go of it.
func (l *slotLedger) Update(ctx context.Context, slotID string, update *model.RoomSlotUpdate, actor model.Actor) (*model.RoomSlot, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.Forbidden("Only administrators can update room slots")
	}
	if slotID == "" {
		return nil, apperrors.InvalidInput("Room slot ID cannot be empty")
	}

	existing, err := l.repo.FindByID(ctx, slotID)
	if err != nil {
		return nil, l.translate(ctx, err, slotID, "Failed to retrieve room slot")
	}
	if !existing.IsAvailable() {
		return nil, slotClaimed(slotID)
	}

	merged := mergeSlotUpdate(existing, update)
	if err := l.validator.Validate(merged); err != nil {
		l.cfg.Log.WithContext(ctx).Warn("Room slot validation failed", "id", slotID, "error", err)
		return nil, apperrors.Validation("Room slot validation failed", validation.Details(err))
	}

	var updated *model.RoomSlot
	err = l.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		if err := l.verifyNoOverlap(txCtx, merged); err != nil {
			return err
		}

		var err error
		updated, err = l.repo.UpdateWindow(txCtx, slotID, model.SlotWindow{
			StartTime: merged.StartTime,
			EndTime:   merged.EndTime,
			SlotType:  merged.SlotType,
			By:        actor.ID,
			At:        now(),
		})
		if err != nil {
			if errors.Is(err, slotserrors.ErrClaimed) {
				return slotClaimed(slotID)
			}
			return l.translate(txCtx, err, slotID, "Failed to update room slot")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.cfg.Log.WithContext(ctx).Info("Room slot updated",
		"id", updated.ID,
		"start_time", updated.StartTime,
		"end_time", updated.EndTime,
		"slot_type", updated.SlotType,
		"actor_id", actor.ID,
	)
	return updated, nil
}

func (l *slotLedger) Retire(ctx context.Context, slotID string, actor model.Actor) error {
	if !actor.IsAdmin() {
		return apperrors.Forbidden("Only administrators can retire room slots")
	}
	if slotID == "" {
		return apperrors.InvalidInput("Room slot ID cannot be empty")
	}

	if err := l.repo.SoftDelete(ctx, slotID, actor.ID, now()); err != nil {
		if errors.Is(err, slotserrors.ErrClaimed) {
			return apperrors.Conflict("Room slot is held by a confirmed booking and cannot be retired").
				WithDetail("room_slot_id", slotID)
		}
		return l.translate(ctx, err, slotID, "Failed to retire room slot")
	}

	l.cfg.Log.WithContext(ctx).Info("Room slot retired", "room_slot_id", slotID, "actor_id", actor.ID)
	return nil
}

func (l *slotLedger) List(ctx context.Context, filter model.SlotFilter, limit int, offset int64) ([]*model.RoomSlot, int64, error) {
	if err := l.validator.ValidateFilter(filter); err != nil {
		return nil, 0, apperrors.Validation("Invalid room slot filter", validation.Details(err))
	}

	var count int64
	var slots []*model.RoomSlot
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = l.repo.Count(ctx, filter)
		if errCount != nil {
			l.cfg.Log.WithContext(ctx).Error("Failed to count room slots", "error", errCount)
			errCount = apperrors.Internal("Failed to count room slots", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		slots, errFind = l.repo.FindAll(ctx, filter, limit, offset)
		if errFind != nil {
			l.cfg.Log.WithContext(ctx).Error("Failed to list room slots", "limit", limit, "offset", offset, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve room slots", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return slots, count, nil
}

// --- Helpers ---

func (l *slotLedger) verifyNoOverlap(ctx context.Context, slot *model.RoomSlot) error {
	existing, err := l.repo.FindOverlapping(ctx, slot.RoomID, slot.StartTime, slot.EndTime)
	if err != nil {
		return apperrors.Internal("Failed to check overlapping room slots", err)
	}

	for _, s := range existing {
		if s.ID == slot.ID {
			continue
		}
		if s.Overlaps(slot.StartTime, slot.EndTime) {
			return apperrors.Conflict(fmt.Sprintf(
				"Room slot overlaps with existing slot (%s - %s)",
				s.StartTime.Format(time.RFC3339),
				s.EndTime.Format(time.RFC3339),
			)).WithDetail("room_slot_id", s.ID)
		}
	}
	return nil
}

func mergeSlotUpdate(existing *model.RoomSlot, update *model.RoomSlotUpdate) *model.RoomSlot {
	merged := *existing
	if update.StartTime != nil {
		merged.StartTime = update.StartTime.UTC().Truncate(time.Millisecond)
	}
	if update.EndTime != nil {
		merged.EndTime = update.EndTime.UTC().Truncate(time.Millisecond)
	}
	if update.SlotType != "" {
		merged.SlotType = update.SlotType
	}
	return &merged
}

func slotClaimed(slotID string) error {
	return apperrors.Conflict("Room slot is held by a confirmed booking and cannot be changed").
		WithDetail("room_slot_id", slotID)
}

func (l *slotLedger) translate(ctx context.Context, err error, slotID, message string) error {
	switch {
	case errors.Is(err, slotserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Room slot", slotID)
	case errors.Is(err, slotserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid room slot ID format")
	}
	l.cfg.Log.WithContext(ctx).Error(message, "room_slot_id", slotID, "error", err)
	return apperrors.Internal(message, err)
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
