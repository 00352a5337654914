package service

import (
	"context"
	"errors"
	bookingserrors "roombook/internal/bookings/errors"
	"roombook/internal/bookings/events"
	"roombook/internal/bookings/repository"
	"roombook/internal/bookings/validator"
	catalogerrors "roombook/internal/catalog/errors"
	catalog "roombook/internal/catalog/repository"
	slotsservice "roombook/internal/slots/service"
	"roombook/pkg/config"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/model"
	"roombook/pkg/sanitizer"
	"roombook/pkg/validation"
	"sync"
	"time"
)

// ReservationWorkflow drives a booking through pending, confirmed and
// cancelled. A booking holds its slot only while confirmed; the claim is taken
// when an administrator confirms it.
type ReservationWorkflow interface {
	Create(ctx context.Context, req *model.BookingCreate, actor model.Actor) (*model.Booking, error)
	Reschedule(ctx context.Context, id string, req *model.BookingReschedule, actor model.Actor) (*model.Booking, error)
	UpdateStatus(ctx context.Context, id string, req *model.BookingStatusUpdate, actor model.Actor) (*model.Booking, error)
	Cancel(ctx context.Context, id string, actor model.Actor) (*model.Booking, error)
	Delete(ctx context.Context, id string, actor model.Actor) error
	Get(ctx context.Context, id string, actor model.Actor) (*model.BookingDetails, error)
	List(ctx context.Context, filter model.BookingFilter, limit int, offset int64, actor model.Actor) ([]*model.Booking, int64, error)
}

type reservationWorkflow struct {
	repo      repository.BookingRepository
	ledger    slotsservice.SlotLedger
	rooms     catalog.RoomCatalog
	validator *validator.BookingValidator
	events    events.Publisher
	cfg       *config.Config
}

func NewReservationWorkflow(
	repo repository.BookingRepository,
	ledger slotsservice.SlotLedger,
	rooms catalog.RoomCatalog,
	validator *validator.BookingValidator,
	publisher events.Publisher,
	cfg *config.Config,
) ReservationWorkflow {
	return &reservationWorkflow{
		repo:      repo,
		ledger:    ledger,
		rooms:     rooms,
		validator: validator,
		events:    publisher,
		cfg:       cfg,
	}
}

func (w *reservationWorkflow) Create(ctx context.Context, req *model.BookingCreate, actor model.Actor) (*model.Booking, error) {
	if !actor.CanBook() {
		return nil, apperrors.Forbidden("Only students and lecturers can create bookings")
	}

	req.RoomSlotID = sanitizer.SanitizeID(req.RoomSlotID)
	req.Note = sanitizer.SanitizeText(req.Note)
	if err := w.validator.ValidateCreate(req); err != nil {
		w.cfg.Log.WithContext(ctx).Warn("Booking validation failed", "room_slot_id", req.RoomSlotID, "error", err)
		return nil, apperrors.Validation("Booking validation failed", validation.Details(err))
	}

	// Availability here is advisory; the claim taken at confirmation decides.
	slot, err := w.ledger.Get(ctx, req.RoomSlotID)
	if err != nil {
		return nil, err
	}
	if !slot.IsAvailable() {
		return nil, apperrors.SlotUnavailable(slot.ID)
	}

	booking := &model.Booking{
		UserID:     actor.ID,
		RoomSlotID: slot.ID,
		RoomID:     slot.RoomID,
		Status:     model.BookingPending,
		Note:       req.Note,
		CreatedBy:  actor.ID,
	}

	err = w.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		if err := w.ensureNoLiveBooking(txCtx, actor.ID, slot.ID); err != nil {
			return err
		}
		if err := w.repo.Create(txCtx, booking); err != nil {
			if errors.Is(err, bookingserrors.ErrDuplicate) {
				return duplicateBooking(slot.ID)
			}
			return apperrors.Internal("Failed to create booking", err)
		}
		return nil
	})
	if err != nil {
		w.logFailure(ctx, "Failed to create booking", err, "room_slot_id", slot.ID, "user_id", actor.ID)
		return nil, err
	}

	w.cfg.Log.WithContext(ctx).Info("Booking created",
		"id", booking.ID,
		"user_id", booking.UserID,
		"room_slot_id", booking.RoomSlotID,
	)
	w.publish(ctx, model.EventBookingCreated, booking, actor, func(e *model.BookingEvent) {})
	return booking, nil
}

func (w *reservationWorkflow) Reschedule(ctx context.Context, id string, req *model.BookingReschedule, actor model.Actor) (*model.Booking, error) {
	req.RoomSlotID = sanitizer.SanitizeID(req.RoomSlotID)
	if err := w.validator.ValidateReschedule(req); err != nil {
		return nil, apperrors.Validation("Reschedule validation failed", validation.Details(err))
	}

	booking, err := w.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(booking) {
		return nil, apperrors.Forbidden("Only the booking owner can reschedule it")
	}
	if req.RoomSlotID == booking.RoomSlotID {
		return nil, apperrors.Validation("Booking is already on this room slot", map[string]any{
			"room_slot_id": req.RoomSlotID,
		})
	}

	switch booking.Status {
	case model.BookingCancelled:
		return nil, apperrors.InvalidTransition(string(booking.Status), "rescheduled")
	case model.BookingConfirmed:
		if !w.cfg.AllowConfirmedReschedule {
			return nil, apperrors.InvalidTransition(string(booking.Status), "rescheduled").
				WithDetail("reason", "confirmed bookings cannot be rescheduled")
		}
	}

	oldSlotID := booking.RoomSlotID
	var updated *model.Booking
	if booking.Status == model.BookingPending {
		updated, err = w.reschedulePending(ctx, booking, req.RoomSlotID, actor)
	} else {
		updated, err = w.rescheduleConfirmed(ctx, booking, req.RoomSlotID, actor)
	}
	if err != nil {
		w.logFailure(ctx, "Failed to reschedule booking", err, "id", id, "room_slot_id", req.RoomSlotID)
		return nil, err
	}

	w.cfg.Log.WithContext(ctx).Info("Booking rescheduled",
		"id", updated.ID,
		"from_room_slot_id", oldSlotID,
		"to_room_slot_id", updated.RoomSlotID,
		"status", updated.Status,
	)
	w.publish(ctx, model.EventBookingRescheduled, updated, actor, func(e *model.BookingEvent) {
		e.PreviousSlotID = oldSlotID
	})
	return updated, nil
}

// reschedulePending moves a booking that holds no claim; the new slot only
// has to be available at this moment.
func (w *reservationWorkflow) reschedulePending(ctx context.Context, booking *model.Booking, slotID string, actor model.Actor) (*model.Booking, error) {
	slot, err := w.ledger.Get(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if !slot.IsAvailable() {
		return nil, apperrors.SlotUnavailable(slot.ID)
	}

	var updated *model.Booking
	err = w.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		if err := w.ensureNoLiveBooking(txCtx, booking.UserID, slot.ID); err != nil {
			return err
		}

		var err error
		updated, err = w.repo.Rebind(txCtx, booking.ID, model.SlotRebind{
			FromSlotID: booking.RoomSlotID,
			ToSlotID:   slot.ID,
			ToRoomID:   slot.RoomID,
			Status:     model.BookingPending,
			By:         actor.ID,
			At:         now(),
		})
		if err != nil {
			return w.translateWrite(err, booking)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// rescheduleConfirmed claims the new slot before giving up the old one so the
// booking is never left without a slot.
func (w *reservationWorkflow) rescheduleConfirmed(ctx context.Context, booking *model.Booking, slotID string, actor model.Actor) (*model.Booking, error) {
	var updated *model.Booking
	err := w.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		if err := w.ensureNoLiveBooking(txCtx, booking.UserID, slotID); err != nil {
			return err
		}

		slot, err := w.ledger.TryClaim(txCtx, slotID, actor)
		if err != nil {
			return err
		}

		updated, err = w.repo.Rebind(txCtx, booking.ID, model.SlotRebind{
			FromSlotID: booking.RoomSlotID,
			ToSlotID:   slot.ID,
			ToRoomID:   slot.RoomID,
			Status:     model.BookingConfirmed,
			By:         actor.ID,
			At:         now(),
		})
		if err != nil {
			w.compensateClaim(txCtx, slot.ID, actor)
			return w.translateWrite(err, booking)
		}

		return w.ledger.Release(txCtx, booking.RoomSlotID, actor)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (w *reservationWorkflow) UpdateStatus(ctx context.Context, id string, req *model.BookingStatusUpdate, actor model.Actor) (*model.Booking, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.Forbidden("Only administrators can change booking status")
	}

	req.Reason = sanitizer.SanitizeText(req.Reason)
	if err := w.validator.ValidateStatusUpdate(req); err != nil {
		return nil, apperrors.Validation("Status update validation failed", validation.Details(err))
	}

	booking, err := w.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return w.transition(ctx, booking, req.Status, req.Reason, actor)
}

func (w *reservationWorkflow) Cancel(ctx context.Context, id string, actor model.Actor) (*model.Booking, error) {
	booking, err := w.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.OwnsOrAdmin(booking) {
		return nil, apperrors.Forbidden("Only the booking owner or an administrator can cancel it")
	}
	return w.transition(ctx, booking, model.BookingCancelled, "", actor)
}

func (w *reservationWorkflow) Delete(ctx context.Context, id string, actor model.Actor) error {
	booking, err := w.find(ctx, id)
	if err != nil {
		return err
	}
	if !actor.OwnsOrAdmin(booking) {
		return apperrors.Forbidden("Only the booking owner or an administrator can delete it")
	}

	var cancelled *model.Booking
	err = w.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		cancelled = nil
		if booking.Status.Live() {
			var err error
			cancelled, err = w.applyTransition(txCtx, booking, model.BookingCancelled, "", actor)
			if err != nil {
				return err
			}
		}

		if err := w.repo.SoftDelete(txCtx, booking.ID, actor.ID, now()); err != nil {
			return w.translateWrite(err, booking)
		}
		return nil
	})
	if err != nil {
		w.logFailure(ctx, "Failed to delete booking", err, "id", id)
		return err
	}

	w.cfg.Log.WithContext(ctx).Info("Booking deleted", "id", booking.ID, "actor_id", actor.ID)
	if cancelled != nil {
		w.publish(ctx, model.EventBookingCancelled, cancelled, actor, func(e *model.BookingEvent) {
			e.PreviousStatus = booking.Status
		})
	}
	w.publish(ctx, model.EventBookingDeleted, booking, actor, func(e *model.BookingEvent) {
		e.Status = model.BookingCancelled
	})
	return nil
}

func (w *reservationWorkflow) Get(ctx context.Context, id string, actor model.Actor) (*model.BookingDetails, error) {
	booking, err := w.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.OwnsOrAdmin(booking) {
		return nil, apperrors.Forbidden("You do not have access to this booking")
	}

	details := &model.BookingDetails{Booking: booking}
	slot, err := w.ledger.Get(ctx, booking.RoomSlotID)
	switch {
	case err == nil:
		details.Slot = &model.SlotSummary{
			StartTime:  slot.StartTime,
			EndTime:    slot.EndTime,
			SlotType:   slot.SlotType,
			RoomStatus: slot.RoomStatus,
		}
	case apperrors.HasCode(err, apperrors.CodeNotFound):
		// The slot was retired; the booking is still readable.
	default:
		return nil, err
	}

	room, err := w.rooms.Get(ctx, booking.RoomID)
	switch {
	case err == nil:
		details.Room = room.Summary()
	case errors.Is(err, catalogerrors.ErrNotFound):
	default:
		w.cfg.Log.WithContext(ctx).Error("Failed to retrieve room", "room_id", booking.RoomID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve room", err)
	}
	return details, nil
}

func (w *reservationWorkflow) List(ctx context.Context, filter model.BookingFilter, limit int, offset int64, actor model.Actor) ([]*model.Booking, int64, error) {
	if !actor.IsAdmin() {
		filter.UserID = actor.ID
	}
	filter.RoomSlotID = sanitizer.SanitizeID(filter.RoomSlotID)
	filter.RoomID = sanitizer.SanitizeID(filter.RoomID)
	if err := w.validator.ValidateFilter(filter); err != nil {
		return nil, 0, apperrors.Validation("Invalid booking filter", validation.Details(err))
	}

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = w.repo.Count(ctx, filter)
		if errCount != nil {
			w.cfg.Log.WithContext(ctx).Error("Failed to count bookings", "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = w.repo.FindAll(ctx, filter, limit, offset)
		if errFind != nil {
			w.cfg.Log.WithContext(ctx).Error("Failed to list bookings", "limit", limit, "offset", offset, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

// --- State machine ---

func validTransition(from, to model.BookingStatus) bool {
	switch from {
	case model.BookingPending:
		return to == model.BookingConfirmed || to == model.BookingCancelled
	case model.BookingConfirmed:
		return to == model.BookingCancelled
	}
	return false
}

func (w *reservationWorkflow) transition(ctx context.Context, booking *model.Booking, to model.BookingStatus, reason string, actor model.Actor) (*model.Booking, error) {
	from := booking.Status
	updated, err := w.applyTransition(ctx, booking, to, reason, actor)
	if err != nil {
		w.logFailure(ctx, "Failed to change booking status", err, "id", booking.ID, "from", from, "to", to)
		return nil, err
	}

	w.cfg.Log.WithContext(ctx).Info("Booking status changed",
		"id", updated.ID,
		"from", from,
		"to", updated.Status,
		"actor_id", actor.ID,
	)

	eventType := model.EventBookingCancelled
	if to == model.BookingConfirmed {
		eventType = model.EventBookingConfirmed
	}
	w.publish(ctx, eventType, updated, actor, func(e *model.BookingEvent) {
		e.PreviousStatus = from
		e.Reason = reason
	})
	return updated, nil
}

// applyTransition performs one state-machine step. The status write is
// conditional on booking.Status, so of two concurrent callers at most one
// gets past it and touches the slot.
func (w *reservationWorkflow) applyTransition(ctx context.Context, booking *model.Booking, to model.BookingStatus, reason string, actor model.Actor) (*model.Booking, error) {
	from := booking.Status
	if !validTransition(from, to) {
		return nil, apperrors.InvalidTransition(string(from), string(to))
	}

	change := model.StatusChange{
		SlotID: booking.RoomSlotID,
		From:   from,
		To:     to,
		Reason: reason,
		By:     actor.ID,
		At:     now(),
	}

	var updated *model.Booking
	err := w.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		switch {
		case to == model.BookingConfirmed:
			if _, err := w.ledger.TryClaim(txCtx, booking.RoomSlotID, actor); err != nil {
				return err
			}
			var err error
			updated, err = w.repo.UpdateStatus(txCtx, booking.ID, change)
			if err != nil {
				w.compensateClaim(txCtx, booking.RoomSlotID, actor)
				return w.translateWrite(err, booking, to)
			}
			return nil

		case from == model.BookingConfirmed:
			var err error
			updated, err = w.repo.UpdateStatus(txCtx, booking.ID, change)
			if err != nil {
				return w.translateWrite(err, booking, to)
			}
			return w.releaseHeld(txCtx, booking.RoomSlotID, actor)

		default:
			var err error
			updated, err = w.repo.UpdateStatus(txCtx, booking.ID, change)
			if err != nil {
				return w.translateWrite(err, booking, to)
			}
			return nil
		}
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// releaseHeld gives back the slot of a booking leaving confirmed. A slot
// that has since disappeared has nothing left to release.
func (w *reservationWorkflow) releaseHeld(ctx context.Context, slotID string, actor model.Actor) error {
	err := w.ledger.Release(ctx, slotID, actor)
	if apperrors.HasCode(err, apperrors.CodeNotFound) {
		w.cfg.Log.WithContext(ctx).Warn("Released room slot no longer exists", "room_slot_id", slotID)
		return nil
	}
	return err
}

func (w *reservationWorkflow) compensateClaim(ctx context.Context, slotID string, actor model.Actor) {
	if err := w.ledger.Release(ctx, slotID, actor); err != nil {
		w.cfg.Log.WithContext(ctx).Error("Failed to release room slot after aborted booking write",
			"room_slot_id", slotID,
			"error", err,
		)
	}
}

// --- Helpers ---

func (w *reservationWorkflow) find(ctx context.Context, id string) (*model.Booking, error) {
	id = sanitizer.SanitizeID(id)
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := w.repo.FindByID(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, bookingserrors.ErrNotFound):
			return nil, apperrors.NotFoundWithID("Booking", id)
		case errors.Is(err, bookingserrors.ErrInvalidID):
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		w.cfg.Log.WithContext(ctx).Error("Failed to retrieve booking", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}
	return booking, nil
}

// ensureNoLiveBooking rejects a second pending or confirmed booking by the
// same user on one slot. The unique index on live bookings backs this check
// when two requests race past it.
func (w *reservationWorkflow) ensureNoLiveBooking(ctx context.Context, userID, slotID string) error {
	exists, err := w.repo.HasLiveBooking(ctx, userID, slotID)
	if err != nil {
		return apperrors.Internal("Failed to check existing bookings", err)
	}
	if exists {
		return duplicateBooking(slotID)
	}
	return nil
}

func duplicateBooking(slotID string) error {
	return apperrors.Conflict("You already have an active booking for this room slot").
		WithDetail("room_slot_id", slotID)
}

// translateWrite maps a failed conditional write. to is the requested status,
// if the write was a status change.
func (w *reservationWorkflow) translateWrite(err error, booking *model.Booking, to ...model.BookingStatus) error {
	switch {
	case errors.Is(err, bookingserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Booking", booking.ID)
	case errors.Is(err, bookingserrors.ErrStatusChanged):
		target := "deleted"
		if len(to) > 0 {
			target = string(to[0])
		}
		return apperrors.InvalidTransition(string(booking.Status), target).
			WithDetail("reason", "booking was modified concurrently")
	case errors.Is(err, bookingserrors.ErrBindingChanged):
		return apperrors.Conflict("Booking was modified concurrently").WithDetail("id", booking.ID)
	case errors.Is(err, bookingserrors.ErrDuplicate):
		if len(to) > 0 && to[0] == model.BookingConfirmed {
			return apperrors.SlotUnavailable(booking.RoomSlotID)
		}
		return apperrors.Conflict("You already have an active booking for this room slot").
			WithDetail("id", booking.ID)
	}
	return apperrors.Internal("Failed to update booking", err)
}

func (w *reservationWorkflow) publish(ctx context.Context, eventType model.BookingEventType, booking *model.Booking, actor model.Actor, decorate func(e *model.BookingEvent)) {
	event := model.BookingEvent{
		Type:       eventType,
		BookingID:  booking.ID,
		UserID:     booking.UserID,
		RoomSlotID: booking.RoomSlotID,
		Status:     booking.Status,
		ActorID:    actor.ID,
		OccurredAt: now(),
	}
	decorate(&event)
	w.events.Publish(ctx, event)
}

// logFailure logs infrastructure faults at error level; expected domain
// outcomes are already carried by the returned error.
func (w *reservationWorkflow) logFailure(ctx context.Context, msg string, err error, args ...any) {
	args = append(args, "error", err)
	if apperrors.HasCode(err, apperrors.CodeInternal) || !apperrors.IsAppError(err) {
		w.cfg.Log.WithContext(ctx).Error(msg, args...)
		return
	}
	w.cfg.Log.WithContext(ctx).Warn(msg, args...)
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
