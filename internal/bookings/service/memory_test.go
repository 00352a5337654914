package service

import (
	"context"
	"io"
	bookingserrors "roombook/internal/bookings/errors"
	"roombook/internal/bookings/events"
	"roombook/internal/bookings/validator"
	catalogerrors "roombook/internal/catalog/errors"
	slotserrors "roombook/internal/slots/errors"
	slotsservice "roombook/internal/slots/service"
	slotvalidator "roombook/internal/slots/validator"
	"roombook/pkg/config"
	"roombook/pkg/db"
	"roombook/pkg/logger"
	"roombook/pkg/model"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memSlotRepository is an in-memory slot store whose conditional updates are
// atomic under a single mutex, like a store-side compare-and-swap.
type memSlotRepository struct {
	mu    sync.Mutex
	slots map[string]*model.RoomSlot
}

func newMemSlotRepository() *memSlotRepository {
	return &memSlotRepository{slots: map[string]*model.RoomSlot{}}
}

func (r *memSlotRepository) add(status model.RoomStatus) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	start := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC).Add(time.Duration(len(r.slots)) * time.Hour)
	id := uuid.NewString()
	r.slots[id] = &model.RoomSlot{
		ID:         id,
		RoomID:     uuid.NewString(),
		StartTime:  start,
		EndTime:    start.Add(time.Hour),
		SlotType:   model.SlotTypeLecture,
		RoomStatus: status,
	}
	return id
}

func (r *memSlotRepository) status(id string) model.RoomStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.slots[id].RoomStatus
}

func (r *memSlotRepository) live(id string) (*model.RoomSlot, error) {
	s, ok := r.slots[id]
	if !ok || s.DeletedAt != nil {
		return nil, slotserrors.ErrNotFound
	}
	return s, nil
}

func (r *memSlotRepository) Create(_ context.Context, slot *model.RoomSlot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	slot.ID = uuid.NewString()
	cp := *slot
	r.slots[slot.ID] = &cp
	return nil
}

func (r *memSlotRepository) FindByID(_ context.Context, id string) (*model.RoomSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := r.live(id)
	if err != nil {
		return nil, err
	}
	cp := *s
	return &cp, nil
}

func (r *memSlotRepository) FindAll(context.Context, model.SlotFilter, int, int64) ([]*model.RoomSlot, error) {
	return nil, nil
}

func (r *memSlotRepository) Count(context.Context, model.SlotFilter) (int64, error) {
	return 0, nil
}

func (r *memSlotRepository) FindOverlapping(context.Context, string, time.Time, time.Time) ([]*model.RoomSlot, error) {
	return nil, nil
}

func (r *memSlotRepository) Claim(_ context.Context, id, by string, at time.Time) (*model.RoomSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := r.live(id)
	if err != nil {
		return nil, err
	}
	if s.RoomStatus != model.RoomStatusAvailable {
		return nil, slotserrors.ErrUnavailable
	}
	s.RoomStatus = model.RoomStatusUnavailable
	s.UpdatedBy, s.UpdatedAt = by, &at
	cp := *s
	return &cp, nil
}

func (r *memSlotRepository) Release(_ context.Context, id, by string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := r.live(id)
	if err != nil {
		return err
	}
	s.RoomStatus = model.RoomStatusAvailable
	s.UpdatedBy, s.UpdatedAt = by, &at
	return nil
}

func (r *memSlotRepository) UpdateWindow(_ context.Context, id string, window model.SlotWindow) (*model.RoomSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := r.live(id)
	if err != nil {
		return nil, err
	}
	if s.RoomStatus != model.RoomStatusAvailable {
		return nil, slotserrors.ErrClaimed
	}
	s.StartTime, s.EndTime, s.SlotType = window.StartTime, window.EndTime, window.SlotType
	s.UpdatedBy, s.UpdatedAt = window.By, &window.At
	cp := *s
	return &cp, nil
}

func (r *memSlotRepository) SoftDelete(_ context.Context, id, by string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := r.live(id)
	if err != nil {
		return err
	}
	if s.RoomStatus != model.RoomStatusAvailable {
		return slotserrors.ErrClaimed
	}
	s.DeletedBy, s.DeletedAt = by, &at
	return nil
}

func (r *memSlotRepository) ExecuteTransaction(ctx context.Context, fn db.TxFunc) error {
	return fn(ctx)
}

type memBookingRepository struct {
	mu       sync.Mutex
	seq      int
	bookings map[string]*model.Booking

	// updateStatusHook runs before the conditional write, outside the lock.
	updateStatusHook func(id string)
	// createHook runs before the insert, outside the lock.
	createHook func(booking *model.Booking)
}

func newMemBookingRepository() *memBookingRepository {
	return &memBookingRepository{bookings: map[string]*model.Booking{}}
}

func (r *memBookingRepository) get(id string) *model.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil
	}
	cp := *b
	return &cp
}

// violatesUnique mirrors the store's unique indexes: one live booking per
// user and slot, one confirmed booking per slot.
func (r *memBookingRepository) violatesUnique(id, userID, slotID string, status model.BookingStatus) bool {
	for _, b := range r.bookings {
		if b.ID == id || b.DeletedAt != nil || b.RoomSlotID != slotID {
			continue
		}
		if status.Live() && b.Status.Live() && b.UserID == userID {
			return true
		}
		if status == model.BookingConfirmed && b.Status == model.BookingConfirmed {
			return true
		}
	}
	return false
}

func (r *memBookingRepository) Create(_ context.Context, booking *model.Booking) error {
	if r.createHook != nil {
		r.createHook(booking)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.violatesUnique("", booking.UserID, booking.RoomSlotID, booking.Status) {
		return bookingserrors.ErrDuplicate
	}
	r.seq++
	booking.ID = uuid.NewString()
	booking.CreatedAt = time.Now().UTC().Add(time.Duration(r.seq) * time.Millisecond)
	cp := *booking
	r.bookings[booking.ID] = &cp
	return nil
}

func (r *memBookingRepository) FindByID(_ context.Context, id string) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || b.DeletedAt != nil {
		return nil, bookingserrors.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *memBookingRepository) matching(filter model.BookingFilter) []*model.Booking {
	var out []*model.Booking
	for _, b := range r.bookings {
		if b.DeletedAt != nil ||
			(filter.UserID != "" && b.UserID != filter.UserID) ||
			(filter.RoomSlotID != "" && b.RoomSlotID != filter.RoomSlotID) ||
			(filter.Status != "" && b.Status != filter.Status) {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *memBookingRepository) FindAll(_ context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.matching(filter)
	if int(offset) >= len(all) {
		return []*model.Booking{}, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *memBookingRepository) Count(_ context.Context, filter model.BookingFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.matching(filter))), nil
}

func (r *memBookingRepository) HasLiveBooking(_ context.Context, userID, slotID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.DeletedAt == nil && b.UserID == userID && b.RoomSlotID == slotID && b.Status.Live() {
			return true, nil
		}
	}
	return false, nil
}

func (r *memBookingRepository) UpdateStatus(_ context.Context, id string, change model.StatusChange) (*model.Booking, error) {
	if r.updateStatusHook != nil {
		r.updateStatusHook(id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || b.DeletedAt != nil {
		return nil, bookingserrors.ErrNotFound
	}
	if b.Status != change.From || b.RoomSlotID != change.SlotID {
		return nil, bookingserrors.ErrStatusChanged
	}
	if r.violatesUnique(id, b.UserID, b.RoomSlotID, change.To) {
		return nil, bookingserrors.ErrDuplicate
	}
	b.Status = change.To
	if change.Reason != "" {
		b.RejectReason = change.Reason
	}
	b.UpdatedBy, b.UpdatedAt = change.By, &change.At
	cp := *b
	return &cp, nil
}

func (r *memBookingRepository) Rebind(_ context.Context, id string, rebind model.SlotRebind) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || b.DeletedAt != nil {
		return nil, bookingserrors.ErrNotFound
	}
	if b.Status != rebind.Status || b.RoomSlotID != rebind.FromSlotID {
		return nil, bookingserrors.ErrBindingChanged
	}
	if r.violatesUnique(id, b.UserID, rebind.ToSlotID, b.Status) {
		return nil, bookingserrors.ErrDuplicate
	}
	b.RoomSlotID, b.RoomID = rebind.ToSlotID, rebind.ToRoomID
	b.UpdatedBy, b.UpdatedAt = rebind.By, &rebind.At
	cp := *b
	return &cp, nil
}

func (r *memBookingRepository) SoftDelete(_ context.Context, id, by string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || b.DeletedAt != nil {
		return bookingserrors.ErrNotFound
	}
	if b.Status != model.BookingCancelled {
		return bookingserrors.ErrStatusChanged
	}
	b.DeletedBy, b.DeletedAt = by, &at
	return nil
}

func (r *memBookingRepository) ExecuteTransaction(ctx context.Context, fn db.TxFunc) error {
	return fn(ctx)
}

type memRoomCatalog struct {
	mu    sync.Mutex
	rooms map[string]*model.Room
	err   error
}

func (c *memRoomCatalog) put(room *model.Room) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms[room.ID] = room
}

func (c *memRoomCatalog) Exists(_ context.Context, roomID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.rooms[roomID]
	return ok, c.err
}

func (c *memRoomCatalog) Get(_ context.Context, roomID string) (*model.Room, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	room, ok := c.rooms[roomID]
	if !ok {
		return nil, catalogerrors.ErrNotFound
	}
	cp := *room
	return &cp, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.BookingEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event model.BookingEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) types() []model.BookingEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.BookingEventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

var _ events.Publisher = (*recordingPublisher)(nil)

type fixture struct {
	slots     *memSlotRepository
	bookings  *memBookingRepository
	rooms     *memRoomCatalog
	published *recordingPublisher
	cfg       *config.Config
	workflow  ReservationWorkflow
}

func newFixture() *fixture {
	f := &fixture{
		slots:     newMemSlotRepository(),
		bookings:  newMemBookingRepository(),
		rooms:     &memRoomCatalog{rooms: map[string]*model.Room{}},
		published: &recordingPublisher{},
		cfg:       &config.Config{Log: logger.New(logger.Config{Output: io.Discard})},
	}
	ledger := slotsservice.NewSlotLedger(f.slots, nil, slotvalidator.NewSlotValidator(), f.cfg)
	f.workflow = NewReservationWorkflow(f.bookings, ledger, f.rooms, validator.NewBookingValidator(), f.published, f.cfg)
	return f
}

var (
	admin    = model.Actor{ID: "admin-1", Role: model.RoleAdmin}
	student  = model.Actor{ID: "student-1", Role: model.RoleStudent}
	student2 = model.Actor{ID: "student-2", Role: model.RoleStudent}
	lecturer = model.Actor{ID: "lecturer-1", Role: model.RoleLecturer}
)
