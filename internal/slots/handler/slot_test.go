package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"roombook/pkg/auth"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/logger"
	"roombook/pkg/model"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"
)

type mockSlotLedger struct {
	getFunc      func(ctx context.Context, slotID string) (*model.RoomSlot, error)
	registerFunc func(ctx context.Context, slot *model.RoomSlot, actor model.Actor) error
	updateFunc   func(ctx context.Context, slotID string, update *model.RoomSlotUpdate, actor model.Actor) (*model.RoomSlot, error)
	retireFunc   func(ctx context.Context, slotID string, actor model.Actor) error
	listFunc     func(ctx context.Context, filter model.SlotFilter, limit int, offset int64) ([]*model.RoomSlot, int64, error)
}

func (m *mockSlotLedger) TryClaim(ctx context.Context, slotID string, actor model.Actor) (*model.RoomSlot, error) {
	return nil, nil
}

func (m *mockSlotLedger) Release(ctx context.Context, slotID string, actor model.Actor) error {
	return nil
}

func (m *mockSlotLedger) Get(ctx context.Context, slotID string) (*model.RoomSlot, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, slotID)
	}
	return &model.RoomSlot{ID: slotID}, nil
}

func (m *mockSlotLedger) Register(ctx context.Context, slot *model.RoomSlot, actor model.Actor) error {
	if m.registerFunc != nil {
		return m.registerFunc(ctx, slot, actor)
	}
	return nil
}

func (m *mockSlotLedger) Update(ctx context.Context, slotID string, update *model.RoomSlotUpdate, actor model.Actor) (*model.RoomSlot, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, slotID, update, actor)
	}
	return &model.RoomSlot{ID: slotID}, nil
}

func (m *mockSlotLedger) Retire(ctx context.Context, slotID string, actor model.Actor) error {
	if m.retireFunc != nil {
		return m.retireFunc(ctx, slotID, actor)
	}
	return nil
}

func (m *mockSlotLedger) List(ctx context.Context, filter model.SlotFilter, limit int, offset int64) ([]*model.RoomSlot, int64, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, filter, limit, offset)
	}
	return []*model.RoomSlot{}, 0, nil
}

func newTestRouter(ledger *mockSlotLedger) *httprouter.Router {
	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	router := httprouter.New()
	NewSlotHandler(ledger, log).RegisterRoutes(router)
	return router
}

func withActor(req *http.Request, actor model.Actor) *http.Request {
	return req.WithContext(auth.WithActor(req.Context(), actor))
}

var admin = model.Actor{ID: "admin-1", Role: model.RoleAdmin}

func TestRegister_Created(t *testing.T) {
	var got model.Actor
	ledger := &mockSlotLedger{
		registerFunc: func(ctx context.Context, slot *model.RoomSlot, actor model.Actor) error {
			got = actor
			slot.ID = "slot-1"
			slot.RoomStatus = model.RoomStatusAvailable
			return nil
		},
	}

	body := `{"room_id":"507f1f77bcf86cd799439011","start_time":"2030-01-01T09:00:00Z","end_time":"2030-01-01T10:00:00Z","slot_type":"lab"}`
	req := withActor(httptest.NewRequest(http.MethodPost, "/api/v1/room-slots", strings.NewReader(body)), admin)
	rec := httptest.NewRecorder()
	newTestRouter(ledger).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got.ID != admin.ID {
		t.Errorf("ledger received actor %+v", got)
	}

	var resp struct {
		Data model.RoomSlot `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.ID != "slot-1" || resp.Data.SlotType != model.SlotTypeLab {
		t.Errorf("unexpected body: %+v", resp.Data)
	}
}

func TestRegister_RequiresActor(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/room-slots", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	newTestRouter(&mockSlotLedger{}).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRegister_MalformedBody(t *testing.T) {
	req := withActor(httptest.NewRequest(http.MethodPost, "/api/v1/room-slots", strings.NewReader(`{"room_id":`)), admin)
	rec := httptest.NewRecorder()
	newTestRouter(&mockSlotLedger{}).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestUpdate_PartialBody(t *testing.T) {
	var (
		gotID     string
		gotUpdate *model.RoomSlotUpdate
	)
	ledger := &mockSlotLedger{
		updateFunc: func(ctx context.Context, slotID string, update *model.RoomSlotUpdate, actor model.Actor) (*model.RoomSlot, error) {
			gotID, gotUpdate = slotID, update
			return &model.RoomSlot{ID: slotID, SlotType: model.SlotTypeEvent, RoomStatus: model.RoomStatusAvailable}, nil
		},
	}

	body := `{"slot_type":"event"}`
	req := withActor(httptest.NewRequest(http.MethodPatch, "/api/v1/room-slots/id/slot-1", strings.NewReader(body)), admin)
	rec := httptest.NewRecorder()
	newTestRouter(ledger).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if gotID != "slot-1" || gotUpdate == nil || gotUpdate.SlotType != model.SlotTypeEvent {
		t.Fatalf("ledger received %q %+v", gotID, gotUpdate)
	}
	if gotUpdate.StartTime != nil || gotUpdate.EndTime != nil {
		t.Errorf("omitted window fields must stay unset: %+v", gotUpdate)
	}
}

func TestUpdate_RejectsRoomStatus(t *testing.T) {
	called := false
	ledger := &mockSlotLedger{
		updateFunc: func(ctx context.Context, slotID string, update *model.RoomSlotUpdate, actor model.Actor) (*model.RoomSlot, error) {
			called = true
			return &model.RoomSlot{ID: slotID}, nil
		},
	}

	body := `{"slot_type":"event","room_status":"unavailable"}`
	req := withActor(httptest.NewRequest(http.MethodPatch, "/api/v1/room-slots/id/slot-1", strings.NewReader(body)), admin)
	rec := httptest.NewRecorder()
	newTestRouter(ledger).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if called {
		t.Error("availability must not be settable through an update")
	}
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		err        error
		wantStatus int
	}{
		{name: "get missing", method: http.MethodGet, err: apperrors.NotFoundWithID("Room slot", "x"), wantStatus: http.StatusNotFound},
		{name: "retire claimed", method: http.MethodDelete, err: apperrors.Conflict("held"), wantStatus: http.StatusConflict},
		{name: "retire forbidden", method: http.MethodDelete, err: apperrors.Forbidden("admins only"), wantStatus: http.StatusForbidden},
		{name: "update claimed", method: http.MethodPatch, err: apperrors.Conflict("held"), wantStatus: http.StatusConflict},
		{name: "update invalid window", method: http.MethodPatch, err: apperrors.Validation("bad window", nil), wantStatus: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := &mockSlotLedger{
				getFunc: func(ctx context.Context, slotID string) (*model.RoomSlot, error) {
					return nil, tt.err
				},
				retireFunc: func(ctx context.Context, slotID string, actor model.Actor) error {
					return tt.err
				},
				updateFunc: func(ctx context.Context, slotID string, update *model.RoomSlotUpdate, actor model.Actor) (*model.RoomSlot, error) {
					return nil, tt.err
				},
			}
			req := withActor(httptest.NewRequest(tt.method, "/api/v1/room-slots/id/slot-1", strings.NewReader(`{}`)), admin)
			rec := httptest.NewRecorder()
			newTestRouter(ledger).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestGetAll_FilterAndPaging(t *testing.T) {
	var (
		gotFilter model.SlotFilter
		gotLimit  int
		gotOffset int64
	)
	ledger := &mockSlotLedger{
		listFunc: func(ctx context.Context, filter model.SlotFilter, limit int, offset int64) ([]*model.RoomSlot, int64, error) {
			gotFilter, gotLimit, gotOffset = filter, limit, offset
			return []*model.RoomSlot{{ID: "a"}}, 7, nil
		},
	}

	req := withActor(httptest.NewRequest(http.MethodGet,
		"/api/v1/room-slots?room_id=r1&status=available&from=2030-01-01T00:00:00Z&limit=5&offset=10", nil), admin)
	rec := httptest.NewRecorder()
	newTestRouter(ledger).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if gotFilter.RoomID != "r1" || gotFilter.Status != model.RoomStatusAvailable || gotFilter.From == nil || gotFilter.To != nil {
		t.Errorf("unexpected filter: %+v", gotFilter)
	}
	if gotLimit != 5 || gotOffset != 10 {
		t.Errorf("paging = %d/%d, want 5/10", gotLimit, gotOffset)
	}

	var resp struct {
		TotalCount int64 `json:"total_count"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.TotalCount != 7 {
		t.Errorf("total_count = %d, want 7", resp.TotalCount)
	}
}

func TestGetAll_BadTime(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/room-slots?to=yesterday", nil)
	rec := httptest.NewRecorder()
	newTestRouter(&mockSlotLedger{}).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
