package handler

import (
	"net/http"

	"roombook/internal/bookings/service"
	httputil "roombook/pkg/http"
	"roombook/pkg/logger"
	"roombook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	workflow service.ReservationWorkflow
	log      *logger.Logger
}

func NewBookingHandler(workflow service.ReservationWorkflow, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		workflow: workflow,
		log:      log,
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		h.writeError(w, r, "Create", err)
		return
	}

	var req model.BookingCreate
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, "Create", err)
		return
	}

	booking, err := h.workflow.Create(r.Context(), &req, actor)
	if err != nil {
		h.writeError(w, r, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, booking); err != nil {
		h.log.WithContext(r.Context()).Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		h.writeError(w, r, "GetByID", err)
		return
	}

	details, err := h.workflow.Get(r.Context(), ps.ByName("id"), actor)
	if err != nil {
		h.writeError(w, r, "GetByID", err)
		return
	}

	h.writeSuccess(w, r, "GetByID", details)
}

func (h *BookingHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		h.writeError(w, r, "GetAll", err)
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, r, "GetAll", err)
		return
	}

	query := r.URL.Query()
	filter := model.BookingFilter{
		UserID:     query.Get("user_id"),
		RoomSlotID: query.Get("room_slot_id"),
		RoomID:     query.Get("room_id"),
		Status:     model.BookingStatus(query.Get("status")),
	}

	bookings, total, err := h.workflow.List(r.Context(), filter, limit, offset, actor)
	if err != nil {
		h.writeError(w, r, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.WithContext(r.Context()).Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) Reschedule(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		h.writeError(w, r, "Reschedule", err)
		return
	}

	var req model.BookingReschedule
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, "Reschedule", err)
		return
	}

	booking, err := h.workflow.Reschedule(r.Context(), ps.ByName("id"), &req, actor)
	if err != nil {
		h.writeError(w, r, "Reschedule", err)
		return
	}

	h.writeSuccess(w, r, "Reschedule", booking)
}

func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		h.writeError(w, r, "UpdateStatus", err)
		return
	}

	var req model.BookingStatusUpdate
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, "UpdateStatus", err)
		return
	}

	booking, err := h.workflow.UpdateStatus(r.Context(), ps.ByName("id"), &req, actor)
	if err != nil {
		h.writeError(w, r, "UpdateStatus", err)
		return
	}

	h.writeSuccess(w, r, "UpdateStatus", booking)
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		h.writeError(w, r, "Cancel", err)
		return
	}

	booking, err := h.workflow.Cancel(r.Context(), ps.ByName("id"), actor)
	if err != nil {
		h.writeError(w, r, "Cancel", err)
		return
	}

	h.writeSuccess(w, r, "Cancel", booking)
}

func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		h.writeError(w, r, "Delete", err)
		return
	}

	if err := h.workflow.Delete(r.Context(), ps.ByName("id"), actor); err != nil {
		h.writeError(w, r, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *BookingHandler) writeSuccess(w http.ResponseWriter, r *http.Request, handler string, data any) {
	if err := httputil.WriteSuccess(w, data); err != nil {
		h.log.WithContext(r.Context()).Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) writeError(w http.ResponseWriter, r *http.Request, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.WithContext(r.Context()).Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.Create)
	router.GET("/api/v1/bookings", h.GetAll)
	router.GET("/api/v1/bookings/id/:id", h.GetByID)
	router.PATCH("/api/v1/bookings/id/:id/slot", h.Reschedule)
	router.PATCH("/api/v1/bookings/id/:id/status", h.UpdateStatus)
	router.POST("/api/v1/bookings/id/:id/cancel", h.Cancel)
	router.DELETE("/api/v1/bookings/id/:id", h.Delete)
}
