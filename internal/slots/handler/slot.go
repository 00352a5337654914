package handler

import (
	"net/http"

	"roombook/internal/slots/service"
	httputil "roombook/pkg/http"
	"roombook/pkg/logger"
	"roombook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type SlotHandler struct {
	ledger service.SlotLedger
	log    *logger.Logger
}

func NewSlotHandler(ledger service.SlotLedger, log *logger.Logger) *SlotHandler {
	return &SlotHandler{
		ledger: ledger,
		log:    log,
	}
}

func (h *SlotHandler) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		h.writeError(w, r, "Register", err)
		return
	}

	var req model.RoomSlotCreate
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, "Register", err)
		return
	}

	slot := req.ToRoomSlot()
	if err := h.ledger.Register(r.Context(), slot, actor); err != nil {
		h.writeError(w, r, "Register", err)
		return
	}

	if err := httputil.WriteCreated(w, slot); err != nil {
		h.log.WithContext(r.Context()).Error("failed to write created response", "handler", "Register", "operation", "WriteCreated", "error", err)
	}
}

func (h *SlotHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	slot, err := h.ledger.Get(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, r, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, slot); err != nil {
		h.log.WithContext(r.Context()).Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *SlotHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, r, "GetAll", err)
		return
	}

	from, err := httputil.ExtractTime(r, "from")
	if err != nil {
		h.writeError(w, r, "GetAll", err)
		return
	}
	to, err := httputil.ExtractTime(r, "to")
	if err != nil {
		h.writeError(w, r, "GetAll", err)
		return
	}

	query := r.URL.Query()
	filter := model.SlotFilter{
		RoomID: query.Get("room_id"),
		Status: model.RoomStatus(query.Get("status")),
		From:   from,
		To:     to,
	}

	slots, total, err := h.ledger.List(r.Context(), filter, limit, offset)
	if err != nil {
		h.writeError(w, r, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, slots, total, limit, offset); err != nil {
		h.log.WithContext(r.Context()).Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *SlotHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		h.writeError(w, r, "Update", err)
		return
	}

	var req model.RoomSlotUpdate
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, "Update", err)
		return
	}

	slot, err := h.ledger.Update(r.Context(), ps.ByName("id"), &req, actor)
	if err != nil {
		h.writeError(w, r, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, slot); err != nil {
		h.log.WithContext(r.Context()).Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *SlotHandler) Retire(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := httputil.RequireActor(r)
	if err != nil {
		h.writeError(w, r, "Retire", err)
		return
	}

	if err := h.ledger.Retire(r.Context(), ps.ByName("id"), actor); err != nil {
		h.writeError(w, r, "Retire", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *SlotHandler) writeError(w http.ResponseWriter, r *http.Request, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.WithContext(r.Context()).Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *SlotHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/room-slots", h.Register)
	router.GET("/api/v1/room-slots", h.GetAll)
	router.GET("/api/v1/room-slots/id/:id", h.GetByID)
	router.PATCH("/api/v1/room-slots/id/:id", h.Update)
	router.DELETE("/api/v1/room-slots/id/:id", h.Retire)
}
