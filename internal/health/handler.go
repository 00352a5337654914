package health

import (
	"context"
	"net/http"
	"time"

	httputil "roombook/pkg/http"
	"roombook/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Response struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}

type Handler struct {
	store   Pinger
	timeout time.Duration
	log     *logger.Logger
}

func NewHandler(store Pinger, log *logger.Logger) *Handler {
	return &Handler{
		store:   store,
		timeout: 2 * time.Second,
		log:     log,
	}
}

// Health is liveness only and never touches the store.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.write(w, r, "Health", http.StatusOK, Response{Status: "ok"})
}

func (h *Handler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.log.WithContext(r.Context()).Error("Database health check failed",
			"error", err,
			"path", r.URL.Path,
		)
		h.write(w, r, "Ready", http.StatusServiceUnavailable, Response{Status: "unavailable", Database: "error"})
		return
	}

	h.write(w, r, "Ready", http.StatusOK, Response{Status: "ready", Database: "ok"})
}

func (h *Handler) write(w http.ResponseWriter, r *http.Request, handler string, status int, body Response) {
	if err := httputil.WriteJSON(w, status, body); err != nil {
		h.log.WithContext(r.Context()).Error("failed to write JSON response", "handler", handler, "operation", "WriteJSON", "error", err)
	}
}

func (h *Handler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}
