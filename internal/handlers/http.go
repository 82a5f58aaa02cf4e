package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/citywatch/citywatch/internal/api"
)

// Pinger reports whether the store is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// WSServer streams events to a websocket client
type WSServer interface {
	ServeWS(w http.ResponseWriter, r *http.Request, user string)
}

// HTTPHandler handles health and the websocket stream
type HTTPHandler struct {
	store   Pinger
	ws      WSServer
	version string
}

// NewHTTPHandler creates a new HTTP handler. Either dependency may be nil.
func NewHTTPHandler(store Pinger, ws WSServer, version string) *HTTPHandler {
	return &HTTPHandler{store: store, ws: ws, version: version}
}

// SetupRoutes configures health and websocket routes
func (h *HTTPHandler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.handleHealth)
	if h.ws != nil {
		mux.HandleFunc("GET /ws", h.handleWS)
	}
}

// handleHealth reports liveness and whether the store answers
func (h *HTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		api.RespondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	response := map[string]string{
		"status":   "ok",
		"version":  h.version,
		"database": "ok",
	}
	status := http.StatusOK

	if h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.store.PingContext(ctx); err != nil {
			log.Printf("Health check: database unreachable: %v", err)
			response["status"] = "degraded"
			response["database"] = "unreachable"
			status = http.StatusServiceUnavailable
		}
	}

	api.RespondJSON(w, status, response)
}

// handleWS handles GET /ws
func (h *HTTPHandler) handleWS(w http.ResponseWriter, r *http.Request) {
	h.ws.ServeWS(w, r, staffUser(r))
}

