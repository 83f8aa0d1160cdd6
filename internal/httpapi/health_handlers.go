package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"resumerank-engine/internal/events"
)

type HealthHandler struct {
	DB      *sql.DB
	Hub     *events.Hub
	Version string
}

func (h HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"ok":      true,
		"version": h.Version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	}
	if h.Hub != nil {
		resp["subscribers"] = h.Hub.Subscribers()
	}

	status := http.StatusOK
	if h.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.DB.PingContext(ctx); err != nil {
			resp["ok"] = false
			resp["db_error"] = err.Error()
			status = http.StatusServiceUnavailable
		}
	}
	WriteJSON(w, status, resp)
}
