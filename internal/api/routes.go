package api

import (
	"context"
	"net/http"
)

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

// RegisterRoutes registers the content and health routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux, ready ...ReadinessCheck) {
	mux.HandleFunc("POST /generate-copy", h.GenerateCopy)
	mux.HandleFunc("POST /critic-copy", h.CriticCopy)
	mux.HandleFunc("POST /generate-visual-json", h.GenerateVisual)

	for _, path := range []string{"/generate-copy", "/critic-copy", "/generate-visual-json"} {
		mux.HandleFunc(path, h.methodNotAllowed)
	}

	mux.HandleFunc("GET /health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /health/ready", func(w http.ResponseWriter, r *http.Request) {
		for _, check := range ready {
			if err := check(r.Context()); err != nil {
				h.logger.WarnContext(r.Context(), "readiness check failed", "error", err)
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
}

func (h *Handler) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", http.MethodPost)
	writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: printerFor(r).Sprintf(msgMethodNotAllowed)})
}

// NotFound answers unknown paths with the error envelope.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, ErrorResponse{Error: printerFor(r).Sprintf(msgNotFound)})
}
