package main

import (
	"net/http"

	"github.com/blueberrycongee/copydesk/internal/config"
	"github.com/blueberrycongee/copydesk/internal/metrics"
	"github.com/blueberrycongee/copydesk/internal/observability"
)

// buildMiddlewareStack wraps the mux, outermost first: CORS, request ID,
// metrics. Authentication runs per endpoint inside the gate.
func buildMiddlewareStack(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		handler := next
		handler = metrics.Middleware(contentRoutes...)(handler)
		handler = observability.RequestIDMiddleware(handler)
		handler = corsMiddleware(cfg.CORS, handler)
		return handler
	}
}
