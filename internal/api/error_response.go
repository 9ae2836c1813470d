package api

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/blueberrycongee/copydesk/internal/httputil"
	"github.com/blueberrycongee/copydesk/internal/validation"
	llmerrors "github.com/blueberrycongee/copydesk/pkg/errors"
)

// User-facing message keys.
const (
	msgUnauthenticated  = "authentication required"
	msgRateLimited      = "too many requests, try again shortly"
	msgProviderError    = "the AI provider could not complete the request, please try again"
	msgUnreadableOutput = "the AI response could not be understood, please try again"
	msgInternal         = "internal error, please try again later"
	msgNoKeyConfigured  = "no API key configured for %s: add a key under Settings → API keys, or set providers.%s.api_key"
	msgMethodNotAllowed = "method not allowed"
	msgNotFound         = "not found"
)

// ErrorResponse is the error envelope of every endpoint.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeError maps err to its status and a localized message. Errors outside
// the taxonomy become a generic 500; their text is only logged.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	p := printerFor(r)
	e, ok := llmerrors.As(err)
	if !ok {
		h.logger.ErrorContext(r.Context(), "unclassified error", "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: p.Sprintf(msgInternal)})
		return
	}

	var msg string
	switch e.Kind {
	case llmerrors.KindUnauthenticated:
		msg = p.Sprintf(msgUnauthenticated)
	case llmerrors.KindRateLimited:
		msg = p.Sprintf(msgRateLimited)
		w.Header().Set("Retry-After", retryAfterSeconds(e))
	case llmerrors.KindInvalidInput:
		var fe *validation.FieldError
		if errors.As(e, &fe) {
			msg = p.Sprintf(fe.Format, fe.Args...)
		} else {
			msg = localize(p, e.Message)
		}
	case llmerrors.KindNoKeyConfigured:
		msg = p.Sprintf(msgNoKeyConfigured, e.Provider, e.Provider)
	case llmerrors.KindProviderError:
		msg = p.Sprintf(msgProviderError)
	case llmerrors.KindSchemaInvalid, llmerrors.KindParseFailure:
		msg = p.Sprintf(msgUnreadableOutput)
	default:
		msg = p.Sprintf(msgInternal)
	}

	status := e.HTTPStatusCode()
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			"status", status,
			"error_kind", e.Kind,
			"provider", e.Provider,
			"error", err,
		)
	} else {
		h.logger.InfoContext(r.Context(), "request rejected",
			"status", status,
			"error_kind", e.Kind,
		)
	}
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func retryAfterSeconds(e *llmerrors.Error) string {
	secs := int(math.Ceil(e.RetryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	_ = httputil.WriteJSON(w, status, v) //nolint:errcheck // client went away
}
