package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSanitizeModelLabel_StripsVendorPrefix(t *testing.T) {
	assert.Equal(t, "gpt-4o-mini", sanitizeModelLabel("openai/gpt-4o-mini"))
}

func TestSanitizeModelLabel_ReplacesInvalidChars(t *testing.T) {
	got := sanitizeModelLabel("gpt-4o-mini\n\t🚨")
	assert.False(t, strings.ContainsAny(got, "\n\t"))
	assert.NotEqual(t, "unknown", got)
}

func TestSanitizeModelLabel_CapsLength(t *testing.T) {
	got := sanitizeModelLabel(strings.Repeat("a", maxModelLabelLen+50))
	assert.Len(t, got, maxModelLabelLen)
}

func TestSanitizeModelLabel_EmptyFallback(t *testing.T) {
	assert.Equal(t, "unknown", sanitizeModelLabel("   "))
}

func TestMiddleware_LabelsUnknownRoutesAsOther(t *testing.T) {
	h := Middleware("/generate-copy")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	before := testutil.ToFloat64(HTTPRequests.WithLabelValues("other", "418"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/random/path", nil))
	after := testutil.ToFloat64(HTTPRequests.WithLabelValues("other", "418"))
	assert.Equal(t, before+1, after)

	before = testutil.ToFloat64(HTTPRequests.WithLabelValues("/generate-copy", "418"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/generate-copy", nil))
	assert.Equal(t, before+1, testutil.ToFloat64(HTTPRequests.WithLabelValues("/generate-copy", "418")))
}

func TestRecordLimiterError(t *testing.T) {
	before := testutil.ToFloat64(RateLimiterErrors.WithLabelValues("generation", "fail_open"))
	RecordLimiterError("generation", true)
	assert.Equal(t, before+1, testutil.ToFloat64(RateLimiterErrors.WithLabelValues("generation", "fail_open")))
}
