package generation

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/goccy/go-json"

	"github.com/blueberrycongee/copydesk/internal/validation"
	llmerrors "github.com/blueberrycongee/copydesk/pkg/errors"
)

// SnippetLimit bounds how much raw model output is kept for logs.
const SnippetLimit = 500

// fenced matches a whole response wrapped in a Markdown code fence.
var fenced = regexp.MustCompile("(?s)^\x60\x60\x60[a-zA-Z0-9_-]*\\s*(.*?)\\s*\x60\x60\x60$")

// Checker is implemented by outputs with cross-field rules that struct tags
// cannot express. Check may normalize the value (e.g. ordering).
type Checker interface {
	Check() error
}

// StripFences removes a surrounding Markdown fence and any chatter around
// the outermost JSON object.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if m := fenced.FindStringSubmatch(s); len(m) == 2 {
		s = strings.TrimSpace(m[1])
	}
	if strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[") {
		return s
	}
	first, last := strings.Index(s, "{"), strings.LastIndex(s, "}")
	if first >= 0 && last > first {
		return s[first : last+1]
	}
	return s
}

// Decode turns raw model output into a validated T. Parse errors are
// ParseFailure; tag or Check violations are SchemaInvalid.
func Decode[T any](raw, vendor, model string) (*T, error) {
	text := StripFences(raw)
	if text == "" {
		return nil, llmerrors.NewParseFailure(vendor, model, "", errors.New("empty output"))
	}

	var v T
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, llmerrors.NewParseFailure(vendor, model, Truncate(raw, SnippetLimit), err)
	}
	if err := validation.Struct(&v); err != nil {
		return nil, llmerrors.NewSchemaInvalid(vendor, model, Truncate(raw, SnippetLimit), err)
	}
	if c, ok := any(&v).(Checker); ok {
		if err := c.Check(); err != nil {
			return nil, llmerrors.NewSchemaInvalid(vendor, model, Truncate(raw, SnippetLimit), err)
		}
	}
	return &v, nil
}

// Truncate cuts s to at most n bytes without splitting a rune.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "...(truncated)"
}
