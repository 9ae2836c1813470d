// Package credential resolves which provider key a request uses.
// A workspace-scoped key (BYOK) always shadows the operator default for the
// same provider; the core only reads credentials, the persistence layer owns
// writes.
package credential

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// Provider is a logical provider slot, not a vendor.
// The vendor behind a slot is configured separately.
type Provider string

// Provider slots.
const (
	PrimaryLLM  Provider = "primary_llm"
	ReviewLLM   Provider = "review_llm"
	FallbackLLM Provider = "fallback_llm"
)

// Providers lists every known slot.
var Providers = []Provider{PrimaryLLM, ReviewLLM, FallbackLLM}

// Valid reports whether p is a known slot.
func (p Provider) Valid() bool {
	switch p {
	case PrimaryLLM, ReviewLLM, FallbackLLM:
		return true
	default:
		return false
	}
}

// GlobalScope marks the operator default credential.
const GlobalScope = "global"

// hintLen is how many trailing characters of a secret the hint keeps.
const hintLen = 4

// Credential is a provider key together with its ownership.
// Secret is never serialized.
type Credential struct {
	Provider   Provider   `json:"provider"`
	Scope      string     `json:"scope"` // workspace id or GlobalScope
	Secret     string     `json:"-"`
	Hint       string     `json:"hint"`
	IsValid    bool       `json:"is_valid"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// IsGlobal reports whether the credential is the operator default.
func (c *Credential) IsGlobal() bool {
	return c.Scope == GlobalScope
}

// String never includes the secret.
func (c *Credential) String() string {
	return fmt.Sprintf("%s[%s %s]", c.Provider, c.Scope, c.Hint)
}

// Hint returns a display hint with the last characters of secret.
func Hint(secret string) string {
	n := utf8.RuneCountInString(secret)
	if n == 0 {
		return ""
	}
	if n <= hintLen {
		return "…"
	}
	runes := []rune(secret)
	return "…" + string(runes[n-hintLen:])
}
