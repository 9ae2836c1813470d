// Package httputil provides helpers for reading and writing JSON payloads
// safely.
package httputil

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"
)

// DefaultMaxRequestBodyBytes caps request bodies to 1MB.
const DefaultMaxRequestBodyBytes int64 = 1 << 20

var (
	// ErrBodyTooLarge is returned when a body exceeds its limit.
	ErrBodyTooLarge = errors.New("body too large")
	// ErrEmptyBody is returned when a JSON body is required but absent.
	ErrEmptyBody = errors.New("empty body")
)

// ReadLimitedBody reads up to maxBytes from reader and returns ErrBodyTooLarge when exceeded.
func ReadLimitedBody(reader io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		return io.ReadAll(reader)
	}

	limited := io.LimitReader(reader, maxBytes+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return body, err
	}
	if int64(len(body)) > maxBytes {
		body = body[:int(maxBytes)]
		return body, ErrBodyTooLarge
	}
	return body, nil
}

// DecodeJSONBody reads a size-limited JSON body into dst.
func DecodeJSONBody(r *http.Request, maxBytes int64, dst any) error {
	if r.Body == nil {
		return ErrEmptyBody
	}
	body, err := ReadLimitedBody(r.Body, maxBytes)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return ErrEmptyBody
	}
	return json.Unmarshal(body, dst)
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}
