package provider

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// SystemWithSchema appends the output schema to the system prompt for
// vendors without native structured output.
func SystemWithSchema(req *Request) (string, error) {
	if req.Schema == nil {
		return req.System, nil
	}
	raw, err := json.Marshal(req.Schema)
	if err != nil {
		return "", fmt.Errorf("marshal output schema: %w", err)
	}

	var b strings.Builder
	b.WriteString(req.System)
	b.WriteString("\n\nRespond with a single JSON object and nothing else. It must validate against this JSON schema:\n")
	b.Write(raw)
	return b.String(), nil
}

// SchemaName returns the schema name a request declares, or a default.
func SchemaName(req *Request) string {
	if req.SchemaName != "" {
		return req.SchemaName
	}
	return "output"
}
