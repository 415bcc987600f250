package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeStrict parses an untrusted model response into v. It tolerates
// markdown code fences around the payload (models add them despite
// instructions) but otherwise requires a single well-formed JSON document.
func DecodeStrict(raw string, v any) error {
	cleaned := stripFences(strings.TrimSpace(raw))
	if cleaned == "" {
		return fmt.Errorf("empty response")
	}
	dec := json.NewDecoder(strings.NewReader(cleaned))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("response is not valid JSON: %w", err)
	}
	// Reject trailing garbage after the document.
	if dec.More() {
		return fmt.Errorf("response contains multiple JSON documents")
	}
	return nil
}

func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:] // drop the language tag line
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
