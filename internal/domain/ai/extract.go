package ai

import (
	"encoding/json"
	"strings"
)

// ExtractJSON returns the JSON payload inside possibly-fenced model output.
// It strips one leading/trailing triple-backtick fence (plain or json-tagged)
// and validates that the remainder parses as JSON. Unfenced valid JSON passes
// through unchanged; anything that still fails to parse returns ErrNotJSON.
func ExtractJSON(content string) (string, error) {
	s := strings.TrimSpace(content)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}

	if !json.Valid([]byte(s)) {
		return "", ErrNotJSON
	}
	return s, nil
}
