package llm

import (
	"encoding/json"
	"strings"
)

// StripCodeFence removes a Markdown code-fence wrapper from a provider reply.
// Providers asked for "JSON only" still tend to wrap the payload in a
// ```json or bare ``` fence.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.ReplaceAll(s, "```json", "")
		s = strings.ReplaceAll(s, "```", "")
	} else if strings.HasPrefix(s, "```") {
		s = strings.ReplaceAll(s, "```", "")
	}
	return strings.TrimSpace(s)
}

// ParseJSON unwraps a fenced provider reply and unmarshals it into v. Each
// caller owns its fallback value when this fails; malformed provider output
// is never an error to HTTP clients.
func ParseJSON(raw string, v any) error {
	return json.Unmarshal([]byte(StripCodeFence(raw)), v)
}
