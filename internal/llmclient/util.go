package llmclient

import "strings"

// CleanJSON strips markdown code fences that models sometimes wrap around a
// JSON response, returning the bare document.
func CleanJSON(response string) string {
	s := strings.TrimSpace(response)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
