package common

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseJSON unmarshals the JSON payload embedded in an LLM response
// into T. Models routinely wrap JSON in markdown fences or preamble
// text, so the payload is located by trimming to the outermost braces
// (or brackets, when T decodes an array) before unmarshalling.
func ParseJSON[T any](response string) (T, error) {
	var zero T

	payload, ok := extractPayload(response, '{', '}')
	if !ok {
		payload, ok = extractPayload(response, '[', ']')
	}
	if !ok {
		return zero, fmt.Errorf("no JSON payload found in response")
	}

	var result T
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return zero, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return result, nil
}

func extractPayload(s string, open, close byte) (string, bool) {
	start := strings.IndexByte(s, open)
	end := strings.LastIndexByte(s, close)
	if start == -1 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}
