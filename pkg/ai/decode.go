package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// ErrNoJSON means the model reply did not contain a JSON object at all
var ErrNoJSON = errors.New("no JSON object in model reply")

var fencePattern = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*(.*?)\\s*```")

// StripCodeFence removes a Markdown code fence (```json ... ```) around a reply
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}

// extractObject trims prose the model put before or after the JSON object
func extractObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}

// DecodeJSON parses a model reply into v: fences are stripped, surrounding
// prose dropped, and exactly one JSON object must remain.
func DecodeJSON(reply string, v interface{}) error {
	obj := extractObject(StripCodeFence(reply))
	if obj == "" {
		return ErrNoJSON
	}

	dec := json.NewDecoder(strings.NewReader(obj))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON in model reply: %w", err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("invalid JSON in model reply: trailing data")
	}
	return nil
}

// Decode is the generic form of DecodeJSON
func Decode[T any](reply string) (T, error) {
	var out T
	err := DecodeJSON(reply, &out)
	return out, err
}
