package ai

import (
	"encoding/json"
	"errors"
	"strings"
)

// CleanJSON removes a surrounding markdown code fence (```json ... ``` or ``` ... ```)
// and outer whitespace. Text without a complete fence is only trimmed.
func CleanJSON(input string) string {
	s := strings.TrimSpace(input)
	if !strings.HasPrefix(s, "```") || len(s) < 6 || !strings.HasSuffix(s, "```") {
		return s
	}
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimPrefix(s, "```")
	// drop the info string (json, JSON, ...) up to the first newline
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		if tag := strings.TrimSpace(s[:nl]); tag == "" || isFenceTag(tag) {
			s = s[nl+1:]
		}
	} else if strings.HasPrefix(strings.ToLower(s), "json") {
		s = s[len("json"):]
	}
	return strings.TrimSpace(s)
}

func isFenceTag(tag string) bool {
	for _, r := range tag {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return false
		}
	}
	return true
}

// DecodeJSON cleans text and unmarshals it into v. Failures come back as *ParseError.
func DecodeJSON(task, text string, v any) error {
	cleaned := CleanJSON(text)
	if cleaned == "" {
		return &ParseError{Task: task, Cause: errors.New("empty response")}
	}
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return &ParseError{Task: task, Preview: Preview(cleaned), Cause: err}
	}
	return nil
}
