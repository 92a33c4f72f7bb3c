// Package parser turns free-form AI completion text into typed extraction
// results. Models frequently wrap JSON in prose or code fences, so both
// extraction contracts share a fallback ladder that tries progressively
// looser readings before giving up.
package parser

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/brainpal/brainpal-backend/internal/model"
)

var codeBlockRx = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")

// extractJSONObject runs the JSON rungs of the ladder: direct parse, fenced
// code block, then the first '{' through the last '}' with ASCII control
// characters stripped. Returns the raw object bytes of the first rung that
// parses, or model.ErrUnparseableResponse.
func extractJSONObject(content string) (json.RawMessage, error) {
	if raw, ok := tryParseObject(content); ok {
		return raw, nil
	}

	candidate := content
	if m := codeBlockRx.FindStringSubmatch(content); m != nil {
		candidate = m[1]
		if raw, ok := tryParseObject(candidate); ok {
			return raw, nil
		}
	}

	start := strings.Index(candidate, "{")
	end := strings.LastIndex(candidate, "}")
	if start >= 0 && end > start {
		span := stripControlChars(candidate[start : end+1])
		if raw, ok := tryParseObject(span); ok {
			return raw, nil
		}
	}

	return nil, fmt.Errorf("%w: no JSON object found", model.ErrUnparseableResponse)
}

func tryParseObject(s string) (json.RawMessage, bool) {
	s = strings.TrimSpace(s)
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &probe); err != nil {
		return nil, false
	}
	return json.RawMessage(s), true
}

// stripControlChars removes ASCII control characters (0x00-0x1F, 0x7F) that
// models sometimes emit inside string literals, breaking strict JSON.
func stripControlChars(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7F {
			return -1
		}
		return r
	}, s)
}
