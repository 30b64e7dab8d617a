package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/rs/zerolog/log"
)

// ExtractJSON pulls the first balanced JSON object or array out of raw
// model output. Models routinely wrap JSON in prose or markdown fences, so
// the scan ignores everything before the first opening brace or bracket
// and tracks nesting (string-aware) until it closes. Returns "" when no
// balanced payload exists.
func ExtractJSON(raw string) string {
	raw = stripCodeFences(raw)

	start := -1
	var open, close byte
	for i := 0; i < len(raw); i++ {
		if raw[i] == '{' || raw[i] == '[' {
			start = i
			open = raw[i]
			if open == '{' {
				close = '}'
			} else {
				close = ']'
			}
			break
		}
	}
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == open:
			depth++
		case c == close:
			depth--
			if depth == 0 {
				return raw[start : i+1]
			}
		}
	}
	return ""
}

// DecodeLenient unmarshals model output into target, tolerating prose
// around the JSON and common syntax damage. Strategy: extract the first
// balanced payload, try strict unmarshal, then run jsonrepair on the
// extracted (or full) text and try again.
func DecodeLenient(raw string, target interface{}) error {
	candidate := ExtractJSON(raw)
	if candidate != "" {
		if err := json.Unmarshal([]byte(candidate), target); err == nil {
			return nil
		}
	} else {
		candidate = strings.TrimSpace(raw)
	}

	repaired, err := jsonrepair.JSONRepair(candidate)
	if err != nil {
		return fmt.Errorf("no parseable JSON in model output: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), target); err != nil {
		return fmt.Errorf("repaired JSON still invalid: %w", err)
	}

	log.Debug().Int("raw_len", len(raw)).Msg("model JSON recovered via repair")
	return nil
}

func stripCodeFences(s string) string {
	idx := strings.Index(s, "```")
	if idx < 0 {
		return s
	}
	rest := s[idx+3:]
	// Drop an optional language marker on the fence line.
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		first := strings.TrimSpace(rest[:nl])
		if first == "json" || first == "" {
			rest = rest[nl+1:]
		}
	}
	if end := strings.Index(rest, "```"); end >= 0 {
		return rest[:end]
	}
	return rest
}

// Truncate shortens s for log output and summary fallbacks.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
