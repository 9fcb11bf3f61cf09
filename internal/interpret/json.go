package interpret

import (
	"encoding/json"
	"fmt"
	"strings"
)

// jsonReply is the JSON reply shape some models produce instead of markers.
// Fields are raw so loosely typed replies can be coerced.
type jsonReply struct {
	Valid       json.RawMessage `json:"valid"`
	Errors      json.RawMessage `json:"errors"`
	Warnings    json.RawMessage `json:"warnings"`
	Suggestions json.RawMessage `json:"suggestions"`
	Assessment  json.RawMessage `json:"assessment"`
}

// parseJSON interprets an object with any of the result keys. ok is false
// for invalid JSON or an object carrying none of them.
func parseJSON(s string) (ValidationResult, bool) {
	var jr jsonReply
	if err := json.Unmarshal([]byte(s), &jr); err != nil {
		return ValidationResult{}, false
	}
	if jr.Valid == nil && jr.Errors == nil && jr.Warnings == nil && jr.Suggestions == nil && jr.Assessment == nil {
		return ValidationResult{}, false
	}

	r := ValidationResult{
		Parsed:      true,
		Format:      FormatJSON,
		Errors:      coerceList(jr.Errors),
		Warnings:    coerceList(jr.Warnings),
		Suggestions: coerceList(jr.Suggestions),
		Assessment:  coerceText(jr.Assessment),
	}

	r.Verdict = fallbackVerdict(coerceVerdict(jr.Valid), !isNull(jr.Errors), len(r.Errors))
	return r, true
}

// embeddedObject returns the outermost {...} span of s, or "".
func embeddedObject(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func coerceVerdict(raw json.RawMessage) Verdict {
	if isNull(raw) {
		return VerdictUnknown
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		if b {
			return VerdictValid
		}
		return VerdictInvalid
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return parseVerdict(s)
	}
	return VerdictUnknown
}

// coerceList accepts a list of strings, a list of mixed values, or a single
// string, dropping placeholder items.
func coerceList(raw json.RawMessage) []string {
	if isNull(raw) {
		return []string{}
	}

	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		var single any
		if err := json.Unmarshal(raw, &single); err != nil || single == nil {
			return []string{}
		}
		items = []any{single}
	}

	out := make([]string, 0, len(items))
	for _, it := range items {
		s := strings.TrimSpace(itemText(it))
		if s == "" || isNone(s) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// itemText renders one list element. Objects prefer a "message" or
// "description" field and fall back to compact JSON.
func itemText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case map[string]any:
		for _, k := range []string{"message", "description", "text", "issue"} {
			if s, ok := t[k].(string); ok && s != "" {
				return s
			}
		}
		b, _ := json.Marshal(t)
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}

func coerceText(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil || v == nil {
		return ""
	}
	return strings.TrimSpace(itemText(v))
}

func isNull(raw json.RawMessage) bool {
	return raw == nil || strings.TrimSpace(string(raw)) == "null"
}
