// Package repair recovers a JSON object from imperfect model output:
// code fences, trailing commentary, raw control characters inside strings,
// and output cut off mid-string or mid-structure.
package repair

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Empty is returned when nothing usable can be recovered.
const Empty = "{}"

var (
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
	// danglingKey matches an object key left without a value at the very
	// end of truncated output, with the comma or brace that introduced it.
	danglingKey = regexp.MustCompile(`([,{])\s*"(?:[^"\\]|\\.)*(?:"\s*:?)?\s*$`)
)

// Repair returns a string that always parses as a JSON object.
func Repair(raw string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = Empty
		}
	}()

	text := stripFence(strings.TrimSpace(raw))

	start := strings.IndexByte(text, '{')
	if start < 0 {
		return Empty
	}

	candidate := balance(text[start:])
	if isObject(candidate) {
		return candidate
	}

	cleaned := trailingComma.ReplaceAllString(candidate, "$1")
	if end := strings.LastIndexByte(cleaned, '}'); end >= 0 {
		cleaned = cleaned[:end+1]
	}
	if isObject(cleaned) {
		return cleaned
	}

	if loc := danglingKey.FindStringSubmatchIndex(text[start:]); loc != nil {
		body := text[start:]
		keep := body[:loc[0]]
		if body[loc[2]] == '{' {
			keep += "{"
		}
		trimmed := trailingComma.ReplaceAllString(balance(keep), "$1")
		if isObject(trimmed) {
			return trimmed
		}
	}

	return Empty
}

// Decode repairs raw and unmarshals it. The result is never nil.
func Decode(raw string) map[string]interface{} {
	data := make(map[string]interface{})
	if err := json.Unmarshal([]byte(Repair(raw)), &data); err != nil || data == nil {
		return make(map[string]interface{})
	}
	return data
}

func stripFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	} else {
		text = strings.TrimLeft(text[3:], "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
	}
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// balance walks text from its opening brace, escaping control characters
// inside strings, and stops as soon as the root object closes. Whatever is
// still open at the end is closed in LIFO order.
func balance(text string) string {
	out := make([]byte, 0, len(text)+16)
	stack := make([]byte, 0, 16)
	inString, escaped := false, false

	for i := 0; i < len(text); i++ {
		c := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
				out = append(out, c)
			case c == '\\':
				escaped = true
				out = append(out, c)
			case c == '"':
				inString = false
				out = append(out, c)
			case c == '\n':
				out = append(out, '\\', 'n')
			case c == '\r':
				out = append(out, '\\', 'r')
			case c == '\t':
				out = append(out, '\\', 't')
			case c < 0x20:
				out = append(out, fmt.Sprintf(`\u%04x`, c)...)
			default:
				out = append(out, c)
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
		out = append(out, c)

		if len(stack) == 0 {
			break
		}
	}

	if inString {
		if escaped {
			out = out[:len(out)-1]
		}
		out = append(out, '"')
	}
	for i := len(stack) - 1; i >= 0; i-- {
		out = append(out, stack[i])
	}

	return string(out)
}

func isObject(s string) bool {
	var v map[string]interface{}
	return json.Unmarshal([]byte(s), &v) == nil
}
