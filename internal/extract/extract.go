// Package extract pulls a JSON object or array out of free-form model output.
package extract

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"studybuddy/internal/domain"
)

// MaxDiagnosticLen caps how many characters of the original text a failure keeps.
const MaxDiagnosticLen = 4000

// Shape is the kind of JSON value a caller expects.
type Shape int

const (
	ShapeAny Shape = iota
	ShapeArray
	ShapeObject
)

func (s Shape) String() string {
	switch s {
	case ShapeArray:
		return "array"
	case ShapeObject:
		return "object"
	default:
		return "any"
	}
}

// Outcome records which step produced the result.
type Outcome int

const (
	Failure Outcome = iota
	DirectParseSuccess
	FallbackParseSuccess
)

func (o Outcome) String() string {
	switch o {
	case DirectParseSuccess:
		return "direct"
	case FallbackParseSuccess:
		return "fallback"
	default:
		return "failure"
	}
}

// Result is a successfully extracted value. Value is either map[string]any or []any.
type Result struct {
	Value   any
	Outcome Outcome
}

// Reason distinguishes the two failure modes.
type Reason string

const (
	ReasonEmptyInput          Reason = "EmptyInput"
	ReasonUnparsableStructure Reason = "UnparsableStructure"
)

// Error is returned when no value of the requested shape could be extracted.
// Text holds the original input, truncated to MaxDiagnosticLen characters.
type Error struct {
	Reason Reason
	Shape  Shape
	Text   string
}

func (e *Error) Error() string {
	if e.Reason == ReasonEmptyInput {
		return "extract: empty input"
	}
	return fmt.Sprintf("extract: no JSON %s found in reply", e.Shape)
}

// Is lets callers match on the domain sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case domain.ErrEmptyInput:
		return e.Reason == ReasonEmptyInput
	case domain.ErrUnparsableStructure:
		return e.Reason == ReasonUnparsableStructure
	}
	return false
}

// Extract parses text as JSON of the requested shape. It first tries the whole
// trimmed text, then the substring from the first opening bracket to the last
// matching closing bracket.
//
// The fallback is a greedy first-to-last match, not a balanced scan: when a reply
// holds several independent bracketed blocks, the span covering all of them is
// what gets parsed, and usually fails.
func Extract(text string, shape Shape) (Result, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Result{}, &Error{Reason: ReasonEmptyInput, Shape: shape, Text: Truncate(text, MaxDiagnosticLen)}
	}

	if v, ok := parseAs(trimmed, shape); ok {
		return Result{Value: v, Outcome: DirectParseSuccess}, nil
	}

	if span, ok := bracketSpan(text, shape); ok {
		if v, ok := parseAs(span, shape); ok {
			return Result{Value: v, Outcome: FallbackParseSuccess}, nil
		}
	}

	return Result{}, &Error{Reason: ReasonUnparsableStructure, Shape: shape, Text: Truncate(text, MaxDiagnosticLen)}
}

func parseAs(s string, shape Shape) (any, bool) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	switch v.(type) {
	case []any:
		return v, shape == ShapeArray || shape == ShapeAny
	case map[string]any:
		return v, shape == ShapeObject || shape == ShapeAny
	default:
		return nil, false
	}
}

// bracketSpan returns text[first opener : last closer]. For ShapeAny the
// opener is whichever of '[' and '{' appears first.
func bracketSpan(text string, shape Shape) (string, bool) {
	var open, closing byte
	switch shape {
	case ShapeArray:
		open, closing = '[', ']'
	case ShapeObject:
		open, closing = '{', '}'
	default:
		arr := strings.IndexByte(text, '[')
		obj := strings.IndexByte(text, '{')
		switch {
		case arr < 0 && obj < 0:
			return "", false
		case obj < 0 || (arr >= 0 && arr < obj):
			open, closing = '[', ']'
		default:
			open, closing = '{', '}'
		}
	}

	start := strings.IndexByte(text, open)
	end := strings.LastIndexByte(text, closing)
	if start < 0 || end < 0 || start >= end {
		return "", false
	}
	return text[start : end+1], true
}

// Truncate shortens s to at most maxRunes characters without splitting a rune.
func Truncate(s string, maxRunes int) string {
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	n := 0
	for i := range s {
		if n == maxRunes {
			return s[:i]
		}
		n++
	}
	return s
}
