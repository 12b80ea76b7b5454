// Package aiparse extracts and validates structured payloads embedded in
// free-form model output. The model is prompted to answer with JSON only,
// but compliance is not guaranteed: responses may wrap the payload in prose,
// emit broken JSON, or fill fields with values outside the known sets. Every
// parse either succeeds, succeeds with recovery warnings, or fails with a
// typed ParseError; callers never see a raw panic or an untyped error.
package aiparse

import (
	"fmt"
	"strings"
)

// ErrorKind classifies parse failures.
type ErrorKind string

const (
	// NoStructuredPayload means the response contains no JSON object or array.
	NoStructuredPayload ErrorKind = "no_structured_payload"
	// MalformedJSON means a candidate span was found but is not valid JSON.
	MalformedJSON ErrorKind = "malformed_json"
	// MissingField means the JSON decoded but lacks a required field with no
	// sensible recovery default.
	MissingField ErrorKind = "missing_field"
)

// ParseError is a typed failure from any parse operation in this package.
type ParseError struct {
	Kind    ErrorKind
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func parseErrorf(kind ErrorKind, format string, args ...any) *ParseError {
	return &ParseError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// ExtractJSON locates the first JSON object or array span in raw model text.
// The span runs greedily from the first opening bracket to the last closing
// bracket of the same family, matching how far a model usually strays: a
// short preamble, the payload, sometimes a trailing remark.
//
// No opening bracket at all yields NoStructuredPayload. An opener without a
// closer returns the remainder of the text so the JSON decoder can report
// the actual syntax error (classified MalformedJSON by the callers here).
func ExtractJSON(raw string) (string, *ParseError) {
	objStart := strings.IndexByte(raw, '{')
	arrStart := strings.IndexByte(raw, '[')

	start, closer := objStart, byte('}')
	if objStart == -1 || (arrStart != -1 && arrStart < objStart) {
		start, closer = arrStart, ']'
	}
	if start == -1 {
		return "", parseErrorf(NoStructuredPayload, "no JSON object or array found in response")
	}

	end := strings.LastIndexByte(raw, closer)
	if end <= start {
		// Unterminated payload; hand the rest to the decoder for diagnostics.
		return raw[start:], nil
	}
	return raw[start : end+1], nil
}
