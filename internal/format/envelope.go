// Package format turns raw webhook responses into display text and structured blocks.
package format

import (
	"bytes"
	"encoding/json"
)

// Envelope is the interpretation of a raw webhook response body.
// It is one of Wrapped, JSON or Raw.
type Envelope interface {
	isEnvelope()
}

// Wrapped is the `[{"output": "..."}]` convention; Text is the inner output string.
type Wrapped struct {
	Text string
}

// JSON is any other valid JSON document, re-encoded with two-space indentation.
type JSON struct {
	Pretty string
}

// Raw is a body that is not JSON at all.
type Raw struct {
	Text string
}

func (Wrapped) isEnvelope() {}
func (JSON) isEnvelope()    {}
func (Raw) isEnvelope()     {}

// Parse classifies raw. It never fails: anything that is not JSON comes back as Raw.
func Parse(raw string) Envelope {
	trimmed := bytes.TrimSpace([]byte(raw))
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return Raw{Text: raw}
	}

	if text, ok := wrappedOutput(trimmed); ok {
		return Wrapped{Text: text}
	}

	pretty, err := reencode(trimmed)
	if err != nil {
		return Raw{Text: raw}
	}
	return JSON{Pretty: pretty}
}

// wrappedOutput reports whether doc is an array whose first element is an object with a string "output".
func wrappedOutput(doc []byte) (string, bool) {
	if doc[0] != '[' {
		return "", false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(doc, &items); err != nil || len(items) == 0 {
		return "", false
	}
	var first map[string]json.RawMessage
	if err := json.Unmarshal(items[0], &first); err != nil {
		return "", false
	}
	field, ok := first["output"]
	// null would otherwise decode into "" without error
	if !ok || len(field) == 0 || field[0] != '"' {
		return "", false
	}
	var output string
	if err := json.Unmarshal(field, &output); err != nil {
		return "", false
	}
	return output, true
}
