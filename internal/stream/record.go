// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import "encoding/json"

// =============================================================================
// RECORD INTERPRETER
// =============================================================================

// Update is the interpreted result of a single record. Empty fields mean the
// record carried no value of that kind; an empty delta never mutates the
// transcript, so "" doubles as absent.
type Update struct {
	SessionID string
	Delta     string
}

// IsZero reports whether the record produced nothing at all.
func (u Update) IsZero() bool {
	return u.SessionID == "" && u.Delta == ""
}

// sessionKeys are the accepted session identifier field names, both case
// styles, checked in order. These are backend-compatibility contract, not
// an implementation convenience.
var sessionKeys = [...]string{"session_id", "sessionId"}

// deltaFallbackKeys are the fallback text field names, in strict priority
// order, consulted only when no "response" field is present.
var deltaFallbackKeys = [...]string{"content", "message", "reply"}

// Interpret converts one candidate record into an Update.
//
// The whole record is given a single JSON parse. If that fails, the record
// is literal text and becomes the delta verbatim; there are no
// partial-record heuristics, so a line holding two concatenated JSON
// objects also lands on this path (unsupported by design). Non-object JSON
// values are stringified into the delta. Objects go through the field
// rules in interpretObject.
func Interpret(record string) Update {
	var v any
	if err := json.Unmarshal([]byte(record), &v); err != nil {
		return Update{Delta: record}
	}

	switch val := v.(type) {
	case map[string]any:
		return InterpretFields(val)
	case string:
		// A record that parses as an empty string produces no event.
		return Update{Delta: val}
	case nil:
		return Update{}
	default:
		// Number, bool, or array: stringify and treat as text.
		b, err := json.Marshal(val)
		if err != nil {
			return Update{}
		}
		return Update{Delta: string(b)}
	}
}

// InterpretFields applies the structured-record rules to an already-parsed
// payload. This is also the entry point for non-streamed responses, which
// bypass frame extraction and get these rules applied exactly once.
//
// Delta priority: "response" wins outright when present as a string, even
// over non-empty fallback fields; otherwise the first non-empty string
// among "content", "message", "reply". An object with no recognized text
// field contributes no delta rather than leaking structural noise into the
// transcript.
func InterpretFields(fields map[string]any) Update {
	var u Update

	for _, key := range sessionKeys {
		if id, ok := fields[key].(string); ok && id != "" {
			u.SessionID = id
			break
		}
	}

	if text, ok := fields["response"].(string); ok {
		u.Delta = text
		return u
	}
	for _, key := range deltaFallbackKeys {
		if text, ok := fields[key].(string); ok && text != "" {
			u.Delta = text
			break
		}
	}

	return u
}
