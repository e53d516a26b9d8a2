// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import "testing"

// =============================================================================
// RECORD INTERPRETER TESTS
// =============================================================================

func TestInterpretLiteralFallback(t *testing.T) {
	lines := []string{
		"plain prose, not JSON",
		"{broken json",
		"{\"a\":1}{\"b\":2}", // concatenated objects are unsupported
	}

	for _, line := range lines {
		u := Interpret(line)
		if u.Delta != line {
			t.Errorf("Interpret(%q).Delta = %q, want the line verbatim", line, u.Delta)
		}
		if u.SessionID != "" {
			t.Errorf("Interpret(%q) extracted session id %q from literal", line, u.SessionID)
		}
	}
}

func TestInterpretResponsePriority(t *testing.T) {
	// "response" wins verbatim over any fallback fields also present.
	u := Interpret(`{"response":"primary","content":"nope","message":"nope","reply":"nope"}`)
	if u.Delta != "primary" {
		t.Errorf("Expected 'primary', got %q", u.Delta)
	}

	// Even an empty "response" suppresses the fallbacks.
	u = Interpret(`{"response":"","content":"nope"}`)
	if u.Delta != "" {
		t.Errorf("Empty response must suppress fallbacks, got %q", u.Delta)
	}
}

func TestInterpretFallbackOrder(t *testing.T) {
	cases := []struct {
		record string
		want   string
	}{
		{`{"content":"c","message":"m","reply":"r"}`, "c"},
		{`{"message":"m","reply":"r"}`, "m"},
		{`{"reply":"r"}`, "r"},
		{`{"content":"","message":"m"}`, "m"}, // empty strings are skipped
	}

	for _, c := range cases {
		u := Interpret(c.record)
		if u.Delta != c.want {
			t.Errorf("Interpret(%q).Delta = %q, want %q", c.record, u.Delta, c.want)
		}
	}
}

func TestInterpretSessionIDVariants(t *testing.T) {
	u := Interpret(`{"session_id":"abc123"}`)
	if u.SessionID != "abc123" {
		t.Errorf("snake_case: got %q", u.SessionID)
	}
	if u.Delta != "" {
		t.Errorf("Session-only record must not produce a delta, got %q", u.Delta)
	}

	u = Interpret(`{"sessionId":"xyz"}`)
	if u.SessionID != "xyz" {
		t.Errorf("camelCase: got %q", u.SessionID)
	}

	// Non-string session values are ignored.
	u = Interpret(`{"session_id":42}`)
	if u.SessionID != "" {
		t.Errorf("Numeric session id must be ignored, got %q", u.SessionID)
	}
}

func TestInterpretSessionAndDeltaTogether(t *testing.T) {
	u := Interpret(`{"response":"Hi","session_id":"s1"}`)
	if u.Delta != "Hi" || u.SessionID != "s1" {
		t.Errorf("Expected both fields, got %+v", u)
	}
}

func TestInterpretNonObjectValues(t *testing.T) {
	cases := []struct {
		record string
		want   string
	}{
		{`"quoted text"`, "quoted text"},
		{`42`, "42"},
		{`true`, "true"},
		{`[1,2]`, "[1,2]"},
	}

	for _, c := range cases {
		u := Interpret(c.record)
		if u.Delta != c.want {
			t.Errorf("Interpret(%q).Delta = %q, want %q", c.record, u.Delta, c.want)
		}
	}
}

func TestInterpretEmptyStringRecord(t *testing.T) {
	u := Interpret(`""`)
	if !u.IsZero() {
		t.Errorf("Record parsing to empty string must produce no event, got %+v", u)
	}
}

func TestInterpretNullRecord(t *testing.T) {
	u := Interpret(`null`)
	if !u.IsZero() {
		t.Errorf("null record must produce no event, got %+v", u)
	}
}

func TestInterpretUnrecognizedObjectShape(t *testing.T) {
	// Objects with no recognized fields are silently dropped; the raw
	// structure must never leak into the transcript.
	u := Interpret(`{"model":"x","done":false,"eval_count":7}`)
	if !u.IsZero() {
		t.Errorf("Unrecognized shape must produce no event, got %+v", u)
	}
}

func TestInterpretFieldsDirect(t *testing.T) {
	// Non-streamed responses apply the object rules exactly once.
	u := InterpretFields(map[string]any{
		"response":   "Done",
		"session_id": "x",
	})
	if u.Delta != "Done" || u.SessionID != "x" {
		t.Errorf("Expected Done/x, got %+v", u)
	}
}
