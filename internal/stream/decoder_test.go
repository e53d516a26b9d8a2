// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"strings"
	"testing"
	"unicode/utf8"
)

// =============================================================================
// CHUNK DECODER TESTS
// =============================================================================

func TestDecodeASCII(t *testing.T) {
	d := NewChunkDecoder()
	got := d.Decode([]byte("hello"), false)
	if got != "hello" {
		t.Errorf("Expected 'hello', got %q", got)
	}
	if d.Pending() != 0 {
		t.Errorf("Expected no pending bytes, got %d", d.Pending())
	}
}

func TestDecodeSplitInvariance(t *testing.T) {
	// Mixed-width text: 1, 2, 3 and 4 byte sequences.
	whole := "héllo 世界 🚀 done"
	raw := []byte(whole)

	// Every possible two-chunk split must reproduce the whole text.
	for i := 0; i <= len(raw); i++ {
		d := NewChunkDecoder()
		got := d.Decode(raw[:i], false) + d.Decode(raw[i:], true)
		if got != whole {
			t.Errorf("Split at %d: expected %q, got %q", i, whole, got)
		}
	}
}

func TestDecodeByteAtATime(t *testing.T) {
	whole := "日本語テキスト🎌"
	d := NewChunkDecoder()

	var out strings.Builder
	for _, b := range []byte(whole) {
		out.WriteString(d.Decode([]byte{b}, false))
	}
	out.WriteString(d.Decode(nil, true))

	if out.String() != whole {
		t.Errorf("Expected %q, got %q", whole, out.String())
	}
}

func TestDecodeHoldsIncompleteTail(t *testing.T) {
	d := NewChunkDecoder()

	// First two bytes of the three-byte sequence for 世 (e4 b8 96).
	got := d.Decode([]byte{0xe4, 0xb8}, false)
	if got != "" {
		t.Errorf("Expected no output for incomplete sequence, got %q", got)
	}
	if d.Pending() != 2 {
		t.Errorf("Expected 2 pending bytes, got %d", d.Pending())
	}

	got = d.Decode([]byte{0x96}, false)
	if got != "世" {
		t.Errorf("Expected completed rune, got %q", got)
	}
	if d.Pending() != 0 {
		t.Errorf("Expected pending drained, got %d", d.Pending())
	}
}

func TestDecodeFinalFlushSubstitutes(t *testing.T) {
	d := NewChunkDecoder()

	d.Decode([]byte{0xe4, 0xb8}, false)
	got := d.Decode(nil, true)

	// Best-effort substitution, never an error.
	if !strings.Contains(got, string(utf8.RuneError)) {
		t.Errorf("Expected replacement rune on final flush, got %q", got)
	}
}

func TestDecodeInvalidBytesSubstituted(t *testing.T) {
	d := NewChunkDecoder()
	got := d.Decode([]byte{'a', 0xff, 'b'}, true)
	if !utf8.ValidString(got) {
		t.Errorf("Output must be valid UTF-8, got %q", got)
	}
	if !strings.HasPrefix(got, "a") || !strings.HasSuffix(got, "b") {
		t.Errorf("Valid bytes around the bad one must survive, got %q", got)
	}
}

func TestDecodeEmptyChunks(t *testing.T) {
	d := NewChunkDecoder()
	if got := d.Decode(nil, false); got != "" {
		t.Errorf("Expected empty output, got %q", got)
	}
	if got := d.Decode(nil, true); got != "" {
		t.Errorf("Expected empty final flush, got %q", got)
	}
}

func TestDecodeReset(t *testing.T) {
	d := NewChunkDecoder()
	d.Decode([]byte{0xe4}, false)
	d.Reset()

	if d.Pending() != 0 {
		t.Errorf("Expected reset to drop tail, got %d pending", d.Pending())
	}
	if got := d.Decode([]byte("ok"), true); got != "ok" {
		t.Errorf("Expected clean decode after reset, got %q", got)
	}
}
