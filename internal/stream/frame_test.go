// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"strings"
	"testing"
)

// =============================================================================
// FRAME EXTRACTOR TESTS
// =============================================================================

func TestExtractStripsDataPrefix(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"data: {\"response\":\"Hi\"}", "{\"response\":\"Hi\"}"},
		{"data:{\"response\":\"Hi\"}", "{\"response\":\"Hi\"}"},
		{"DATA: payload", "payload"},
		{"Data:\tpayload", "payload"},
	}

	for _, c := range cases {
		records, _ := ExtractFrames(c.in)
		if len(records) != 1 || records[0] != c.want {
			t.Errorf("ExtractFrames(%q) = %v, want [%q]", c.in, records, c.want)
		}
	}
}

func TestExtractSentinelRemoved(t *testing.T) {
	inputs := []string{
		"[DONE]",
		"data: [DONE]",
		"data: {\"response\":\"Hi\"}\n[DONE]",
		"prefix[DONE]suffix",
	}

	for _, in := range inputs {
		records, done := ExtractFrames(in)
		if !done {
			t.Errorf("ExtractFrames(%q): sentinel not reported", in)
		}
		// No record derived from extraction ever contains the sentinel.
		for _, r := range records {
			if strings.Contains(r, DoneSentinel) {
				t.Errorf("ExtractFrames(%q): record %q contains sentinel", in, r)
			}
		}
	}
}

func TestExtractSentinelMidLineKeepsSurroundingText(t *testing.T) {
	records, done := ExtractFrames("before[DONE]after")
	if !done {
		t.Fatal("Expected done")
	}
	if len(records) != 1 || records[0] != "beforeafter" {
		t.Errorf("Expected [\"beforeafter\"], got %v", records)
	}
}

func TestExtractDropsBlankLines(t *testing.T) {
	records, done := ExtractFrames("\n  \ndata:\n\r\none\n\ntwo\n")
	if done {
		t.Error("Unexpected done")
	}
	if len(records) != 2 || records[0] != "one" || records[1] != "two" {
		t.Errorf("Expected [one two], got %v", records)
	}
}

func TestExtractPreservesOrder(t *testing.T) {
	records, _ := ExtractFrames("a\nb\nc")
	want := []string{"a", "b", "c"}
	if len(records) != len(want) {
		t.Fatalf("Expected %d records, got %d", len(want), len(records))
	}
	for i := range want {
		if records[i] != want[i] {
			t.Errorf("Record %d: expected %q, got %q", i, want[i], records[i])
		}
	}
}

func TestExtractBareProse(t *testing.T) {
	// Non-SSE, non-JSON input degrades to one record per non-empty line.
	records, done := ExtractFrames("just some prose\r\nand more")
	if done {
		t.Error("Unexpected done")
	}
	if len(records) != 2 || records[0] != "just some prose" || records[1] != "and more" {
		t.Errorf("Unexpected records: %v", records)
	}
}

func TestExtractEmptyInput(t *testing.T) {
	records, done := ExtractFrames("")
	if records != nil || done {
		t.Errorf("Expected nothing from empty input, got %v, %v", records, done)
	}
}

func TestExtractDataPrefixOnlyAtLineStart(t *testing.T) {
	records, _ := ExtractFrames("metadata: value")
	if len(records) != 1 || records[0] != "metadata: value" {
		t.Errorf("Mid-word 'data:' must not be stripped, got %v", records)
	}
}
