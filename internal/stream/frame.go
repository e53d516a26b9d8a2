// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import "strings"

// =============================================================================
// FRAME EXTRACTOR
// =============================================================================

// DoneSentinel is the literal end-of-stream marker. It is stripped from the
// text and reported out of band, never surfaced as record content.
const DoneSentinel = "[DONE]"

// dataPrefix is the SSE-style line prefix, matched case-insensitively.
const dataPrefix = "data:"

// ExtractFrames strips transport framing from decoded text and returns the
// candidate records it contains, in order, plus whether the end-of-stream
// sentinel was seen.
//
// The backend may emit SSE-style lines, bare JSON lines, or prose, so
// extraction is permissive: it degrades to one record per non-empty line
// rather than rejecting malformed input. Extraction is pure per call; it
// never buffers text between invocations (byte-level carryover is the
// ChunkDecoder's job).
func ExtractFrames(text string) (records []string, done bool) {
	if text == "" {
		return nil, false
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")

		// Strip the event-stream data prefix with optional whitespace.
		if len(line) >= len(dataPrefix) &&
			strings.EqualFold(line[:len(dataPrefix)], dataPrefix) {
			line = strings.TrimLeft(line[len(dataPrefix):], " \t")
		}

		// The sentinel is a marker, not content; remove every occurrence.
		if strings.Contains(line, DoneSentinel) {
			done = true
			line = strings.ReplaceAll(line, DoneSentinel, "")
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		records = append(records, line)
	}

	return records, done
}
