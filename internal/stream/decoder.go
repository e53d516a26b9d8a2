// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream implements the streaming response decode pipeline:
// raw byte chunks are decoded to text, split into candidate records,
// and interpreted into transcript events.
package stream

import (
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// =============================================================================
// CHUNK DECODER
// =============================================================================

// ChunkDecoder converts raw byte chunks into text, carrying an incomplete
// trailing multi-byte sequence over to the next call. A rune that is merely
// split across two network reads is never replaced with U+FFFD; only bytes
// that are invalid outright (or incomplete at end of stream) are substituted.
//
// The zero value is ready to use. A decoder is tied to one stream; call
// Reset before reusing it for another.
type ChunkDecoder struct {
	dec  transform.Transformer
	tail []byte
}

// NewChunkDecoder creates a decoder for a single stream.
func NewChunkDecoder() *ChunkDecoder {
	return &ChunkDecoder{}
}

// Decode converts p into text. When final is true, any buffered remainder is
// flushed with best-effort substitution; Decode never fails.
func (d *ChunkDecoder) Decode(p []byte, final bool) string {
	if d.dec == nil {
		d.dec = unicode.UTF8.NewDecoder()
	}

	src := p
	if len(d.tail) > 0 {
		src = append(d.tail, p...)
		d.tail = nil
	}
	if len(src) == 0 {
		return ""
	}

	var out strings.Builder
	// Worst case every byte becomes a 3-byte replacement rune.
	dst := make([]byte, len(src)*3)

	for {
		nDst, nSrc, err := d.dec.Transform(dst, src, final)
		out.Write(dst[:nDst])
		src = src[nSrc:]

		switch err {
		case nil:
			if len(src) > 0 {
				// Fully sized dst and a nil error should consume
				// everything; guard against a short write anyway.
				continue
			}
			return out.String()
		case transform.ErrShortDst:
			continue
		case transform.ErrShortSrc:
			// Incomplete trailing sequence; hold it for the next chunk.
			d.tail = append([]byte(nil), src...)
			return out.String()
		default:
			// The UTF-8 decoder substitutes rather than erroring, so this
			// is unreachable; drop the offending byte and keep going.
			if len(src) > 0 {
				src = src[1:]
				continue
			}
			return out.String()
		}
	}
}

// Pending returns the number of buffered bytes awaiting sequence completion.
func (d *ChunkDecoder) Pending() int {
	return len(d.tail)
}

// Reset discards buffered state so the decoder can serve a new stream.
func (d *ChunkDecoder) Reset() {
	d.tail = nil
	if d.dec != nil {
		d.dec.Reset()
	}
}
