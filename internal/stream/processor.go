// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

// =============================================================================
// EVENTS
// =============================================================================

// EventKind identifies the kind of event produced by the pipeline.
type EventKind int

const (
	// EventDelta carries an incremental fragment of assistant text.
	EventDelta EventKind = iota
	// EventSessionID carries an out-of-band session identifier.
	EventSessionID
	// EventComplete signals normal end of stream. Emitted exactly once.
	EventComplete
	// EventError carries a user-facing transport failure description.
	EventError
)

// Event is one output of the decode pipeline.
type Event struct {
	Kind EventKind
	Text string
}

// Handler consumes pipeline events. Events arrive strictly in stream order
// from a single goroutine; the handler must not block indefinitely.
type Handler func(Event)

// =============================================================================
// PROCESSOR
// =============================================================================

// Processor drives decode -> extract -> interpret for one stream and emits
// events to its handler. It owns the per-stream state: the decoder's byte
// tail and the terminated flag. A Processor serves exactly one stream.
type Processor struct {
	dec        ChunkDecoder
	handler    Handler
	terminated bool
}

// NewProcessor creates a processor emitting to handler.
func NewProcessor(handler Handler) *Processor {
	return &Processor{handler: handler}
}

// Feed processes one raw byte chunk. Chunks fed after the stream has
// terminated are discarded.
func (p *Processor) Feed(chunk []byte) {
	if p.terminated {
		return
	}
	p.emitRecords(p.dec.Decode(chunk, false))
}

// Finish flushes any buffered bytes and emits EventComplete if the sentinel
// has not already done so. Safe to call once per stream, after the last Feed.
func (p *Processor) Finish() {
	if p.terminated {
		return
	}
	p.emitRecords(p.dec.Decode(nil, true))
	if !p.terminated {
		p.terminated = true
		p.handler(Event{Kind: EventComplete})
	}
}

// Fail flushes nothing and surfaces a transport failure. The stream is
// terminated; no further events follow.
func (p *Processor) Fail(message string) {
	if p.terminated {
		return
	}
	p.terminated = true
	p.handler(Event{Kind: EventError, Text: message})
}

// Terminated reports whether the stream has reached a terminal event.
func (p *Processor) Terminated() bool {
	return p.terminated
}

// emitRecords interprets the records in text, in order. A record carrying
// both a session id and a delta emits the session id first so the session
// is current before its text becomes visible. The sentinel terminates the
// stream after the chunk's remaining records are processed.
func (p *Processor) emitRecords(text string) {
	records, done := ExtractFrames(text)

	for _, rec := range records {
		u := Interpret(rec)
		if u.SessionID != "" {
			p.handler(Event{Kind: EventSessionID, Text: u.SessionID})
		}
		if u.Delta != "" {
			p.handler(Event{Kind: EventDelta, Text: u.Delta})
		}
	}

	if done {
		p.terminated = true
		p.handler(Event{Kind: EventComplete})
	}
}
