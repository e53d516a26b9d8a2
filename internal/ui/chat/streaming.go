// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file implements render pacing for streamed responses. The
// DeltaBuffer batches incoming text deltas so the viewport repaints at a
// capped frame rate instead of once per network chunk, which keeps the
// terminal smooth and the CPU quiet during fast streams.
package chat

import (
	"strings"
	"sync"
	"time"
)

// =============================================================================
// DELTA BUFFER
// =============================================================================

// DeltaBuffer batches text deltas for efficient rendering. Deltas are
// accumulated and released either when the batch threshold is reached or
// when enough time has passed since the last release.
//
// Thread-safety: all operations are mutex-protected since deltas arrive
// from the network goroutine while draining happens in the Bubble Tea loop.
type DeltaBuffer struct {
	mu         sync.Mutex
	buffer     strings.Builder
	deltaCount int
	lastFlush  time.Time

	batchSize    int
	minFlushWait time.Duration
}

// NewDeltaBuffer creates a buffer with default pacing: 15 deltas per
// batch, repaints capped at roughly 30fps.
func NewDeltaBuffer() *DeltaBuffer {
	return NewDeltaBufferWithConfig(15, 30)
}

// NewDeltaBufferWithConfig creates a buffer with custom pacing.
func NewDeltaBufferWithConfig(batchSize, maxFPS int) *DeltaBuffer {
	if batchSize <= 0 {
		batchSize = 15
	}
	if maxFPS <= 0 || maxFPS > 60 {
		maxFPS = 30
	}
	return &DeltaBuffer{
		batchSize:    batchSize,
		minFlushWait: time.Duration(1000/maxFPS) * time.Millisecond,
		lastFlush:    time.Now(),
	}
}

// Write adds a delta to the buffer. Called from the network goroutine.
func (b *DeltaBuffer) Write(delta string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.buffer.WriteString(delta)
	b.deltaCount++
}

// Flush returns the accumulated text if a repaint is due, and resets the
// buffer. Returns ("", false) when nothing is pending or the pacing window
// has not elapsed.
func (b *DeltaBuffer) Flush() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.shouldFlushLocked() {
		return "", false
	}
	return b.drainLocked(), true
}

// Drain returns whatever is buffered regardless of pacing. Used when the
// turn ends and everything must be shown.
func (b *DeltaBuffer) Drain() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.drainLocked()
}

// Pending reports whether any text is waiting to be shown.
func (b *DeltaBuffer) Pending() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buffer.Len() > 0
}

func (b *DeltaBuffer) drainLocked() string {
	content := b.buffer.String()
	b.buffer.Reset()
	b.deltaCount = 0
	b.lastFlush = time.Now()
	return content
}

func (b *DeltaBuffer) shouldFlushLocked() bool {
	if b.buffer.Len() == 0 {
		return false
	}
	if b.deltaCount >= b.batchSize {
		return true
	}
	return time.Since(b.lastFlush) >= b.minFlushWait
}
