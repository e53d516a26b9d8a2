// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/morganforge/skiff/internal/stream"
)

// readBufferSize is the raw chunk size handed to the decode pipeline.
const readBufferSize = 4096

// =============================================================================
// STREAMING CHAT
// =============================================================================

// Stream performs a streaming chat turn. Raw body chunks are fed to the
// decode pipeline and events are delivered to handler strictly in stream
// order. Every outcome reaches the handler as a terminal event: normal end
// of stream emits EventComplete, transport failure emits EventError.
//
// Cancellation through ctx stops reading and discards the stream state
// without a terminal event; deltas already delivered stay delivered (an
// accepted at-least-once-visible policy, not atomicity).
func (c *Client) Stream(ctx context.Context, prompt, sessionID string, handler stream.Handler) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	req, err := c.newRequest(ctx, prompt, sessionID, true)
	if err != nil {
		handler(stream.Event{Kind: stream.EventError, Text: err.Error()})
		return err
	}

	resp, err := c.streamClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		handler(stream.Event{Kind: stream.EventError, Text: "request failed: " + err.Error()})
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := errorFromResponse(resp)
		handler(stream.Event{Kind: stream.EventError, Text: apiErr.Error()})
		return apiErr
	}

	return c.processBody(ctx, resp.Body, handler)
}

// processBody pumps raw bytes from the response into the pipeline.
func (c *Client) processBody(ctx context.Context, body io.Reader, handler stream.Handler) error {
	proc := stream.NewProcessor(handler)
	buf := make([]byte, readBufferSize)

	for {
		n, err := body.Read(buf)
		if n > 0 {
			proc.Feed(buf[:n])
			if proc.Terminated() {
				// Sentinel seen; stop reading, the server is done talking.
				return nil
			}
		}

		switch {
		case err == nil:
			continue
		case err == io.EOF:
			proc.Finish()
			return nil
		case ctx.Err() != nil:
			// Caller abandoned the stream; no terminal event.
			return ctx.Err()
		default:
			proc.Fail("stream interrupted: " + err.Error())
			return fmt.Errorf("stream read failed: %w", err)
		}
	}
}

// =============================================================================
// NON-STREAMED CHAT
// =============================================================================

// Result is the outcome of a non-streamed chat turn.
type Result struct {
	// Text is the full assistant reply, applied wholesale (not appended).
	Text string
	// SessionID is the extracted session identifier, if the payload
	// carried one.
	SessionID string
}

// Complete performs a non-streamed chat turn. The single JSON payload
// bypasses frame extraction and gets the structured-record field rules
// applied exactly once.
func (c *Client) Complete(ctx context.Context, prompt, sessionID string) (Result, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return Result{}, err
		}
	}

	req, err := c.newRequest(ctx, prompt, sessionID, false)
	if err != nil {
		return Result{}, err
	}

	resp, err := c.oneshotClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, errorFromResponse(resp)
	}

	var fields map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&fields); err != nil {
		return Result{}, fmt.Errorf("failed to decode response: %w", err)
	}

	u := stream.InterpretFields(fields)
	return Result{Text: u.Delta, SessionID: u.SessionID}, nil
}

// StatusOK probes the backend root and reports reachability.
func (c *Client) StatusOK(ctx context.Context) bool {
	if c.chatURL == "" {
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.chatURL, nil)
	if err != nil {
		return false
	}
	resp, err := c.oneshotClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}
