// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package client is the transport adapter: it drives the decode pipeline
// from either an incremental HTTP byte stream or a single non-streamed
// response, unifying both behind the same event interface.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/morganforge/skiff/internal/config"
)

// ErrNotConfigured is returned when the client has no backend URL.
var ErrNotConfigured = errors.New("no backend configured")

// maxErrorBody bounds how much of an error response body is read.
const maxErrorBody = 8 * 1024

// =============================================================================
// API ERROR
// =============================================================================

// APIError is a non-success HTTP response from the backend.
type APIError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to one chat backend.
type Client struct {
	chatURL string
	model   string

	// Streaming responses have no overall deadline; completion requests do.
	streamClient  *http.Client
	oneshotClient *http.Client

	limiter *rate.Limiter
}

// New creates a client from configuration.
func New(cfg *config.Config) *Client {
	c := &Client{
		chatURL:      cfg.ChatURL(),
		model:        cfg.Backend.Model,
		streamClient: &http.Client{},
		oneshotClient: &http.Client{
			Timeout: time.Duration(cfg.Backend.TimeoutSecs) * time.Second,
		},
	}
	if rpm := cfg.Backend.RequestsPerMinute; rpm > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(float64(rpm)/60.0), rpm)
	}
	return c
}

// chatRequest is the wire format of an outgoing chat turn.
type chatRequest struct {
	Message   string `json:"message"`
	Model     string `json:"model,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Stream    bool   `json:"stream"`
}

// newRequest builds the POST request for one turn.
func (c *Client) newRequest(ctx context.Context, prompt, sessionID string, streaming bool) (*http.Request, error) {
	if c.chatURL == "" {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(chatRequest{
		Message:   prompt,
		Model:     c.model,
		SessionID: sessionID,
		Stream:    streaming,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.chatURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if streaming {
		req.Header.Set("Accept", "text/event-stream")
		req.Header.Set("Cache-Control", "no-cache")
	} else {
		req.Header.Set("Accept", "application/json")
	}
	return req, nil
}

// errorFromResponse turns a non-success response into an APIError.
func errorFromResponse(resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	msg := string(bytes.TrimSpace(body))
	// Backends often wrap the description in {"error": "..."}.
	var wrapper struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &wrapper) == nil && wrapper.Error != "" {
		msg = wrapper.Error
	}

	return &APIError{Status: resp.StatusCode, Message: msg}
}
