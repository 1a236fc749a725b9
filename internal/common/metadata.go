// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package common provides shared types used across multiple packages.
package common

import "time"

// Metadata contains common fields for every event published to subscribers.
type Metadata struct {
	// RequestID correlates the event with the inbound HTTP or Slack request.
	// Optional - CLI dispatches carry none.
	RequestID string `json:"request_id,omitempty"`

	// IdempotencyKey is used for event deduplication by subscribers.
	// It is the audit record ID when the record was stored.
	IdempotencyKey string `json:"idempotency_key,omitempty"`

	// Timestamp is when the event was produced.
	Timestamp time.Time `json:"timestamp"`

	// Version indicates the protocol version for backward compatibility.
	// Format: "v{major}.{minor}.{patch}" (e.g., "v1.0.0")
	Version string `json:"version"`
}

// CurrentProtocolVersion defines the current version of the protocol.
// This should be updated when making breaking changes to the protocol.
const CurrentProtocolVersion = "v1.0.0"

// NewMetadata stamps metadata with the current time and protocol version.
func NewMetadata(requestID, idempotencyKey string) Metadata {
	return Metadata{
		RequestID:      requestID,
		IdempotencyKey: idempotencyKey,
		Timestamp:      time.Now().UTC(),
		Version:        CurrentProtocolVersion,
	}
}

// Event represents anything published on the event channel.
type Event interface {
	GetMetadata() Metadata
}
