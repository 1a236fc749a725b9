// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Events published after every token dispatch attempt. Subscribers (the
// WebSocket clients of the API server) receive them as JSON envelopes.
package protocol

import (
	"encoding/json"
)

// FailureStage tells where a dispatch attempt stopped.
type FailureStage string

const (
	StageDecode   FailureStage = "decode"   // token did not parse or validate
	StageDispatch FailureStage = "dispatch" // Temporal rejected or was unreachable
)

// GetIdempotencyKey extracts the idempotency key from any event
func GetIdempotencyKey(event Event) string {
	return event.GetMetadata().IdempotencyKey
}

// InteractionDispatchedEvent is sent when Temporal accepted a start, signal
// or query.
type InteractionDispatchedEvent struct {
	Metadata
	Token      string            `json:"token"`
	Variant    string            `json:"variant"`
	Namespace  string            `json:"namespace"`
	WorkflowID string            `json:"workflow_id"`
	Outcome    string            `json:"outcome"`
	RunID      string            `json:"run_id,omitempty"`
	Result     []json.RawMessage `json:"result,omitempty"`
	Source     string            `json:"source,omitempty"`
	UserID     string            `json:"user_id,omitempty"`
}

func (e InteractionDispatchedEvent) GetMetadata() Metadata {
	return e.Metadata
}

// InteractionFailedEvent is sent when a token could not be decoded or the
// Temporal call failed. Namespace and WorkflowID are empty for decode failures.
type InteractionFailedEvent struct {
	Metadata
	Token      string       `json:"token"`
	Stage      FailureStage `json:"stage"`
	Namespace  string       `json:"namespace,omitempty"`
	WorkflowID string       `json:"workflow_id,omitempty"`
	Error      string       `json:"error"`
	Source     string       `json:"source,omitempty"`
	UserID     string       `json:"user_id,omitempty"`
}

func (e InteractionFailedEvent) GetMetadata() Metadata {
	return e.Metadata
}

// EventType returns the wire name of an event, used as the envelope type.
func EventType(event Event) string {
	switch event.(type) {
	case InteractionDispatchedEvent, *InteractionDispatchedEvent:
		return "interaction.dispatched"
	case InteractionFailedEvent, *InteractionFailedEvent:
		return "interaction.failed"
	default:
		return "unknown"
	}
}
