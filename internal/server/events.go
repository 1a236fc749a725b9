// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides the Slack interactivity endpoint plus a REST +
// WebSocket API. Handlers call the interaction service directly; the events it
// publishes are fanned out to connected WebSocket clients.
package server

import (
	"context"
	"sync"

	"github.com/noldarim/tsbridge/internal/logger"
	"github.com/noldarim/tsbridge/internal/protocol"

	"github.com/rs/zerolog"
)

var (
	log     *zerolog.Logger
	logOnce sync.Once
)

func getLog() *zerolog.Logger {
	logOnce.Do(func() {
		l := logger.GetAPILogger()
		log = &l
	})
	return log
}

// EventBroadcaster drains the interaction service's event channel into a Hub.
type EventBroadcaster struct {
	eventChan <-chan protocol.Event
	hub       *Hub
}

// NewEventBroadcaster creates a broadcaster over eventChan.
func NewEventBroadcaster(eventChan <-chan protocol.Event, hub *Hub) *EventBroadcaster {
	return &EventBroadcaster{
		eventChan: eventChan,
		hub:       hub,
	}
}

// Run reads events until the channel is closed or context is cancelled.
// Events are not buffered for clients that connect later.
func (b *EventBroadcaster) Run(ctx context.Context) {
	for {
		select {
		case event, ok := <-b.eventChan:
			if !ok {
				getLog().Info().Msg("Event broadcaster stopped (channel closed)")
				return
			}
			b.dispatch(event)
		case <-ctx.Done():
			getLog().Info().Msg("Event broadcaster stopped (context cancelled)")
			return
		}
	}
}

func (b *EventBroadcaster) dispatch(event protocol.Event) {
	namespace, workflowID := extractEventScope(event)
	getLog().Debug().
		Str("event_type", protocol.EventType(event)).
		Str("namespace", namespace).
		Str("workflow_id", workflowID).
		Str("request_id", event.GetMetadata().RequestID).
		Msg("Broadcasting interaction event")
	if b.hub != nil {
		b.hub.Broadcast(event)
	}
}
