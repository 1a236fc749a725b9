// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package protocol

// GetNamespace / GetWorkflowID methods allow the API server's WebSocket filter
// to match events without maintaining an exhaustive type switch.

func (e InteractionDispatchedEvent) GetNamespace() string  { return e.Namespace }
func (e InteractionDispatchedEvent) GetWorkflowID() string { return e.WorkflowID }
func (e InteractionFailedEvent) GetNamespace() string      { return e.Namespace }
func (e InteractionFailedEvent) GetWorkflowID() string     { return e.WorkflowID }
