// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package interaction

import (
	"bytes"
	"encoding/json"
	"slices"
)

// Variant names the kind of action a Descriptor represents. The string value is
// what travels under KeyEventType.
type Variant string

const (
	VariantExecute Variant = "Execute"
	VariantSignal  Variant = "Signal"
	VariantQuery   Variant = "Query"
)

// Descriptor is a pending Temporal action. It is implemented only by Execute,
// Signal and Query; switch on the concrete type to handle each case.
type Descriptor interface {
	Variant() Variant
	GetNamespace() string
	GetTaskQueue() string
	GetWorkflowID() string
	// Arguments returns the out-of-band payload (args, input or query args).
	Arguments() []json.RawMessage

	// value returns the wire value for k and whether this variant defines k at all.
	value(k Key) (string, bool)
}

// Execute starts a new workflow run.
type Execute struct {
	Namespace  string
	TaskQueue  string
	WorkflowID string
	// WorkflowType is the registered workflow function name.
	WorkflowType string
	Args         []json.RawMessage
}

// Signal delivers a signal to a running workflow. WorkflowID and RunID are
// optional; an empty RunID targets the latest run.
type Signal struct {
	Namespace  string
	TaskQueue  string
	WorkflowID string
	RunID      string
	SignalName string
	Input      []json.RawMessage
	Identity   string
	RequestID  string
	Control    string
}

// Query reads state from a running workflow.
type Query struct {
	Namespace  string
	TaskQueue  string
	WorkflowID string
	RunID      string
	QueryType  string
	QueryArgs  []json.RawMessage
}

func (Execute) Variant() Variant { return VariantExecute }
func (e Execute) GetNamespace() string { return e.Namespace }
func (e Execute) GetTaskQueue() string { return e.TaskQueue }
func (e Execute) GetWorkflowID() string { return e.WorkflowID }
func (e Execute) Arguments() []json.RawMessage { return e.Args }

func (e Execute) value(k Key) (string, bool) {
	switch k {
	case KeyWorkflowID:
		return e.WorkflowID, true
	case KeyNamespace:
		return e.Namespace, true
	case KeyTaskQueue:
		return e.TaskQueue, true
	case KeyWorkflowType:
		return e.WorkflowType, true
	}
	return "", false
}

func (Signal) Variant() Variant { return VariantSignal }
func (s Signal) GetNamespace() string { return s.Namespace }
func (s Signal) GetTaskQueue() string { return s.TaskQueue }
func (s Signal) GetWorkflowID() string { return s.WorkflowID }
func (s Signal) Arguments() []json.RawMessage { return s.Input }

func (s Signal) value(k Key) (string, bool) {
	switch k {
	case KeyWorkflowID:
		return s.WorkflowID, true
	case KeyNamespace:
		return s.Namespace, true
	case KeyTaskQueue:
		return s.TaskQueue, true
	case KeyRunID:
		return s.RunID, true
	case KeySignalName:
		return s.SignalName, true
	}
	return "", false
}

func (Query) Variant() Variant { return VariantQuery }
func (q Query) GetNamespace() string { return q.Namespace }
func (q Query) GetTaskQueue() string { return q.TaskQueue }
func (q Query) GetWorkflowID() string { return q.WorkflowID }
func (q Query) Arguments() []json.RawMessage { return q.QueryArgs }

func (q Query) value(k Key) (string, bool) {
	switch k {
	case KeyWorkflowID:
		return q.WorkflowID, true
	case KeyNamespace:
		return q.Namespace, true
	case KeyTaskQueue:
		return q.TaskQueue, true
	case KeyRunID:
		return q.RunID, true
	case KeyQueryType:
		return q.QueryType, true
	case KeyQueryArgs:
		return q.firstArg(), true
	}
	return "", false
}

// firstArg is the compact JSON text of the first query argument. Only this one
// argument is carried inside a token; the full list travels out-of-band.
func (q Query) firstArg() string {
	if len(q.QueryArgs) == 0 {
		return ""
	}
	return string(compactJSON(q.QueryArgs[0]))
}

// WithArgs returns a copy of d whose argument list (Args, Input or QueryArgs)
// is replaced by args. d itself is left untouched.
func WithArgs(d Descriptor, args []json.RawMessage) Descriptor {
	args = slices.Clone(args)
	switch v := d.(type) {
	case Execute:
		v.Args = args
		return v
	case Signal:
		v.Input = args
		return v
	case Query:
		v.QueryArgs = args
		return v
	}
	return d
}

// TextArg turns free-form text into a JSON argument: valid JSON is kept as is,
// anything else becomes a JSON string.
func TextArg(s string) json.RawMessage {
	if s != "" && json.Valid([]byte(s)) {
		return compactJSON(json.RawMessage(s))
	}
	b, _ := json.Marshal(s)
	return b
}

func compactJSON(raw json.RawMessage) json.RawMessage {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return buf.Bytes()
}
