// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package interaction encodes pending Temporal actions (start, signal, query) into
// compact tokens that fit in a chat component identifier, and decodes them back.
//
// A token is a comma separated list of key:value pairs, e.g.
//
//	E:Signal,W:wf-123,N:default,T:tq1,R:run-9,S:approve-signal
//
// The single character keys are fixed wire constants and must never change
// without a version bump.
package interaction

const (
	// FieldDelimiter separates key:value pairs inside a token.
	FieldDelimiter = ","
	// KeyValueDelimiter separates a key from its value. Only the first occurrence is significant.
	KeyValueDelimiter = ":"
)

// Key is a single character field identifier on the wire.
type Key byte

const (
	KeyEventType    Key = 'E' // variant discriminant
	KeyWorkflowID   Key = 'W'
	KeyNamespace    Key = 'N'
	KeyTaskQueue    Key = 'T'
	KeyWorkflowType Key = 'Y' // workflow tYpe, the workflow function name
	KeyRunID        Key = 'R'
	KeySignalName   Key = 'S'
	KeyQueryType    Key = 'Q'
	KeyQueryArgs    Key = 'U' // qUery args
)

// registry is the fixed iteration order of all keys. Encoding walks it to
// produce deterministic output.
var registry = [...]Key{
	KeyEventType,
	KeyWorkflowID,
	KeyNamespace,
	KeyTaskQueue,
	KeyWorkflowType,
	KeyRunID,
	KeySignalName,
	KeyQueryType,
	KeyQueryArgs,
}

var keyNames = map[Key]string{
	KeyEventType:    "EventType",
	KeyWorkflowID:   "WorkflowId",
	KeyNamespace:    "Namespace",
	KeyTaskQueue:    "TaskQueue",
	KeyWorkflowType: "WorkflowTypeName",
	KeyRunID:        "RunId",
	KeySignalName:   "SignalName",
	KeyQueryType:    "QueryType",
	KeyQueryArgs:    "QueryArgs",
}

// Keys returns every registered key in wire order. The returned slice is a copy.
func Keys() []Key {
	out := make([]Key, len(registry))
	copy(out, registry[:])
	return out
}

// String returns the one character wire form of the key.
func (k Key) String() string {
	return string(rune(k))
}

// Name returns the descriptive name of the key, used in errors and logs.
func (k Key) Name() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return "Unknown(" + k.String() + ")"
}

// Valid reports whether k is part of the registry.
func (k Key) Valid() bool {
	_, ok := keyNames[k]
	return ok
}

// KV renders "<key>:<value>". The value is written as given; callers that
// accept arbitrary text should escape it first.
func (k Key) KV(value string) string {
	return k.String() + KeyValueDelimiter + value
}

// ParseKey maps the wire form of a key back to a Key.
func ParseKey(s string) (Key, bool) {
	if len(s) != 1 {
		return 0, false
	}
	k := Key(s[0])
	if !k.Valid() {
		return 0, false
	}
	return k, true
}
