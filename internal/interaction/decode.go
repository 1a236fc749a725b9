// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package interaction

import (
	"encoding/json"
	"maps"
	"strings"
)

// fields is the parsed key→value view of a token. It is never modified in
// place: take returns a new value without the consumed key, so each key can be
// extracted at most once.
type fields struct {
	m map[Key]string
}

func (f fields) take(k Key) (string, fields, bool) {
	v, ok := f.m[k]
	if !ok {
		return "", f, false
	}
	rest := maps.Clone(f.m)
	delete(rest, k)
	return v, fields{m: rest}, true
}

// required takes k and fails with KeyMissing when it is absent or empty.
func (f fields) required(k Key) (string, fields, error) {
	v, rest, ok := f.take(k)
	if !ok || v == "" {
		return "", rest, keyMissing(k)
	}
	return v, rest, nil
}

// optional takes k; absent and empty are equivalent.
func (f fields) optional(k Key) (string, fields) {
	v, rest, _ := f.take(k)
	return v, rest
}

func parseFields(token string) (fields, error) {
	m := make(map[Key]string, len(registry))
	for _, pair := range strings.Split(token, FieldDelimiter) {
		rawKey, rawValue, found := strings.Cut(pair, KeyValueDelimiter)
		if !found {
			return fields{}, malformedPair(pair)
		}
		k, ok := ParseKey(rawKey)
		if !ok {
			return fields{}, unknownKey(rawKey)
		}
		value, ok := unescapeValue(rawValue)
		if !ok {
			return fields{}, malformedPair(pair)
		}
		// last occurrence wins
		m[k] = value
	}
	return fields{m: m}, nil
}

// Decode parses a token produced by Encode. The event type selects the variant,
// then exactly the keys that variant needs are extracted; any other registered
// keys are ignored so older decoders accept newer tokens. Argument lists other
// than the first query argument are never part of a token and decode as nil.
func Decode(token string) (Descriptor, error) {
	f, err := parseFields(token)
	if err != nil {
		return nil, err
	}

	eventType, f, _ := f.take(KeyEventType)

	switch Variant(eventType) {
	case VariantExecute:
		return decodeExecute(f)
	case VariantSignal:
		return decodeSignal(f)
	case VariantQuery:
		return decodeQuery(f)
	default:
		return nil, unknownVariant(eventType)
	}
}

func decodeExecute(f fields) (Descriptor, error) {
	var (
		out Execute
		err error
	)
	if out.WorkflowID, f, err = f.required(KeyWorkflowID); err != nil {
		return nil, err
	}
	if out.Namespace, f, err = f.required(KeyNamespace); err != nil {
		return nil, err
	}
	if out.TaskQueue, f, err = f.required(KeyTaskQueue); err != nil {
		return nil, err
	}
	if out.WorkflowType, _, err = f.required(KeyWorkflowType); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeSignal(f fields) (Descriptor, error) {
	var (
		out Signal
		err error
	)
	out.WorkflowID, f = f.optional(KeyWorkflowID)
	if out.Namespace, f, err = f.required(KeyNamespace); err != nil {
		return nil, err
	}
	if out.TaskQueue, f, err = f.required(KeyTaskQueue); err != nil {
		return nil, err
	}
	out.RunID, f = f.optional(KeyRunID)
	if out.SignalName, _, err = f.required(KeySignalName); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeQuery(f fields) (Descriptor, error) {
	var (
		out Query
		err error
	)
	out.WorkflowID, f = f.optional(KeyWorkflowID)
	if out.Namespace, f, err = f.required(KeyNamespace); err != nil {
		return nil, err
	}
	if out.TaskQueue, f, err = f.required(KeyTaskQueue); err != nil {
		return nil, err
	}
	out.RunID, f = f.optional(KeyRunID)
	if out.QueryType, f, err = f.required(KeyQueryType); err != nil {
		return nil, err
	}
	if arg, _ := f.optional(KeyQueryArgs); arg != "" {
		out.QueryArgs = []json.RawMessage{TextArg(arg)}
	}
	return out, nil
}
