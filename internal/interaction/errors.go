// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package interaction

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is checks against a *DecodeError.
var (
	ErrMalformedPair  = errors.New("malformed pair")
	ErrUnknownKey     = errors.New("unknown key")
	ErrUnknownVariant = errors.New("unknown variant")
	ErrKeyMissing     = errors.New("key missing")
)

// ErrorKind classifies a decode failure.
type ErrorKind int

const (
	MalformedPair ErrorKind = iota + 1
	UnknownKey
	UnknownVariant
	KeyMissing
)

// String returns the string representation of ErrorKind
func (k ErrorKind) String() string {
	switch k {
	case MalformedPair:
		return "MalformedPair"
	case UnknownKey:
		return "UnknownKey"
	case UnknownVariant:
		return "UnknownVariant"
	case KeyMissing:
		return "KeyMissing"
	default:
		return "Unknown"
	}
}

// DecodeError reports exactly which part of a token could not be decoded.
// Key is set for KeyMissing; Value holds the offending text for the other kinds.
// Decode failures are deterministic and never worth retrying.
type DecodeError struct {
	Kind  ErrorKind
	Key   Key
	Value string
}

func (e *DecodeError) Error() string {
	switch e.Kind {
	case MalformedPair:
		return fmt.Sprintf("malformed pair %q: expected <key>%s<value>", e.Value, KeyValueDelimiter)
	case UnknownKey:
		return fmt.Sprintf("unknown key %q", e.Value)
	case UnknownVariant:
		if e.Value == "" {
			return "unknown variant: event type key not supplied"
		}
		return fmt.Sprintf("unknown variant %q", e.Value)
	case KeyMissing:
		return fmt.Sprintf("key %s (%s) not supplied in token", e.Key, e.Key.Name())
	default:
		return "decode error"
	}
}

// Unwrap maps the error onto its sentinel.
func (e *DecodeError) Unwrap() error {
	switch e.Kind {
	case MalformedPair:
		return ErrMalformedPair
	case UnknownKey:
		return ErrUnknownKey
	case UnknownVariant:
		return ErrUnknownVariant
	case KeyMissing:
		return ErrKeyMissing
	}
	return nil
}

func malformedPair(pair string) error {
	return &DecodeError{Kind: MalformedPair, Value: pair}
}

func unknownKey(key string) error {
	return &DecodeError{Kind: UnknownKey, Value: key}
}

func unknownVariant(name string) error {
	return &DecodeError{Kind: UnknownVariant, Value: name}
}

func keyMissing(k Key) error {
	return &DecodeError{Kind: KeyMissing, Key: k}
}
