// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type mockStringer struct {
	value string
}

func (m mockStringer) String() string {
	return m.value
}

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log JSON %q: %v", buf.String(), err)
	}
	return entry
}

func TestTemporalLogAdapter_Levels(t *testing.T) {
	prev := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	defer zerolog.SetGlobalLevel(prev)

	tests := []struct {
		level string
		log   func(a *TemporalLogAdapter)
	}{
		{"debug", func(a *TemporalLogAdapter) { a.Debug("msg") }},
		{"info", func(a *TemporalLogAdapter) { a.Info("msg") }},
		{"warn", func(a *TemporalLogAdapter) { a.Warn("msg") }},
		{"error", func(a *TemporalLogAdapter) { a.Error("msg") }},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			adapter := NewTemporalLogAdapter(zerolog.New(&buf).Level(zerolog.DebugLevel)).(*TemporalLogAdapter)
			tt.log(adapter)

			entry := decodeEntry(t, &buf)
			if entry["level"] != tt.level {
				t.Errorf("expected level %q, got %v", tt.level, entry["level"])
			}
			if entry["message"] != "msg" {
				t.Errorf("expected message 'msg', got %v", entry["message"])
			}
		})
	}
}

func TestTemporalLogAdapter_FieldTypes(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewTemporalLogAdapter(zerolog.New(&buf))

	adapter.Info("typed",
		"WorkflowID", "wf-1",
		"Attempt", 3,
		"EventID", int64(42),
		"Ratio", 0.5,
		"Replay", false,
		"Elapsed", 1500*time.Millisecond,
		"Status", mockStringer{value: "running"},
		"Cause", errors.New("boom"),
	)

	entry := decodeEntry(t, &buf)
	checks := map[string]interface{}{
		"WorkflowID": "wf-1",
		"Attempt":    float64(3),
		"EventID":    float64(42),
		"Ratio":      0.5,
		"Replay":     false,
		"Elapsed":    float64(1500),
		"Status":     "running",
		"Cause":      "boom",
	}
	for key, want := range checks {
		if entry[key] != want {
			t.Errorf("field %s: expected %v, got %v", key, want, entry[key])
		}
	}
}

func TestTemporalLogAdapter_OddKeyvals(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewTemporalLogAdapter(zerolog.New(&buf))

	adapter.Warn("dangling", "Namespace", "default", "orphan")

	entry := decodeEntry(t, &buf)
	if entry["Namespace"] != "default" {
		t.Errorf("expected Namespace field, got %v", entry["Namespace"])
	}
	if entry[badKey] != "orphan" {
		t.Errorf("expected dangling value under %s, got %v", badKey, entry[badKey])
	}
}

func TestTemporalLogAdapter_With(t *testing.T) {
	var buf bytes.Buffer
	base := NewTemporalLogAdapter(zerolog.New(&buf))

	child := base.(*TemporalLogAdapter).With("TaskQueue", "tq1")
	child.Info("from child")

	entry := decodeEntry(t, &buf)
	if entry["TaskQueue"] != "tq1" {
		t.Errorf("expected inherited TaskQueue field, got %v", entry["TaskQueue"])
	}

	buf.Reset()
	base.Info("from parent")
	entry = decodeEntry(t, &buf)
	if _, exists := entry["TaskQueue"]; exists {
		t.Error("With must not modify the parent logger")
	}
}

func TestGetTemporalLogAdapter_Uninitialized(t *testing.T) {
	// Without Initialize the adapter must be usable and silent
	adapter := GetTemporalLogAdapter("temporal")
	if adapter == nil {
		t.Fatal("expected non-nil adapter")
	}
	adapter.Info("discarded")
}
