// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package logger

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.temporal.io/sdk/log"
)

const badKey = "!BADKEY"

// TemporalLogAdapter adapts zerolog to Temporal's logger interface
type TemporalLogAdapter struct {
	logger zerolog.Logger
}

var (
	_ log.Logger     = (*TemporalLogAdapter)(nil)
	_ log.WithLogger = (*TemporalLogAdapter)(nil)
)

// NewTemporalLogAdapter creates a new Temporal log adapter
func NewTemporalLogAdapter(logger zerolog.Logger) log.Logger {
	return &TemporalLogAdapter{logger: logger}
}

func (t *TemporalLogAdapter) Debug(msg string, keyvals ...interface{}) {
	appendKeyvals(t.logger.Debug(), keyvals).Msg(msg)
}

func (t *TemporalLogAdapter) Info(msg string, keyvals ...interface{}) {
	appendKeyvals(t.logger.Info(), keyvals).Msg(msg)
}

func (t *TemporalLogAdapter) Warn(msg string, keyvals ...interface{}) {
	appendKeyvals(t.logger.Warn(), keyvals).Msg(msg)
}

func (t *TemporalLogAdapter) Error(msg string, keyvals ...interface{}) {
	appendKeyvals(t.logger.Error(), keyvals).Msg(msg)
}

// With returns a new logger with additional fields
func (t *TemporalLogAdapter) With(keyvals ...interface{}) log.Logger {
	ctx := t.logger.With()
	forEachPair(keyvals, func(key string, value interface{}) {
		ctx = ctx.Interface(key, value)
	})
	return &TemporalLogAdapter{logger: ctx.Logger()}
}

// forEachPair walks alternating key/value arguments. A trailing key without a
// value is reported under badKey instead of being dropped.
func forEachPair(keyvals []interface{}, fn func(key string, value interface{})) {
	for i := 0; i < len(keyvals); i += 2 {
		if i+1 >= len(keyvals) {
			fn(badKey, keyvals[i])
			return
		}
		fn(fmt.Sprint(keyvals[i]), keyvals[i+1])
	}
}

func appendKeyvals(event *zerolog.Event, keyvals []interface{}) *zerolog.Event {
	forEachPair(keyvals, func(key string, value interface{}) {
		switch v := value.(type) {
		case string:
			event = event.Str(key, v)
		case int:
			event = event.Int(key, v)
		case int32:
			event = event.Int32(key, v)
		case int64:
			event = event.Int64(key, v)
		case float64:
			event = event.Float64(key, v)
		case bool:
			event = event.Bool(key, v)
		case time.Duration:
			event = event.Dur(key, v)
		case time.Time:
			event = event.Time(key, v)
		case error:
			event = event.AnErr(key, v)
		case fmt.Stringer:
			event = event.Str(key, v.String())
		default:
			event = event.Interface(key, v)
		}
	})
	return event
}

// GetTemporalLogAdapter returns a Temporal logger adapter for the given package
func GetTemporalLogAdapter(pkg string) log.Logger {
	return NewTemporalLogAdapter(GetLogger(pkg))
}
