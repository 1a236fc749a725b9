// Copyright (C) 2025-2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package logger

import (
	"github.com/rs/zerolog"
)

// Static logger getters that map directly to config.yaml log.levels
// These ensure consistent logger names across the codebase

// GetInteractionLogger returns a logger for token handling and dispatch
func GetInteractionLogger() zerolog.Logger {
	return GetLogger("interaction")
}

// GetTemporalLogger returns a logger for Temporal components
func GetTemporalLogger() zerolog.Logger {
	return GetLogger("temporal")
}

// GetSlackLogger returns a logger for the Slack surface
func GetSlackLogger() zerolog.Logger {
	return GetLogger("slack")
}

// GetDatabaseLogger returns a logger for database operations
func GetDatabaseLogger() zerolog.Logger {
	return GetLogger("database")
}

// GetAPILogger returns a logger for API operations
func GetAPILogger() zerolog.Logger {
	return GetLogger("api")
}

// GetCLILogger returns a logger for tsbridgectl
func GetCLILogger() zerolog.Logger {
	return GetLogger("cli")
}
