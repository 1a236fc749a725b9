// Copyright (C) 2025-2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package database

import (
	"path/filepath"
	"testing"

	"github.com/noldarim/tsbridge/internal/config"

	"github.com/stretchr/testify/require"
)

// DatabaseFixture represents a database setup with cleanup
type DatabaseFixture struct {
	DB      *GormDB
	Cleanup func()
}

// UseFreshDatabase creates a migrated SQLite database in a per-test temp dir.
// Shared-cache :memory: databases leak rows across tests, so a file is used.
func UseFreshDatabase(t *testing.T) *DatabaseFixture {
	t.Helper()
	cfg := &config.DatabaseConfig{
		Driver:   "sqlite",
		Database: filepath.Join(t.TempDir(), "tsbridge-test.db"),
	}

	db, err := NewGormDB(cfg)
	require.NoError(t, err, "Failed to create test database")

	err = db.AutoMigrate()
	require.NoError(t, err, "Failed to run migrations on test database")

	cleanup := func() {
		db.Close()
	}
	t.Cleanup(cleanup)

	return &DatabaseFixture{
		DB:      db,
		Cleanup: cleanup,
	}
}
