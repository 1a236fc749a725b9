// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package services

import (
	"testing"

	"github.com/noldarim/tsbridge/internal/orchestrator/database"
)

// DataServiceFixture represents a data service setup with cleanup
type DataServiceFixture struct {
	Service *DataService
	Cleanup func()
}

// WithDataService creates a data service over a fresh migrated database
func WithDataService(t *testing.T) *DataServiceFixture {
	t.Helper()
	fixture := database.UseFreshDatabase(t)

	return &DataServiceFixture{
		Service: NewDataServiceWithDB(fixture.DB),
		Cleanup: fixture.Cleanup,
	}
}
