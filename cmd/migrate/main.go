// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/noldarim/tsbridge/internal/config"
	"github.com/noldarim/tsbridge/internal/orchestrator/database"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	if !cfg.Database.Enabled {
		fmt.Println("Database is disabled (database.enabled: false), nothing to migrate")
		return
	}

	db, err := database.NewGormDB(&cfg.Database)
	if err != nil {
		fmt.Printf("Error connecting to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// The DSN carries the password; print only what identifies the target.
	fmt.Printf("Migrating interaction audit tables (%s, %s)...\n", cfg.Database.Driver, cfg.Database.Database)

	if err := db.AutoMigrate(); err != nil {
		fmt.Printf("Migration failed: %v\n", err)
		os.Exit(1)
	}

	if err := db.ValidateSchema(); err != nil {
		fmt.Printf("Schema validation failed after migration: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Database is ready to use")
}
