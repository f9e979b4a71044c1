// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

// Package database opens and tunes the embedded DuckDB instance that backs
// the audit trail and the alert table.
//
// The package owns connection lifecycle only: opening the file (creating its
// parent directory when needed), pool configuration, liveness checks and
// shutdown. Schema for each table lives with the store that writes it, see
// internal/audit.
//
// Usage:
//
//	db, err := database.Open(&cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	store := audit.NewDuckDBStore(db.Conn())
//	if err := store.CreateTables(ctx); err != nil {
//	    return err
//	}
package database
