// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/cbbaguard/internal/database"
	"github.com/tomtom215/cbbaguard/internal/logging"
	"github.com/tomtom215/cbbaguard/internal/metrics"
)

const maxConflictRetries = 3

// DuckDBStore implements Store using DuckDB for persistent storage.
type DuckDBStore struct {
	db *sql.DB
}

// NewDuckDBStore creates a new DuckDB-backed store.
// Call CreateTables before first use.
func NewDuckDBStore(db *sql.DB) *DuckDBStore {
	return &DuckDBStore{db: db}
}

// CreateTables creates cbba_audit_logs and cbba_alerts if they don't exist.
func (s *DuckDBStore) CreateTables(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS cbba_audit_logs (
			id TEXT PRIMARY KEY,
			timestamp TIMESTAMP NOT NULL,
			username TEXT NOT NULL,
			action TEXT NOT NULL,
			details TEXT NOT NULL,
			ip_address TEXT,
			session_id TEXT
		);

		CREATE TABLE IF NOT EXISTS cbba_alerts (
			id TEXT PRIMARY KEY,
			timestamp TIMESTAMP NOT NULL,
			category TEXT NOT NULL,
			message TEXT NOT NULL,
			severity TEXT NOT NULL,
			status TEXT NOT NULL,
			username TEXT NOT NULL,
			session_id TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_cbba_audit_timestamp ON cbba_audit_logs(timestamp);
		CREATE INDEX IF NOT EXISTS idx_cbba_alerts_status ON cbba_alerts(status);
	`

	for _, stmt := range strings.Split(query, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return &StorageError{Op: OpCreateTables, Err: fmt.Errorf("failed to execute schema statement: %w", err)}
		}
	}

	logging.Info().Msg("CBBA audit and alert tables created/verified")
	return nil
}

// AppendAnomaly inserts the record and the alert in one transaction.
// DuckDB transaction conflicts are retried a bounded number of times.
func (s *DuckDBStore) AppendAnomaly(ctx context.Context, record *Record, alert *Alert) (err error) {
	if record == nil || alert == nil {
		return &StorageError{Op: OpAppendAnomaly, Err: errors.New("record and alert are required")}
	}

	start := time.Now()
	defer func() { metrics.RecordPersistence(OpAppendAnomaly, time.Since(start), err) }()

	for attempt := 1; ; attempt++ {
		err = s.appendAnomalyTx(ctx, record, alert)
		if err == nil {
			return nil
		}
		if !database.IsTransactionConflict(err) || attempt >= maxConflictRetries {
			return &StorageError{Op: OpAppendAnomaly, Err: err}
		}
		logging.Warn().Err(err).Int("attempt", attempt).Msg("Retrying anomaly write after transaction conflict")
	}
}

func (s *DuckDBStore) appendAnomalyTx(ctx context.Context, record *Record, alert *Alert) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO cbba_audit_logs (id, timestamp, username, action, details, ip_address, session_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.Timestamp.UTC(), record.Username, record.Action, record.Details,
		nullString(record.IPAddress), nullString(record.SessionID),
	); err != nil {
		return fmt.Errorf("failed to insert audit record: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO cbba_alerts (id, timestamp, category, message, severity, status, username, session_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		alert.ID, alert.Timestamp.UTC(), alert.Category, alert.Message, alert.Severity, alert.Status,
		alert.Username, alert.SessionID,
	); err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// ListRecords returns the most recent audit records, newest first.
func (s *DuckDBStore) ListRecords(ctx context.Context, limit int) (records []Record, err error) {
	start := time.Now()
	defer func() { metrics.RecordPersistence(OpListRecords, time.Since(start), err) }()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, username, action, details, ip_address, session_id
		FROM cbba_audit_logs
		ORDER BY timestamp DESC, id
		LIMIT ?`, ClampLimit(limit))
	if err != nil {
		return nil, &StorageError{Op: OpListRecords, Err: err}
	}
	defer rows.Close()

	records = []Record{}
	for rows.Next() {
		var r Record
		var ip, sessionID sql.NullString
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.Username, &r.Action, &r.Details, &ip, &sessionID); err != nil {
			return nil, &StorageError{Op: OpListRecords, Err: fmt.Errorf("scan: %w", err)}
		}
		r.IPAddress = ip.String
		r.SessionID = sessionID.String
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: OpListRecords, Err: err}
	}
	return records, nil
}

// ListActiveAlerts returns Active alerts, newest first.
func (s *DuckDBStore) ListActiveAlerts(ctx context.Context, limit int) (alerts []Alert, err error) {
	start := time.Now()
	defer func() { metrics.RecordPersistence(OpListAlerts, time.Since(start), err) }()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, category, message, severity, status, username, session_id
		FROM cbba_alerts
		WHERE status = ?
		ORDER BY timestamp DESC, id
		LIMIT ?`, AlertStatusActive, ClampLimit(limit))
	if err != nil {
		return nil, &StorageError{Op: OpListAlerts, Err: err}
	}
	defer rows.Close()

	alerts = []Alert{}
	for rows.Next() {
		var a Alert
		if err := rows.Scan(&a.ID, &a.Timestamp, &a.Category, &a.Message, &a.Severity, &a.Status, &a.Username, &a.SessionID); err != nil {
			return nil, &StorageError{Op: OpListAlerts, Err: fmt.Errorf("scan: %w", err)}
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: OpListAlerts, Err: err}
	}
	return alerts, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
