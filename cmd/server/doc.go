// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

/*
Package main is the entry point for the cbbaguard server.

cbbaguard continuously verifies authenticated database-console sessions.
Browsers post batches of keyboard and mouse events; each batch is paired
with the next privileged backend action, scored by an external anomaly
model, and answered with a continue or terminate decision. Terminations
are written to the audit log, raised as alerts, and pushed to DBA
dashboards over WebSocket.

# Application Architecture

	cbbaguard (root)
	├── data-layer
	│   └── session-sweeper       evicts idle session buffers
	├── messaging-layer
	│   ├── websocket-hub         /ws/alerts broadcast
	│   ├── action-feed           privileged-action consumer (ACTION_SOURCE=feed)
	│   └── nats-server           embedded JetStream (NATS_EMBEDDED=true)
	└── api-layer
	    └── http-server           chi router; drains the detection engine after Shutdown

Initialization order:

 1. Configuration: koanf v2 (defaults, config file, environment)
 2. Logging: zerolog, JSON or console
 3. Database: DuckDB audit_logs and alerts tables
 4. Session manager and sweeper
 5. Privileged-action source: synthetic or NATS feed
 6. Scorer client with circuit breaker
 7. WebSocket hub and detection engine with webhook notifier
 8. JWT authentication and Casbin authorization
 9. Supervisor tree and HTTP server

# Configuration

	HTTP_PORT=8080
	LOG_LEVEL=info
	LOG_FORMAT=json
	AUTH_MODE=jwt
	JWT_SECRET=<32+ chars>
	DUCKDB_PATH=/data/cbbaguard.duckdb
	SCORER_URL=http://127.0.0.1:5000
	SCORER_FAILURE_POLICY=fail_closed
	ACTION_SOURCE=synthetic

See config.yaml.example for every setting.

# Build Tags

	go build ./cmd/server               # synthetic action source only
	go build -tags nats ./cmd/server    # adds the NATS action feed

# Signal Handling

SIGINT and SIGTERM cancel the supervisor tree. The HTTP server stops
accepting connections and drains in-flight requests within
SHUTDOWN_TIMEOUT, pending webhook deliveries finish, then the database
is closed.
*/
package main
