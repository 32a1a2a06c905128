// Command gatectl administers an execgate installation.
//
// Execution requests are statements submitted against a configured database
// connection. They collect reviews and comments in an append-only event log
// and run only once the connection's review quorum approves them.
//
// # Quick Start
//
//	# Create the schema
//	gatectl db migrate
//
//	# Register a connection and load roles
//	gatectl connection add prod --display-name "Production" --credentials-ref env:PROD_DSN --num-required 2
//	gatectl policy load roles.yml
//
//	# Inspect and run requests as a principal
//	gatectl request list --as alice
//	gatectl request show <id> --as alice
//	gatectl request execute <id> --as alice
//
// # Environment Variables
//
//   - EXECGATE_DATABASE_URL or DATABASE_URL: PostgreSQL connection string
//   - EXECGATE_CONFIG_PATH: directory holding execgate.yml
//   - EXECGATE_LOG_LEVEL: log level (debug, info, warn, error)
//   - EXECGATE_AUDIT_ENABLED: disable the audit trail with false
//   - AUDIT_DATABASE_URL: optional database receiving audit messages
package main
