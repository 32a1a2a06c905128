// Package config provides configuration management for execgate.
//
// # Configuration Sources
//
// Configuration is resolved in three layers, later layers winning:
//
//   - built-in defaults
//   - the YAML file $EXECGATE_CONFIG_PATH/execgate.yml (default /etc/execgate)
//   - EXECGATE_* environment variables
//
// The source of every attribute is tracked so `gatectl configuration show`
// can explain where a value came from.
//
// # Key Configuration Options
//
//   - EXECGATE_DATABASE_URL (or DATABASE_URL): PostgreSQL connection string
//   - EXECGATE_EXECUTION_TIMEOUT: executor deadline, e.g. "30s"
//   - EXECGATE_DEFAULT_NUM_TOTAL_REQUIRED: quorum for new connections
//   - EXECGATE_LOG_LEVEL: zerolog level
//   - EXECGATE_AUDIT_ENABLED: toggles the audit trail
package config
