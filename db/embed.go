// Package db holds the schema migrations applied by gatectl db migrate.
package db

import "embed"

//go:embed migrations
var Migrations embed.FS
