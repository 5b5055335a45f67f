// Package db carries the SQL migrations, embedded so the binary can migrate
// the database without the source tree.
package db

import "embed"

// MigrationsDir is the goose directory inside Migrations.
const MigrationsDir = "migrations"

//go:embed migrations/*.sql
var Migrations embed.FS
