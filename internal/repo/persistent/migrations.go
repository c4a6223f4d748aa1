package persistent

import "embed"

// Migrations holds the schema for the postgres-backed stores.
//
//go:embed migrations/*.sql
var Migrations embed.FS

const MigrationsDir = "migrations"
