// Package migrations embeds the goose SQL migrations for every supported
// database driver. Each driver has its own directory because the schemas
// differ in column types.
package migrations

import "embed"

// FS holds postgres/*.sql and sqlite/*.sql.
//
//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS
