// Package migrations embeds the goose SQL migrations for both supported
// store dialects.
package migrations

import "embed"

//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS
