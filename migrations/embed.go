// Package migrations embeds the versioned schema migrations.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
