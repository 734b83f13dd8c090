// Package migrations embeds the SQL migrations so the binaries can run them
// without a migrations directory next to them.
package migrations

import "embed"

// FS holds every *.sql migration
//
//go:embed *.sql
var FS embed.FS
