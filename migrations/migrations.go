// Package migrations embeds the schema migration files so every build
// carries the schema it expects.
package migrations

import "embed"

//go:embed *.sql
var Files embed.FS
