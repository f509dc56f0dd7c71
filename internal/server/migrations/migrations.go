// Package migrations embeds the goose SQL migrations of the upload ledger.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
