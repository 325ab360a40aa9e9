// Package migrations embeds the SQL schema so the server can apply it on
// start-up.  Files are applied in lexical order.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
