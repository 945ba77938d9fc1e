// Package schema holds postgres schema of the reconciler.
package schema

import _ "embed"

// SQL creates all tables and indexes. It is safe to apply it many times.
//
//go:embed schema.sql
var SQL string
