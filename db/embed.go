// Package db provides the embedded key-value schema, the static catalog and
// demo review data.
package db

import _ "embed"

// Schema contains the DDL statements for the key-value record table.
//
//go:embed migrations/001_schema.sql
var Schema string

// Catalog is the JSON document holding the product and FAQ tables.
//
//go:embed seed/catalog.json
var Catalog []byte

// Reviews is a JSON array of published demo reviews.
//
//go:embed seed/reviews.json
var Reviews []byte
