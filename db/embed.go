// Package db provides the embedded schema for the persistent backend.
package db

import _ "embed"

// Schema contains idempotent DDL for every table the services use.
//
//go:embed migrations/001_schema.sql
var Schema string
