//go:build tools

package tools

// Tool dependencies: the goose CLI for running the migrations under
// internal/adapters/postgres/migrations by hand.
import (
	_ "github.com/pressly/goose/v3/cmd/goose"
)
