// factlog is the command-line interface for the factlog fact store library.
//
// Usage:
//
//	factlog <command> [flags]
//
// Commands:
//
//	init        Initialize a new factlog project
//	migrate     Create the fact log schema
//	append      Record a fact in the log
//	entity      Reconstruct an entity from its facts
//	log         Inspect the fact log
//	schema      Generate and manage database schema
//	diagnose    Run diagnostic checks on your setup
//	version     Show version information
//
// Examples:
//
//	# Initialize a new project
//	factlog init my-project
//
//	# Record a fact
//	factlog append user-1 status '"active"'
//
//	# Reconstruct an entity as of a point in time
//	factlog entity user-1 --as-of 2026-01-15T10:00:00Z
//
//	# Run diagnostics
//	factlog diagnose
package main

import (
	"os"

	"github.com/factlog/factlog/cli/commands"

	// Register PostgreSQL driver
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Build information (set via ldflags)
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Set version info
	commands.Version = version
	commands.Commit = commit
	commands.BuildDate = buildDate

	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
