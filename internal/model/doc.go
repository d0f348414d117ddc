// Package model defines the domain types and value objects for the
// guidsearch CLI.
//
// This package contains pure data structures with no external dependencies.
// All entities (Stage, StageResult, RunReport) are transient, process-
// lifetime-scoped values — nothing is persisted between runs.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
