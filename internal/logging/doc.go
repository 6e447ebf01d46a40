// Package logging configures structured slog logging for amansearch.
//
// By default the CLI logs warnings and errors to stderr only. With --debug,
// JSON logs are also written to ~/.amansearch/logs/amansearch.log with
// size-based rotation.
package logging
