// Package logging defines the structured-logging interface used by the vault
// engine and its command line front end, and an slog-backed implementation.
//
// Log lines never carry passwords, keys, hashes or decrypted values. Callers
// log identifiers (entry ids, file paths, counts) and error text only.
package logging

import "context"

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key-value pairs, e.g.:
//
//	log.Info(ctx, "vault unlocked", "session", id)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key-value pairs.
	With(args ...any) Logger
}
