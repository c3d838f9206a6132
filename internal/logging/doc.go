// Package logging constructs the shared slog logger and exposes typed
// attribute helpers so pipeline packages do not import log/slog directly.
package logging
