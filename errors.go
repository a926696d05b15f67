package main

import "errors"

// Error taxonomy. Configuration problems are fatal at startup and never
// wrapped in these; everything else is recoverable within a cycle.
var (
	// ErrUpstream marks a failed or malformed Trello response. The board
	// is skipped for the current cycle.
	ErrUpstream = errors.New("trello upstream error")

	// ErrDelivery marks a failed Slack call. The message or slot is
	// skipped for the current cycle.
	ErrDelivery = errors.New("slack delivery error")

	// ErrStateCorrupt marks an unreadable state file. Callers fall back
	// to an empty state instead of crashing.
	ErrStateCorrupt = errors.New("state file corrupt")
)

// CloseWithErrorLog closes a resource and logs the error instead of
// dropping it, for use in defer statements.
func CloseWithErrorLog(closer interface{ Close() error }, resourceName string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		appLogger.Errorf("Error closing %s: %v", resourceName, err)
	}
}
