package api

import "errors"

var (
	// ErrUnavailable marks transport failures and 5xx responses; queued
	// work should be retried later.
	ErrUnavailable = errors.New("server unavailable")
	// ErrUnauthorized marks 401/403 responses; the session must be renewed.
	ErrUnauthorized = errors.New("unauthorized")
)
