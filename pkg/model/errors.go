package model

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors shared across package boundaries. Callers match them
// with errors.Is after goerr wrapping.
var (
	// ErrSessionExists is returned when a session is created twice with the
	// same identifier while the first instance is still registered.
	ErrSessionExists = goerr.New("session already exists")

	// ErrSessionNotFound is returned on lookup of an unknown session, either
	// in the local registry or in the remote memory store.
	ErrSessionNotFound = goerr.New("session not found")

	// ErrUserNotFound is returned by the memory store for an unknown user.
	ErrUserNotFound = goerr.New("user not found")

	// ErrNotInitialized is returned when a memory operation is attempted
	// before the manager has been initialized.
	ErrNotInitialized = goerr.New("memory manager not initialized")

	// ErrStoreUnavailable means no credential is configured for the remote
	// memory store. It signals "memory disabled", not a crash.
	ErrStoreUnavailable = goerr.New("memory store not configured")
)
