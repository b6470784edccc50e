package bridge

import "errors"

var (
	// ErrValidation: missing or malformed caller input (4xx).
	ErrValidation = errors.New("validation failed")
	// ErrAuth: bad shared secret (401).
	ErrAuth = errors.New("unauthorized")
	// ErrProvider: the invite issuer call failed or returned no link.
	ErrProvider = errors.New("invite provider failed")
	// ErrStore: a durable-state operation failed.
	ErrStore = errors.New("store operation failed")
	// ErrEmission: event delivery failed. Only ever logged.
	ErrEmission = errors.New("event emission failed")
)
