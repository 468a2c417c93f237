package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrConfigMissing indicates display-tier credentials are absent.
	// User-actionable: run setup, not a runtime failure.
	ErrConfigMissing = errors.New("cloud name and upload preset are not configured")

	// ErrSecretMissing indicates the API key/secret pair is absent for an
	// operation that requires it. Distinct from ErrConfigMissing because
	// the remediation differs.
	ErrSecretMissing = errors.New("api key and secret are not configured")

	// ErrUnauthorized indicates the gateway rejected the API credentials
	ErrUnauthorized = errors.New("api credentials were rejected")

	// ErrGatewayOffline indicates the media gateway is unreachable
	ErrGatewayOffline = errors.New("media gateway is unreachable")
)

// PersistenceError reports a failed local storage write. Reads never produce
// one; read failures degrade to absence.
type PersistenceError struct {
	Op  string // operation that failed, e.g. "save display credentials"
	Err error
}

func (e *PersistenceError) Error() string {
	return "persistence: " + e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }
