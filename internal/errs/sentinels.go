// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across codec/store/remote layers.
var (
	// ErrRemoteUnavailable indicates a remote call failed at the transport or
	// service level (network error, non-2xx response).
	ErrRemoteUnavailable = errors.New("remote unavailable")

	// ErrUnauthorized indicates the remote rejected the current credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrMalformedRecord indicates the persisted auth record could not be
	// parsed. It never crosses the codec boundary (decode fails soft); it
	// exists for logging and tests.
	ErrMalformedRecord = errors.New("malformed stored auth record")
)
