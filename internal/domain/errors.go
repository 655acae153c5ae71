// Package domain defines domain-specific errors.
// These errors represent business logic failures and are independent of infrastructure.
package domain

import (
	"errors"
	"fmt"
)

// Common errors that services can return.
var (
	// ErrStorageUnavailable is returned when the durable catalog storage
	// cannot be opened or queried. The store does not retry internally.
	ErrStorageUnavailable = errors.New("catalog storage unavailable")

	// ErrSongNotFound is returned when a requested song is not in the catalog.
	ErrSongNotFound = errors.New("song not found")

	// ErrInvalidPayload is returned when an acquisition result carries an
	// empty or undersized audio payload.
	ErrInvalidPayload = errors.New("invalid audio payload")

	// ErrNetworkFailure is returned when a backend request fails at the
	// transport level.
	ErrNetworkFailure = errors.New("network failure")

	// ErrAcquisitionTimeout is returned when either the client-side hard
	// timeout or the server-side timeout trips during an acquisition.
	ErrAcquisitionTimeout = errors.New("acquisition timed out")

	// ErrStorageWriteFailure is returned when an acquired payload cannot
	// be written to local media storage.
	ErrStorageWriteFailure = errors.New("media storage write failed")

	// ErrVariantUnavailable is returned when a variant switch targets a
	// stem that is not attached to the current song.
	ErrVariantUnavailable = errors.New("variant not available")

	// ErrUploadFailed is returned when the stem separation upload is rejected.
	ErrUploadFailed = errors.New("stem upload failed")

	// ErrResultNotReady is returned when the stem result is still missing
	// after the retry budget is exhausted.
	ErrResultNotReady = errors.New("stem result not ready")

	// ErrDownloadFailed is returned when fetching a derived stem file fails.
	ErrDownloadFailed = errors.New("stem download failed")

	// ErrEngineFailure is returned when the playback engine rejects a URI
	// or format.
	ErrEngineFailure = errors.New("playback engine failure")

	// ErrInvalidTrackHandle is returned when an invalid track handle is used.
	ErrInvalidTrackHandle = errors.New("invalid track handle")

	// ErrNoTrackLoaded is returned when a transport operation is attempted
	// with no track loaded.
	ErrNoTrackLoaded = errors.New("no track loaded")

	// ErrInvalidPosition is returned when seeking outside [0, duration].
	ErrInvalidPosition = errors.New("invalid playback position")
)

// EngineError wraps a low-level audio engine failure with context.
type EngineError struct {
	Op      string // Operation that failed (e.g. "load", "seek")
	URI     string // Media URI, if applicable
	Message string
	Err     error
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.URI != "" {
		return fmt.Sprintf("audio engine %s failed for %q: %s", e.Op, e.URI, e.Message)
	}
	return fmt.Sprintf("audio engine %s failed: %s", e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *EngineError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrEngineFailure
}

// NewEngineError creates a new EngineError.
func NewEngineError(op, uri, message string, err error) *EngineError {
	return &EngineError{Op: op, URI: uri, Message: message, Err: err}
}

// StoreError wraps a persistence failure with the operation that caused it.
type StoreError struct {
	Op  string // Operation that failed (e.g. "save", "delete")
	Err error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("catalog %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError.
func NewStoreError(op string, err error) *StoreError {
	return &StoreError{Op: op, Err: err}
}

// BackendError is a non-2xx response from the conversion backend. Message
// carries the server's error field when it sent one, otherwise the raw
// body or status line.
type BackendError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *BackendError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}

// Unwrap maps a gateway timeout to the acquisition timeout sentinel so
// callers treat the server-side hard stop and the client deadline alike.
func (e *BackendError) Unwrap() error {
	if e.Status == 504 {
		return ErrAcquisitionTimeout
	}
	return nil
}
