// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

package models

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is; the typed errors below carry details.
var (
	// ErrUpstreamUnavailable: transport failure or timeout talking to an upstream.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrUpstreamRejected: the upstream answered, but with a non-success status
	// or a body that could not be decoded. Not retried.
	ErrUpstreamRejected = errors.New("upstream rejected request")

	// ErrValidation: malformed input to the pipeline.
	ErrValidation = errors.New("validation failed")

	// ErrPersistence: a history read or write failed.
	ErrPersistence = errors.New("persistence failure")
)

// UpstreamError describes a failed call to an external service.
// StatusCode is zero when no response was received.
type UpstreamError struct {
	Service    string
	StatusCode int
	Body       string
	Err        error
}

// NewUnavailableError wraps a transport-level failure.
func NewUnavailableError(service string, err error) *UpstreamError {
	return &UpstreamError{Service: service, Err: err}
}

// NewRejectedError records a received non-success response.
func NewRejectedError(service string, statusCode int, body string, err error) *UpstreamError {
	return &UpstreamError{Service: service, StatusCode: statusCode, Body: body, Err: err}
}

func (e *UpstreamError) Error() string {
	switch {
	case e.StatusCode > 0 && e.Err != nil:
		return fmt.Sprintf("%s returned status %d: %v", e.Service, e.StatusCode, e.Err)
	case e.StatusCode > 0:
		return fmt.Sprintf("%s returned status %d", e.Service, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s unavailable: %v", e.Service, e.Err)
	default:
		return e.Service + " unavailable"
	}
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Is matches ErrUpstreamRejected when a response was received and
// ErrUpstreamUnavailable otherwise.
func (e *UpstreamError) Is(target error) bool {
	switch target {
	case ErrUpstreamRejected:
		return e.Rejected()
	case ErrUpstreamUnavailable:
		return !e.Rejected()
	}
	return false
}

// Rejected reports whether the upstream actually answered.
func (e *UpstreamError) Rejected() bool {
	return e.StatusCode > 0
}

// ValidationError is returned synchronously for malformed input.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// PersistenceError wraps a storage failure with the operation name.
type PersistenceError struct {
	Op  string
	Err error
}

// NewPersistenceError wraps err for op.
func NewPersistenceError(op string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Err: err}
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}
