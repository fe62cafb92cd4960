// Package apperr defines the error taxonomy shared by the image store:
// validation failures, the two distinguishable not-found kinds, recoverable
// metadata parse failures, and storage I/O failures.
package apperr

import (
	"errors"
	"fmt"
)

// NotFoundKind distinguishes a missing catalog record from a missing blob.
// A record that exists while its blob is gone indicates catalog/blob
// inconsistency, so the two must stay distinguishable in error handling.
type NotFoundKind string

const (
	KindRecord NotFoundKind = "record"
	KindBlob   NotFoundKind = "blob"
)

// ValidationError reports a rejected upload (empty payload or a file that
// fails the DICOM heuristic). Reported to the caller as a client error.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Reason)
}

// Validation creates a new ValidationError
func Validation(reason string) *ValidationError {
	return &ValidationError{Reason: reason}
}

// NotFoundError reports a missing record or blob for a given image ID.
type NotFoundError struct {
	Kind NotFoundKind
	ID   int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found for image %d", e.Kind, e.ID)
}

// NotFound creates a new NotFoundError
func NotFound(kind NotFoundKind, id int64) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}

// MetadataParseError reports malformed caller-supplied metadata. It is
// recovered locally during intake and never surfaced to the caller.
type MetadataParseError struct {
	Err error
}

func (e *MetadataParseError) Error() string {
	return fmt.Sprintf("parse metadata: %v", e.Err)
}

func (e *MetadataParseError) Unwrap() error {
	return e.Err
}

// StorageError reports an underlying blob or catalog I/O failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Storage wraps err as a StorageError for the given operation
func Storage(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is a NotFoundError of any kind
func IsNotFound(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe)
}

// NotFoundKindOf returns the kind of a NotFoundError, or "" if err is not one
func NotFoundKindOf(err error) NotFoundKind {
	var nfe *NotFoundError
	if errors.As(err, &nfe) {
		return nfe.Kind
	}
	return ""
}
