package repository

import "errors"

var (
	// ErrObjectNotFound is returned when an object does not exist in storage.
	ErrObjectNotFound = errors.New("object not found")

	// ErrBucketNotFound is returned when the configured bucket does not exist.
	ErrBucketNotFound = errors.New("bucket not found")

	// ErrInvalidFileID is returned when a remote file id cannot be decoded.
	ErrInvalidFileID = errors.New("invalid file id")
)
