package models

import "errors"

var (
	// input errors
	ErrInvalidInput = errors.New("invalid input")

	// detection errors
	ErrNoFaceDetected        = errors.New("no face detected")
	ErrMultipleFacesDetected = errors.New("multiple faces detected")
	ErrEmbeddingFailed       = errors.New("embedding extraction failed")
	ErrDetectionFailed       = errors.New("face detection failed")

	// data-integrity errors
	ErrDuplicateName    = errors.New("identity already enrolled")
	ErrDuplicateRegNo   = errors.New("registration number already in use")
	ErrInvalidEmbedding = errors.New("invalid embedding")
	ErrIdentityNotFound = errors.New("identity not found")
	ErrNonMonotonic     = errors.New("timestamp precedes last recorded entry")

	// transient errors, safe to retry
	ErrLockTimeout = errors.New("lock acquisition timed out")
	ErrPersistence = errors.New("snapshot persistence failed")
)
