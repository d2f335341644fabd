package model

import "errors"

// Shared failure taxonomy. Stores and services wrap these; callers match with errors.Is.
var (
	ErrValidation             = errors.New("validation error")
	ErrSubmissionNotFound     = errors.New("submission not found")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrConcurrentModification = errors.New("concurrent modification")
	ErrClassificationDegraded = errors.New("classification degraded")
)
