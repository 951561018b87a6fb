package models

import "errors"

var (
	// ErrNotFound - referenced video or job does not exist
	ErrNotFound = errors.New("record not found")

	// ErrInvalidTransition - attempted an illegal job status change
	// (e.g. retry on a job that is not failed)
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrActiveJobExists - the video already has a queued or processing job
	ErrActiveJobExists = errors.New("video already has an active job")
)
