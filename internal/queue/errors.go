package queue

import (
	"errors"

	"slidesync/internal/services"
)

// FailureStatus maps a stage error to the queue status the workflow manager
// should persist after the stage fails.
//
// Configuration, validation, and not-found errors park the job for review
// (manual intervention needed); everything else is a retryable failure.
func FailureStatus(err error) Status {
	if errors.Is(err, services.ErrConfiguration) ||
		errors.Is(err, services.ErrValidation) ||
		errors.Is(err, services.ErrNotFound) {
		return StatusReview
	}
	return StatusFailed
}
