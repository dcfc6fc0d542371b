package errors

import "errors"

var (
	ErrProjectNotFound        = errors.New("project not found")
	ErrInvalidProjectRequest  = errors.New("invalid project request")
	ErrNotProjectOwner        = errors.New("caller does not own this project")
	ErrNotApprovedYet         = errors.New("project is not approved yet")
	ErrNothingToModerate      = errors.New("project has nothing awaiting moderation")
	ErrModerationConflict     = errors.New("project changed since it was read")
	ErrInvalidChangeSet       = errors.New("change set is empty or names unknown fields")
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	ErrIdempotencyConflict    = errors.New("idempotency key reused with a different payload")
)
