package domain

import "errors"

// Domain-level error sentinels.
var (
	// Lookup errors
	ErrSignalNotFound     = errors.New("signal not found")
	ErrLeadNotFound       = errors.New("lead not found")
	ErrDraftNotFound      = errors.New("draft not found")
	ErrTouchpointNotFound = errors.New("touchpoint not found")
	ErrContextDocNotFound = errors.New("context doc not found")

	// Validation errors
	ErrInvalidAngle   = errors.New("invalid angle")
	ErrInvalidChannel = errors.New("invalid channel")
	ErrInvalidVariant = errors.New("invalid variant")
	ErrInvalidStatus  = errors.New("invalid status")
	ErrNameRequired   = errors.New("lead name is required")
	ErrEmptyContent   = errors.New("content is required")

	// Workflow errors
	ErrLeadWithoutSignal = errors.New("lead has no source signal")
	ErrMissingEmail      = errors.New("lead has no email address")
	ErrMissingCompany    = errors.New("lead has no company")
	ErrMissingSubject    = errors.New("email draft has no subject")
	ErrAlreadySent       = errors.New("touchpoint was already sent")
	ErrFollowUpsPaused   = errors.New("follow-ups are paused for this lead")
	ErrRateLimited       = errors.New("email rate limit exceeded")
)
