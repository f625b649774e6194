package poll

import "errors"

// Business outcomes of poll operations. None of them are faults; callers map
// them to user-readable responses.
var (
	ErrPollWindowClosed     = errors.New("poll window (Mon-Fri) has ended for this week")
	ErrDuplicateActivePoll  = errors.New("an active poll already exists for this region this week")
	ErrNoEligibleCandidates = errors.New("no high-priority locations found for this region")
	ErrInvalidCandidate     = errors.New("invalid area option")
	ErrInvalidTimeSlot      = errors.New("time slot must be one of 8-11 AM, 12-3 PM, 4-6 PM")
	ErrPollNotActive        = errors.New("poll is closed")
	ErrAlreadyVoted         = errors.New("you have already voted")
	ErrAlreadyClosed        = errors.New("poll is already closed")
	ErrNotFound             = errors.New("not found")
	ErrForbidden            = errors.New("forbidden")
)
