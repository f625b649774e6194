package service

import (
	"errors"

	"ecodrive-backend/poll"
)

// 业务错误定义. Poll outcomes live in package poll; these cover the request
// shape and the caller.
var (
	ErrUnknownUser     = errors.New("unknown user")
	ErrRegionRequired  = errors.New("select one of your areas to create a poll for that community")
	ErrAreaRequired    = errors.New("area name is required")
	ErrBusy            = errors.New("another request for this poll is in progress, retry")
	ErrInvalidLocation = errors.New("location name and region are required")
)

var reasons = []struct {
	err  error
	code string
}{
	{poll.ErrPollWindowClosed, "poll_window_closed"},
	{poll.ErrDuplicateActivePoll, "duplicate_active_poll"},
	{poll.ErrNoEligibleCandidates, "no_eligible_candidates"},
	{poll.ErrInvalidCandidate, "invalid_candidate"},
	{poll.ErrInvalidTimeSlot, "invalid_time_slot"},
	{poll.ErrPollNotActive, "poll_not_active"},
	{poll.ErrAlreadyVoted, "already_voted"},
	{poll.ErrAlreadyClosed, "already_closed"},
	{poll.ErrNotFound, "not_found"},
	{poll.ErrForbidden, "forbidden"},
	{ErrUnknownUser, "unknown_user"},
	{ErrRegionRequired, "region_required"},
	{ErrAreaRequired, "area_required"},
	{ErrBusy, "busy"},
	{ErrInvalidLocation, "invalid_location"},
}

// Reason returns the machine-readable code of a business error, or "" when
// err is not one
func Reason(err error) string {
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.code
		}
	}
	return ""
}
