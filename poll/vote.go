package poll

import (
	"strings"
	"time"

	"ecodrive-backend/models"
)

// Ballot is a vote about to be cast
type Ballot struct {
	VoterID  uint
	AreaName string
	TimeSlot models.TimeSlot
}

// Normalize trims surrounding whitespace from the area name
func (b Ballot) Normalize() Ballot {
	b.AreaName = strings.TrimSpace(b.AreaName)
	return b
}

// ValidateTimeSlot rejects any slot outside the fixed three
func ValidateTimeSlot(slot models.TimeSlot) error {
	if !slot.Valid() {
		return ErrInvalidTimeSlot
	}
	return nil
}

// CheckOpen rejects votes on a closed poll or after its window ended
func CheckOpen(p *models.Poll, now time.Time) error {
	if p.Status != models.PollStatusActive {
		return ErrPollNotActive
	}
	if now.After(p.WindowEnd) {
		return ErrPollWindowClosed
	}
	return nil
}

// ValidateBallot checks a ballot against a loaded poll: the area must be one
// of the candidates and the voter must not have voted yet. The poll must be
// open; see CheckOpen.
func ValidateBallot(p *models.Poll, b Ballot) error {
	if err := ValidateTimeSlot(b.TimeSlot); err != nil {
		return err
	}
	valid := false
	for _, name := range p.CandidateNames() {
		if name == b.AreaName {
			valid = true
			break
		}
	}
	if !valid {
		return ErrInvalidCandidate
	}
	for _, v := range p.Votes {
		if v.VoterID == b.VoterID {
			return ErrAlreadyVoted
		}
	}
	return nil
}
