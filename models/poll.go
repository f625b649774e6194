package models

import (
	"time"

	"gorm.io/gorm"
)

// DefaultPollTitle is used for every generated poll
const DefaultPollTitle = "Next weekend drive"

// Poll represents one region's weekly location-selection vote
type Poll struct {
	gorm.Model
	Title       string     `gorm:"not null" json:"title"`
	Region      string     `gorm:"not null;index:idx_poll_region_status" json:"region"`
	Areas       []PollArea `gorm:"foreignKey:PollID" json:"areas"`
	Status      PollStatus `gorm:"type:varchar(16);not null;default:active;index:idx_poll_region_status" json:"status"`
	WindowStart time.Time  `gorm:"not null" json:"window_start"`
	WindowEnd   time.Time  `gorm:"not null" json:"window_end"`
	Votes       []PollVote `gorm:"foreignKey:PollID" json:"-"`
	CreatedBy   string     `gorm:"default:ai" json:"created_by"`

	// Resolution fields are set together when the poll closes
	SelectedArea     *string    `json:"selected_area"`
	SelectedTimeSlot *TimeSlot  `gorm:"type:varchar(16)" json:"selected_time_slot"`
	Confidence       *float64   `json:"confidence"`
	ClosedAt         *time.Time `json:"closed_at"`
	ClosedBy         *string    `json:"closed_by,omitempty"`

	// ActiveKey is region|week-start while the poll is active and NULL once
	// closed; the unique index keeps one active poll per region and week.
	ActiveKey *string `gorm:"type:varchar(191);uniqueIndex" json:"-"`
}

// PollArea is one candidate location offered by a poll
type PollArea struct {
	gorm.Model
	PollID     uint   `gorm:"not null;index" json:"-"`
	LocationID uint   `json:"location_id"`
	Name       string `gorm:"not null" json:"name"`
	Position   int    `gorm:"not null" json:"-"` // candidate order, drives tie-breaks
}

// PollVote is one voter's ballot. A voter casts at most one per poll.
type PollVote struct {
	gorm.Model
	PollID   uint     `gorm:"not null;uniqueIndex:idx_poll_voter" json:"-"`
	VoterID  uint     `gorm:"not null;uniqueIndex:idx_poll_voter" json:"voter_id"`
	AreaName string   `gorm:"not null" json:"area_name"`
	TimeSlot TimeSlot `gorm:"type:varchar(16);not null" json:"time_slot"`
}

// ActiveKeyFor builds the uniqueness key of an active poll
func ActiveKeyFor(region string, windowStart time.Time) string {
	return region + "|" + windowStart.Format("2006-01-02")
}

// CandidateNames returns the candidate names in candidate order
func (p *Poll) CandidateNames() []string {
	names := make([]string, len(p.Areas))
	for i, a := range p.Areas {
		names[i] = a.Name
	}
	return names
}

// IsClosed reports whether the poll has been resolved
func (p *Poll) IsClosed() bool {
	return p.Status == PollStatusClosed
}
