package models

// TimeSlot is one of the three fixed cleanup time slots
type TimeSlot string

const (
	SlotMorning   TimeSlot = "8-11 AM"
	SlotMidday    TimeSlot = "12-3 PM"
	SlotAfternoon TimeSlot = "4-6 PM"
)

// TimeSlots lists every valid slot in display order. The first entry is the
// default slot of a poll that closes without votes.
func TimeSlots() []TimeSlot {
	return []TimeSlot{SlotMorning, SlotMidday, SlotAfternoon}
}

// Valid reports whether s is one of the fixed slots
func (s TimeSlot) Valid() bool {
	switch s {
	case SlotMorning, SlotMidday, SlotAfternoon:
		return true
	default:
		return false
	}
}

// Tier is the AQI-derived priority label of a location
type Tier string

const (
	TierLow    Tier = "Low"
	TierMedium Tier = "Medium"
	TierHigh   Tier = "High"
)

// Rank orders tiers for alerting, High first.
func (t Tier) Rank() int {
	switch t {
	case TierHigh:
		return 0
	case TierMedium:
		return 1
	default:
		return 2
	}
}

// GarbageLevel is the categorical garbage reading of a location
type GarbageLevel string

const (
	GarbageLow    GarbageLevel = "low"
	GarbageMedium GarbageLevel = "medium"
	GarbageHigh   GarbageLevel = "high"
)

// PollStatus 投票状态
type PollStatus string

const (
	PollStatusActive PollStatus = "active"
	PollStatusClosed PollStatus = "closed"
)

// DriveStatus is the lifecycle state of a cleanup drive
type DriveStatus string

const (
	DriveScheduled DriveStatus = "scheduled"
	DriveCompleted DriveStatus = "completed"
	DriveCancelled DriveStatus = "cancelled"
)

// Role of a user. Incharge and admin users may close polls.
type Role string

const (
	RoleUser     Role = "user"
	RoleIncharge Role = "incharge"
	RoleAdmin    Role = "admin"
)
