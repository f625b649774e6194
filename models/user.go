package models

import "gorm.io/gorm"

// User carries the fields poll eligibility depends on. Accounts and
// credentials are managed by the auth service.
type User struct {
	gorm.Model
	Name            string   `gorm:"not null" json:"name"`
	Role            Role     `gorm:"type:varchar(16);default:user" json:"role"`
	Region          string   `json:"region"`
	Area            string   `json:"area"`
	SubscribedAreas []string `gorm:"serializer:json" json:"subscribed_areas"`
}

// CanClosePolls reports whether the user may resolve a poll
func (u *User) CanClosePolls() bool {
	return u.Role == RoleAdmin || u.Role == RoleIncharge
}

// IsAdmin reports whether the user has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
