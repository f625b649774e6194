package models

import (
	"time"

	"gorm.io/gorm"
)

// Location is a physical area eligible for cleanup. Records are maintained by
// the data import and are read-only to ranking and polling.
type Location struct {
	gorm.Model
	Name            string       `gorm:"not null;index" json:"name" binding:"required"`
	Area            string       `json:"area"`
	Region          string       `gorm:"not null;index" json:"region" binding:"required"`
	Lat             *float64     `json:"lat,omitempty"`
	Lng             *float64     `json:"lng,omitempty"`
	AQI             *float64     `json:"aqi"` // nil when no reading exists
	GarbageLevel    GarbageLevel `gorm:"type:varchar(16)" json:"garbage_level" binding:"omitempty,oneof=low medium high"`
	PlantCount      int          `gorm:"default:0" json:"plant_count" binding:"min=0"`
	HasPond         bool         `gorm:"default:false" json:"has_pond"`
	LastCleanupAt   *time.Time   `json:"last_cleanup_at,omitempty"`
	LastAreaAlertAt *time.Time   `json:"last_area_alert_at,omitempty"`
}

// Drive is a scheduled or finished cleanup drive at a location. Completed
// drives feed the recency part of the priority score.
type Drive struct {
	gorm.Model
	LocationID uint        `gorm:"not null;index" json:"location_id"`
	Region     string      `gorm:"not null" json:"region"`
	Date       time.Time   `gorm:"not null" json:"date"`
	TimeSlot   TimeSlot    `gorm:"type:varchar(16)" json:"time_slot"`
	Status     DriveStatus `gorm:"type:varchar(16);default:scheduled;index" json:"status"`
}
