package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ecodrive-backend/models"
	"ecodrive-backend/priority"
	"ecodrive-backend/repository"
)

// LocationService ranks locations by cleanup priority
type LocationService struct {
	locations repository.LocationRepository
	drives    repository.DriveRepository
	now       func() time.Time
}

func NewLocationService(locations repository.LocationRepository, drives repository.DriveRepository, now func() time.Time) *LocationService {
	if now == nil {
		now = time.Now
	}
	return &LocationService{locations: locations, drives: drives, now: now}
}

// Rank scores the locations of region (every region when empty) against
// their cleanup history and returns at most limit results
func (s *LocationService) Rank(ctx context.Context, region string, limit int) ([]priority.Result, error) {
	const op = "LocationService.Rank"

	locations, err := s.locations.List(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ids := make([]uint, len(locations))
	for i, loc := range locations {
		ids[i] = loc.ID
	}
	lastCleanups, err := s.drives.LastCompleted(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return priority.Rank(locations, priority.Query{Region: region, Limit: limit}, lastCleanups, s.now()), nil
}

// RegionPick names the region holding the top-ranked location
type RegionPick struct {
	Region   string `json:"region"`
	FullName string `json:"full_name"`
}

// HighestPriorityRegion returns the region of the top-ranked location over
// all regions, or nil when there are no locations
func (s *LocationService) HighestPriorityRegion(ctx context.Context) (*RegionPick, error) {
	ranked, err := s.Rank(ctx, "", 1)
	if err != nil {
		return nil, err
	}
	if len(ranked) == 0 {
		return nil, nil
	}
	top := ranked[0].Location
	return &RegionPick{Region: top.Region, FullName: top.Name}, nil
}

func (s *LocationService) List(ctx context.Context, region string) ([]models.Location, error) {
	return s.locations.List(ctx, region)
}

// Create stores a location supplied by the data import
func (s *LocationService) Create(ctx context.Context, loc *models.Location) error {
	loc.Name = strings.TrimSpace(loc.Name)
	loc.Region = strings.TrimSpace(loc.Region)
	if loc.Name == "" || loc.Region == "" {
		return ErrInvalidLocation
	}
	if err := s.locations.Create(ctx, loc); err != nil {
		return fmt.Errorf("LocationService.Create: %w", err)
	}
	return nil
}
