package repository

import (
	"context"
	"time"

	"ecodrive-backend/models"

	"gorm.io/gorm"
)

// LocationRepository 定义地点数据访问接口
type LocationRepository interface {
	List(ctx context.Context, region string) ([]models.Location, error)
	GetByID(ctx context.Context, id uint) (*models.Location, error)
	FindByName(ctx context.Context, name string) (*models.Location, error)
	Create(ctx context.Context, loc *models.Location) error
	MarkAlerted(ctx context.Context, id uint, at time.Time) error
}

// DriveRepository reads the cleanup history that feeds recency scoring
type DriveRepository interface {
	LastCompleted(ctx context.Context, locationIDs []uint) (map[uint]time.Time, error)
	Create(ctx context.Context, d *models.Drive) error
}

// LocationStore is the gorm implementation of LocationRepository
type LocationStore struct {
	db *gorm.DB
}

func NewLocationStore(db *gorm.DB) *LocationStore {
	return &LocationStore{db: db}
}

// List returns locations ordered by ID, restricted to region when it is set
func (s *LocationStore) List(ctx context.Context, region string) ([]models.Location, error) {
	q := s.db.WithContext(ctx).Order("id ASC")
	if region != "" {
		q = q.Where("region = ?", region)
	}
	var locations []models.Location
	if err := q.Find(&locations).Error; err != nil {
		return nil, err
	}
	return locations, nil
}

func (s *LocationStore) GetByID(ctx context.Context, id uint) (*models.Location, error) {
	var loc models.Location
	if err := s.db.WithContext(ctx).First(&loc, id).Error; err != nil {
		return nil, translate(err)
	}
	return &loc, nil
}

// FindByName returns the oldest location with exactly this name
func (s *LocationStore) FindByName(ctx context.Context, name string) (*models.Location, error) {
	var loc models.Location
	if err := s.db.WithContext(ctx).Where("name = ?", name).Order("id ASC").First(&loc).Error; err != nil {
		return nil, translate(err)
	}
	return &loc, nil
}

func (s *LocationStore) Create(ctx context.Context, loc *models.Location) error {
	return translate(s.db.WithContext(ctx).Create(loc).Error)
}

// MarkAlerted stamps the time of the last area alert
func (s *LocationStore) MarkAlerted(ctx context.Context, id uint, at time.Time) error {
	res := s.db.WithContext(ctx).Model(&models.Location{}).
		Where("id = ?", id).
		Update("last_area_alert_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DriveStore is the gorm implementation of DriveRepository
type DriveStore struct {
	db *gorm.DB
}

func NewDriveStore(db *gorm.DB) *DriveStore {
	return &DriveStore{db: db}
}

// LastCompleted returns the date of the most recent completed drive per
// location. Locations never cleaned are absent from the map.
func (s *DriveStore) LastCompleted(ctx context.Context, locationIDs []uint) (map[uint]time.Time, error) {
	last := make(map[uint]time.Time, len(locationIDs))
	if len(locationIDs) == 0 {
		return last, nil
	}

	var drives []models.Drive
	err := s.db.WithContext(ctx).
		Select("location_id", "date").
		Where("status = ? AND location_id IN ?", models.DriveCompleted, locationIDs).
		Find(&drives).Error
	if err != nil {
		return nil, err
	}

	// 在Go中比较时间, sqlite stores them as text
	for _, d := range drives {
		if cur, ok := last[d.LocationID]; !ok || d.Date.After(cur) {
			last[d.LocationID] = d.Date
		}
	}
	return last, nil
}

func (s *DriveStore) Create(ctx context.Context, d *models.Drive) error {
	return translate(s.db.WithContext(ctx).Create(d).Error)
}
