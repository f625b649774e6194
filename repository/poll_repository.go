package repository

import (
	"context"
	"errors"
	"time"

	"ecodrive-backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PollRepository 定义投票数据访问接口
type PollRepository interface {
	// 投票活动相关方法
	Create(ctx context.Context, p *models.Poll) error
	GetByID(ctx context.Context, id uint) (*models.Poll, error)
	ListActive(ctx context.Context, regions []string) ([]models.Poll, error)
	LatestClosed(ctx context.Context, regions []string) (*models.Poll, error)
	Close(ctx context.Context, id uint, resolve Resolver) error

	// 投票记录相关方法
	AddVote(ctx context.Context, v *models.PollVote) error
}

// Closure holds the resolution written when a poll closes
type Closure struct {
	SelectedArea     *string
	SelectedTimeSlot models.TimeSlot
	Confidence       float64
	ClosedAt         time.Time
	ClosedBy         string
}

// Resolver decides the closure of a locked poll loaded with its candidates
// and every vote
type Resolver func(p *models.Poll) (Closure, error)

// PollStore is the gorm implementation of PollRepository
type PollStore struct {
	db *gorm.DB
}

func NewPollStore(db *gorm.DB) *PollStore {
	return &PollStore{db: db}
}

func withCandidates(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Areas", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Votes", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") })
}

// Create inserts the poll with its candidate areas. A second active poll for
// the same region and week violates the active key index and yields
// ErrDuplicate.
func (s *PollStore) Create(ctx context.Context, p *models.Poll) error {
	return translate(s.db.WithContext(ctx).Create(p).Error)
}

// GetByID loads a poll with candidates in order and every vote
func (s *PollStore) GetByID(ctx context.Context, id uint) (*models.Poll, error) {
	var p models.Poll
	if err := withCandidates(s.db.WithContext(ctx)).First(&p, id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// ListActive returns active polls, newest first. A nil regions slice lists
// every region; an empty one lists none.
func (s *PollStore) ListActive(ctx context.Context, regions []string) ([]models.Poll, error) {
	if regions != nil && len(regions) == 0 {
		return nil, nil
	}
	q := withCandidates(s.db.WithContext(ctx)).
		Where("status = ?", models.PollStatusActive).
		Order("created_at DESC, id DESC")
	if regions != nil {
		q = q.Where("region IN ?", regions)
	}
	var polls []models.Poll
	if err := q.Find(&polls).Error; err != nil {
		return nil, err
	}
	return polls, nil
}

// LatestClosed returns the most recently closed poll in regions that
// selected an area
func (s *PollStore) LatestClosed(ctx context.Context, regions []string) (*models.Poll, error) {
	if len(regions) == 0 {
		return nil, ErrNotFound
	}
	var p models.Poll
	err := s.db.WithContext(ctx).
		Preload("Areas", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("status = ? AND selected_area IS NOT NULL AND region IN ?", models.PollStatusClosed, regions).
		Order("closed_at DESC, id DESC").
		First(&p).Error
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// Close resolves an active poll. The poll row is locked for the whole
// transaction, so the votes handed to resolve are exactly the votes the
// closure is stored against. A poll that is no longer active is left
// untouched and ErrConflict is returned without calling resolve.
func (s *PollStore) Close(ctx context.Context, id uint, resolve Resolver) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := lockPoll(tx, id)
		if err != nil {
			return err
		}
		if p.Status != models.PollStatusActive {
			return ErrConflict
		}
		if err := tx.Where("poll_id = ?", id).Order("position ASC").Find(&p.Areas).Error; err != nil {
			return err
		}
		if err := tx.Where("poll_id = ?", id).Order("id ASC").Find(&p.Votes).Error; err != nil {
			return err
		}

		c, err := resolve(p)
		if err != nil {
			return err
		}
		res := tx.Model(&models.Poll{}).
			Where("id = ? AND status = ?", id, models.PollStatusActive).
			Updates(map[string]interface{}{
				"status":             models.PollStatusClosed,
				"selected_area":      c.SelectedArea,
				"selected_time_slot": c.SelectedTimeSlot,
				"confidence":         c.Confidence,
				"closed_at":          c.ClosedAt,
				"closed_by":          c.ClosedBy,
				"active_key":         gorm.Expr("NULL"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}
		return nil
	})
}

// lockPoll reads the poll row with a row lock (SELECT ... FOR UPDATE).
// SQLite has no row locks; its single writer serializes the transaction.
func lockPoll(tx *gorm.DB, id uint) (*models.Poll, error) {
	var p models.Poll
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// AddVote appends a vote while the poll is still active. It takes the same
// row lock as Close, so a vote either commits before a close reads the votes
// or sees the poll closed. A repeat voter is rejected by the (poll, voter)
// unique index with ErrDuplicate; a missing or closed poll yields ErrConflict.
func (s *PollStore) AddVote(ctx context.Context, v *models.PollVote) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := lockPoll(tx, v.PollID)
		if errors.Is(err, ErrNotFound) {
			return ErrConflict
		}
		if err != nil {
			return err
		}
		if p.Status != models.PollStatusActive {
			return ErrConflict
		}
		return translate(tx.Create(v).Error)
	})
}
