package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"ecodrive-backend/cache"
	"ecodrive-backend/metrics"
	"ecodrive-backend/models"
	"ecodrive-backend/mq"
	"ecodrive-backend/poll"
	"ecodrive-backend/repository"
)

const (
	// lockExpiry bounds how long a crashed holder can block a poll
	lockExpiry = 5 * time.Second

	// SystemCloser is recorded as closer when the sweep resolves a poll
	SystemCloser = "system"
)

// PollService 投票服务: generation, voting and resolution of weekly polls
type PollService struct {
	access
	polls   repository.PollRepository
	ranker  *LocationService
	locker  cache.Locker
	broker  mq.Broker
	metrics *metrics.Metrics
	log     *slog.Logger
	now     func() time.Time
}

// PollServiceConfig wires a PollService. Locker, Broker, Metrics and Now are
// optional.
type PollServiceConfig struct {
	Polls     repository.PollRepository
	Users     repository.UserRepository
	Locations repository.LocationRepository
	Ranker    *LocationService
	Locker    cache.Locker
	Broker    mq.Broker
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	Now       func() time.Time
}

// NewPollService 创建投票服务
func NewPollService(cfg PollServiceConfig) *PollService {
	s := &PollService{
		access:  access{users: cfg.Users, locations: cfg.Locations},
		polls:   cfg.Polls,
		ranker:  cfg.Ranker,
		locker:  cfg.Locker,
		broker:  cfg.Broker,
		metrics: cfg.Metrics,
		log:     cfg.Logger,
		now:     cfg.Now,
	}
	if s.locker == nil {
		s.locker = cache.NewLocalLocker()
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// MyVote is the caller's own ballot
type MyVote struct {
	AreaName string          `json:"area_name"`
	TimeSlot models.TimeSlot `json:"time_slot"`
}

// PollView is a poll snapshot with live tallies
type PollView struct {
	ID               uint              `json:"id"`
	Title            string            `json:"title"`
	Region           string            `json:"region"`
	Areas            []models.PollArea `json:"areas"`
	TimeSlots        []models.TimeSlot `json:"time_slots"`
	Status           models.PollStatus `json:"status"`
	WindowStart      time.Time         `json:"window_start"`
	WindowEnd        time.Time         `json:"window_end"`
	VoteCounts       poll.Counts       `json:"vote_counts"`
	VoteCountsByTime poll.Counts       `json:"vote_counts_by_time"`
	MyVote           *MyVote           `json:"my_vote"`
	SelectedArea     *string           `json:"selected_area"`
	SelectedTimeSlot *models.TimeSlot  `json:"selected_time_slot"`
	Confidence       *float64          `json:"confidence"`
	ClosedAt         *time.Time        `json:"closed_at"`
	CreatedAt        time.Time         `json:"created_at"`
}

func newPollView(p *models.Poll, voterID uint) *PollView {
	t := poll.TallyPoll(p)
	v := &PollView{
		ID:               p.ID,
		Title:            p.Title,
		Region:           p.Region,
		Areas:            p.Areas,
		TimeSlots:        models.TimeSlots(),
		Status:           p.Status,
		WindowStart:      p.WindowStart,
		WindowEnd:        p.WindowEnd,
		VoteCounts:       t.Areas,
		VoteCountsByTime: t.TimeSlots,
		MyVote:           findVote(p, voterID),
		SelectedArea:     p.SelectedArea,
		SelectedTimeSlot: p.SelectedTimeSlot,
		Confidence:       p.Confidence,
		ClosedAt:         p.ClosedAt,
		CreatedAt:        p.CreatedAt,
	}
	if v.Areas == nil {
		v.Areas = []models.PollArea{}
	}
	return v
}

func findVote(p *models.Poll, voterID uint) *MyVote {
	for _, v := range p.Votes {
		if v.VoterID == voterID {
			return &MyVote{AreaName: v.AreaName, TimeSlot: v.TimeSlot}
		}
	}
	return nil
}

// Generate creates this week's poll for a region from its highest-priority
// locations. region may also name a location, in which case the poll is
// created for that location's region.
func (s *PollService) Generate(ctx context.Context, userID uint, region string) (*PollView, error) {
	const op = "PollService.Generate"

	requested := strings.TrimSpace(region)
	if requested == "" {
		return nil, ErrRegionRequired
	}
	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, s.reject(op, err)
	}
	if !user.IsAdmin() && !contains(MyAreas(user), requested) {
		return nil, s.reject(op, poll.ErrForbidden)
	}

	region = requested
	loc, err := s.locations.FindByName(ctx, requested)
	switch {
	case err == nil:
		region = loc.Region
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	window := poll.CurrentWindow(now)
	if window.Ended(now) {
		return nil, s.reject(op, poll.ErrPollWindowClosed)
	}

	var created *models.Poll
	err = s.withLock(ctx, "poll:generate:"+region, func() error {
		active, err := s.polls.ListActive(ctx, []string{region})
		if err != nil {
			return err
		}
		for _, p := range active {
			if !p.WindowEnd.Before(now) {
				return poll.ErrDuplicateActivePoll
			}
		}

		ranked, err := s.ranker.Rank(ctx, region, poll.RankLimit())
		if err != nil {
			return err
		}
		areas := poll.SelectCandidates(ranked)
		if len(areas) == 0 {
			return poll.ErrNoEligibleCandidates
		}

		key := models.ActiveKeyFor(region, window.Start)
		p := &models.Poll{
			Title:       models.DefaultPollTitle,
			Region:      region,
			Areas:       areas,
			Status:      models.PollStatusActive,
			WindowStart: window.Start,
			WindowEnd:   window.End,
			CreatedBy:   "ai",
			ActiveKey:   &key,
		}
		if err := s.polls.Create(ctx, p); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return poll.ErrDuplicateActivePoll
			}
			return err
		}
		created = p
		return nil
	})
	if err != nil {
		return nil, s.reject(op, err)
	}

	s.metrics.PollGenerated()
	s.log.Info("poll generated", "poll_id", created.ID, "region", region, "candidates", created.CandidateNames())
	s.publish(ctx, mq.EventPollCreated, created, newPollView(created, 0))
	return newPollView(created, userID), nil
}

// VoteResult is returned after a vote is accepted
type VoteResult struct {
	VoteCounts       poll.Counts `json:"vote_counts"`
	VoteCountsByTime poll.Counts `json:"vote_counts_by_time"`
	MyVote           MyVote      `json:"my_vote"`
}

// CastVote records one voter's choice of area and time slot
func (s *PollService) CastVote(ctx context.Context, userID, pollID uint, areaName string, slot models.TimeSlot) (*VoteResult, error) {
	const op = "PollService.CastVote"

	ballot := poll.Ballot{VoterID: userID, AreaName: areaName, TimeSlot: slot}.Normalize()
	if ballot.AreaName == "" {
		return nil, ErrAreaRequired
	}
	if err := poll.ValidateTimeSlot(ballot.TimeSlot); err != nil {
		return nil, s.reject(op, err)
	}

	p, err := s.loadPoll(ctx, pollID)
	if err != nil {
		return nil, s.reject(op, err)
	}
	if err := poll.CheckOpen(p, s.now()); err != nil {
		return nil, s.reject(op, err)
	}

	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, s.reject(op, err)
	}
	regions, err := s.regions(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !contains(regions, p.Region) {
		return nil, s.reject(op, poll.ErrForbidden)
	}

	lockName := fmt.Sprintf("poll:vote:%d:%d", pollID, userID)
	err = s.withLock(ctx, lockName, func() error {
		if err := poll.ValidateBallot(p, ballot); err != nil {
			return err
		}
		err := s.polls.AddVote(ctx, &models.PollVote{
			PollID:   p.ID,
			VoterID:  ballot.VoterID,
			AreaName: ballot.AreaName,
			TimeSlot: ballot.TimeSlot,
		})
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return poll.ErrAlreadyVoted
		case errors.Is(err, repository.ErrConflict):
			return poll.ErrPollNotActive
		}
		return err
	})
	if err != nil {
		return nil, s.reject(op, err)
	}
	s.metrics.VoteCast()

	// reload so the tally includes concurrent voters
	if fresh, err := s.polls.GetByID(ctx, pollID); err == nil {
		p = fresh
	} else {
		p.Votes = append(p.Votes, models.PollVote{PollID: p.ID, VoterID: ballot.VoterID, AreaName: ballot.AreaName, TimeSlot: ballot.TimeSlot})
	}
	t := poll.TallyPoll(p)
	s.publish(ctx, mq.EventPollTally, p, t)

	return &VoteResult{
		VoteCounts:       t.Areas,
		VoteCountsByTime: t.TimeSlots,
		MyVote:           MyVote{AreaName: ballot.AreaName, TimeSlot: ballot.TimeSlot},
	}, nil
}

// CloseResult is the resolution of a poll together with its final tally
type CloseResult struct {
	ID               uint              `json:"id"`
	Status           models.PollStatus `json:"status"`
	SelectedArea     *string           `json:"selected_area"`
	SelectedTimeSlot models.TimeSlot   `json:"selected_time_slot"`
	Confidence       float64           `json:"confidence"`
	ClosedAt         time.Time         `json:"closed_at"`
	VoteCounts       poll.Counts       `json:"vote_counts"`
	VoteCountsByTime poll.Counts       `json:"vote_counts_by_time"`
}

// Close resolves a poll on behalf of an incharge or admin user
func (s *PollService) Close(ctx context.Context, userID, pollID uint) (*CloseResult, error) {
	const op = "PollService.Close"

	p, err := s.loadPoll(ctx, pollID)
	if err != nil {
		return nil, s.reject(op, err)
	}
	if p.IsClosed() {
		return nil, s.reject(op, poll.ErrAlreadyClosed)
	}
	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, s.reject(op, err)
	}
	if !user.CanClosePolls() {
		return nil, s.reject(op, poll.ErrForbidden)
	}

	res, err := s.resolve(ctx, p, strconv.FormatUint(uint64(userID), 10))
	if err != nil {
		return nil, s.reject(op, err)
	}
	return res, nil
}

// resolve tallies the poll, picks the winners and closes it. The tally runs
// on the votes read under the close's row lock, never on p's copy.
func (s *PollService) resolve(ctx context.Context, p *models.Poll, closedBy string) (*CloseResult, error) {
	var (
		t poll.Tally
		r poll.Resolution
	)
	closedAt := s.now().UTC()

	err := s.polls.Close(ctx, p.ID, func(locked *models.Poll) (repository.Closure, error) {
		t = poll.TallyPoll(locked)
		r = poll.Resolve(t)
		return repository.Closure{
			SelectedArea:     r.SelectedArea,
			SelectedTimeSlot: r.SelectedTimeSlot,
			Confidence:       r.Confidence,
			ClosedAt:         closedAt,
			ClosedBy:         closedBy,
		}, nil
	})
	if errors.Is(err, repository.ErrConflict) {
		return nil, poll.ErrAlreadyClosed
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, poll.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	label := "user"
	if closedBy == SystemCloser {
		label = SystemCloser
	}
	s.metrics.PollClosed(label)

	res := &CloseResult{
		ID:               p.ID,
		Status:           models.PollStatusClosed,
		SelectedArea:     r.SelectedArea,
		SelectedTimeSlot: r.SelectedTimeSlot,
		Confidence:       r.Confidence,
		ClosedAt:         closedAt,
		VoteCounts:       t.Areas,
		VoteCountsByTime: t.TimeSlots,
	}
	selected := ""
	if r.SelectedArea != nil {
		selected = *r.SelectedArea
	}
	s.log.Info("poll closed", "poll_id", p.ID, "region", p.Region, "closed_by", closedBy,
		"selected_area", selected, "votes", t.Areas.Total(), "confidence", r.Confidence)
	s.publish(ctx, mq.EventPollClosed, p, res)
	return res, nil
}

// CloseExpired resolves every active poll whose voting window has ended and
// returns how many were closed
func (s *PollService) CloseExpired(ctx context.Context) (int, error) {
	const op = "PollService.CloseExpired"

	active, err := s.polls.ListActive(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	now := s.now()
	closed := 0
	for i := range active {
		p := &active[i]
		if !p.WindowEnd.Before(now) {
			continue
		}
		if _, err := s.resolve(ctx, p, SystemCloser); err != nil {
			if errors.Is(err, poll.ErrAlreadyClosed) {
				continue
			}
			s.log.Warn("failed to close expired poll", "poll_id", p.ID, "error", err)
			continue
		}
		closed++
	}
	return closed, nil
}

// Active returns the newest open poll in any of the user's regions, or nil
func (s *PollService) Active(ctx context.Context, userID uint) (*PollView, error) {
	const op = "PollService.Active"

	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	regions, err := s.regions(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(regions) == 0 {
		return nil, nil
	}

	active, err := s.polls.ListActive(ctx, regions)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	now := s.now()
	for i := range active {
		p := &active[i]
		w := poll.Window{Start: p.WindowStart, End: p.WindowEnd}
		if w.Contains(now) {
			return newPollView(p, userID), nil
		}
	}
	return nil, nil
}

// Get returns a poll snapshot. Only members of the poll's region and admins
// may read it.
func (s *PollService) Get(ctx context.Context, userID, pollID uint) (*PollView, error) {
	const op = "PollService.Get"

	p, err := s.loadPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}
	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() {
		regions, err := s.regions(ctx, user)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if !contains(regions, p.Region) {
			return nil, poll.ErrForbidden
		}
	}
	return newPollView(p, userID), nil
}

// WeekendDrive is the outcome of the latest resolved poll
type WeekendDrive struct {
	Region           string           `json:"region"`
	SelectedArea     string           `json:"selected_area"`
	SelectedTimeSlot *models.TimeSlot `json:"selected_time_slot"`
	ClosedAt         *time.Time       `json:"closed_at"`
	Title            string           `json:"title"`
}

// WeekendDrive returns the most recently decided drive in the user's
// regions, or nil when none was decided yet
func (s *PollService) WeekendDrive(ctx context.Context, userID uint) (*WeekendDrive, error) {
	const op = "PollService.WeekendDrive"

	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	regions, err := s.regions(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	p, err := s.polls.LatestClosed(ctx, regions)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if p.SelectedArea == nil {
		return nil, nil
	}
	return &WeekendDrive{
		Region:           p.Region,
		SelectedArea:     *p.SelectedArea,
		SelectedTimeSlot: p.SelectedTimeSlot,
		ClosedAt:         p.ClosedAt,
		Title:            p.Title,
	}, nil
}

// Exists reports poll.ErrNotFound for unknown polls
func (s *PollService) Exists(ctx context.Context, pollID uint) error {
	_, err := s.loadPoll(ctx, pollID)
	return err
}

func (s *PollService) loadPoll(ctx context.Context, id uint) (*models.Poll, error) {
	p, err := s.polls.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, poll.ErrNotFound
	}
	return p, err
}

func (s *PollService) withLock(ctx context.Context, name string, action func() error) error {
	err := s.locker.WithLock(ctx, name, lockExpiry, action)
	if errors.Is(err, cache.ErrLockNotAcquired) {
		return ErrBusy
	}
	return err
}

func (s *PollService) publish(ctx context.Context, typ string, p *models.Poll, payload any) {
	if s.broker == nil {
		return
	}
	e, err := mq.NewEvent(typ, p.ID, p.Region, payload, s.now())
	if err == nil {
		err = s.broker.Publish(ctx, e)
	}
	if err != nil {
		s.log.Warn("failed to publish poll event", "type", typ, "poll_id", p.ID, "error", err)
	}
}

// reject counts business rejections and wraps the error with the operation
func (s *PollService) reject(op string, err error) error {
	if reason := Reason(err); reason != "" {
		s.metrics.Rejected(op, reason)
	}
	return fmt.Errorf("%s: %w", op, err)
}
