package service

import (
	"context"
	"testing"
	"time"

	"ecodrive-backend/models"
	"ecodrive-backend/mq"
	"ecodrive-backend/poll"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(areas []models.PollArea) []string {
	out := make([]string, len(areas))
	for i, a := range areas {
		out[i] = a.Name
	}
	return out
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	view, err := f.polls.Generate(ctx, leadID, " North ")
	require.NoError(t, err)

	assert.Equal(t, "North", view.Region)
	assert.Equal(t, models.DefaultPollTitle, view.Title)
	assert.Equal(t, models.PollStatusActive, view.Status)
	assert.Equal(t, []string{"Riverside Park", "Old Market", "Station Road"}, names(view.Areas))
	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), view.WindowStart)
	assert.Equal(t, time.Date(2026, 3, 13, 23, 59, 59, int(999*time.Millisecond), time.UTC), view.WindowEnd)
	assert.Equal(t, 0, view.VoteCounts.Total())
	assert.Nil(t, view.MyVote)

	assert.Equal(t, []string{mq.EventPollCreated}, f.broker.types())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.PollsGenerated))

	_, err = f.polls.Generate(ctx, adminID, "North")
	assert.ErrorIs(t, err, poll.ErrDuplicateActivePoll)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Rejections.WithLabelValues("PollService.Generate", "duplicate_active_poll")))
}

func TestGenerate_LocationNameResolvesToRegion(t *testing.T) {
	f := newFixture(t)

	view, err := f.polls.Generate(context.Background(), adminID, "Harbour Front")
	require.NoError(t, err)
	assert.Equal(t, "South", view.Region)
	// South has a single High location, so only it is offered
	assert.Equal(t, []string{"Harbour Front"}, names(view.Areas))
}

func TestGenerate_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tests := []struct {
		name   string
		user   uint
		region string
		want   error
	}{
		{"blank region", leadID, "   ", ErrRegionRequired},
		{"unknown user", 99, "North", ErrUnknownUser},
		{"outside own areas", raviID, "North", poll.ErrForbidden},
		{"no locations", adminID, "East", poll.ErrNoEligibleCandidates},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.polls.Generate(ctx, tt.user, tt.region)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGenerate_AfterFriday(t *testing.T) {
	f := newFixture(t)
	f.clock.Set(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)) // Saturday

	_, err := f.polls.Generate(context.Background(), leadID, "North")
	assert.ErrorIs(t, err, poll.ErrPollWindowClosed)
}

func TestCastVoteAndClose(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	view, err := f.polls.Generate(ctx, leadID, "North")
	require.NoError(t, err)
	id := view.ID

	_, err = f.polls.CastVote(ctx, ashaID, id, " Riverside Park ", models.SlotMorning)
	require.NoError(t, err)
	_, err = f.polls.CastVote(ctx, leadID, id, "Riverside Park", models.SlotMidday)
	require.NoError(t, err)
	// ravi lives in South but follows Lake View, which is in North
	res, err := f.polls.CastVote(ctx, raviID, id, "Old Market", models.SlotMidday)
	require.NoError(t, err)

	assert.Equal(t, poll.Counts{
		{Name: "Riverside Park", Votes: 2},
		{Name: "Old Market", Votes: 1},
		{Name: "Station Road", Votes: 0},
	}, res.VoteCounts)
	assert.Equal(t, poll.Counts{
		{Name: "8-11 AM", Votes: 1},
		{Name: "12-3 PM", Votes: 2},
		{Name: "4-6 PM", Votes: 0},
	}, res.VoteCountsByTime)
	assert.Equal(t, MyVote{AreaName: "Old Market", TimeSlot: models.SlotMidday}, res.MyVote)
	assert.Equal(t, 3.0, testutil.ToFloat64(f.metrics.VotesCast))

	_, err = f.polls.CastVote(ctx, ashaID, id, "Old Market", models.SlotMorning)
	assert.ErrorIs(t, err, poll.ErrAlreadyVoted)

	_, err = f.polls.Close(ctx, ashaID, id)
	assert.ErrorIs(t, err, poll.ErrForbidden)

	closed, err := f.polls.Close(ctx, leadID, id)
	require.NoError(t, err)
	require.NotNil(t, closed.SelectedArea)
	assert.Equal(t, "Riverside Park", *closed.SelectedArea)
	assert.Equal(t, models.SlotMidday, closed.SelectedTimeSlot)
	assert.Equal(t, 0.67, closed.Confidence)
	assert.Equal(t, models.PollStatusClosed, closed.Status)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.PollsClosed.WithLabelValues("user")))

	_, err = f.polls.Close(ctx, adminID, id)
	assert.ErrorIs(t, err, poll.ErrAlreadyClosed)

	late := &models.User{Name: "late", Region: "North"}
	require.NoError(t, f.users.Create(ctx, late))
	_, err = f.polls.CastVote(ctx, late.ID, id, "Old Market", models.SlotMorning)
	assert.ErrorIs(t, err, poll.ErrPollNotActive)

	snapshot, err := f.polls.Get(ctx, ashaID, id)
	require.NoError(t, err)
	assert.Equal(t, models.PollStatusClosed, snapshot.Status)
	require.NotNil(t, snapshot.Confidence)
	assert.Equal(t, 0.67, *snapshot.Confidence)
	require.NotNil(t, snapshot.MyVote)
	assert.Equal(t, "Riverside Park", snapshot.MyVote.AreaName)

	drive, err := f.polls.WeekendDrive(ctx, ashaID)
	require.NoError(t, err)
	require.NotNil(t, drive)
	assert.Equal(t, "Riverside Park", drive.SelectedArea)
	assert.Equal(t, "North", drive.Region)

	assert.Equal(t, []string{
		mq.EventPollCreated, mq.EventPollTally, mq.EventPollTally, mq.EventPollTally, mq.EventPollClosed,
	}, f.broker.types())
}

func TestCastVote_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	view, err := f.polls.Generate(ctx, leadID, "North")
	require.NoError(t, err)
	southOnly := &models.User{Name: "meera", Region: "South"}
	require.NoError(t, f.users.Create(ctx, southOnly))

	tests := []struct {
		name string
		user uint
		poll uint
		area string
		slot models.TimeSlot
		want error
	}{
		{"blank area", ashaID, view.ID, " ", models.SlotMorning, ErrAreaRequired},
		{"bad slot", ashaID, view.ID, "Old Market", "9-10 PM", poll.ErrInvalidTimeSlot},
		{"missing poll", ashaID, view.ID + 100, "Old Market", models.SlotMorning, poll.ErrNotFound},
		{"outside region", southOnly.ID, view.ID, "Old Market", models.SlotMorning, poll.ErrForbidden},
		{"not a candidate", ashaID, view.ID, "Hill Garden", models.SlotMorning, poll.ErrInvalidCandidate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.polls.CastVote(ctx, tt.user, tt.poll, tt.area, tt.slot)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	f.clock.Set(time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC))
	_, err = f.polls.CastVote(ctx, ashaID, view.ID, "Old Market", models.SlotMorning)
	assert.ErrorIs(t, err, poll.ErrPollWindowClosed)
}

func TestActive(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	got, err := f.polls.Active(ctx, ashaID)
	require.NoError(t, err)
	assert.Nil(t, got)

	view, err := f.polls.Generate(ctx, leadID, "North")
	require.NoError(t, err)
	_, err = f.polls.CastVote(ctx, ashaID, view.ID, "Station Road", models.SlotAfternoon)
	require.NoError(t, err)

	got, err = f.polls.Active(ctx, ashaID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, view.ID, got.ID)
	assert.Equal(t, &MyVote{AreaName: "Station Road", TimeSlot: models.SlotAfternoon}, got.MyVote)
	assert.Equal(t, 1, got.VoteCounts.Get("Station Road"))

	// admin has no areas of their own
	got, err = f.polls.Active(ctx, adminID)
	require.NoError(t, err)
	assert.Nil(t, got)

	// after the window ends the poll is no longer offered
	f.clock.Set(time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC))
	got, err = f.polls.Active(ctx, ashaID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	view, err := f.polls.Generate(ctx, leadID, "North")
	require.NoError(t, err)
	southOnly := &models.User{Name: "meera", Region: "South"}
	require.NoError(t, f.users.Create(ctx, southOnly))

	_, err = f.polls.Get(ctx, southOnly.ID, view.ID)
	assert.ErrorIs(t, err, poll.ErrForbidden)

	got, err := f.polls.Get(ctx, adminID, view.ID)
	require.NoError(t, err)
	assert.Equal(t, view.ID, got.ID)
	assert.Len(t, got.TimeSlots, 3)

	_, err = f.polls.Get(ctx, adminID, view.ID+1)
	assert.ErrorIs(t, err, poll.ErrNotFound)
}

func TestCloseExpired(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	north, err := f.polls.Generate(ctx, leadID, "North")
	require.NoError(t, err)

	n, err := f.polls.CloseExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "open windows are left alone")

	f.clock.Set(time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC))
	n, err = f.polls.CloseExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := f.polls.Get(ctx, adminID, north.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PollStatusClosed, got.Status)
	assert.Nil(t, got.SelectedArea)
	require.NotNil(t, got.SelectedTimeSlot)
	assert.Equal(t, models.SlotMorning, *got.SelectedTimeSlot)
	require.NotNil(t, got.Confidence)
	assert.Zero(t, *got.Confidence)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.PollsClosed.WithLabelValues(SystemCloser)))

	// nothing was selected, so there is no weekend drive
	drive, err := f.polls.WeekendDrive(ctx, ashaID)
	require.NoError(t, err)
	assert.Nil(t, drive)

	// the next week gets a fresh poll
	f.clock.Set(time.Date(2026, 3, 16, 8, 0, 0, 0, time.UTC))
	next, err := f.polls.Generate(ctx, leadID, "North")
	require.NoError(t, err)
	assert.NotEqual(t, north.ID, next.ID)
}

func TestHighestPriorityRegion(t *testing.T) {
	f := newFixture(t)

	pick, err := f.ranker.HighestPriorityRegion(context.Background())
	require.NoError(t, err)
	require.NotNil(t, pick)
	assert.Equal(t, RegionPick{Region: "North", FullName: "Riverside Park"}, *pick)
}
