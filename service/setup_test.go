package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"ecodrive-backend/config"
	"ecodrive-backend/database"
	"ecodrive-backend/metrics"
	"ecodrive-backend/mq"
	"ecodrive-backend/repository"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Seeded users, in creation order
const (
	adminID uint = iota + 1
	leadID       // incharge of North
	ashaID       // North, Riverside
	raviID       // South, subscribed to Lake View (a North location)
)

// wednesday lies inside the voting window of the week starting 2026-03-09
var wednesday = time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// recordingBroker keeps published events in memory
type recordingBroker struct {
	mu     sync.Mutex
	events []mq.Event
}

func (b *recordingBroker) Publish(_ context.Context, e mq.Event) error {
	b.mu.Lock()
	b.events = append(b.events, e)
	b.mu.Unlock()
	return nil
}

func (b *recordingBroker) Subscribe(mq.Handler) {}

func (b *recordingBroker) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (b *recordingBroker) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.events))
	for i, e := range b.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	db        *gorm.DB
	clock     *clock
	broker    *recordingBroker
	metrics   *metrics.Metrics
	users     *repository.UserStore
	locations *repository.LocationStore
	ranker    *LocationService
	polls     *PollService
	alerts    *AlertService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	}, nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.Seed(db, wednesday, log))
	t.Cleanup(func() { _ = database.Close(db) })

	f := &fixture{
		db:        db,
		clock:     &clock{now: wednesday},
		broker:    &recordingBroker{},
		metrics:   metrics.New(prometheus.NewRegistry()),
		users:     repository.NewUserStore(db),
		locations: repository.NewLocationStore(db),
	}
	f.ranker = NewLocationService(f.locations, repository.NewDriveStore(db), f.clock.Now)
	f.polls = NewPollService(PollServiceConfig{
		Polls:     repository.NewPollStore(db),
		Users:     f.users,
		Locations: f.locations,
		Ranker:    f.ranker,
		Broker:    f.broker,
		Metrics:   f.metrics,
		Logger:    log,
		Now:       f.clock.Now,
	})
	f.alerts = NewAlertService(f.ranker, f.locations, f.broker, f.metrics, log, 0, f.clock.Now)
	return f
}
