package repository

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"ecodrive-backend/config"
	"ecodrive-backend/database"
	"ecodrive-backend/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// setupDB opens a private in-memory SQLite database for one test
func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	}, nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func newPoll(region string, start time.Time, areas ...string) *models.Poll {
	key := models.ActiveKeyFor(region, start)
	p := &models.Poll{
		Title:       models.DefaultPollTitle,
		Region:      region,
		Status:      models.PollStatusActive,
		WindowStart: start,
		WindowEnd:   start.AddDate(0, 0, 5).Add(-time.Millisecond),
		CreatedBy:   "ai",
		ActiveKey:   &key,
	}
	for i, a := range areas {
		p.Areas = append(p.Areas, models.PollArea{Name: a, Position: i})
	}
	return p
}
