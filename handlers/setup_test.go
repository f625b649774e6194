package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ecodrive-backend/config"
	"ecodrive-backend/database"
	"ecodrive-backend/metrics"
	"ecodrive-backend/repository"
	"ecodrive-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// seeded users
const (
	adminID = "1"
	leadID  = "2"
	ashaID  = "3"
)

var wednesday = time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// SetupTestEnvironment sets up the Gin router over a seeded in-memory SQLite
// database for testing.
func SetupTestEnvironment(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := discardLogger()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	}, nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.Seed(db, wednesday, log))
	t.Cleanup(func() { _ = database.Close(db) })

	now := func() time.Time { return wednesday }
	locationStore := repository.NewLocationStore(db)
	locations := service.NewLocationService(locationStore, repository.NewDriveStore(db), now)
	polls := service.NewPollService(service.PollServiceConfig{
		Polls:     repository.NewPollStore(db),
		Users:     repository.NewUserStore(db),
		Locations: locationStore,
		Ranker:    locations,
		Metrics:   metrics.New(prometheus.NewRegistry()),
		Logger:    log,
		Now:       now,
	})

	pollHandler := NewPollHandler(polls, locations, log)
	locationHandler := NewLocationHandler(locations, log)
	health := NewHealthHandler(db, "local")

	router := gin.New()
	router.Use(RequestID())
	api := router.Group("/api")
	{
		api.GET("/health", health.Health)
		api.GET("/status", health.Status)
		api.GET("/locations", locationHandler.List)
		api.POST("/locations", locationHandler.Create)
		api.GET("/locations/priority", locationHandler.Priority)
		api.GET("/polls/highest-priority-region", pollHandler.HighestPriorityRegion)

		identified := api.Group("/polls", Identity())
		identified.POST("/generate", pollHandler.Generate)
		identified.GET("/active", pollHandler.Active)
		identified.GET("/weekend-drive", pollHandler.WeekendDrive)
		identified.GET("/:id", pollHandler.Get)
		identified.POST("/:id/vote", pollHandler.Vote)
		identified.POST("/:id/close", pollHandler.Close)
	}
	return router, db
}

// doRequest sends a request as user (no identity header when empty)
func doRequest(router http.Handler, method, path, user string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		buf, _ := json.Marshal(body)
		reader = bytes.NewReader(buf)
	}
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set(UserIDHeader, user)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}
