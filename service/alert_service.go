package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ecodrive-backend/metrics"
	"ecodrive-backend/models"
	"ecodrive-backend/mq"
	"ecodrive-backend/priority"
	"ecodrive-backend/repository"
)

// DefaultAlertLimit is how many ranked locations an alert pass considers
const DefaultAlertLimit = 100

// AreaAlert is the payload of an area.alert event
type AreaAlert struct {
	LocationID    uint        `json:"location_id"`
	Name          string      `json:"name"`
	Region        string      `json:"region"`
	Tier          models.Tier `json:"tier"`
	AQI           *float64    `json:"aqi"`
	PriorityScore int         `json:"priority_score"`
	Title         string      `json:"title"`
	Message       string      `json:"message"`
}

// AlertService raises area alerts for polluted locations. Delivery to users
// is done by whoever subscribes to the broker.
type AlertService struct {
	ranker    *LocationService
	locations repository.LocationRepository
	broker    mq.Broker
	metrics   *metrics.Metrics
	log       *slog.Logger
	limit     int
	now       func() time.Time
}

func NewAlertService(ranker *LocationService, locations repository.LocationRepository, broker mq.Broker,
	m *metrics.Metrics, log *slog.Logger, limit int, now func() time.Time) *AlertService {
	if limit <= 0 {
		limit = DefaultAlertLimit
	}
	if log == nil {
		log = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &AlertService{
		ranker:    ranker,
		locations: locations,
		broker:    broker,
		metrics:   m,
		log:       log,
		limit:     limit,
		now:       now,
	}
}

// Run publishes one alert per eligible location and returns how many were
// published
func (s *AlertService) Run(ctx context.Context) (int, error) {
	const op = "AlertService.Run"

	ranked, err := s.ranker.Rank(ctx, "", s.limit)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	now := s.now()
	published := 0
	for _, r := range priority.SelectAlerts(ranked, now) {
		if err := ctx.Err(); err != nil {
			return published, err
		}
		alert := newAreaAlert(r)
		e, err := mq.NewEvent(mq.EventAreaAlert, 0, alert.Region, alert, now)
		if err != nil {
			return published, fmt.Errorf("%s: %w", op, err)
		}
		if s.broker != nil {
			if err := s.broker.Publish(ctx, e); err != nil {
				s.log.Warn("failed to publish area alert", "location_id", alert.LocationID, "error", err)
				continue
			}
		}
		if err := s.locations.MarkAlerted(ctx, alert.LocationID, now); err != nil {
			s.log.Warn("failed to stamp area alert", "location_id", alert.LocationID, "error", err)
		}
		s.metrics.AlertPublished()
		published++
	}
	if published > 0 {
		s.log.Info("area alerts published", "count", published)
	}
	return published, nil
}

func newAreaAlert(r priority.Result) AreaAlert {
	loc := r.Location
	title := "⚠ Medium AQI: " + loc.Name
	level := "elevated"
	if r.Tier == models.TierHigh {
		title = "⚠ High AQI Alert: " + loc.Name
		level = "high"
	}
	aqi := "unknown"
	if loc.AQI != nil {
		aqi = fmt.Sprintf("%.0f", *loc.AQI)
	}
	return AreaAlert{
		LocationID:    loc.ID,
		Name:          loc.Name,
		Region:        loc.Region,
		Tier:          r.Tier,
		AQI:           loc.AQI,
		PriorityScore: r.PriorityScore,
		Title:         title,
		Message: fmt.Sprintf("Air quality in %s (%s) is %s (AQI %s). Consider joining the next cleanup drive.",
			loc.Name, loc.Region, level, aqi),
	}
}
