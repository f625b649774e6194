package priority

import (
	"sort"
	"time"

	"ecodrive-backend/models"
)

// DefaultLimit is the ranking size used when no positive limit is given
const DefaultLimit = 10

// Query selects what to rank
type Query struct {
	Region string // empty ranks every region
	Limit  int
}

// Rank scores every location matching the query and returns them ordered by
// descending priority score. Equal scores keep their input order.
//
// lastCleanups maps a location ID to the date of its most recent completed
// drive; locations missing from the map are treated as never cleaned.
func Rank(locations []models.Location, q Query, lastCleanups map[uint]time.Time, now time.Time) []Result {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	results := make([]Result, 0, len(locations))
	for _, loc := range locations {
		if q.Region != "" && loc.Region != q.Region {
			continue
		}
		days, known := DaysSince(lastCleanups, loc.ID, now)
		res := Score(loc, days)
		res.DaysSinceCleanup = nil
		if known {
			res.DaysSinceCleanup = &days
		}
		results = append(results, res)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].PriorityScore > results[j].PriorityScore
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// DaysSince returns whole days elapsed since the location's last completed
// cleanup. It returns UnknownDaysSinceCleanup and false when there is none.
func DaysSince(lastCleanups map[uint]time.Time, locationID uint, now time.Time) (int, bool) {
	last, ok := lastCleanups[locationID]
	if !ok {
		return UnknownDaysSinceCleanup, false
	}
	days := int(now.Sub(last) / (24 * time.Hour))
	if days < 0 {
		days = 0
	}
	return days, true
}
