package priority

import (
	"sort"
	"time"

	"ecodrive-backend/models"
)

// MinAlertInterval is the shortest gap between two alerts for one location
const MinAlertInterval = 24 * time.Hour

// SelectAlerts picks the ranked locations that should raise an area alert:
// Medium and High tiers only, skipping locations alerted within
// MinAlertInterval. High tier comes first, then higher priority score.
func SelectAlerts(ranked []Result, now time.Time) []Result {
	out := make([]Result, 0, len(ranked))
	for _, r := range ranked {
		if r.Tier == models.TierLow {
			continue
		}
		if last := r.Location.LastAreaAlertAt; last != nil && now.Sub(*last) < MinAlertInterval {
			continue
		}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := out[i].Tier.Rank(), out[j].Tier.Rank()
		if ti != tj {
			return ti < tj
		}
		return out[i].PriorityScore > out[j].PriorityScore
	})
	return out
}
