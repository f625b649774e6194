package poll

import (
	"math"

	"ecodrive-backend/models"
)

// Resolution is the outcome of closing a poll
type Resolution struct {
	SelectedArea     *string         `json:"selected_area"`
	SelectedTimeSlot models.TimeSlot `json:"selected_time_slot"`
	Confidence       float64         `json:"confidence"`
}

// Resolve picks the winning area and time slot from a tally.
//
// The winner is the entry with the strictly highest count; on a tie the
// earliest entry in tally order wins. Confidence is the winner's share of all
// area votes rounded to two decimals, 0 without votes. Without any area votes
// there is no selected area. The time slot defaults to the first fixed slot.
func Resolve(t Tally) Resolution {
	res := Resolution{SelectedTimeSlot: models.TimeSlots()[0]}

	if name, votes, ok := winner(t.Areas); ok {
		res.SelectedArea = &name
		if total := t.Areas.Total(); total > 0 {
			res.Confidence = round2(float64(votes) / float64(total))
		}
	}
	if name, _, ok := winner(t.TimeSlots); ok {
		res.SelectedTimeSlot = models.TimeSlot(name)
	}
	return res
}

// winner returns the first entry holding the maximum count. Zero counts never
// win, matching a running maximum that starts at zero.
func winner(c Counts) (string, int, bool) {
	best, maxVotes := -1, 0
	for i, e := range c {
		if e.Votes > maxVotes {
			best, maxVotes = i, e.Votes
		}
	}
	if best < 0 {
		return "", 0, false
	}
	return c[best].Name, maxVotes, true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
