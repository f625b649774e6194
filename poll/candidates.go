package poll

import (
	"ecodrive-backend/models"
	"ecodrive-backend/priority"
)

const (
	// CandidateCount is the number of areas offered by a generated poll
	CandidateCount = 3

	// overFetchFactor widens the ranking so tier filtering still leaves
	// enough candidates
	overFetchFactor = 3
)

// RankLimit is how many ranked locations candidate selection looks at
func RankLimit() int {
	return CandidateCount * overFetchFactor
}

// SelectCandidates picks poll candidates from a ranking (already ordered and
// limited to RankLimit). High-tier locations are preferred; when a region has
// none, the whole ranking is used instead.
func SelectCandidates(ranked []priority.Result) []models.PollArea {
	pool := make([]priority.Result, 0, len(ranked))
	for _, r := range ranked {
		if r.Tier == models.TierHigh {
			pool = append(pool, r)
		}
	}
	if len(pool) == 0 {
		pool = ranked
	}
	if len(pool) > CandidateCount {
		pool = pool[:CandidateCount]
	}

	areas := make([]models.PollArea, len(pool))
	for i, r := range pool {
		areas[i] = models.PollArea{
			LocationID: r.Location.ID,
			Name:       r.Location.Name,
			Position:   i,
		}
	}
	return areas
}
