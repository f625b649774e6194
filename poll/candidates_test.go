package poll

import (
	"testing"

	"ecodrive-backend/models"
	"ecodrive-backend/priority"

	"github.com/stretchr/testify/assert"
)

func result(id uint, name string, tier models.Tier, score int) priority.Result {
	loc := models.Location{Name: name}
	loc.ID = id
	return priority.Result{Location: loc, Tier: tier, PriorityScore: score}
}

func TestSelectCandidates_PrefersHighTier(t *testing.T) {
	ranked := []priority.Result{
		result(1, "a", models.TierMedium, 90),
		result(2, "b", models.TierHigh, 85),
		result(3, "c", models.TierLow, 80),
		result(4, "d", models.TierHigh, 70),
		result(5, "e", models.TierHigh, 65),
		result(6, "f", models.TierHigh, 60),
	}

	areas := SelectCandidates(ranked)

	assert.Equal(t, []models.PollArea{
		{LocationID: 2, Name: "b", Position: 0},
		{LocationID: 4, Name: "d", Position: 1},
		{LocationID: 5, Name: "e", Position: 2},
	}, areas)
}

func TestSelectCandidates_FallsBackWithoutHighTier(t *testing.T) {
	ranked := []priority.Result{
		result(1, "a", models.TierMedium, 50),
		result(2, "b", models.TierLow, 40),
	}

	areas := SelectCandidates(ranked)

	assert.Len(t, areas, 2)
	assert.Equal(t, "a", areas[0].Name)
	assert.Equal(t, "b", areas[1].Name)
}

func TestSelectCandidates_Empty(t *testing.T) {
	assert.Empty(t, SelectCandidates(nil))
	assert.Equal(t, 9, RankLimit())
}
