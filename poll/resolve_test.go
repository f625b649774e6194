package poll

import (
	"testing"

	"ecodrive-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_MajorityWinner(t *testing.T) {
	res := Resolve(CountVotes([]string{"A", "B", "C"}, votes("A", "A", "B")))

	require.NotNil(t, res.SelectedArea)
	assert.Equal(t, "A", *res.SelectedArea)
	assert.Equal(t, 0.67, res.Confidence)
	assert.Equal(t, models.SlotMidday, res.SelectedTimeSlot)
}

func TestResolve_TieGoesToFirstCandidate(t *testing.T) {
	for i := 0; i < 20; i++ {
		res := Resolve(CountVotes([]string{"A", "B", "C"}, votes("B", "A", "B", "A")))
		require.NotNil(t, res.SelectedArea)
		assert.Equal(t, "A", *res.SelectedArea)
		assert.Equal(t, 0.5, res.Confidence)
	}

	res := Resolve(CountVotes([]string{"B", "A"}, votes("A", "A", "B", "B")))
	require.NotNil(t, res.SelectedArea)
	assert.Equal(t, "B", *res.SelectedArea)
}

func TestResolve_NoVotes(t *testing.T) {
	res := Resolve(CountVotes([]string{"A", "B"}, nil))

	assert.Nil(t, res.SelectedArea)
	assert.Zero(t, res.Confidence)
	assert.Equal(t, models.SlotMorning, res.SelectedTimeSlot)
}

func TestResolve_SlotTie(t *testing.T) {
	vs := votes("A", "A")
	vs[0].TimeSlot = models.SlotAfternoon
	vs[1].TimeSlot = models.SlotMidday

	res := Resolve(CountVotes([]string{"A"}, vs))

	assert.Equal(t, models.SlotMidday, res.SelectedTimeSlot)
	assert.Equal(t, 1.0, res.Confidence)
}
