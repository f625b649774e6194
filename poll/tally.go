package poll

import "ecodrive-backend/models"

// Count is one entry of an ordered tally
type Count struct {
	Name  string `json:"name"`
	Votes int    `json:"votes"`
}

// Counts is an ordered tally. Order is significant: ties resolve to the
// earliest entry, so it must follow candidate order (or slot order).
type Counts []Count

// Get returns the votes recorded for name
func (c Counts) Get(name string) int {
	for _, e := range c {
		if e.Name == name {
			return e.Votes
		}
	}
	return 0
}

// Total returns the sum of all entries
func (c Counts) Total() int {
	total := 0
	for _, e := range c {
		total += e.Votes
	}
	return total
}

// AsMap flattens the tally for JSON consumers that key by name
func (c Counts) AsMap() map[string]int {
	m := make(map[string]int, len(c))
	for _, e := range c {
		m[e.Name] = e.Votes
	}
	return m
}

func (c Counts) increment(name string) {
	for i := range c {
		if c[i].Name == name {
			c[i].Votes++
			return
		}
	}
}

// Tally is the vote count of a poll per candidate and per time slot
type Tally struct {
	Areas     Counts `json:"areas"`
	TimeSlots Counts `json:"time_slots"`
}

// CountVotes tallies votes against the given candidates. Every candidate and every
// fixed slot starts at zero; votes naming unknown areas or slots are ignored.
func CountVotes(candidates []string, votes []models.PollVote) Tally {
	t := Tally{
		Areas:     make(Counts, 0, len(candidates)),
		TimeSlots: make(Counts, 0, len(models.TimeSlots())),
	}
	seen := make(map[string]bool, len(candidates))
	for _, name := range candidates {
		if seen[name] {
			continue
		}
		seen[name] = true
		t.Areas = append(t.Areas, Count{Name: name})
	}
	for _, s := range models.TimeSlots() {
		t.TimeSlots = append(t.TimeSlots, Count{Name: string(s)})
	}

	for _, v := range votes {
		if seen[v.AreaName] {
			t.Areas.increment(v.AreaName)
		}
		if v.TimeSlot.Valid() {
			t.TimeSlots.increment(string(v.TimeSlot))
		}
	}
	return t
}

// TallyPoll tallies a loaded poll
func TallyPoll(p *models.Poll) Tally {
	return CountVotes(p.CandidateNames(), p.Votes)
}
