package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"ecodrive-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generate(t *testing.T, router *gin.Engine) service.PollView {
	t.Helper()
	w := doRequest(router, http.MethodPost, "/api/polls/generate", leadID, gin.H{"region": "North"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[service.PollView](t, w)
}

func TestGeneratePoll(t *testing.T) {
	router, _ := SetupTestEnvironment(t)

	view := generate(t, router)
	assert.Equal(t, "North", view.Region)
	assert.Len(t, view.Areas, 3)
	assert.Equal(t, "Riverside Park", view.Areas[0].Name)
	assert.Len(t, view.TimeSlots, 3)

	w := doRequest(router, http.MethodPost, "/api/polls/generate", adminID, gin.H{"region": "North"})
	assert.Equal(t, http.StatusConflict, w.Code)
	resp := decode[ErrorResponse](t, w)
	assert.Equal(t, "duplicate_active_poll", resp.Code)
	assert.Equal(t, "an active poll already exists for this region this week", resp.Error)
}

func TestGeneratePoll_Errors(t *testing.T) {
	router, _ := SetupTestEnvironment(t)

	tests := []struct {
		name     string
		user     string
		body     any
		wantCode int
		wantKind string
	}{
		{"missing identity", "", gin.H{"region": "North"}, http.StatusUnauthorized, "unauthenticated"},
		{"bad identity", "abc", gin.H{"region": "North"}, http.StatusUnauthorized, "unauthenticated"},
		{"unknown user", "404", gin.H{"region": "North"}, http.StatusUnauthorized, "unknown_user"},
		{"blank region", leadID, gin.H{"region": ""}, http.StatusBadRequest, "region_required"},
		{"not member", ashaID, gin.H{"region": "South"}, http.StatusForbidden, "forbidden"},
		{"no candidates", adminID, gin.H{"region": "East"}, http.StatusBadRequest, "no_eligible_candidates"},
		{"malformed body", leadID, "region", http.StatusBadRequest, "invalid_request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, http.MethodPost, "/api/polls/generate", tt.user, tt.body)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			assert.Equal(t, tt.wantKind, decode[ErrorResponse](t, w).Code)
		})
	}
}

func TestVoteAndClose(t *testing.T) {
	router, _ := SetupTestEnvironment(t)
	view := generate(t, router)
	base := fmt.Sprintf("/api/polls/%d", view.ID)

	w := doRequest(router, http.MethodPost, base+"/vote", ashaID, gin.H{"area_name": "Old Market", "time_slot": "4-6 PM"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[service.VoteResult](t, w)
	assert.Equal(t, 1, res.VoteCounts.Get("Old Market"))
	assert.Equal(t, 1, res.VoteCountsByTime.Get("4-6 PM"))
	assert.Equal(t, "Old Market", res.MyVote.AreaName)

	w = doRequest(router, http.MethodPost, base+"/vote", ashaID, gin.H{"area_name": "Old Market", "time_slot": "4-6 PM"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already_voted", decode[ErrorResponse](t, w).Code)

	w = doRequest(router, http.MethodPost, base+"/vote", leadID, gin.H{"area_name": "Nowhere", "time_slot": "4-6 PM"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_candidate", decode[ErrorResponse](t, w).Code)

	w = doRequest(router, http.MethodPost, base+"/vote", leadID, gin.H{"area_name": "Old Market", "time_slot": "noon"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_time_slot", decode[ErrorResponse](t, w).Code)

	w = doRequest(router, http.MethodPost, base+"/close", ashaID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(router, http.MethodPost, base+"/close", leadID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	closed := decode[service.CloseResult](t, w)
	require.NotNil(t, closed.SelectedArea)
	assert.Equal(t, "Old Market", *closed.SelectedArea)
	assert.Equal(t, 1.0, closed.Confidence)

	w = doRequest(router, http.MethodPost, base+"/close", leadID, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already_closed", decode[ErrorResponse](t, w).Code)

	w = doRequest(router, http.MethodPost, base+"/vote", leadID, gin.H{"area_name": "Old Market", "time_slot": "4-6 PM"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "poll_not_active", decode[ErrorResponse](t, w).Code)

	w = doRequest(router, http.MethodGet, "/api/polls/weekend-drive", ashaID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	drive := decode[service.WeekendDrive](t, w)
	assert.Equal(t, "Old Market", drive.SelectedArea)
}

func TestGetPoll(t *testing.T) {
	router, _ := SetupTestEnvironment(t)
	view := generate(t, router)

	w := doRequest(router, http.MethodGet, fmt.Sprintf("/api/polls/%d", view.ID), ashaID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, view.ID, decode[service.PollView](t, w).ID)

	w = doRequest(router, http.MethodGet, "/api/polls/9999", ashaID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decode[ErrorResponse](t, w).Code)

	w = doRequest(router, http.MethodGet, "/api/polls/abc", ashaID, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestActivePoll(t *testing.T) {
	router, _ := SetupTestEnvironment(t)

	w := doRequest(router, http.MethodGet, "/api/polls/active", ashaID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", w.Body.String())

	view := generate(t, router)
	w = doRequest(router, http.MethodGet, "/api/polls/active", ashaID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[service.PollView](t, w)
	assert.Equal(t, view.ID, got.ID)
	assert.Nil(t, got.MyVote)
}

func TestHighestPriorityRegion(t *testing.T) {
	router, _ := SetupTestEnvironment(t)

	w := doRequest(router, http.MethodGet, "/api/polls/highest-priority-region", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"region":"North","full_name":"Riverside Park"}`, w.Body.String())
}
