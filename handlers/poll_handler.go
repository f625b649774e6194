package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"ecodrive-backend/models"
	"ecodrive-backend/service"

	"github.com/gin-gonic/gin"
)

// PollHandler serves the weekly poll endpoints
type PollHandler struct {
	polls     *service.PollService
	locations *service.LocationService
	log       *slog.Logger
}

func NewPollHandler(polls *service.PollService, locations *service.LocationService, log *slog.Logger) *PollHandler {
	return &PollHandler{polls: polls, locations: locations, log: log}
}

// GeneratePollInput is the body of POST /polls/generate
type GeneratePollInput struct {
	Region string `json:"region"`
}

// VoteInput is the body of POST /polls/:id/vote
type VoteInput struct {
	AreaName string          `json:"area_name"`
	TimeSlot models.TimeSlot `json:"time_slot"`
}

func pollID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "invalid poll id")
		return 0, false
	}
	return uint(id), true
}

// Generate 生成本周投票
func (h *PollHandler) Generate(c *gin.Context) {
	var input GeneratePollInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}
	view, err := h.polls.Generate(c.Request.Context(), currentUser(c), input.Region)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// Active returns the caller's open poll, or null
func (h *PollHandler) Active(c *gin.Context) {
	view, err := h.polls.Active(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *PollHandler) WeekendDrive(c *gin.Context) {
	drive, err := h.polls.WeekendDrive(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, drive)
}

func (h *PollHandler) HighestPriorityRegion(c *gin.Context) {
	pick, err := h.locations.HighestPriorityRegion(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, pick)
}

// Get 获取投票详情
func (h *PollHandler) Get(c *gin.Context) {
	id, ok := pollID(c)
	if !ok {
		return
	}
	view, err := h.polls.Get(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Vote 提交投票
func (h *PollHandler) Vote(c *gin.Context) {
	id, ok := pollID(c)
	if !ok {
		return
	}
	var input VoteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}
	res, err := h.polls.CastVote(c.Request.Context(), currentUser(c), id, input.AreaName, input.TimeSlot)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Close 关闭投票并计算结果
func (h *PollHandler) Close(c *gin.Context) {
	id, ok := pollID(c)
	if !ok {
		return
	}
	res, err := h.polls.Close(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
