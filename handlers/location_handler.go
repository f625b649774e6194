package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"ecodrive-backend/models"
	"ecodrive-backend/priority"
	"ecodrive-backend/service"

	"github.com/gin-gonic/gin"
)

// LocationHandler serves location listing, import and ranking
type LocationHandler struct {
	locations *service.LocationService
	log       *slog.Logger
}

func NewLocationHandler(locations *service.LocationService, log *slog.Logger) *LocationHandler {
	return &LocationHandler{locations: locations, log: log}
}

// PriorityView is one entry of a ranking response
type PriorityView struct {
	models.Location
	PriorityScore    int         `json:"priority_score"`
	Tier             models.Tier `json:"tier"`
	DaysSinceCleanup *int        `json:"days_since_cleanup"`
}

func newPriorityViews(ranked []priority.Result) []PriorityView {
	out := make([]PriorityView, len(ranked))
	for i, r := range ranked {
		out[i] = PriorityView{
			Location:         r.Location,
			PriorityScore:    r.PriorityScore,
			Tier:             r.Tier,
			DaysSinceCleanup: r.DaysSinceCleanup,
		}
	}
	return out
}

func (h *LocationHandler) List(c *gin.Context) {
	locations, err := h.locations.List(c.Request.Context(), c.Query("region"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if locations == nil {
		locations = []models.Location{}
	}
	c.JSON(http.StatusOK, locations)
}

// Create 创建地点
func (h *LocationHandler) Create(c *gin.Context) {
	var loc models.Location
	if err := c.ShouldBindJSON(&loc); err != nil {
		badRequest(c, err.Error())
		return
	}
	loc.ID = 0
	loc.LastAreaAlertAt = nil
	if err := h.locations.Create(c.Request.Context(), &loc); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, loc)
}

// Priority ranks locations, optionally within one region
func (h *LocationHandler) Priority(c *gin.Context) {
	limit := priority.DefaultLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "limit must be an integer")
			return
		}
		limit = n
	}
	ranked, err := h.locations.Rank(c.Request.Context(), c.Query("region"), limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, newPriorityViews(ranked))
}
