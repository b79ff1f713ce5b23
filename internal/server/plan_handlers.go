package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/alexanderramin/waypoint/internal/domain"
	"github.com/alexanderramin/waypoint/internal/service"
)

// PlanHandler serves plan, week and progress routes for the request owner.
type PlanHandler struct {
	roadmap  service.RoadmapService
	progress service.ProgressService
	sessions sessions
}

func NewPlanHandler(roadmap service.RoadmapService, progress service.ProgressService) *PlanHandler {
	return &PlanHandler{roadmap: roadmap, progress: progress}
}

type planBody struct {
	Goal           string `json:"goal"`
	TimeCommitment string `json:"timeCommitment"`
	WeekCount      int    `json:"weekCount"`
}

func (b planBody) request() service.PlanRequest {
	return service.PlanRequest{
		Goal:           b.Goal,
		TimeCommitment: domain.TimeCommitment(b.TimeCommitment),
		WeekCount:      b.WeekCount,
	}
}

type toggleBody struct {
	Kind  string `json:"kind"`
	Index *int   `json:"index"`
}

type reflectionBody struct {
	Text string `json:"text"`
}

func (h *PlanHandler) session(c *gin.Context) *domain.Session {
	return h.sessions.get(c.GetString(ownerKey))
}

// POST /api/plans
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	var body planBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	plan, err := h.roadmap.GetOrCreateFullPlan(c.Request.Context(), h.session(c), body.request())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"plan": plan})
}

// POST /api/plans/lazy
func (h *PlanHandler) StartPlan(c *gin.Context) {
	var body planBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	plan, err := h.roadmap.StartPlan(c.Request.Context(), h.session(c), body.request())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"plan": plan})
}

// GET /api/plans
func (h *PlanHandler) ListPlans(c *gin.Context) {
	plans, err := h.roadmap.ListPlans(c.Request.Context(), h.session(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if plans == nil {
		plans = []*domain.Plan{}
	}
	respondOK(c, gin.H{"plans": plans})
}

// GET /api/plans/:id
func (h *PlanHandler) GetPlan(c *gin.Context) {
	plan, err := h.roadmap.GetPlan(c.Request.Context(), h.session(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"plan": plan})
}

// DELETE /api/plans/:id
func (h *PlanHandler) DeletePlan(c *gin.Context) {
	if err := h.roadmap.DeletePlan(c.Request.Context(), h.session(c), c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/plans/:id/weeks/:week
func (h *PlanHandler) GetWeek(c *gin.Context) {
	week, ok := weekParam(c)
	if !ok {
		return
	}
	w, err := h.roadmap.GetOrCreateWeek(c.Request.Context(), h.session(c), service.WeekRequest{
		PlanID: c.Param("id"),
		Week:   week,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"week": w})
}

// POST /api/weeks
func (h *PlanHandler) ResolveWeek(c *gin.Context) {
	var req service.WeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	w, err := h.roadmap.GetOrCreateWeek(c.Request.Context(), h.session(c), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"week": w})
}

// POST /api/plans/:id/weeks/:week/days/:day/toggle
func (h *PlanHandler) Toggle(c *gin.Context) {
	week, ok := weekParam(c)
	if !ok {
		return
	}
	day, err := dayIndex(c.Param("day"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	var body toggleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	kind, err := domain.ParseItemKind(body.Kind)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if body.Index == nil {
		respondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("index is required"))
		return
	}
	res, err := h.progress.Toggle(c.Request.Context(), h.session(c), service.ToggleRequest{
		PlanID:    c.Param("id"),
		Week:      week,
		DayIndex:  day,
		Kind:      kind,
		ItemIndex: *body.Index,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, res)
}

// POST /api/plans/:id/weeks/:week/milestone
func (h *PlanHandler) ToggleMilestone(c *gin.Context) {
	week, ok := weekParam(c)
	if !ok {
		return
	}
	res, err := h.progress.ToggleMilestone(c.Request.Context(), h.session(c), c.Param("id"), week)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, res)
}

// GET /api/plans/:id/weeks/:week/status
func (h *PlanHandler) WeekStatus(c *gin.Context) {
	week, ok := weekParam(c)
	if !ok {
		return
	}
	st, err := h.progress.WeekStatus(c.Request.Context(), h.session(c), c.Param("id"), week)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, st)
}

// GET /api/plans/:id/stats?current=
func (h *PlanHandler) Stats(c *gin.Context) {
	current := 0
	if v := c.Query("current"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("current must be a week number"))
			return
		}
		current = n
	}
	st, err := h.progress.Stats(c.Request.Context(), h.session(c), c.Param("id"), current)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, st)
}

// POST /api/plans/:id/weeks/:week/reflections
func (h *PlanHandler) RecordReflection(c *gin.Context) {
	week, ok := weekParam(c)
	if !ok {
		return
	}
	var body reflectionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	r, err := h.progress.RecordReflection(c.Request.Context(), h.session(c), c.Param("id"), week, body.Text)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"reflection": r})
}

// GET /api/plans/:id/weeks/:week/reflections
func (h *PlanHandler) ListReflections(c *gin.Context) {
	week, ok := weekParam(c)
	if !ok {
		return
	}
	items, err := h.progress.ListReflections(c.Request.Context(), h.session(c), c.Param("id"), week)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if items == nil {
		items = []*domain.Reflection{}
	}
	respondOK(c, gin.H{"reflections": items})
}

func weekParam(c *gin.Context) (int, bool) {
	n, err := strconv.Atoi(c.Param("week"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("week must be a number"))
		return 0, false
	}
	return n, true
}

// dayIndex accepts a 0-based index or a weekday name.
func dayIndex(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	d, err := domain.ParseDayName(s)
	if err != nil {
		return 0, err
	}
	return int(d), nil
}
