package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alexanderramin/waypoint/internal/domain"
	"github.com/alexanderramin/waypoint/internal/generation"
	"github.com/alexanderramin/waypoint/internal/planschema"
)

// GenerationHandler serves the generation protocol consumed by
// generation.HTTPClient. Output is normalised before it is returned, so
// callers always receive schema-valid JSON.
type GenerationHandler struct {
	gen     generation.Generator
	timeout time.Duration
	log     *slog.Logger
}

func NewGenerationHandler(gen generation.Generator, timeout time.Duration, log *slog.Logger) *GenerationHandler {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &GenerationHandler{gen: gen, timeout: timeout, log: log}
}

// availability is implemented by generators that can check their upstream.
type availability interface {
	Available(ctx context.Context) bool
}

// GET /functions/ready
func (h *GenerationHandler) Ready(c *gin.Context) {
	checker, ok := h.gen.(availability)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"ready": true})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if !checker.Available(ctx) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ready": false, "error": "model server unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ready": true})
}

// POST /functions/generate-week
func (h *GenerationHandler) GenerateWeek(c *gin.Context) {
	req, ok := h.bind(c, true)
	if !ok {
		return
	}
	ctx, cancel := h.context(c)
	defer cancel()

	raw, err := h.gen.GenerateWeek(ctx, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	week, err := planschema.NormalizeWeek(raw, req.Week)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"weekData": week})
}

// POST /functions/generate-roadmap
func (h *GenerationHandler) GenerateRoadmap(c *gin.Context) {
	req, ok := h.bind(c, false)
	if !ok {
		return
	}
	ctx, cancel := h.context(c)
	defer cancel()

	raw, err := h.gen.GeneratePlan(ctx, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	weeks, err := planschema.NormalizePlan(raw)
	if err != nil {
		h.fail(c, err)
		return
	}
	if len(weeks) != req.TotalWeeks {
		h.fail(c, fmt.Errorf("%w: got %d weeks, want %d", planschema.ErrParse, len(weeks), req.TotalWeeks))
		return
	}
	c.JSON(http.StatusOK, gin.H{"roadmap": gin.H{"weeks": weeks}})
}

func (h *GenerationHandler) bind(c *gin.Context, needWeek bool) (generation.Request, bool) {
	var body generation.WireRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badGeneration(c, err)
		return generation.Request{}, false
	}
	goal, err := domain.NormalizeGoal(body.UserGoal)
	if err != nil {
		badGeneration(c, err)
		return generation.Request{}, false
	}
	tc, err := domain.ParseTimeCommitment(body.TimeCommitment)
	if err != nil {
		badGeneration(c, err)
		return generation.Request{}, false
	}
	if err := domain.ValidateWeekCount(body.TotalWeeks); err != nil {
		badGeneration(c, err)
		return generation.Request{}, false
	}
	if needWeek && (body.Week < 1 || body.Week > body.TotalWeeks) {
		badGeneration(c, fmt.Errorf("week %d outside 1..%d", body.Week, body.TotalWeeks))
		return generation.Request{}, false
	}
	return generation.Request{Goal: goal, TimeCommitment: tc, Week: body.Week, TotalWeeks: body.TotalWeeks}, true
}

func (h *GenerationHandler) context(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), h.timeout)
}

// fail reports a generation or parse failure in the protocol's flat
// {"error": "..."} shape.
func (h *GenerationHandler) fail(c *gin.Context, err error) {
	status := http.StatusBadGateway
	if errors.Is(err, planschema.ErrParse) {
		status = http.StatusUnprocessableEntity
	}
	h.log.WarnContext(c.Request.Context(), "generation request failed", "path", c.FullPath(), "status", status, "error", err)
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func badGeneration(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
