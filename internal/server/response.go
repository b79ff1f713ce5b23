package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alexanderramin/waypoint/internal/repository"
	"github.com/alexanderramin/waypoint/internal/service"
)

// APIError is the body of every failed API call.
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Scope   string `json:"scope,omitempty"`
	Week    int    `json:"week,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func respondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func respondError(c *gin.Context, status int, code string, err error) {
	msg := code
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{Error: APIError{Message: msg, Code: code}})
}

// respondServiceError maps orchestrator and tracker errors onto status codes.
func respondServiceError(c *gin.Context, err error) {
	var genErr *service.GenerationFailedError
	if errors.As(err, &genErr) {
		c.AbortWithStatusJSON(http.StatusBadGateway, ErrorEnvelope{Error: APIError{
			Message: err.Error(),
			Code:    "generation_failed",
			Scope:   genErr.Scope,
			Week:    genErr.Week,
		}})
		return
	}
	status, code := statusFor(err)
	respondError(c, status, code, err)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrSchemaMismatch):
		return http.StatusUnprocessableEntity, "schema_mismatch"
	case errors.Is(err, service.ErrWeekNotGenerated):
		return http.StatusUnprocessableEntity, "week_not_generated"
	case errors.Is(err, service.ErrGenerationFailed):
		return http.StatusBadGateway, "generation_failed"
	case errors.Is(err, repository.ErrCacheUnavailable):
		return http.StatusServiceUnavailable, "store_unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
