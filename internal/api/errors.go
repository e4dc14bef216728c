package api

import (
	"errors"
	"net/http"

	"github.com/pathforge/pathforge-api/internal/domain"
	"github.com/pathforge/pathforge-api/internal/service"
)

// MapErrorToStatus maps domain and service errors to an HTTP status code and
// a safe client-facing message. Anything unrecognized is a 500 with a generic
// message; the raw error only reaches the logs.
func MapErrorToStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidTopic),
		errors.Is(err, domain.ErrContextTooLong),
		errors.Is(err, domain.ErrInvalidExperienceLevel):
		return http.StatusBadRequest, err.Error()

	case errors.Is(err, service.ErrPathNotFound):
		return http.StatusNotFound, "Learning path not found"

	case errors.Is(err, service.ErrJobNotFound):
		return http.StatusNotFound, "Generation job not found"

	case errors.Is(err, service.ErrServerBusy):
		return http.StatusServiceUnavailable, "Generation capacity exhausted, try again later"

	case errors.Is(err, service.ErrGenerationFailed):
		return http.StatusBadGateway, "Curriculum generation failed"

	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
