package handlers

import (
	"delivery-quote-service/internal/api/dto"
	"delivery-quote-service/internal/domain"
	"delivery-quote-service/internal/services"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

func writeError(c *gin.Context, status int, msg string) {
	c.JSON(status, dto.ErrorResponse{Error: msg})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrLastStop):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrStopNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrCalculationInProgress),
		errors.Is(err, services.ErrSuperseded),
		errors.Is(err, domain.ErrNoResult):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrRouteFailed):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeDomainError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		msg = "internal error"
	}
	writeError(c, status, msg)
}
