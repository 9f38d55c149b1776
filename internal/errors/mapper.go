package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Sentinel errors shared across the engine. Services wrap these with
// %w so handlers can map them to HTTP statuses via Status.
var (
	// ErrNotFound signals a missing record (user, rating, ...).
	ErrNotFound = errors.New("record not found")

	// ErrRatingUnavailable aborts a pairwise rating update when either
	// side has no rating record. No partial write happens.
	ErrRatingUnavailable = errors.New("rating unavailable")

	// ErrPartialUpdate signals that a pairwise rating write could not be
	// committed for both users after retries.
	ErrPartialUpdate = errors.New("partial rating update")

	// ErrInvalidArgument signals bad caller input.
	ErrInvalidArgument = errors.New("invalid argument")
)

// InvalidArgument creates an ErrInvalidArgument with a detail message.
func InvalidArgument(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, msg)
}

// Status converts repo/service errors into an HTTP status code.
// Keeps handlers clean by centralizing the mapping.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK

	case errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest

	case errors.Is(err, ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound

	case errors.Is(err, ErrRatingUnavailable):
		return http.StatusUnprocessableEntity

	case errors.Is(err, ErrPartialUpdate):
		return http.StatusServiceUnavailable

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout

	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// JSON writes the error as a JSON body with the mapped status code.
func JSON(c *gin.Context, err error) {
	c.JSON(Status(err), gin.H{"error": err.Error()})
}
