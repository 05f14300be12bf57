package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "lumonew/internal/errors"
	"lumonew/internal/logger"
	"lumonew/internal/middleware"
)

const dateOnly = "2006-01-02"

// ErrorDetail represents the inner error object in an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// getUserID extracts the authenticated user ID from the Gin context.
// Returns ErrUnauthorized if not present.
func getUserID(c *gin.Context) (string, error) {
	userID := c.GetString(middleware.ContextUserID)
	if userID == "" {
		return "", apperrors.ErrUnauthorized
	}
	return userID, nil
}

// parseDate reads an RFC3339 timestamp or a YYYY-MM-DD date in loc. A date-only
// upper bound covers the whole day.
func parseDate(value string, loc *time.Location, endOfDay bool) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	day, err := time.ParseInLocation(dateOnly, value, loc)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidDate, "Invalid date: "+value)
	}
	if endOfDay {
		day = day.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &day, nil
}

// parseDateRange reads date_from and date_to from the query string.
func parseDateRange(c *gin.Context, loc *time.Location) (from, to *time.Time, err error) {
	if from, err = parseDate(c.Query("date_from"), loc, false); err != nil {
		return nil, nil, err
	}
	if to, err = parseDate(c.Query("date_to"), loc, true); err != nil {
		return nil, nil, err
	}
	if from != nil && to != nil && from.After(*to) {
		return nil, nil, apperrors.ErrInvalidDateRange
	}
	return from, to, nil
}

// respondWithError writes a consistent JSON error response. If the error is an
// *AppError it uses the error's status code, code, and message. Otherwise it
// logs the unexpected error and returns a generic internal server error.
func respondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Internal != nil {
			logger.Get().Errorw("app error",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
				"path", c.Request.URL.Path,
				"request_id", c.GetString(middleware.RequestIDKey),
			)
		}
		c.JSON(appErr.StatusCode, ErrorResponse{Error: ErrorDetail{Code: appErr.Code, Message: appErr.Message}})
		return
	}

	logger.Get().Errorw("unexpected error",
		"error", err.Error(),
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
		"request_id", c.GetString(middleware.RequestIDKey),
	)
	c.JSON(apperrors.ErrInternalServer.StatusCode, ErrorResponse{Error: ErrorDetail{
		Code:    apperrors.ErrInternalServer.Code,
		Message: apperrors.ErrInternalServer.Message,
	}})
}
