package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"ecodrive-backend/poll"
	"ecodrive-backend/service"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, poll.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, poll.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrUnknownUser):
		return http.StatusUnauthorized
	case errors.Is(err, poll.ErrDuplicateActivePoll),
		errors.Is(err, poll.ErrAlreadyVoted),
		errors.Is(err, poll.ErrAlreadyClosed):
		return http.StatusConflict
	case errors.Is(err, service.ErrBusy):
		return http.StatusServiceUnavailable
	case service.Reason(err) != "":
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError 统一错误响应. Business errors carry their own message; anything
// else is logged and hidden behind a generic one.
func respondError(c *gin.Context, log *slog.Logger, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed", "path", c.FullPath(), "error", err)
		c.AbortWithStatusJSON(status, ErrorResponse{Error: "internal server error", Code: "internal"})
		return
	}

	// the service wraps errors with its operation name; show only the cause
	msg := err.Error()
	for e := errors.Unwrap(err); e != nil; e = errors.Unwrap(e) {
		if service.Reason(e) != "" {
			msg = e.Error()
		}
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: msg, Code: service.Reason(err)})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: msg, Code: "invalid_request"})
}
