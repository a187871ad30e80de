package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nownpp/data-hub-entry/internal/common"
)

type errorResponse struct {
	Error string `json:"error"`
}

var errBadRequestBody = errors.New("invalid request body")

// statusFor maps service errors to a status and a client-safe message.
// Order matters: the login errors wrap common.ErrUnauthenticated.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, errBadRequestBody):
		return http.StatusBadRequest, errBadRequestBody.Error()
	case errors.Is(err, common.ErrNothingToBatch):
		return http.StatusBadRequest, "no pending submissions to batch"
	case errors.Is(err, common.ErrMissingToken):
		return http.StatusUnauthorized, "missing token"
	case errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, "session expired"
	case errors.Is(err, common.ErrInvalidToken):
		return http.StatusUnauthorized, "invalid token"
	case errors.Is(err, common.ErrNoPasswordSet):
		return http.StatusUnauthorized, "no password configured for this collector"
	case errors.Is(err, common.ErrWrongPassword):
		return http.StatusUnauthorized, "wrong password"
	case errors.Is(err, common.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden, "collector is inactive"
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, common.ErrConflict):
		return http.StatusConflict, "collector name already exists"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(c.Request.Context(), "request failed",
			"route", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: msg})
}
