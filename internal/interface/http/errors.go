package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/linkcircle/internal/application"
	"github.com/oksasatya/linkcircle/internal/domain/apperror"
	"github.com/oksasatya/linkcircle/pkg/response"
	"github.com/oksasatya/linkcircle/pkg/validation"
)

func statusOf(kind apperror.Kind) int {
	switch kind {
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindConflict:
		return http.StatusConflict
	case apperror.KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps a service error onto the response envelope. Domain errors
// keep their code; anything else is logged and reported as internal.
func writeError(c *gin.Context, logger *logrus.Logger, err error) {
	if e, ok := apperror.As(err); ok {
		status := statusOf(e.Kind)
		if status >= http.StatusInternalServerError && logger != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"request_id": c.GetString("request_id"),
				"path":       c.FullPath(),
				"code":       e.Code,
			}).Error("request failed")
		}
		response.Error[any](c, status, e.Message, response.ErrorBody{Code: e.Code, Field: e.Field})
		return
	}

	switch {
	case errors.Is(err, application.ErrInvalidIdentity), errors.Is(err, application.ErrInvalidSession):
		response.Error[any](c, http.StatusUnauthorized, err.Error(), response.ErrorBody{Code: "UNAUTHENTICATED"})
		return
	case errors.Is(err, application.ErrImageStoreUnavailable):
		response.Error[any](c, http.StatusServiceUnavailable, err.Error(), response.ErrorBody{Code: "IMAGE_STORE_UNAVAILABLE"})
		return
	}

	if logger != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"path":       c.FullPath(),
		}).Error("request failed")
	}
	response.Error[any](c, http.StatusInternalServerError, "internal server error", response.ErrorBody{Code: "INTERNAL"})
}

// bindJSON decodes and validates the body, writing a 400 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", response.ErrorBody{
			Code:    "INVALID_PAYLOAD",
			Details: validation.ToDetails(err),
		})
		return false
	}
	return true
}

// mayActAs reports whether the session user may act for id. Without
// enforcement every caller may.
func mayActAs(c *gin.Context, enforce bool, id string) bool {
	if !enforce {
		return true
	}
	uid := c.GetString("userID")
	if uid == "" {
		response.Error[any](c, http.StatusUnauthorized, "missing access token", response.ErrorBody{Code: "UNAUTHENTICATED"})
		return false
	}
	if uid != id {
		response.Error[any](c, http.StatusForbidden, "not allowed to act for another user", response.ErrorBody{Code: "FORBIDDEN"})
		return false
	}
	return true
}
