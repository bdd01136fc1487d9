package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/langbridge/internal/application"
	"github.com/oksasatya/langbridge/internal/domain/entity"
	"github.com/oksasatya/langbridge/internal/interface/middleware"
	"github.com/oksasatya/langbridge/pkg/response"
)

// statusFor maps application error kinds to HTTP status codes.
func statusFor(kind application.Kind) int {
	switch kind {
	case application.KindValidation, application.KindConflict:
		return http.StatusBadRequest
	case application.KindForbidden:
		return http.StatusForbidden
	case application.KindNotFound:
		return http.StatusNotFound
	case application.KindUnauthorized:
		return http.StatusUnauthorized
	case application.KindUpstream:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// fail writes err as an error envelope. Internal errors are logged and hidden.
func fail(c *gin.Context, log *logrus.Logger, err error) {
	kind := application.KindOf(err)
	status := statusFor(kind)
	if kind == application.KindInternal {
		log.WithError(err).WithFields(logrus.Fields{
			"request_id": c.GetString(middleware.CtxRequestIDKey),
			"path":       c.FullPath(),
		}).Error("request failed")
		response.Error[any](c, status, "Internal Server Error", nil)
		return
	}
	var code string
	var appErr *application.Error
	if errors.As(err, &appErr) {
		code = appErr.Code
	}
	response.Error[any](c, status, err.Error(), gin.H{"code": code, "kind": kind.String()})
}

// caller returns the authenticated user or writes 401.
func caller(c *gin.Context) (entity.AuthContext, bool) {
	auth, ok := middleware.AuthFrom(c)
	if !ok {
		response.Error[any](c, http.StatusUnauthorized, "Unauthorized", nil)
		return auth, false
	}
	return auth, true
}
