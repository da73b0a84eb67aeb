package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"orderhub/internal/access"
	"orderhub/internal/errors"
	"orderhub/internal/logger"
	"orderhub/internal/metrics"
)

// PrincipalKey is the echo context key holding the authenticated *access.Principal.
const PrincipalKey = "principal"

// principalFrom returns the request principal, or nil for anonymous requests.
func principalFrom(c echo.Context) *access.Principal {
	p, _ := c.Get(PrincipalKey).(*access.Principal)
	return p
}

// respondError converts a service error into the JSON error shape.
// Internal errors are logged with their cause and reported generically.
func respondError(c echo.Context, log *logger.Logger, err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	switch {
	case httpErr.StatusCode == http.StatusUnauthorized, httpErr.StatusCode == http.StatusForbidden:
		metrics.AuthFailures.WithLabelValues(httpErr.Code).Inc()
	case httpErr.StatusCode >= http.StatusInternalServerError:
		log.Error("request failed",
			"method", c.Request().Method,
			"path", c.Path(),
			"error", err,
		)
	}
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

func badRequest(msg string) error {
	return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
		Error: msg,
		Code:  errors.ErrInvalidInput.Code,
	})
}

func parseID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, badRequest("invalid " + name)
	}
	return uint(id), nil
}
