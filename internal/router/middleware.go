package router

import (
	"errors"
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"orderhub/internal/access"
	apperrors "orderhub/internal/errors"
	"orderhub/internal/handler"
	"orderhub/internal/logger"
	"orderhub/internal/metrics"
)

// Authenticate requires a valid bearer token and stores the principal
// in the context under handler.PrincipalKey.
func Authenticate(authn *access.Authenticator, log *logger.Logger) echo.MiddlewareFunc {
	return bearerAuth(authn, log, false)
}

// OptionalAuthenticate lets requests without a bearer token through
// anonymously. A token that is present but invalid is still rejected.
func OptionalAuthenticate(authn *access.Authenticator, log *logger.Logger) echo.MiddlewareFunc {
	return bearerAuth(authn, log, true)
}

func bearerAuth(authn *access.Authenticator, log *logger.Logger, optional bool) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  handler.PrincipalKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return authn.Authenticate(c.Request().Context(), token)
		},
		ErrorHandler:           authErrorHandler(log, optional),
		ContinueOnIgnoredError: optional,
	})
}

func authErrorHandler(log *logger.Logger, optional bool) func(c echo.Context, err error) error {
	return func(c echo.Context, err error) error {
		var extractErr *echojwt.TokenExtractionError
		if errors.As(err, &extractErr) {
			if optional {
				return nil
			}
			err = apperrors.ErrMissingToken
		}

		var de *apperrors.DomainError
		if !errors.As(err, &de) {
			log.Error("authentication failed", "path", c.Path(), "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, apperrors.ErrorResponse{
				Error: "internal server error",
				Code:  "INTERNAL_ERROR",
			})
		}

		metrics.AuthFailures.WithLabelValues(de.Code).Inc()
		log.Warn("authentication rejected",
			"path", c.Path(),
			"remote_ip", c.RealIP(),
			"code", de.Code,
			"error", err,
		)
		return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
			Error: de.Message,
			Code:  de.Code,
		})
	}
}
