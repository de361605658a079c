package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/schoolpay/user-service/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error     string `json:"error"`
	ErrorType string `json:"error_type"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain error kinds to their HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>", "error_type": "<Kind>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, resp := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, resp)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message), ErrorType: httpErrorType(he.Code)}
	}

	var de *domain.Error
	if errors.As(err, &de) {
		if code, ok := statusFor(de.Kind); ok {
			return code, errorResponse{Error: de.Error(), ErrorType: domain.KindName(de)}
		}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error", ErrorType: "InternalError"}
}

func statusFor(kind error) (int, bool) {
	switch kind {
	case domain.ErrUnauthorized:
		return http.StatusUnauthorized, true
	case domain.ErrForbidden:
		return http.StatusForbidden, true
	case domain.ErrValidation:
		return http.StatusBadRequest, true
	case domain.ErrNotFound:
		return http.StatusNotFound, true
	case domain.ErrConflict:
		return http.StatusConflict, true
	}
	return 0, false
}

func httpErrorType(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "ValidationError"
	case http.StatusUnauthorized:
		return "UnauthorizedError"
	case http.StatusForbidden:
		return "ForbiddenError"
	case http.StatusNotFound:
		return "NotFoundError"
	case http.StatusMethodNotAllowed:
		return "MethodNotAllowedError"
	}
	if code >= http.StatusInternalServerError {
		return "InternalError"
	}
	return "HTTPError"
}
