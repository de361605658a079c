package middleware

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/schoolpay/user-service/internal/api/metrics"
	"github.com/schoolpay/user-service/internal/core/domain"
	"github.com/schoolpay/user-service/internal/core/service"
)

// PrincipalKey is the echo context key holding the authenticated *domain.User.
const PrincipalKey = "principal"

// Authenticate resolves the principal behind the Authorization header and
// binds it to both the echo context and the request context.
// Whitelisted paths, OPTIONS requests and disabled auth pass through with
// no principal bound.
func Authenticate(auth *service.Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			user, err := auth.Authenticate(req.Context(), req.Header.Get(echo.HeaderAuthorization), req.URL.Path, req.Method)
			if err != nil {
				metrics.AuthDecisionsTotal.WithLabelValues(authFailureReason(err)).Inc()
				return err
			}
			if user == nil {
				metrics.AuthDecisionsTotal.WithLabelValues("skipped").Inc()
				return next(c)
			}

			metrics.AuthDecisionsTotal.WithLabelValues("authenticated").Inc()
			c.Set(PrincipalKey, user)
			c.SetRequest(req.WithContext(service.ContextWithPrincipal(req.Context(), user)))
			return next(c)
		}
	}
}

func authFailureReason(err error) string {
	var de *domain.Error
	if !errors.As(err, &de) || de.Kind != domain.ErrUnauthorized {
		return "error"
	}
	switch de.Message {
	case domain.MsgTokenMissing:
		return "token_missing"
	case domain.MsgInvalidToken:
		return "invalid_token"
	default:
		return "invalid_credentials"
	}
}

// Principal returns the user bound by Authenticate, or nil.
func Principal(c echo.Context) *domain.User {
	if u, ok := c.Get(PrincipalKey).(*domain.User); ok {
		return u
	}
	if u, ok := service.PrincipalFromContext(c.Request().Context()); ok {
		return u
	}
	return nil
}
