package handler

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/schoolpay/user-service/internal/api/middleware"
	"github.com/schoolpay/user-service/internal/core/domain"
)

// principal returns the user bound by the Authenticate middleware. It is nil
// when auth is disabled; the access checks in the service treat that as
// forbidden.
func principal(c echo.Context) *domain.User {
	return middleware.Principal(c)
}

// pathUserID parses the :id path parameter. A malformed id is a client error
// and never reaches the access check.
func pathUserID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, domain.Validation("invalid user id")
	}
	return id, nil
}

// bindAndValidate decodes the request into req and runs struct validation.
// Both failures surface as validation errors.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			var de *domain.Error
			if errors.As(he.Internal, &de) {
				return de
			}
			return domain.Validation(fmt.Sprintf("invalid payload: %v", he.Message))
		}
		return domain.Validation("invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return domain.Validation(err.Error())
	}
	return nil
}
