package service

import (
	"github.com/google/uuid"

	"github.com/schoolpay/user-service/internal/core/domain"
)

// Authorize allows the request when the principal owns the resource or is an
// administrator. A nil principal is always forbidden.
func Authorize(ownerID uuid.UUID, principal *domain.User) error {
	if principal == nil || (principal.ID != ownerID && !principal.IsAdmin()) {
		return domain.Forbidden(domain.MsgForbidden)
	}
	return nil
}
