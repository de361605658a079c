package service

import (
	"strings"

	"github.com/nyaruka/phonenumbers"

	"github.com/schoolpay/user-service/internal/core/domain"
)

// NormalizePhone parses raw in the given default region and returns it in
// E.164 form so the same number always maps to the same stored value.
func NormalizePhone(raw, region string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", domain.Validation("phone_no is missing")
	}
	num, err := phonenumbers.Parse(raw, region)
	if err != nil || !phonenumbers.IsPossibleNumber(num) {
		return "", domain.Validation("invalid phone number")
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}
