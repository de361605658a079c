package domain

import "errors"

// Error kinds. Handlers pick an HTTP status with errors.Is against these.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("access forbidden")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not found")
)

// Error carries a kind plus the human-readable description returned to clients.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Kind }

func Unauthorized(msg string) error { return &Error{Kind: ErrUnauthorized, Message: msg} }
func Forbidden(msg string) error    { return &Error{Kind: ErrForbidden, Message: msg} }
func Validation(msg string) error   { return &Error{Kind: ErrValidation, Message: msg} }
func Conflict(msg string) error     { return &Error{Kind: ErrConflict, Message: msg} }
func NotFound(msg string) error     { return &Error{Kind: ErrNotFound, Message: msg} }

// Client-facing messages.
const (
	MsgTokenMissing       = "token missing"
	MsgInvalidToken       = "invalid token"
	MsgInvalidCredentials = "invalid credentials"
	MsgForbidden          = "user doesn't have sufficient permissions to perform this operation"
	MsgEmailExists        = "Email already exists"
	MsgPhoneExists        = "Phone number already exists"
	MsgUserPhoneExists    = "User with this phone number already exists"
	MsgUserNotFound       = "user not found"
)

var (
	// ErrInvalidToken is returned by the token codec for every verification
	// failure: bad signature, malformed input and expiry look the same.
	ErrInvalidToken = Unauthorized(MsgInvalidToken)

	// ErrUserNotFound is returned by stores when no live row matches.
	ErrUserNotFound = NotFound(MsgUserNotFound)
)

// KindName returns the short type name used in the error envelope
// (e.g. "UnauthorizedError"). Unknown errors map to "InternalError".
func KindName(err error) string {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "UnauthorizedError"
	case errors.Is(err, ErrForbidden):
		return "ForbiddenError"
	case errors.Is(err, ErrValidation):
		return "ValidationError"
	case errors.Is(err, ErrConflict):
		return "ConflictError"
	case errors.Is(err, ErrNotFound):
		return "NotFoundError"
	default:
		return "InternalError"
	}
}
