package handler

import (
	"github.com/schoolpay/user-service/internal/core/domain"
	"github.com/schoolpay/user-service/internal/core/ports"
)

// --- Request types ---

// Presence of email, password and phone_no is checked by the service so the
// client gets the field-specific message.
type signupRequest struct {
	Email     string `json:"email" validate:"omitempty,email"`
	Password  string `json:"password"`
	Phone     string `json:"phone_no"`
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
	Age       *int   `json:"age" validate:"omitempty,gte=0,lte=150"`
	ImageURL  string `json:"img_url" validate:"omitempty,url"`
}

func (r signupRequest) toInput() ports.SignupInput {
	return ports.SignupInput{
		Email:     r.Email,
		Password:  r.Password,
		Phone:     r.Phone,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Age:       r.Age,
		ImageURL:  r.ImageURL,
	}
}

type createUserRequest struct {
	signupRequest
	Role domain.Role `json:"role" validate:"required"`
}

type loginRequest struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// updateUserRequest lists the only fields a client may change. Unknown keys
// such as password, role or email are dropped by the binder.
type updateUserRequest struct {
	FirstName *string        `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string        `json:"last_name" validate:"omitempty,max=100"`
	Phone     *string        `json:"phone_no"`
	Age       *int           `json:"age" validate:"omitempty,gte=0,lte=150"`
	ImageURL  *string        `json:"img_url" validate:"omitempty,url"`
	Status    *domain.Status `json:"status"`
}

func (r updateUserRequest) toInput() ports.UpdateUserInput {
	return ports.UpdateUserInput{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Phone:     r.Phone,
		Age:       r.Age,
		ImageURL:  r.ImageURL,
		Status:    r.Status,
	}
}

type listUsersQuery struct {
	Page   int    `query:"page" validate:"gte=0"`
	Limit  int    `query:"limit" validate:"gte=0"`
	Role   string `query:"role"`
	Status string `query:"status"`
}

// --- Response types ---

type userResponse struct {
	User *domain.User `json:"user"`
}

type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         *domain.User `json:"user"`
}

type pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

type listUsersResponse struct {
	Data       []*domain.User `json:"data"`
	Pagination pagination     `json:"pagination"`
}

type errorBody struct {
	Error     string `json:"error"`
	ErrorType string `json:"error_type"`
}
