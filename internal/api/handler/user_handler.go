package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/schoolpay/user-service/internal/api/metrics"
	"github.com/schoolpay/user-service/internal/core/domain"
	"github.com/schoolpay/user-service/internal/core/ports"
)

// UserHandler handles HTTP requests for account and user operations.
type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// Signup registers a new PARENT account.
//
// @Summary      Sign up
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      signupRequest  true  "Account details"
// @Success      201   {object}  userResponse
// @Failure      400   {object}  errorBody
// @Failure      409   {object}  errorBody
// @Router       /users/signup [post]
func (h *UserHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.service.Signup(c.Request().Context(), req.toInput())
	if err != nil {
		return err
	}
	metrics.UsersCreatedTotal.WithLabelValues(string(user.Role)).Inc()
	return c.JSON(http.StatusCreated, userResponse{User: user})
}

// Create registers an account with an explicit role. Admin only.
//
// @Summary      Create a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createUserRequest  true  "Account details with role"
// @Success      201   {object}  userResponse
// @Failure      400   {object}  errorBody
// @Failure      401   {object}  errorBody
// @Failure      403   {object}  errorBody
// @Failure      409   {object}  errorBody
// @Router       /users [post]
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.service.CreateUser(c.Request().Context(), ports.CreateUserInput{
		SignupInput: req.toInput(),
		Role:        req.Role,
	})
	if err != nil {
		return err
	}
	metrics.UsersCreatedTotal.WithLabelValues(string(user.Role)).Inc()
	return c.JSON(http.StatusCreated, userResponse{User: user})
}

// Login authenticates by email, password and role and returns a token pair.
//
// @Summary      Login
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials; role defaults to PARENT"
// @Success      200   {object}  tokenResponse
// @Failure      400   {object}  errorBody
// @Failure      401   {object}  errorBody
// @Router       /users/login [post]
func (h *UserHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	pair, user, err := h.service.Login(c.Request().Context(), req.Email, req.Password, req.Role)
	if err != nil {
		role := string(req.Role)
		if role == "" {
			role = "unspecified"
		}
		metrics.LoginsTotal.WithLabelValues(role, "failure").Inc()
		return err
	}
	metrics.LoginsTotal.WithLabelValues(string(user.Role), "success").Inc()
	metrics.TokensIssuedTotal.WithLabelValues("login").Inc()

	return c.JSON(http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         user,
	})
}

// Refresh exchanges a refresh token for a new token pair. The token is read
// from the body, falling back to the Authorization header.
//
// @Summary      Refresh tokens
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      refreshRequest  false  "Refresh token"
// @Success      200   {object}  tokenResponse
// @Failure      401   {object}  errorBody
// @Router       /users/token/refresh [post]
func (h *UserHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	token := req.RefreshToken
	if token == "" {
		token = c.Request().Header.Get(echo.HeaderAuthorization)
	}

	pair, user, err := h.service.Refresh(c.Request().Context(), token)
	if err != nil {
		return err
	}
	metrics.TokensIssuedTotal.WithLabelValues("refresh").Inc()

	return c.JSON(http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         user,
	})
}

// Get handles GET /users/:id.
//
// @Summary      Get a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User UUID"
// @Success      200  {object}  userResponse
// @Failure      400  {object}  errorBody
// @Failure      401  {object}  errorBody
// @Failure      403  {object}  errorBody
// @Failure      404  {object}  errorBody
// @Router       /users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	id, err := pathUserID(c)
	if err != nil {
		return err
	}

	user, err := h.service.Get(c.Request().Context(), principal(c), id)
	metrics.ObserveAccess("owner", forbiddenOnly(err))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{User: user})
}

// Update handles PUT and PATCH /users/:id. Only the allow-listed fields in
// updateUserRequest are applied.
//
// @Summary      Update a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "User UUID"
// @Param        body  body      updateUserRequest  true  "Fields to change"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  errorBody
// @Failure      401   {object}  errorBody
// @Failure      403   {object}  errorBody
// @Failure      404   {object}  errorBody
// @Failure      409   {object}  errorBody
// @Router       /users/{id} [put]
func (h *UserHandler) Update(c echo.Context) error {
	id, err := pathUserID(c)
	if err != nil {
		return err
	}
	var req updateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.service.Update(c.Request().Context(), principal(c), id, req.toInput())
	metrics.ObserveAccess("owner", forbiddenOnly(err))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{User: user})
}

// Delete soft-deletes the user.
//
// @Summary      Delete a user
// @Tags         users
// @Security     BearerAuth
// @Param        id   path  string  true  "User UUID"
// @Success      204
// @Failure      400  {object}  errorBody
// @Failure      401  {object}  errorBody
// @Failure      403  {object}  errorBody
// @Failure      404  {object}  errorBody
// @Router       /users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := pathUserID(c)
	if err != nil {
		return err
	}

	err = h.service.Delete(c.Request().Context(), principal(c), id)
	metrics.ObserveAccess("owner", forbiddenOnly(err))
	if err != nil {
		return err
	}
	metrics.UsersDeletedTotal.Inc()
	return c.NoContent(http.StatusNoContent)
}

// List returns a page of users. Admin only.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        page    query     int     false  "Page, starting at 1"
// @Param        limit   query     int     false  "Page size (max 100)"
// @Param        role    query     string  false  "Filter by role"
// @Param        status  query     string  false  "Filter by status"
// @Success      200     {object}  listUsersResponse
// @Failure      400     {object}  errorBody
// @Failure      401     {object}  errorBody
// @Failure      403     {object}  errorBody
// @Router       /users [get]
func (h *UserHandler) List(c echo.Context) error {
	var q listUsersQuery
	if err := bindAndValidate(c, &q); err != nil {
		return err
	}

	in := ports.ListUsersInput{Page: q.Page, Limit: q.Limit}
	if q.Role != "" {
		role, err := domain.ParseRole(q.Role)
		if err != nil {
			return err
		}
		in.Role = role
	}
	if q.Status != "" {
		status, err := domain.ParseStatus(q.Status)
		if err != nil {
			return err
		}
		in.Status = status
	}

	res, err := h.service.List(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listUsersResponse{
		Data: res.Items,
		Pagination: pagination{
			Page:       res.Page,
			Limit:      res.Limit,
			Total:      res.Total,
			TotalPages: res.TotalPages,
		},
	})
}

// forbiddenOnly keeps access-check failures and drops every other error, so
// a missing user does not count as a denied access decision.
func forbiddenOnly(err error) error {
	if errors.Is(err, domain.ErrForbidden) {
		return err
	}
	return nil
}
