package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/intersect-health/fhir-api/internal/core/ports"
)

// UserHandler serves the administrative account routes.
type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// List handles GET /users.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        _count   query     int  false  "Page size (max 1000)"
// @Param        _offset  query     int  false  "Offset"
// @Success      200      {object}  userListResponse
// @Failure      401      {object}  errorResponse
// @Failure      403      {object}  errorResponse
// @Router       /users [get]
func (h *UserHandler) List(c echo.Context) error {
	filter, err := pageParams(c)
	if err != nil {
		return err
	}
	users, total, err := h.service.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userListResponse{Total: total, Offset: filter.Offset, Items: users})
}

// Get handles GET /users/:email.
//
// @Summary      Get a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        email  path      string  true  "Email"
// @Success      200    {object}  domain.User
// @Failure      404    {object}  errorResponse
// @Router       /users/{email} [get]
func (h *UserHandler) Get(c echo.Context) error {
	user, err := h.service.Get(c.Request().Context(), c.Param("email"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// ChangeRole handles PATCH /users/:email/role. Tokens already issued keep
// the previous role until they expire.
//
// @Summary      Change a user's role
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        email  path      string             true  "Email"
// @Param        body   body      changeRoleRequest  true  "New role"
// @Success      200    {object}  domain.User
// @Failure      403    {object}  errorResponse
// @Failure      404    {object}  errorResponse
// @Failure      422    {object}  errorResponse
// @Router       /users/{email}/role [patch]
func (h *UserHandler) ChangeRole(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	var req changeRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	user, err := h.service.ChangeRole(c.Request().Context(), claims.Subject, c.Param("email"), req.Role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// SetActive handles PATCH /users/:email/active.
//
// @Summary      Activate or deactivate a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        email  path      string            true  "Email"
// @Param        body   body      setActiveRequest  true  "Active flag"
// @Success      200    {object}  domain.User
// @Failure      403    {object}  errorResponse
// @Failure      404    {object}  errorResponse
// @Router       /users/{email}/active [patch]
func (h *UserHandler) SetActive(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	var req setActiveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	user, err := h.service.SetActive(c.Request().Context(), claims.Subject, c.Param("email"), *req.IsActive)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}
