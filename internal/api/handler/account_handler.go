package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bookshelf/account-service/internal/core/domain"
	"github.com/bookshelf/account-service/internal/core/ports"
)

// AccountHandler serves identity reads and updates.
type AccountHandler struct {
	service ports.AccountService
}

func NewAccountHandler(service ports.AccountService) *AccountHandler {
	return &AccountHandler{service: service}
}

type updateMeRequest struct {
	Email    *string `json:"email"    validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=8,max=72"`
}

type adminUpdateRequest struct {
	Email    *string `json:"email"    validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=8,max=72"`
	Role     *string `json:"role"     validate:"omitempty,oneof=User Admin"`
}

type sessionResponse struct {
	ID       string      `json:"id"`
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Role     domain.Role `json:"role"`
}

// Me returns the authenticated identity as currently cached.
//
// @Summary      Current identity
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  sessionResponse
// @Failure      401  {object}  map[string]string
// @Router       /v1/users/me [get]
func (h *AccountHandler) Me(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sessionResponse{
		ID:       identity.ID,
		Username: identity.Username,
		Email:    identity.Email,
		Role:     identity.Role,
	})
}

// UpdateMe changes the caller's email and/or password.
//
// @Summary      Update current identity
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateMeRequest  true  "Fields to change"
// @Success      200   {object}  domain.Identity
// @Failure      400   {object}  map[string]any
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /v1/users/me [patch]
func (h *AccountHandler) UpdateMe(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	var req updateMeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	updated, err := h.service.Update(c.Request().Context(), identity.ID, ports.UpdateIdentityInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

// AdminGet returns any identity by id.
//
// @Summary      Get identity
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Identity id"
// @Success      200  {object}  domain.Identity
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/admin/users/{id} [get]
func (h *AccountHandler) AdminGet(c echo.Context) error {
	identity, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, identity)
}

// AdminUpdate changes any identity's email, password or role.
//
// @Summary      Update identity
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string              true  "Identity id"
// @Param        body  body      adminUpdateRequest  true  "Fields to change"
// @Success      200   {object}  domain.Identity
// @Failure      400   {object}  map[string]any
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /v1/admin/users/{id} [patch]
func (h *AccountHandler) AdminUpdate(c echo.Context) error {
	var req adminUpdateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	in := ports.UpdateIdentityInput{Email: req.Email, Password: req.Password}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		in.Role = &role
	}

	updated, err := h.service.Update(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}
