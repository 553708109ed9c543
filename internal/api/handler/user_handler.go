package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/moneyjar/jarledger/internal/core/ports"
)

// UserHandler handles the authenticated user's profile endpoints.
type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// Me handles GET /v1/me.
//
// @Summary      Get the caller's profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  userResponse
// @Router       /v1/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	user, err := h.service.Get(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// UpdateMe handles PATCH /v1/me.
//
// @Summary      Update the caller's profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateProfileRequest  true  "Profile fields"
// @Success      200   {object}  userResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/me [patch]
func (h *UserHandler) UpdateMe(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	user, err := h.service.UpdateName(c.Request().Context(), userID, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// Upgrade handles POST /v1/me/upgrade — records a completed pro upgrade.
// Payment happens out of band; the billing reference ties the account to it.
//
// @Summary      Upgrade the caller to the pro tier
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      upgradeRequest  true  "Billing reference"
// @Success      200   {object}  userResponse
// @Router       /v1/me/upgrade [post]
func (h *UserHandler) Upgrade(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req upgradeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	user, err := h.service.UpgradeToPro(c.Request().Context(), userID, req.BillingRef)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}
