package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/moneyjar/jarledger/internal/core/domain"
	"github.com/moneyjar/jarledger/internal/core/ports"
)

// JarHandler handles HTTP requests for jar lifecycle and reads.
type JarHandler struct {
	service ports.JarService
}

func NewJarHandler(service ports.JarService) *JarHandler {
	return &JarHandler{service: service}
}

// Create handles POST /v1/jars.
//
// @Summary      Create a new jar
// @Tags         jars
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createJarRequest  true  "Jar details"
// @Success      201   {object}  jarResponse
// @Failure      402   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/jars [post]
func (h *JarHandler) Create(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req createJarRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	jar, err := h.service.CreateJar(c.Request().Context(), ports.CreateJarInput{
		OwnerID:      userID,
		Name:         req.Name,
		Emoji:        req.Emoji,
		Color:        req.Color,
		TargetAmount: req.TargetAmount,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toJarResponse(jar))
}

// List handles GET /v1/jars — the caller's jars in display order, plus the
// total balance across them (the dashboard header).
//
// @Summary      List the caller's jars
// @Tags         jars
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  listJarsResponse
// @Router       /v1/jars [get]
func (h *JarHandler) List(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	jars, err := h.service.ListJars(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	data := make([]jarResponse, 0, len(jars))
	total := decimal.Zero
	for _, j := range jars {
		data = append(data, toJarResponse(j))
		total = total.Add(j.Balance)
	}
	return c.JSON(http.StatusOK, listJarsResponse{Data: data, Total: total})
}

// Get handles GET /v1/jars/:id — the jar and its history, newest first.
//
// @Summary      Get a jar with its transactions
// @Tags         jars
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Jar id"
// @Success      200  {object}  jarDetailResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/jars/{id} [get]
func (h *JarHandler) Get(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	jarID := c.Param("id")

	jar, err := h.service.GetJar(c.Request().Context(), jarID, userID)
	if err != nil {
		return err
	}
	txs, err := h.service.ListTransactions(c.Request().Context(), jarID, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, jarDetailResponse{
		Jar:          toJarResponse(jar),
		Transactions: toTransactionResponses(txs),
	})
}

// ListTransactions handles GET /v1/jars/:id/transactions.
//
// @Summary      List a jar's transactions
// @Tags         jars
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Jar id"
// @Success      200  {object}  activityResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/jars/{id}/transactions [get]
func (h *JarHandler) ListTransactions(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	txs, err := h.service.ListTransactions(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, activityResponse{Data: toTransactionResponses(txs)})
}

// Delete handles DELETE /v1/jars/:id — cascade-deletes the jar's
// transactions and memberships with it.
//
// @Summary      Delete a jar and its history
// @Tags         jars
// @Security     BearerAuth
// @Param        id  path  string  true  "Jar id"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/jars/{id} [delete]
func (h *JarHandler) Delete(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	if err := h.service.DeleteJar(c.Request().Context(), c.Param("id"), userID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Activity handles GET /v1/activity — the caller's most recent transactions
// across all owned jars.
//
// @Summary      Recent activity across all jars
// @Tags         jars
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  activityResponse
// @Router       /v1/activity [get]
func (h *JarHandler) Activity(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	txs, err := h.service.ListActivity(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, activityResponse{Data: toTransactionResponses(txs)})
}

// InviteMember handles POST /v1/jars/:id/members — owner only.
//
// @Summary      Invite a member to a shared jar
// @Tags         jars
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Jar id"
// @Param        body  body      inviteMemberRequest  true  "Invitee email and role"
// @Success      201   {object}  memberResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /v1/jars/{id}/members [post]
func (h *JarHandler) InviteMember(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req inviteMemberRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	member, err := h.service.InviteMember(c.Request().Context(), ports.InviteMemberInput{
		JarID:   c.Param("id"),
		ActorID: userID,
		Email:   req.Email,
		Role:    req.Role,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toMemberResponse(member))
}

// AcceptInvite handles POST /v1/jars/:id/members/accept.
//
// @Summary      Accept a shared-jar invite
// @Tags         jars
// @Security     BearerAuth
// @Param        id  path  string  true  "Jar id"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /v1/jars/{id}/members/accept [post]
func (h *JarHandler) AcceptInvite(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	if err := h.service.AcceptInvite(c.Request().Context(), c.Param("id"), userID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func toMemberResponse(m *domain.JarMember) memberResponse {
	return memberResponse{
		ID:         m.ID,
		JarID:      m.JarID,
		UserID:     m.UserID,
		Role:       m.Role,
		InvitedAt:  m.InvitedAt,
		AcceptedAt: m.AcceptedAt,
	}
}
