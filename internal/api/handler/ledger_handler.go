package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/moneyjar/jarledger/internal/core/ports"
)

// LedgerHandler handles HTTP requests for ledger operations.
type LedgerHandler struct {
	service ports.LedgerService
}

func NewLedgerHandler(service ports.LedgerService) *LedgerHandler {
	return &LedgerHandler{service: service}
}

// Fill handles POST /v1/jars/:id/fill.
//
// @Summary      Add money to a jar
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id               path      string              true   "Jar id"
// @Param        Idempotency-Key  header    string              false  "Key making retries safe"
// @Param        body             body      ledgerEntryRequest  true   "Amount and optional note"
// @Success      201              {object}  ledgerEntryResponse
// @Failure      404              {object}  errorResponse
// @Failure      422              {object}  errorResponse
// @Router       /v1/jars/{id}/fill [post]
func (h *LedgerHandler) Fill(c echo.Context) error {
	return h.entry(c, h.service.Fill)
}

// Spend handles POST /v1/jars/:id/spend. Spending beyond the balance is
// allowed; the balance floors at zero while the entry records the full
// requested amount.
//
// @Summary      Log spending from a jar
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id               path      string              true   "Jar id"
// @Param        Idempotency-Key  header    string              false  "Key making retries safe"
// @Param        body             body      ledgerEntryRequest  true   "Amount and optional note"
// @Success      201              {object}  ledgerEntryResponse
// @Failure      404              {object}  errorResponse
// @Failure      422              {object}  errorResponse
// @Router       /v1/jars/{id}/spend [post]
func (h *LedgerHandler) Spend(c echo.Context) error {
	return h.entry(c, h.service.Spend)
}

func (h *LedgerHandler) entry(c echo.Context, op func(ctx context.Context, input ports.LedgerEntryInput) (*ports.EntryResult, error)) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req ledgerEntryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	result, err := op(c.Request().Context(), ports.LedgerEntryInput{
		JarID:          c.Param("id"),
		ActorID:        userID,
		Amount:         req.Amount,
		Note:           req.Note,
		IdempotencyKey: ctxIdempotencyKey(c),
	})
	if err != nil {
		return err
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	return c.JSON(status, ledgerEntryResponse{
		Transaction: toTransactionResponse(result.Transaction),
		Balance:     result.Balance,
	})
}

// Transfer handles POST /v1/transfers.
//
// @Summary      Move money between two jars
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string           false  "Key making retries safe"
// @Param        body             body      transferRequest  true   "Source, destination, amount"
// @Success      201              {object}  transferResponse
// @Failure      404              {object}  errorResponse
// @Failure      422              {object}  errorResponse
// @Router       /v1/transfers [post]
func (h *LedgerHandler) Transfer(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req transferRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	result, err := h.service.Transfer(c.Request().Context(), ports.TransferInput{
		FromJarID:      req.FromJarID,
		ToJarID:        req.ToJarID,
		ActorID:        userID,
		Amount:         req.Amount,
		Note:           req.Note,
		IdempotencyKey: ctxIdempotencyKey(c),
	})
	if err != nil {
		return err
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	return c.JSON(status, transferResponse{
		Out:         toTransactionResponse(result.Out),
		In:          toTransactionResponse(result.In),
		FromBalance: result.FromBalance,
		ToBalance:   result.ToBalance,
	})
}
