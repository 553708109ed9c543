package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ctxUserID extracts the user id injected by the Auth middleware and
// fast-fails before any service call: presence proves the middleware ran,
// and no operation in the API is meaningful without an acting user.
func ctxUserID(c echo.Context) (string, error) {
	userID, _ := c.Get("user_id").(string)
	if userID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return userID, nil
}

// ctxIdempotencyKey reads the optional Idempotency-Key header that makes
// ledger operation retries safe.
func ctxIdempotencyKey(c echo.Context) string {
	return c.Request().Header.Get("Idempotency-Key")
}
