package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aman-zulfiqar/solana-sweep-service/internal/pricing"
	"github.com/aman-zulfiqar/solana-sweep-service/internal/sweep"
)

// NotFoundJSON returns a custom HTTP error handler that returns JSON responses
// This ensures all errors (including 404s) have consistent JSON format
func NotFoundJSON() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		if he, ok := err.(*echo.HTTPError); ok {
			_ = c.JSON(he.Code, ErrorResponse{
				Error: http.StatusText(he.Code),
				Code:  he.Code,
			})
			return
		}

		_ = c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "internal server error",
			Code:  http.StatusInternalServerError,
		})
	}
}

// planStatus maps a planning failure to an HTTP status. Caller mistakes are
// 400, upstream quote/price outages are 502, everything else is 500.
func planStatus(err error) int {
	var (
		dup       *sweep.DuplicateMintError
		noBalance *sweep.NoBalanceError
		noAccount *sweep.AccountNotFoundError
		broke     *sweep.InsufficientFundsError
		quote     *sweep.QuoteUnavailableError
	)
	switch {
	case errors.Is(err, sweep.ErrNoRequests),
		errors.As(err, &dup),
		errors.As(err, &noBalance),
		errors.As(err, &noAccount),
		errors.As(err, &broke):
		return http.StatusBadRequest
	case errors.As(err, &quote),
		errors.Is(err, pricing.ErrPriceUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
