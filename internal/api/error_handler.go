package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tripnetwork/identity-service/internal/core/domain"
)

const msgInternal = "Internal server error"

// errorResponse is the canonical error envelope for all API errors.
// Error carries the underlying cause and is only filled in development.
type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status codes.
//   - Logs unexpected errors without leaking details to the client.
//   - Renders {"success": false, "message": "..."} for every failure.
func NewHTTPErrorHandler(log zerolog.Logger, development bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err)
		if code >= http.StatusInternalServerError {
			log.Error().
				Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Msg("unhandled error")
		}

		resp := errorResponse{Success: false, Message: msg}
		if development {
			resp.Error = detail(err)
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, resp)
	}
}

func resolveError(err error) (int, string) {
	// Gates and echo itself return *echo.HTTPError with the final status.
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code >= http.StatusInternalServerError {
			return he.Code, msgInternal
		}
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, ve.Message
	}

	for _, m := range domainErrors {
		if errors.Is(err, m.err) {
			return m.code, m.err.Error()
		}
	}

	return http.StatusInternalServerError, msgInternal
}

var domainErrors = []struct {
	err  error
	code int
}{
	{domain.ErrEmailTaken, http.StatusBadRequest},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized},
	{domain.ErrNoToken, http.StatusUnauthorized},
	{domain.ErrTokenExpired, http.StatusUnauthorized},
	{domain.ErrTokenInvalid, http.StatusUnauthorized},
	{domain.ErrTokenSubjectUnknown, http.StatusUnauthorized},
	{domain.ErrAuthenticationRequired, http.StatusUnauthorized},
	{domain.ErrAccountPending, http.StatusForbidden},
	{domain.ErrAccountBlocked, http.StatusForbidden},
	{domain.ErrInsufficientPermissions, http.StatusForbidden},
	{domain.ErrAccountNotFound, http.StatusNotFound},
	{domain.ErrNotFoundOrAlreadyProcessed, http.StatusNotFound},
	{domain.ErrTooManyAttempts, http.StatusTooManyRequests},
}

func detail(err error) string {
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Internal != nil {
		return he.Internal.Error()
	}
	return err.Error()
}
