package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tripnetwork/identity-service/internal/api/middleware"
	"github.com/tripnetwork/identity-service/internal/core/domain"
)

// currentPrincipal returns the principal attached by the authentication gate.
// Its absence means the route was wired without the gate; reject with 401.
func currentPrincipal(c echo.Context) (domain.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return domain.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, domain.ErrAuthenticationRequired.Error()).
			SetInternal(domain.ErrAuthenticationRequired)
	}
	return p, nil
}
