package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tripnetwork/identity-service/internal/api/metrics"
	"github.com/tripnetwork/identity-service/internal/core/domain"
	"github.com/tripnetwork/identity-service/internal/core/ports"
)

const principalKey = "principal"

const (
	gateAuthentication = "authentication"
	gateAuthorization  = "authorization"
)

// Authenticate verifies the bearer token, re-resolves the account it names and
// refuses accounts that are not ACTIVE. The token alone is never trusted: a
// provider blocked after login loses access on its next request.
func Authenticate(verifier ports.TokenVerifier, accounts ports.AccountFinder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return reject(gateAuthentication, "no_token", http.StatusUnauthorized, domain.ErrNoToken)
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				if errors.Is(err, domain.ErrTokenExpired) {
					return reject(gateAuthentication, "token_expired", http.StatusUnauthorized, domain.ErrTokenExpired)
				}
				return reject(gateAuthentication, "token_invalid", http.StatusUnauthorized, domain.ErrTokenInvalid)
			}

			acct, err := accounts.FindByID(c.Request().Context(), claims.AccountID)
			if errors.Is(err, domain.ErrAccountNotFound) {
				return reject(gateAuthentication, "unknown_subject", http.StatusUnauthorized, domain.ErrTokenSubjectUnknown)
			}
			if err != nil {
				return fmt.Errorf("resolve principal: %w", err)
			}

			if err := acct.ApprovalStatus.AccessError(); err != nil {
				return reject(gateAuthentication, "not_active", http.StatusForbidden, err)
			}

			SetPrincipal(c, domain.PrincipalOf(acct))
			return next(c)
		}
	}
}

// PrincipalFrom returns the principal attached by Authenticate.
func PrincipalFrom(c echo.Context) (domain.Principal, bool) {
	p, ok := c.Get(principalKey).(domain.Principal)
	return p, ok
}

// SetPrincipal attaches p to the request context.
func SetPrincipal(c echo.Context, p domain.Principal) {
	c.Set(principalKey, p)
}

// bearerToken accepts exactly "Bearer <token>".
func bearerToken(header string) (string, bool) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

func reject(gate, reason string, code int, cause error) error {
	metrics.GateRejectionsTotal.WithLabelValues(gate, reason).Inc()
	return echo.NewHTTPError(code, cause.Error()).SetInternal(cause)
}
