package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tripnetwork/identity-service/internal/api/metrics"
	"github.com/tripnetwork/identity-service/internal/core/domain"
)

type stubVerifier struct {
	claims *domain.TokenClaims
	err    error
}

func (s stubVerifier) Verify(string) (*domain.TokenClaims, error) { return s.claims, s.err }

type stubFinder struct {
	account *domain.Account
	err     error
}

func (s stubFinder) FindByID(context.Context, int64) (*domain.Account, error) {
	return s.account, s.err
}

func activeAgency() *domain.Account {
	return &domain.Account{ID: 7, Email: "a@b.com", Role: domain.RoleTravelAgency, ApprovalStatus: domain.StatusActive}
}

func runAuth(t *testing.T, header string, v stubVerifier, f stubFinder) (*httptest.ResponseRecorder, error, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Authenticate(v, f)(func(c echo.Context) error {
		called = true
		p, ok := PrincipalFrom(c)
		if !ok {
			t.Fatalf("principal not attached")
		}
		if p.ID != 7 || p.Role != domain.RoleTravelAgency || p.ApprovalStatus != domain.StatusActive {
			t.Fatalf("unexpected principal: %+v", p)
		}
		return c.NoContent(http.StatusOK)
	})

	err := handler(c)
	if err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, err, called
}

func TestAuthenticate_ValidToken(t *testing.T) {
	rec, err, called := runAuth(t, "Bearer good",
		stubVerifier{claims: &domain.TokenClaims{AccountID: 7}},
		stubFinder{account: activeAgency()})

	if err != nil || !called {
		t.Fatalf("expected next to run, err=%v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthenticate_Rejections(t *testing.T) {
	pending := activeAgency()
	pending.ApprovalStatus = domain.StatusPending
	blocked := activeAgency()
	blocked.ApprovalStatus = domain.StatusBlocked
	okClaims := &domain.TokenClaims{AccountID: 7}

	tests := []struct {
		name   string
		header string
		v      stubVerifier
		f      stubFinder
		code   int
		want   error
	}{
		{"missing header", "", stubVerifier{}, stubFinder{}, http.StatusUnauthorized, domain.ErrNoToken},
		{"wrong scheme", "Token abc", stubVerifier{}, stubFinder{}, http.StatusUnauthorized, domain.ErrNoToken},
		{"lowercase scheme", "bearer abc", stubVerifier{}, stubFinder{}, http.StatusUnauthorized, domain.ErrNoToken},
		{"empty token", "Bearer ", stubVerifier{}, stubFinder{}, http.StatusUnauthorized, domain.ErrNoToken},
		{"expired", "Bearer x", stubVerifier{err: domain.ErrTokenExpired}, stubFinder{}, http.StatusUnauthorized, domain.ErrTokenExpired},
		{"invalid", "Bearer x", stubVerifier{err: domain.ErrTokenInvalid}, stubFinder{}, http.StatusUnauthorized, domain.ErrTokenInvalid},
		{"unknown subject", "Bearer x", stubVerifier{claims: okClaims}, stubFinder{err: domain.ErrAccountNotFound}, http.StatusUnauthorized, domain.ErrTokenSubjectUnknown},
		{"pending account", "Bearer x", stubVerifier{claims: okClaims}, stubFinder{account: pending}, http.StatusForbidden, domain.ErrAccountPending},
		{"blocked account", "Bearer x", stubVerifier{claims: okClaims}, stubFinder{account: blocked}, http.StatusForbidden, domain.ErrAccountBlocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err, called := runAuth(t, tt.header, tt.v, tt.f)
			if called {
				t.Fatalf("next must not run")
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, rec.Code)
			}
		})
	}
}

func TestAuthenticate_StoreFailureIsInternal(t *testing.T) {
	rec, err, called := runAuth(t, "Bearer x",
		stubVerifier{claims: &domain.TokenClaims{AccountID: 7}},
		stubFinder{err: errors.New("connection refused")})

	if called || err == nil {
		t.Fatalf("expected failure, got err=%v called=%v", err, called)
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		t.Fatalf("store failures must not be mapped by the gate: %v", he)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestAuthenticate_CountsRejections(t *testing.T) {
	counter := metrics.GateRejectionsTotal.WithLabelValues(gateAuthentication, "token_expired")
	before := testutil.ToFloat64(counter)

	_, _, _ = runAuth(t, "Bearer x", stubVerifier{err: domain.ErrTokenExpired}, stubFinder{})

	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Fatalf("expected rejection counter to grow by 1, got %v -> %v", before, got)
	}
}

func TestBearerToken(t *testing.T) {
	cases := map[string]bool{
		"Bearer abc.def.ghi": true,
		"Bearer  abc":        true,
		"Bearer":             false,
		"Bearer a b":         false,
		"Basic abc":          false,
		"":                   false,
	}
	for header, want := range cases {
		if _, ok := bearerToken(header); ok != want {
			t.Fatalf("bearerToken(%q) ok=%v, want %v", header, ok, want)
		}
	}
}
