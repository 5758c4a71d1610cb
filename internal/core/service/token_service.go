package service

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tripnetwork/identity-service/internal/core/domain"
)

// TokenIssuer is the value placed in the iss claim and required on verification.
const TokenIssuer = "identity-service"

// DefaultTokenTTL applies when no expiry is configured.
const DefaultTokenTTL = 7 * 24 * time.Hour

// clockSkew tolerates small clock differences between instances sharing a secret.
const clockSkew = 5 * time.Second

type accountClaims struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies HS256 bearer tokens with a process-wide secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return newTokenService(secret, ttl, time.Now)
}

func newTokenService(secret string, ttl time.Duration, now func() time.Time) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    now,
		// the algorithm comes from here, never from the token header
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(TokenIssuer),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
			jwt.WithLeeway(clockSkew),
			jwt.WithTimeFunc(now),
		),
	}
}

// Issue mints a token carrying the account's id, email and role.
func (s *TokenService) Issue(account *domain.Account) (string, error) {
	if account == nil {
		return "", errors.New("issue token: nil account")
	}
	now := s.now().UTC()
	claims := accountClaims{
		ID:    account.ID,
		Email: account.Email,
		Role:  string(account.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(account.ID, 10),
			Issuer:    TokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm, issuer and expiry. Expired tokens fail
// with domain.ErrTokenExpired, everything else with domain.ErrTokenInvalid.
func (s *TokenService) Verify(token string) (*domain.TokenClaims, error) {
	var claims accountClaims
	_, err := s.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}
	if claims.ID <= 0 || !domain.Role(claims.Role).IsKnown() {
		return nil, domain.ErrTokenInvalid
	}

	out := &domain.TokenClaims{
		AccountID: claims.ID,
		Email:     claims.Email,
		Role:      domain.Role(claims.Role),
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
