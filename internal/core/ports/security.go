package ports

import (
	"context"
	"time"

	"github.com/tripnetwork/identity-service/internal/core/domain"
)

// PasswordHasher computes and checks one-way password digests.
type PasswordHasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	// Compare reports whether plaintext matches digest. A malformed digest
	// compares as false, not as an error.
	Compare(ctx context.Context, digest, plaintext string) (bool, error)
}

// TokenIssuer mints bearer tokens for an account.
type TokenIssuer interface {
	Issue(account *domain.Account) (string, error)
}

// TokenVerifier validates a bearer token and returns its claims. It fails with
// domain.ErrTokenExpired or domain.ErrTokenInvalid.
type TokenVerifier interface {
	Verify(token string) (*domain.TokenClaims, error)
}

// AttemptLimiter throttles repeated attempts for an identifier inside a sliding window.
type AttemptLimiter interface {
	// Allow records an attempt and reports whether it is within limit. When it
	// is not, retryAfter tells the caller how long to wait.
	Allow(ctx context.Context, identifier string, limit int, window time.Duration) (allowed bool, retryAfter time.Duration, err error)
}
