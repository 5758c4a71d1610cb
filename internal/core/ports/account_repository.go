package ports

import (
	"context"
	"time"

	"github.com/tripnetwork/identity-service/internal/core/domain"
)

// AccountRepository defines the credential store. Implementations must be
// interchangeable: the PostgreSQL store in production, the in-memory store in tests.
type AccountRepository interface {
	// Create persists the account and its satellite profile rows as one atomic
	// group and returns the stored record with its assigned ID. A duplicate email
	// fails with domain.ErrEmailTaken.
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)

	// FindByEmail and FindByID return the full internal record, password hash
	// included, or domain.ErrAccountNotFound.
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByID(ctx context.Context, id int64) (*domain.Account, error)

	// Approve moves a PENDING account to ACTIVE and stamps its provider audit
	// fields in the same atomic unit. Reject moves PENDING to BLOCKED. Both fail
	// with domain.ErrNotFoundOrAlreadyProcessed when the account is not pending.
	Approve(ctx context.Context, id int64, at time.Time) error
	Reject(ctx context.Context, id int64, at time.Time) error

	// ListPending returns every PENDING account, newest first.
	ListPending(ctx context.Context) ([]*domain.Account, error)
}
