// Package memory provides an in-process AccountRepository for tests and local
// runs. It honours the same contract as the PostgreSQL store: unique emails,
// atomic creation and compare-and-set status transitions.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/tripnetwork/identity-service/internal/core/domain"
)

var errMissingProviderProfile = errors.New("approve: provider profile missing")

// AccountRepository keeps accounts in a map guarded by a mutex. Every record
// crossing the boundary is deep-copied.
type AccountRepository struct {
	mu      sync.Mutex
	nextID  int64
	byID    map[int64]*domain.Account
	byEmail map[string]int64
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		byID:    make(map[int64]*domain.Account),
		byEmail: make(map[string]int64),
	}
}

func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[account.Email]; exists {
		return nil, domain.ErrEmailTaken
	}

	r.nextID++
	stored := account.Clone()
	stored.ID = r.nextID
	r.byID[stored.ID] = stored
	r.byEmail[stored.Email] = stored.ID
	return stored.Clone(), nil
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return r.byID[id].Clone(), nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id int64) (*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return a.Clone(), nil
}

func (r *AccountRepository) Approve(ctx context.Context, id int64, at time.Time) error {
	return r.transition(ctx, id, domain.StatusActive, at)
}

func (r *AccountRepository) Reject(ctx context.Context, id int64, at time.Time) error {
	return r.transition(ctx, id, domain.StatusBlocked, at)
}

func (r *AccountRepository) transition(ctx context.Context, id int64, next domain.ApprovalStatus, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok || a.ApprovalStatus != domain.StatusPending || !a.ApprovalStatus.CanTransitionTo(next) {
		return domain.ErrNotFoundOrAlreadyProcessed
	}
	if next == domain.StatusActive && a.Provider == nil {
		return errMissingProviderProfile
	}

	a.ApprovalStatus = next
	a.UpdatedAt = at
	if next == domain.StatusActive {
		stamp := at
		a.Provider.ApprovedByAdmin = true
		a.Provider.ApprovedAt = &stamp
	}
	return nil
}

func (r *AccountRepository) ListPending(ctx context.Context) ([]*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*domain.Account, 0)
	for _, a := range r.byID {
		if a.ApprovalStatus == domain.StatusPending {
			out = append(out, a.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
