package ports

import (
	"context"

	"github.com/tripnetwork/identity-service/internal/core/domain"
)

// ApprovalService performs the administrative provider transitions.
type ApprovalService interface {
	Approve(ctx context.Context, actorID, accountID int64) error
	Reject(ctx context.Context, actorID, accountID int64) error
	ListPending(ctx context.Context) ([]*domain.Account, error)
}
