package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tripnetwork/identity-service/internal/core/domain"
	"github.com/tripnetwork/identity-service/internal/core/ports"
)

// ApprovalService moves pending providers to ACTIVE or BLOCKED. Races between
// admins are settled by the store's conditional update, not here.
type ApprovalService struct {
	repo ports.AccountRepository
	log  zerolog.Logger
	now  func() time.Time
}

func NewApprovalService(repo ports.AccountRepository, log zerolog.Logger) *ApprovalService {
	return &ApprovalService{repo: repo, log: log, now: time.Now}
}

// Approve activates a pending provider and stamps its audit fields.
func (s *ApprovalService) Approve(ctx context.Context, actorID, accountID int64) error {
	if accountID <= 0 {
		return domain.ErrNotFoundOrAlreadyProcessed
	}
	if err := s.repo.Approve(ctx, accountID, s.now().UTC()); err != nil {
		return err
	}
	s.log.Info().Int64("admin_id", actorID).Int64("account_id", accountID).Msg("provider approved")
	return nil
}

// Reject blocks a pending provider.
func (s *ApprovalService) Reject(ctx context.Context, actorID, accountID int64) error {
	if accountID <= 0 {
		return domain.ErrNotFoundOrAlreadyProcessed
	}
	if err := s.repo.Reject(ctx, accountID, s.now().UTC()); err != nil {
		return err
	}
	s.log.Info().Int64("admin_id", actorID).Int64("account_id", accountID).Msg("provider rejected")
	return nil
}

// ListPending returns sanitized pending accounts, newest first.
func (s *ApprovalService) ListPending(ctx context.Context) ([]*domain.Account, error) {
	accounts, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Account, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, a.Sanitize())
	}
	return out, nil
}
