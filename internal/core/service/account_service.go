package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tripnetwork/identity-service/internal/core/domain"
	"github.com/tripnetwork/identity-service/internal/core/ports"
)

const msgLoginFieldsRequired = "Email and password are required"

// AccountService implements registration, login and account lookups.
type AccountService struct {
	repo   ports.AccountRepository
	hasher ports.PasswordHasher
	tokens ports.TokenIssuer
	rules  *registrationRules
	log    zerolog.Logger
	now    func() time.Time

	// digest compared against when the email is unknown so both login
	// failures cost one bcrypt comparison; computed lazily, retried until it succeeds
	dummyMu     sync.Mutex
	dummyDigest string
}

func NewAccountService(
	repo ports.AccountRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenIssuer,
	log zerolog.Logger,
) *AccountService {
	return &AccountService{
		repo:   repo,
		hasher: hasher,
		tokens: tokens,
		rules:  newRegistrationRules(),
		log:    log,
		now:    time.Now,
	}
}

// Register validates the payload, stores the account with its profile and
// returns a bearer token with the sanitized account.
func (s *AccountService) Register(ctx context.Context, in ports.RegisterInput) (string, *domain.Account, error) {
	acct, err := s.rules.check(in)
	if err != nil {
		return "", nil, err
	}

	created, err := s.create(ctx, acct, in.Password)
	if err != nil {
		return "", nil, err
	}

	token, err := s.tokens.Issue(created)
	if err != nil {
		return "", nil, fmt.Errorf("register: %w", err)
	}

	s.log.Info().
		Int64("account_id", created.ID).
		Str("role", string(created.Role)).
		Str("approval_status", string(created.ApprovalStatus)).
		Msg("account registered")

	return token, created.Sanitize(), nil
}

// ProvisionAdmin creates an ACTIVE admin account.
func (s *AccountService) ProvisionAdmin(ctx context.Context, email, password, name string) (*domain.Account, error) {
	acct, err := s.rules.admin(email, password, name)
	if err != nil {
		return nil, err
	}

	created, err := s.create(ctx, acct, password)
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("account_id", created.ID).Msg("admin provisioned")
	return created.Sanitize(), nil
}

// create runs the uniqueness pre-check, hashes the password and persists acct.
// The store's unique constraint still decides races the pre-check cannot see.
func (s *AccountService) create(ctx context.Context, acct *domain.Account, password string) (*domain.Account, error) {
	_, err := s.repo.FindByEmail(ctx, acct.Email)
	switch {
	case err == nil:
		return nil, domain.ErrEmailTaken
	case !errors.Is(err, domain.ErrAccountNotFound):
		return nil, fmt.Errorf("check email: %w", err)
	}

	digest, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	acct.PasswordHash = digest

	now := s.now().UTC()
	acct.CreatedAt = now
	acct.UpdatedAt = now

	created, err := s.repo.Create(ctx, acct)
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	return created, nil
}

// Login checks credentials and returns a token for an ACTIVE account. Unknown
// email and wrong password both yield domain.ErrInvalidCredentials; the
// approval status is only revealed once the password is proven.
func (s *AccountService) Login(ctx context.Context, email, password string) (string, *domain.Account, error) {
	if email == "" || password == "" {
		return "", nil, domain.NewValidationError(msgLoginFieldsRequired)
	}

	acct, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrAccountNotFound) {
		_, _ = s.hasher.Compare(ctx, s.dummy(ctx), password)
		return "", nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("login: %w", err)
	}

	ok, err := s.hasher.Compare(ctx, acct.PasswordHash, password)
	if err != nil {
		return "", nil, fmt.Errorf("login: %w", err)
	}
	if !ok {
		return "", nil, domain.ErrInvalidCredentials
	}

	if err := acct.ApprovalStatus.AccessError(); err != nil {
		s.log.Debug().Int64("account_id", acct.ID).Str("approval_status", string(acct.ApprovalStatus)).Msg("login refused for inactive account")
		return "", nil, err
	}

	token, err := s.tokens.Issue(acct)
	if err != nil {
		return "", nil, fmt.Errorf("login: %w", err)
	}
	return token, acct.Sanitize(), nil
}

// FindByEmail returns the full internal record, password hash included.
func (s *AccountService) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return s.repo.FindByEmail(ctx, email)
}

// FindByID returns the full internal record, password hash included.
func (s *AccountService) FindByID(ctx context.Context, id int64) (*domain.Account, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *AccountService) dummy(ctx context.Context) string {
	s.dummyMu.Lock()
	defer s.dummyMu.Unlock()

	if s.dummyDigest == "" {
		digest, err := s.hasher.Hash(context.WithoutCancel(ctx), "dummy-password-for-timing")
		if err != nil {
			s.log.Warn().Err(err).Msg("could not prepare dummy password digest")
			return ""
		}
		s.dummyDigest = digest
	}
	return s.dummyDigest
}
