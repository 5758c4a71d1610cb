package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tripnetwork/identity-service/internal/core/domain"
)

const uniqueViolation = "23505"

var (
	errProfileMismatch        = errors.New("account profile does not match its role")
	errMissingProviderProfile = errors.New("provider profile missing for approved account")
)

// AccountRepository implements ports.AccountRepository on PostgreSQL. The
// account row and its profile rows are always written in one transaction.
type AccountRepository struct {
	db      DB
	builder squirrel.StatementBuilderType
}

func NewAccountRepository(db DB) *AccountRepository {
	return &AccountRepository{
		db:      db,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Ping reports whether the database is reachable.
func (r *AccountRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// Create inserts the account and its profile rows atomically.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	if !account.ProfileMatchesRole() {
		return nil, errProfileMismatch
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin create account: %w", err)
	}
	defer rollback(ctx, tx)

	stmt, args, err := r.builder.Insert("accounts").
		Columns("email", "password_hash", "role", "approval_status", "created_at", "updated_at").
		Values(
			account.Email,
			account.PasswordHash,
			string(account.Role),
			string(account.ApprovalStatus),
			account.CreatedAt,
			account.UpdatedAt,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert account sql: %w", err)
	}

	var id int64
	if err := tx.QueryRow(ctx, stmt, args...).Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}

	if err := r.insertProfiles(ctx, tx, id, account); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit create account: %w", err)
	}

	created := account.Clone()
	created.ID = id
	return created, nil
}

func (r *AccountRepository) insertProfiles(ctx context.Context, tx pgx.Tx, id int64, a *domain.Account) error {
	var inserts []squirrel.InsertBuilder

	switch {
	case a.Traveler != nil:
		inserts = append(inserts, r.builder.Insert("traveler_profiles").
			Columns("account_id", "name", "phone").
			Values(id, a.Traveler.Name, a.Traveler.Phone))

	case a.Admin != nil:
		inserts = append(inserts, r.builder.Insert("admin_profiles").
			Columns("account_id", "name").
			Values(id, a.Admin.Name))

	case a.Provider != nil:
		p := a.Provider
		inserts = append(inserts, r.builder.Insert("provider_profiles").
			Columns("account_id", "provider_type", "nid", "trade_license_id", "address", "phone", "website").
			Values(id, string(p.ProviderType), p.NID, p.TradeLicenseID, p.Address, p.Phone, p.Website))
		if p.Agency != nil {
			inserts = append(inserts, r.builder.Insert("agency_profiles").
				Columns("account_id", "agency_name").
				Values(id, p.Agency.AgencyName))
		}
		if p.Hotel != nil {
			inserts = append(inserts, r.builder.Insert("hotel_profiles").
				Columns("account_id", "hotel_name", "location").
				Values(id, p.Hotel.HotelName, p.Hotel.Location))
		}
	}

	for _, ins := range inserts {
		stmt, args, err := ins.ToSql()
		if err != nil {
			return fmt.Errorf("build insert profile sql: %w", err)
		}
		if _, err := tx.Exec(ctx, stmt, args...); err != nil {
			return fmt.Errorf("insert profile: %w", err)
		}
	}
	return nil
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, squirrel.Eq{"a.email": email})
}

func (r *AccountRepository) FindByID(ctx context.Context, id int64) (*domain.Account, error) {
	return r.findOne(ctx, squirrel.Eq{"a.id": id})
}

func (r *AccountRepository) findOne(ctx context.Context, pred squirrel.Eq) (*domain.Account, error) {
	stmt, args, err := r.selectAccounts().Where(pred).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select account sql: %w", err)
	}

	acct, err := scanAccount(r.db.QueryRow(ctx, stmt, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return acct, nil
}

// Approve flips PENDING to ACTIVE and stamps the provider audit fields in one
// transaction. The status guard lives in the UPDATE itself.
func (r *AccountRepository) Approve(ctx context.Context, id int64, at time.Time) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin approve: %w", err)
	}
	defer rollback(ctx, tx)

	if err := r.transition(ctx, tx, id, domain.StatusActive, at); err != nil {
		return err
	}

	stmt, args, err := r.builder.Update("provider_profiles").
		Set("approved_by_admin", true).
		Set("approved_at", at).
		Where("account_id = ?", id).
		ToSql()
	if err != nil {
		return fmt.Errorf("build approve provider sql: %w", err)
	}
	tag, err := tx.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("approve provider: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errMissingProviderProfile
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit approve: %w", err)
	}
	return nil
}

// Reject flips PENDING to BLOCKED with a single conditional update.
func (r *AccountRepository) Reject(ctx context.Context, id int64, at time.Time) error {
	return r.transition(ctx, r.db, id, domain.StatusBlocked, at)
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (r *AccountRepository) transition(ctx context.Context, ex execer, id int64, next domain.ApprovalStatus, at time.Time) error {
	stmt, args, err := r.builder.Update("accounts").
		Set("approval_status", string(next)).
		Set("updated_at", at).
		Where("id = ? AND approval_status = ?", id, string(domain.StatusPending)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build status update sql: %w", err)
	}

	tag, err := ex.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update approval status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFoundOrAlreadyProcessed
	}
	return nil
}

// ListPending returns pending accounts with their profiles, newest first.
func (r *AccountRepository) ListPending(ctx context.Context) ([]*domain.Account, error) {
	stmt, args, err := r.selectAccounts().
		Where(squirrel.Eq{"a.approval_status": string(domain.StatusPending)}).
		OrderBy("a.created_at DESC", "a.id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list pending sql: %w", err)
	}

	rows, err := r.db.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query pending accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]*domain.Account, 0)
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pending account: %w", err)
		}
		accounts = append(accounts, acct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending accounts: %w", err)
	}
	return accounts, nil
}

func (r *AccountRepository) selectAccounts() squirrel.SelectBuilder {
	return r.builder.Select(
		"a.id", "a.email", "a.password_hash", "a.role", "a.approval_status", "a.created_at", "a.updated_at",
		"t.name", "t.phone",
		"ad.name",
		"p.provider_type", "p.nid", "p.trade_license_id", "p.address", "p.phone", "p.website",
		"p.approved_by_admin", "p.approved_at",
		"ag.agency_name",
		"h.hotel_name", "h.location",
	).
		From("accounts a").
		LeftJoin("traveler_profiles t ON t.account_id = a.id").
		LeftJoin("admin_profiles ad ON ad.account_id = a.id").
		LeftJoin("provider_profiles p ON p.account_id = a.id").
		LeftJoin("agency_profiles ag ON ag.account_id = a.id").
		LeftJoin("hotel_profiles h ON h.account_id = a.id")
}

// scanAccount reads one row produced by selectAccounts.
func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		a              domain.Account
		role, status   string
		travelerName   *string
		travelerPhone  *string
		adminName      *string
		providerType   *string
		nid            *string
		tradeLicenseID *string
		address        *string
		providerPhone  *string
		website        *string
		approved       *bool
		approvedAt     *time.Time
		agencyName     *string
		hotelName      *string
		location       *string
	)

	if err := row.Scan(
		&a.ID, &a.Email, &a.PasswordHash, &role, &status, &a.CreatedAt, &a.UpdatedAt,
		&travelerName, &travelerPhone,
		&adminName,
		&providerType, &nid, &tradeLicenseID, &address, &providerPhone, &website,
		&approved, &approvedAt,
		&agencyName,
		&hotelName, &location,
	); err != nil {
		return nil, err
	}

	a.Role = domain.Role(role)
	a.ApprovalStatus = domain.ApprovalStatus(status)

	if travelerName != nil {
		a.Traveler = &domain.TravelerProfile{Name: *travelerName, Phone: deref(travelerPhone)}
	}
	if adminName != nil {
		a.Admin = &domain.AdminProfile{Name: *adminName}
	}
	if providerType != nil {
		p := &domain.ProviderProfile{
			ProviderType:   domain.ProviderType(*providerType),
			NID:            deref(nid),
			TradeLicenseID: deref(tradeLicenseID),
			Address:        deref(address),
			Phone:          deref(providerPhone),
			Website:        website,
			ApprovedAt:     approvedAt,
		}
		if approved != nil {
			p.ApprovedByAdmin = *approved
		}
		if agencyName != nil {
			p.Agency = &domain.AgencyProfile{AgencyName: *agencyName}
		}
		if hotelName != nil {
			p.Hotel = &domain.HotelProfile{HotelName: *hotelName, Location: location}
		}
		a.Provider = p
	}

	return &a, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
