package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/tripnetwork/identity-service/internal/core/domain"
)

var accountColumns = []string{
	"id", "email", "password_hash", "role", "approval_status", "created_at", "updated_at",
	"name", "phone",
	"name",
	"provider_type", "nid", "trade_license_id", "address", "phone", "website",
	"approved_by_admin", "approved_at",
	"agency_name",
	"hotel_name", "location",
}

// ptr mirrors how pgx hands nullable columns to pointer destinations.
func ptr[T any](v T) *T { return &v }

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func hotelAccount(now time.Time) *domain.Account {
	location := "Cox's Bazar"
	return &domain.Account{
		Email:          "hotel@b.com",
		PasswordHash:   "digest",
		Role:           domain.RoleHotelRepresentative,
		ApprovalStatus: domain.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
		Provider: &domain.ProviderProfile{
			ProviderType:   domain.ProviderHotel,
			NID:            "N1",
			TradeLicenseID: "TL1",
			Address:        "Beach Rd",
			Phone:          "555",
			Hotel:          &domain.HotelProfile{HotelName: "Sea View", Location: &location},
		},
	}
}

func TestAccountRepository_CreateProviderInOneTransaction(t *testing.T) {
	mock := newMock(t)
	repo := NewAccountRepository(mock)
	now := time.Now().UTC()
	acct := hotelAccount(now)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO accounts \(email,password_hash,role,approval_status,created_at,updated_at\)`).
		WithArgs("hotel@b.com", "digest", "hotel_representative", "PENDING", now, now).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectExec(`INSERT INTO provider_profiles`).
		WithArgs(int64(7), "HOTEL", "N1", "TL1", "Beach Rd", "555", (*string)(nil)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO hotel_profiles`).
		WithArgs(int64(7), "Sea View", acct.Provider.Hotel.Location).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	created, err := repo.Create(context.Background(), acct)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.ID != 7 {
		t.Fatalf("expected id 7, got %d", created.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepository_CreateTraveler(t *testing.T) {
	mock := newMock(t)
	repo := NewAccountRepository(mock)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO accounts`).
		WithArgs("a@b.com", "digest", "traveler", "ACTIVE", now, now).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectExec(`INSERT INTO traveler_profiles`).
		WithArgs(int64(1), "A", "123").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	_, err := repo.Create(context.Background(), &domain.Account{
		Email: "a@b.com", PasswordHash: "digest", Role: domain.RoleTraveler, ApprovalStatus: domain.StatusActive,
		CreatedAt: now, UpdatedAt: now,
		Traveler: &domain.TravelerProfile{Name: "A", Phone: "123"},
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepository_CreateDuplicateEmail(t *testing.T) {
	mock := newMock(t)
	repo := NewAccountRepository(mock)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO accounts`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "accounts_email_key"})
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), hotelAccount(now))
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepository_CreateProfileFailureRollsBack(t *testing.T) {
	mock := newMock(t)
	repo := NewAccountRepository(mock)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO accounts`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(3)))
	mock.ExpectExec(`INSERT INTO provider_profiles`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	if _, err := repo.Create(context.Background(), hotelAccount(now)); err == nil {
		t.Fatalf("expected error when a profile insert fails")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepository_CreateRejectsMismatchedProfile(t *testing.T) {
	mock := newMock(t)
	repo := NewAccountRepository(mock)

	_, err := repo.Create(context.Background(), &domain.Account{Email: "a@b.com", Role: domain.RoleTraveler})
	if err == nil {
		t.Fatalf("expected error for traveler without profile")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no statements should run: %v", err)
	}
}

func TestAccountRepository_FindByID(t *testing.T) {
	mock := newMock(t)
	repo := NewAccountRepository(mock)
	now := time.Now().UTC()

	rows := pgxmock.NewRows(accountColumns).AddRow(
		int64(5), "agency@b.com", "digest", "travel_agency", "ACTIVE", now, now,
		nil, nil,
		nil,
		ptr("AGENCY"), ptr("N1"), ptr("TL1"), ptr("Main St"), ptr("555"), nil,
		ptr(true), &now,
		ptr("Sky Tours"),
		nil, nil,
	)
	mock.ExpectQuery(`SELECT .* FROM accounts a LEFT JOIN traveler_profiles t .* WHERE a.id = \$1`).
		WithArgs(int64(5)).
		WillReturnRows(rows)

	acct, err := repo.FindByID(context.Background(), 5)
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}
	if acct.Role != domain.RoleTravelAgency || acct.ApprovalStatus != domain.StatusActive {
		t.Fatalf("unexpected account: %+v", acct)
	}
	if acct.Provider == nil || acct.Provider.Agency == nil || acct.Provider.Agency.AgencyName != "Sky Tours" {
		t.Fatalf("agency profile not assembled: %+v", acct.Provider)
	}
	if !acct.Provider.ApprovedByAdmin || acct.Provider.ApprovedAt == nil {
		t.Fatalf("approval audit fields not read")
	}
	if acct.Traveler != nil || acct.Admin != nil || acct.Provider.Hotel != nil {
		t.Fatalf("unexpected extra profiles: %+v", acct)
	}
	if !acct.ProfileMatchesRole() {
		t.Fatalf("assembled account does not match its role")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepository_FindByEmailNotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewAccountRepository(mock)

	mock.ExpectQuery(`WHERE a.email = \$1`).
		WithArgs("ghost@b.com").
		WillReturnError(pgx.ErrNoRows)

	if _, err := repo.FindByEmail(context.Background(), "ghost@b.com"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepository_ApproveCommitsBothUpdates(t *testing.T) {
	mock := newMock(t)
	repo := NewAccountRepository(mock)
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE accounts SET approval_status = \$1, updated_at = \$2 WHERE id = \$3 AND approval_status = \$4`).
		WithArgs("ACTIVE", at, int64(9), "PENDING").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE provider_profiles SET approved_by_admin = \$1, approved_at = \$2 WHERE account_id = \$3`).
		WithArgs(true, at, int64(9)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	if err := repo.Approve(context.Background(), 9, at); err != nil {
		t.Fatalf("Approve returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepository_ApproveNotPendingRollsBack(t *testing.T) {
	mock := newMock(t)
	repo := NewAccountRepository(mock)
	at := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE accounts SET approval_status`).
		WithArgs("ACTIVE", at, int64(9), "PENDING").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	if err := repo.Approve(context.Background(), 9, at); !errors.Is(err, domain.ErrNotFoundOrAlreadyProcessed) {
		t.Fatalf("expected ErrNotFoundOrAlreadyProcessed, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("provider row must not be touched: %v", err)
	}
}

func TestAccountRepository_ApproveMissingProviderRollsBack(t *testing.T) {
	mock := newMock(t)
	repo := NewAccountRepository(mock)
	at := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE accounts SET approval_status`).
		WithArgs("ACTIVE", at, int64(9), "PENDING").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE provider_profiles`).
		WithArgs(true, at, int64(9)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	err := repo.Approve(context.Background(), 9, at)
	if err == nil || errors.Is(err, domain.ErrNotFoundOrAlreadyProcessed) {
		t.Fatalf("expected an internal error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepository_Reject(t *testing.T) {
	mock := newMock(t)
	repo := NewAccountRepository(mock)
	at := time.Now().UTC()

	mock.ExpectExec(`UPDATE accounts SET approval_status = \$1, updated_at = \$2 WHERE id = \$3 AND approval_status = \$4`).
		WithArgs("BLOCKED", at, int64(4), "PENDING").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE accounts SET approval_status`).
		WithArgs("BLOCKED", at, int64(4), "PENDING").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := repo.Reject(context.Background(), 4, at); err != nil {
		t.Fatalf("first Reject returned error: %v", err)
	}
	if err := repo.Reject(context.Background(), 4, at); !errors.Is(err, domain.ErrNotFoundOrAlreadyProcessed) {
		t.Fatalf("second Reject: expected ErrNotFoundOrAlreadyProcessed, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepository_ListPending(t *testing.T) {
	mock := newMock(t)
	repo := NewAccountRepository(mock)
	now := time.Now().UTC()
	location := "Dhaka"

	rows := pgxmock.NewRows(accountColumns).
		AddRow(
			int64(2), "hotel@b.com", "digest", "hotel_representative", "PENDING", now, now,
			nil, nil,
			nil,
			ptr("HOTEL"), ptr("N2"), ptr("TL2"), ptr("Beach Rd"), ptr("556"), nil,
			ptr(false), nil,
			nil,
			ptr("Sea View"), &location,
		).
		AddRow(
			int64(1), "agency@b.com", "digest", "travel_agency", "PENDING", now.Add(-time.Hour), now.Add(-time.Hour),
			nil, nil,
			nil,
			ptr("AGENCY"), ptr("N1"), ptr("TL1"), ptr("Main St"), ptr("555"), nil,
			ptr(false), nil,
			ptr("Sky Tours"),
			nil, nil,
		)
	mock.ExpectQuery(`WHERE a.approval_status = \$1 ORDER BY a.created_at DESC, a.id DESC`).
		WithArgs("PENDING").
		WillReturnRows(rows)

	pending, err := repo.ListPending(context.Background())
	if err != nil {
		t.Fatalf("ListPending returned error: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(pending))
	}
	if pending[0].Provider.Hotel == nil || *pending[0].Provider.Hotel.Location != "Dhaka" {
		t.Fatalf("hotel profile not assembled: %+v", pending[0].Provider)
	}
	if pending[1].Provider.Agency == nil {
		t.Fatalf("agency profile not assembled: %+v", pending[1].Provider)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMigrate(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS accounts`).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	if err := Migrate(context.Background(), mock); err != nil {
		t.Fatalf("Migrate returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
