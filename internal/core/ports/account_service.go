package ports

import (
	"context"

	"github.com/tripnetwork/identity-service/internal/core/domain"
)

// RegisterInput is the role-tagged registration payload passed from the
// transport layer to the account service. Only the fields of the declared role
// are read.
type RegisterInput struct {
	Email    string
	Password string
	Role     string

	// traveler
	Name string

	// shared by travelers and providers
	Phone string

	// providers
	NID            string
	TradeLicenseID string
	Address        string
	Website        string

	// travel_agency
	AgencyName string

	// hotel_representative
	HotelName string
	Location  string
}

// AccountService covers registration, login and account lookups.
type AccountService interface {
	// Register returns a bearer token and the sanitized account.
	Register(ctx context.Context, in RegisterInput) (string, *domain.Account, error)
	// Login returns a bearer token and the sanitized account.
	Login(ctx context.Context, email, password string) (string, *domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByID(ctx context.Context, id int64) (*domain.Account, error)
	// ProvisionAdmin creates an active admin account. It is never reachable over HTTP.
	ProvisionAdmin(ctx context.Context, email, password, name string) (*domain.Account, error)
}

// AccountFinder is the narrow lookup the authentication gate depends on.
type AccountFinder interface {
	FindByID(ctx context.Context, id int64) (*domain.Account, error)
}
