package service

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/go-playground/validator/v10"

	"github.com/tripnetwork/identity-service/internal/core/domain"
	"github.com/tripnetwork/identity-service/internal/core/ports"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const (
	msgCredentialsRequired = "Email, password, and role are required"
	msgInvalidEmail        = "Invalid email format"
	msgPasswordTooShort    = "Password must be at least 6 characters long"
	msgAdminRegistration   = "Admin accounts cannot be created through registration"
	msgInvalidRole         = "Invalid role"
	msgTravelerFields      = "Name and phone are required for travelers"
	msgAgencyFields        = "Agency name, NID, trade license ID, address, and phone are required for travel agencies"
	msgHotelFields         = "Hotel name, NID, trade license ID, address, and phone are required for hotel representatives"
	msgAdminFields         = "Name is required for admins"
)

type credentialFields struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
	Role     string `validate:"required"`
}

type travelerFields struct {
	Name  string `validate:"required"`
	Phone string `validate:"required"`
}

type providerFields struct {
	DisplayName    string `validate:"required"`
	NID            string `validate:"required"`
	TradeLicenseID string `validate:"required"`
	Address        string `validate:"required"`
	Phone          string `validate:"required"`
}

type adminFields struct {
	Name string `validate:"required"`
}

// registrationRules checks registration payloads in a fixed order so the
// first failing rule decides the message.
type registrationRules struct {
	v *validator.Validate
}

func newRegistrationRules() *registrationRules {
	v := validator.New()
	_ = v.RegisterValidation("basic_email", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	// length in UTF-16 code units, so a character outside the BMP counts twice
	_ = v.RegisterValidation("utf16_min", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return utf16Len(fl.Field().String()) >= limit
	})
	return &registrationRules{v: v}
}

// credentials validates the fields every account needs.
func (r *registrationRules) credentials(email, password string) error {
	if err := r.v.Var(email, "basic_email"); err != nil {
		return domain.NewValidationError(msgInvalidEmail)
	}
	if err := r.v.Var(password, "utf16_min="+strconv.Itoa(MinPasswordLength)); err != nil {
		return domain.NewValidationError(msgPasswordTooShort)
	}
	return nil
}

// check validates in and returns the normalized account to persist, without
// its password hash.
func (r *registrationRules) check(in ports.RegisterInput) (*domain.Account, error) {
	if err := r.v.Struct(credentialFields{Email: in.Email, Password: in.Password, Role: in.Role}); err != nil {
		return nil, domain.NewValidationError(msgCredentialsRequired)
	}
	if err := r.credentials(in.Email, in.Password); err != nil {
		return nil, err
	}

	role := domain.Role(in.Role)
	acct := &domain.Account{
		Email:          in.Email,
		Role:           role,
		ApprovalStatus: role.InitialStatus(),
	}

	switch role {
	case domain.RoleTraveler:
		f := travelerFields{Name: trim(in.Name), Phone: trim(in.Phone)}
		if err := r.v.Struct(f); err != nil {
			return nil, domain.NewValidationError(msgTravelerFields)
		}
		acct.Traveler = &domain.TravelerProfile{Name: f.Name, Phone: f.Phone}

	case domain.RoleTravelAgency:
		f := providerFieldsOf(in, in.AgencyName)
		if err := r.v.Struct(f); err != nil {
			return nil, domain.NewValidationError(msgAgencyFields)
		}
		acct.Provider = f.profile(domain.ProviderAgency, in.Website)
		acct.Provider.Agency = &domain.AgencyProfile{AgencyName: f.DisplayName}

	case domain.RoleHotelRepresentative:
		f := providerFieldsOf(in, in.HotelName)
		if err := r.v.Struct(f); err != nil {
			return nil, domain.NewValidationError(msgHotelFields)
		}
		acct.Provider = f.profile(domain.ProviderHotel, in.Website)
		acct.Provider.Hotel = &domain.HotelProfile{HotelName: f.DisplayName, Location: optional(in.Location)}

	case domain.RoleAdmin:
		return nil, domain.NewValidationError(msgAdminRegistration)

	default:
		return nil, domain.NewValidationError(msgInvalidRole)
	}

	return acct, nil
}

// admin validates an out-of-band admin provisioning request.
func (r *registrationRules) admin(email, password, name string) (*domain.Account, error) {
	if err := r.credentials(email, password); err != nil {
		return nil, err
	}
	f := adminFields{Name: trim(name)}
	if err := r.v.Struct(f); err != nil {
		return nil, domain.NewValidationError(msgAdminFields)
	}
	return &domain.Account{
		Email:          email,
		Role:           domain.RoleAdmin,
		ApprovalStatus: domain.StatusActive,
		Admin:          &domain.AdminProfile{Name: f.Name},
	}, nil
}

func providerFieldsOf(in ports.RegisterInput, displayName string) providerFields {
	return providerFields{
		DisplayName:    trim(displayName),
		NID:            trim(in.NID),
		TradeLicenseID: trim(in.TradeLicenseID),
		Address:        trim(in.Address),
		Phone:          trim(in.Phone),
	}
}

func (f providerFields) profile(t domain.ProviderType, website string) *domain.ProviderProfile {
	return &domain.ProviderProfile{
		ProviderType:   t,
		NID:            f.NID,
		TradeLicenseID: f.TradeLicenseID,
		Address:        f.Address,
		Phone:          f.Phone,
		Website:        optional(website),
	}
}

func utf16Len(s string) int { return len(utf16.Encode([]rune(s))) }

func trim(s string) string { return strings.TrimSpace(s) }

// optional maps blank input to nil.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
