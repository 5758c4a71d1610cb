package domain

import "time"

// Role identifies what an account is allowed to do on the marketplace.
type Role string

const (
	RoleTraveler            Role = "traveler"
	RoleTravelAgency        Role = "travel_agency"
	RoleHotelRepresentative Role = "hotel_representative"
	RoleAdmin               Role = "admin"
)

// IsKnown reports whether r is one of the defined roles.
func (r Role) IsKnown() bool {
	switch r {
	case RoleTraveler, RoleTravelAgency, RoleHotelRepresentative, RoleAdmin:
		return true
	}
	return false
}

// IsProvider reports whether accounts with this role need admin vetting.
func (r Role) IsProvider() bool {
	return r == RoleTravelAgency || r == RoleHotelRepresentative
}

// InitialStatus is the approval status an account starts with.
// Providers wait for an admin; everybody else is usable right away.
func (r Role) InitialStatus() ApprovalStatus {
	if r.IsProvider() {
		return StatusPending
	}
	return StatusActive
}

// ProviderType discriminates the two provider profile variants.
type ProviderType string

const (
	ProviderAgency ProviderType = "AGENCY"
	ProviderHotel  ProviderType = "HOTEL"
)

// TravelerProfile holds the satellite fields of a traveler account.
type TravelerProfile struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// AdminProfile holds the satellite fields of an admin account.
type AdminProfile struct {
	Name string `json:"name"`
}

// AgencyProfile is the agency-specific part of a provider.
type AgencyProfile struct {
	AgencyName string `json:"agencyName"`
}

// HotelProfile is the hotel-specific part of a provider.
type HotelProfile struct {
	HotelName string  `json:"hotelName"`
	Location  *string `json:"location,omitempty"`
}

// ProviderProfile is shared by agencies and hotels. Exactly one of Agency or
// Hotel is set, matching ProviderType.
type ProviderProfile struct {
	ProviderType    ProviderType   `json:"providerType"`
	NID             string         `json:"nid"`
	TradeLicenseID  string         `json:"tradeLicenseId"`
	Address         string         `json:"address"`
	Phone           string         `json:"phone"`
	Website         *string        `json:"website,omitempty"`
	ApprovedByAdmin bool           `json:"approvedByAdmin"`
	ApprovedAt      *time.Time     `json:"approvedAt,omitempty"`
	Agency          *AgencyProfile `json:"agency,omitempty"`
	Hotel           *HotelProfile  `json:"hotel,omitempty"`
}

// Account is the base identity record. Role-specific data never lives on the
// account itself: it is carried by exactly one of the profile pointers.
type Account struct {
	ID             int64            `json:"id"`
	Email          string           `json:"email"`
	PasswordHash   string           `json:"-"`
	Role           Role             `json:"role"`
	ApprovalStatus ApprovalStatus   `json:"approvalStatus"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
	Traveler       *TravelerProfile `json:"traveler,omitempty"`
	Provider       *ProviderProfile `json:"provider,omitempty"`
	Admin          *AdminProfile    `json:"admin,omitempty"`
}

// ProfileMatchesRole reports whether the account carries exactly the profile
// variant its role demands.
func (a *Account) ProfileMatchesRole() bool {
	if a == nil {
		return false
	}
	switch a.Role {
	case RoleTraveler:
		return a.Traveler != nil && a.Provider == nil && a.Admin == nil
	case RoleAdmin:
		return a.Admin != nil && a.Traveler == nil && a.Provider == nil
	case RoleTravelAgency:
		return a.Traveler == nil && a.Admin == nil && a.Provider != nil &&
			a.Provider.ProviderType == ProviderAgency &&
			a.Provider.Agency != nil && a.Provider.Hotel == nil
	case RoleHotelRepresentative:
		return a.Traveler == nil && a.Admin == nil && a.Provider != nil &&
			a.Provider.ProviderType == ProviderHotel &&
			a.Provider.Hotel != nil && a.Provider.Agency == nil
	}
	return false
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	if a.Traveler != nil {
		t := *a.Traveler
		c.Traveler = &t
	}
	if a.Admin != nil {
		ad := *a.Admin
		c.Admin = &ad
	}
	if a.Provider != nil {
		p := *a.Provider
		p.Website = cloneString(a.Provider.Website)
		if a.Provider.ApprovedAt != nil {
			at := *a.Provider.ApprovedAt
			p.ApprovedAt = &at
		}
		if a.Provider.Agency != nil {
			ag := *a.Provider.Agency
			p.Agency = &ag
		}
		if a.Provider.Hotel != nil {
			h := *a.Provider.Hotel
			h.Location = cloneString(a.Provider.Hotel.Location)
			p.Hotel = &h
		}
		c.Provider = &p
	}
	return &c
}

// Sanitize returns a copy of the account without its password hash.
// Sanitize(nil) is nil.
func (a *Account) Sanitize() *Account {
	if a == nil {
		return nil
	}
	c := a.Clone()
	c.PasswordHash = ""
	return c
}

// Principal is the identity attached to a request once it has been authenticated.
type Principal struct {
	ID             int64          `json:"id"`
	Email          string         `json:"email"`
	Role           Role           `json:"role"`
	ApprovalStatus ApprovalStatus `json:"approvalStatus"`
}

// PrincipalOf builds the request principal from a resolved account.
func PrincipalOf(a *Account) Principal {
	return Principal{
		ID:             a.ID,
		Email:          a.Email,
		Role:           a.Role,
		ApprovalStatus: a.ApprovalStatus,
	}
}

// TokenClaims are the identity claims carried by a bearer token.
type TokenClaims struct {
	AccountID int64
	Email     string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
