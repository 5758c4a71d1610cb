package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tripnetwork/identity-service/internal/api/metrics"
	"github.com/tripnetwork/identity-service/internal/core/domain"
	"github.com/tripnetwork/identity-service/internal/core/ports"
)

const (
	msgInvalidBody        = "Invalid request body"
	msgLoginRequired      = "Email and password are required"
	msgLoginSuccessful    = "Login successful"
	msgTravelerRegistered = "Registration successful. You can now login."
	msgProviderRegistered = "Registration successful. Your account is pending approval. You will be able to login once an admin approves your account."
)

type AuthHandler struct {
	accounts ports.AccountService
}

func NewAuthHandler(accounts ports.AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

// registerRequest carries every role's fields; only the declared role's are read.
type registerRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	Role           string `json:"role"`
	Name           string `json:"name,omitempty"`
	Phone          string `json:"phone,omitempty"`
	NID            string `json:"nid,omitempty"`
	TradeLicenseID string `json:"tradeLicenseId,omitempty"`
	Address        string `json:"address,omitempty"`
	Website        string `json:"website,omitempty"`
	AgencyName     string `json:"agencyName,omitempty"`
	HotelName      string `json:"hotelName,omitempty"`
	Location       string `json:"location,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type authData struct {
	User  *domain.Account `json:"user"`
	Token string          `json:"token,omitempty"`
}

type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Register creates a new traveler, travel agency or hotel account.
//
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Role-specific registration payload"
// @Success      201   {object}  successResponse
// @Failure      400   {object}  map[string]any
// @Failure      500   {object}  map[string]any
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		metrics.RegistrationsTotal.WithLabelValues(roleLabel(req.Role), "invalid").Inc()
		return domain.NewValidationError(msgInvalidBody)
	}

	token, acct, err := h.accounts.Register(c.Request().Context(), ports.RegisterInput{
		Email:          req.Email,
		Password:       req.Password,
		Role:           req.Role,
		Name:           req.Name,
		Phone:          req.Phone,
		NID:            req.NID,
		TradeLicenseID: req.TradeLicenseID,
		Address:        req.Address,
		Website:        req.Website,
		AgencyName:     req.AgencyName,
		HotelName:      req.HotelName,
		Location:       req.Location,
	})
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues(roleLabel(req.Role), registrationOutcome(err)).Inc()
		return err
	}
	metrics.RegistrationsTotal.WithLabelValues(string(acct.Role), "created").Inc()

	msg := msgTravelerRegistered
	if acct.Role.IsProvider() {
		msg = msgProviderRegistered
	}
	return c.JSON(http.StatusCreated, successResponse{
		Success: true,
		Message: msg,
		Data:    authData{User: acct, Token: token},
	})
}

// Login authenticates an account and returns a bearer token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  successResponse
// @Failure      400   {object}  map[string]any
// @Failure      401   {object}  map[string]any
// @Failure      403   {object}  map[string]any
// @Failure      429   {object}  map[string]any
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return domain.NewValidationError(msgInvalidBody)
	}
	if err := c.Validate(&req); err != nil {
		return domain.NewValidationError(msgLoginRequired)
	}

	token, acct, err := h.accounts.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues(loginOutcome(err)).Inc()
		return err
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()

	return c.JSON(http.StatusOK, successResponse{
		Success: true,
		Message: msgLoginSuccessful,
		Data:    authData{User: acct, Token: token},
	})
}

// Me returns the account behind the bearer token.
//
// @Summary      Current account
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  successResponse
// @Failure      401  {object}  map[string]any
// @Failure      403  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}

	acct, err := h.accounts.FindByID(c.Request().Context(), p.ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, successResponse{
		Success: true,
		Data:    authData{User: acct.Sanitize()},
	})
}

func roleLabel(role string) string {
	if r := domain.Role(role); r.IsKnown() {
		return role
	}
	return "unknown"
}

func registrationOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	case errors.Is(err, domain.ErrEmailTaken):
		return "conflict"
	default:
		return "error"
	}
}

func loginOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrValidation):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrAccountPending), errors.Is(err, domain.ErrAccountBlocked):
		return "not_active"
	default:
		return "error"
	}
}
