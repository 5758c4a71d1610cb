package domain

import "errors"

// Validation and conflict errors are safe to show to clients verbatim.
var (
	ErrValidation = errors.New("validation failed")
	ErrEmailTaken = errors.New("Email already registered")
)

// Authentication errors (401).
var (
	ErrInvalidCredentials     = errors.New("Invalid email or password")
	ErrNoToken                = errors.New("No token provided. Please include a Bearer token in the Authorization header.")
	ErrTokenExpired           = errors.New("Token expired. Please login again.")
	ErrTokenInvalid           = errors.New("Invalid token")
	ErrTokenSubjectUnknown    = errors.New("User not found. Token may be invalid.")
	ErrAuthenticationRequired = errors.New("Authentication required")
)

// Authorization errors (403).
var (
	ErrAccountPending          = errors.New("Account is pending approval. Please wait for admin approval.")
	ErrAccountBlocked          = errors.New("Account has been blocked.")
	ErrInsufficientPermissions = errors.New("Access denied. Insufficient permissions.")
)

// Not-found errors (404).
var (
	ErrAccountNotFound            = errors.New("User not found")
	ErrNotFoundOrAlreadyProcessed = errors.New("Provider not found or already processed")
)

// ErrTooManyAttempts is returned when login throttling kicks in.
var ErrTooManyAttempts = errors.New("Too many login attempts. Please try again later.")

// ValidationError carries a user-facing message describing why an input was
// rejected. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Message string
}

// NewValidationError returns a *ValidationError with the given message.
func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
