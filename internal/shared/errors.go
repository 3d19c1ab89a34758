package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountLocked indicates the principal is under a temporary lockout.
	ErrAccountLocked = errors.New("account locked")
	// ErrAccountInactive indicates a soft-deleted account.
	ErrAccountInactive = errors.New("account inactive")
	// ErrValidation indicates a request that fails domain validation.
	ErrValidation = errors.New("validation failed")
	// ErrForbidden indicates an action outside the caller's reach.
	ErrForbidden = errors.New("forbidden")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// UserSafeMessage maps internal errors to messages safe for end users.
// Authorization internals are never leaked beyond the generic reason code.
func UserSafeMessage(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "The requested resource was not found."
	case errors.Is(err, ErrInvalidCredentials):
		return "Email or password is incorrect."
	case errors.Is(err, ErrAccountLocked):
		return "This account is temporarily locked. Try again later."
	case errors.Is(err, ErrAccountInactive):
		return "This account is no longer active."
	default:
		return "Something went wrong. Please try again."
	}
}
