package domain

import "errors"

// Failure taxonomy surfaced to API clients. Services wrap these with
// fmt.Errorf("...: %w", err) so handlers can map them with errors.Is.
var (
	// ErrInvalidCredentials covers a wrong email/password pair at login.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrTokenInvalid indicates a malformed token or a failed signature check.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrTokenExpired indicates a cryptographically sound but expired token.
	ErrTokenExpired = errors.New("token expired")
	// ErrSessionExpired means a refresh token verified but no live session
	// record backs it; the client must authenticate again.
	ErrSessionExpired = errors.New("session expired, please log in again")
	// ErrUnauthenticated is returned when a protected route is hit without a
	// usable access token.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden is returned on a role mismatch.
	ErrForbidden = errors.New("insufficient role for this resource")
	// ErrNotFound covers absent users, courses, orders, and layouts.
	ErrNotFound = errors.New("resource not found")
	// ErrEmailTaken is returned when registering an address that already has
	// an account.
	ErrEmailTaken = errors.New("email already registered")
	// ErrConflict rejects creating a resource that already exists.
	ErrConflict = errors.New("resource already exists")
	// ErrUpstream wraps failures of external collaborators (mail, payments,
	// media). The primary mutation may already have been applied when this
	// surfaces.
	ErrUpstream = errors.New("upstream call failed")
	// ErrAlreadyPurchased rejects a duplicate order for the same course.
	ErrAlreadyPurchased = errors.New("course already purchased")
	// ErrNotPurchased gates paid course content.
	ErrNotPurchased = errors.New("course not purchased")
)
