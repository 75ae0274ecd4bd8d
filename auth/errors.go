package auth

import "errors"

var (
	ErrInvalidEmail        = errors.New("invalid email address")
	ErrPasswordMismatch    = errors.New("passwords do not match")
	ErrWeakPassword        = errors.New("password too weak")
	ErrEmailInUse          = errors.New("email already registered")
	ErrOperationNotAllowed = errors.New("sign-up is disabled")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidToken        = errors.New("invalid or expired token")
	ErrUserNotFound        = errors.New("user not found")
)

// MinPasswordLength is the shortest password accepted at sign-up.
const MinPasswordLength = 6

const fallbackMessage = "Error creating account. Please try again."

var messages = map[error]string{
	ErrInvalidEmail:        "Invalid email address",
	ErrPasswordMismatch:    "Passwords do not match",
	ErrWeakPassword:        "Password must be at least 6 characters long",
	ErrEmailInUse:          "Email is already registered",
	ErrOperationNotAllowed: "Email/password accounts are not enabled. Please contact support.",
	ErrInvalidCredentials:  "Invalid email or password",
	ErrInvalidToken:        "Your session has expired. Please sign in again.",
}

// Message returns the text shown to the user for an auth failure.
func Message(err error) string {
	for target, msg := range messages {
		if errors.Is(err, target) {
			return msg
		}
	}
	return fallbackMessage
}
