package model

import (
	"errors"
	"time"
)

// User represents an account holder.
type User struct {
	ID                       int64      `db:"id" json:"id"`
	Name                     string     `db:"name" json:"name"`
	Email                    string     `db:"email" json:"email"`
	PasswordHashed           string     `db:"password_hashed" json:"-"` // "-" hides from JSON output
	EmailVerified            bool       `db:"email_verified" json:"email_verified"`
	EmailVerificationToken   *string    `db:"email_verification_token" json:"-"`
	EmailVerificationExpires *time.Time `db:"email_verification_expires" json:"-"`
	PasswordResetToken       *string    `db:"password_reset_token" json:"-"`
	PasswordResetExpires     *time.Time `db:"password_reset_expires" json:"-"`
	CreatedAt                time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt                time.Time  `db:"updated_at" json:"updated_at"`
}

// SignupRequest represents the data needed to create an account.
type SignupRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// LoginRequest represents the data needed to log in.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse bundles the user with its token pair.
type LoginResponse struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// CheckAvailabilityRequest asks whether a name or email is free pre-signup.
type CheckAvailabilityRequest struct {
	Field string `json:"field"` // "name" or "email"
	Value string `json:"value"`
}

// CheckAvailabilityResponse reports the outcome with a localized message.
type CheckAvailabilityResponse struct {
	Available bool   `json:"available"`
	Message   string `json:"message"`
}

// VerifyEmailRequest consumes an email verification token.
type VerifyEmailRequest struct {
	Token string `json:"token"`
}

// ResetPasswordRequest consumes a password reset token.
type ResetPasswordRequest struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailExists is returned when a signup reuses a registered email
	ErrEmailExists = errors.New("email already exists")

	// ErrNameExists is returned when a signup reuses a registered name
	ErrNameExists = errors.New("name already exists")

	// ErrInvalidCredentials is returned when login credentials are incorrect
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrTokenInvalid is returned when a verification or reset token is unknown
	ErrTokenInvalid = errors.New("token invalid")

	// ErrTokenExpired is returned when a verification or reset token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrAlreadyVerified is returned when resending verification to a verified account
	ErrAlreadyVerified = errors.New("email already verified")
)
