package service

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Callypige/dreamology-diary/internal/model"
	"github.com/Callypige/dreamology-diary/internal/repository"
)

const (
	// VerificationTokenTTL is how long an email verification link stays valid.
	VerificationTokenTTL = 24 * time.Hour

	// PasswordResetTokenTTL is how long a password reset link stays valid.
	PasswordResetTokenTTL = time.Hour

	// MinPasswordLength is the minimum accepted password length.
	MinPasswordLength = 6
)

var nameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,20}$`)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// reservedNames cannot be registered regardless of availability.
var reservedNames = map[string]bool{
	"admin":         true,
	"administrator": true,
	"root":          true,
	"support":       true,
	"system":        true,
	"moderator":     true,
	"dreamology":    true,
	"api":           true,
	"null":          true,
	"undefined":     true,
	"test":          true,
}

// UserService handles business logic for account operations.
type UserService struct {
	repo        repository.UserRepository
	profileRepo repository.ProfileRepository
	emails      EmailDispatcher
}

func NewUserService(repo repository.UserRepository, profileRepo repository.ProfileRepository, emails EmailDispatcher) *UserService {
	return &UserService{
		repo:        repo,
		profileRepo: profileRepo,
		emails:      emails,
	}
}

// Signup creates a new account with its profile and a 24h verification token.
// The verification email is dispatched best-effort: a delivery failure is
// logged and never rolls back the created account.
func (s *UserService) Signup(ctx context.Context, req *model.SignupRequest) (*model.User, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, model.ErrEmailExists
	}

	exists, err = s.repo.ExistsByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to check name: %w", err)
	}
	if exists {
		return nil, model.ErrNameExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	token := uuid.New().String()
	expires := time.Now().Add(VerificationTokenTTL)

	user := &model.User{
		Name:                     name,
		Email:                    email,
		PasswordHashed:           string(hashedPassword),
		EmailVerificationToken:   &token,
		EmailVerificationExpires: &expires,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	profile := &model.Profile{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
	}
	if err := s.profileRepo.Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	if err := s.emails.DispatchVerification(ctx, user.ID, user.Email, user.Name, token); err != nil {
		log.Printf("[UserService] verification email dispatch FAILED: user=%d err=%v", user.ID, err)
	}

	return user, nil
}

// Login authenticates a user with email and password.
func (s *UserService) Login(ctx context.Context, req *model.LoginRequest) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		// Don't reveal whether the email is registered
		return nil, model.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte(req.Password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}

	return user, nil
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return s.repo.GetByID(ctx, id)
}

// CheckAvailability applies the pre-signup format, reserved-name and
// uniqueness rules to a single field. It never returns an error response
// to the caller beyond infrastructure failures: rule violations come back
// as Available=false with a localized message.
func (s *UserService) CheckAvailability(ctx context.Context, req *model.CheckAvailabilityRequest) (*model.CheckAvailabilityResponse, error) {
	value := strings.TrimSpace(req.Value)

	switch req.Field {
	case "name":
		if !nameRe.MatchString(value) {
			return &model.CheckAvailabilityResponse{
				Available: false,
				Message:   "Le nom doit contenir 3 à 20 caractères (lettres, chiffres, _ ou -)",
			}, nil
		}
		if reservedNames[strings.ToLower(value)] {
			return &model.CheckAvailabilityResponse{
				Available: false,
				Message:   "Ce nom est réservé",
			}, nil
		}
		exists, err := s.repo.ExistsByName(ctx, value)
		if err != nil {
			return nil, fmt.Errorf("failed to check name: %w", err)
		}
		if exists {
			return &model.CheckAvailabilityResponse{
				Available: false,
				Message:   "Ce nom est déjà utilisé",
			}, nil
		}
		return &model.CheckAvailabilityResponse{Available: true, Message: "Ce nom est disponible"}, nil

	case "email":
		if !emailRe.MatchString(value) {
			return &model.CheckAvailabilityResponse{
				Available: false,
				Message:   "Format d'email invalide",
			}, nil
		}
		exists, err := s.repo.ExistsByEmail(ctx, strings.ToLower(value))
		if err != nil {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		if exists {
			return &model.CheckAvailabilityResponse{
				Available: false,
				Message:   "Cet email est déjà utilisé",
			}, nil
		}
		return &model.CheckAvailabilityResponse{Available: true, Message: "Cet email est disponible"}, nil

	default:
		return nil, fmt.Errorf("unknown availability field: %q", req.Field)
	}
}

// VerifyEmail consumes a verification token and marks the account verified.
// An expired token is reported distinctly so the client can offer a resend.
func (s *UserService) VerifyEmail(ctx context.Context, token string) (*model.User, error) {
	user, err := s.repo.GetByVerificationToken(ctx, token)
	if err != nil {
		return nil, model.ErrTokenInvalid
	}

	if user.EmailVerificationExpires == nil || time.Now().After(*user.EmailVerificationExpires) {
		return nil, model.ErrTokenExpired
	}

	if err := s.repo.SetVerified(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("failed to mark verified: %w", err)
	}
	user.EmailVerified = true

	if err := s.emails.DispatchWelcome(ctx, user.ID, user.Email, user.Name); err != nil {
		log.Printf("[UserService] welcome email dispatch FAILED: user=%d err=%v", user.ID, err)
	}

	return user, nil
}

// ResendVerification reissues a verification token for an unverified account.
// An unknown email succeeds silently so the endpoint can't be used to probe
// which addresses are registered.
func (s *UserService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil
	}

	if user.EmailVerified {
		return model.ErrAlreadyVerified
	}

	token := uuid.New().String()
	expires := time.Now().Add(VerificationTokenTTL)
	if err := s.repo.SetVerificationToken(ctx, user.ID, token, expires); err != nil {
		return fmt.Errorf("failed to store verification token: %w", err)
	}

	if err := s.emails.DispatchVerification(ctx, user.ID, user.Email, user.Name, token); err != nil {
		log.Printf("[UserService] verification email dispatch FAILED: user=%d err=%v", user.ID, err)
	}

	return nil
}

// ForgotPassword issues a 1h reset token. Like ResendVerification, an
// unknown email succeeds silently.
func (s *UserService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil
	}

	token := uuid.New().String()
	expires := time.Now().Add(PasswordResetTokenTTL)
	if err := s.repo.SetPasswordResetToken(ctx, user.ID, token, expires); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	if err := s.emails.DispatchPasswordReset(ctx, user.ID, user.Email, user.Name, token); err != nil {
		log.Printf("[UserService] reset email dispatch FAILED: user=%d err=%v", user.ID, err)
	}

	return nil
}

// ResetPassword consumes a reset token and stores the new password hash.
// Returns the affected user so the caller can revoke active sessions.
func (s *UserService) ResetPassword(ctx context.Context, req *model.ResetPasswordRequest) (*model.User, error) {
	user, err := s.repo.GetByPasswordResetToken(ctx, req.Token)
	if err != nil {
		return nil, model.ErrTokenInvalid
	}

	if user.PasswordResetExpires == nil || time.Now().After(*user.PasswordResetExpires) {
		return nil, model.ErrTokenExpired
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.repo.UpdatePassword(ctx, user.ID, string(hashedPassword)); err != nil {
		return nil, fmt.Errorf("failed to update password: %w", err)
	}

	return user, nil
}

// ValidateSignup applies the format rules shared with CheckAvailability to a
// full signup payload. Returns a localized message for the first violation.
func ValidateSignup(req *model.SignupRequest) (string, bool) {
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)

	if !nameRe.MatchString(name) {
		return "Le nom doit contenir 3 à 20 caractères (lettres, chiffres, _ ou -)", false
	}
	if reservedNames[strings.ToLower(name)] {
		return "Ce nom est réservé", false
	}
	if !emailRe.MatchString(email) {
		return "Format d'email invalide", false
	}
	if len(req.Password) < MinPasswordLength {
		return fmt.Sprintf("Le mot de passe doit contenir au moins %d caractères", MinPasswordLength), false
	}
	if req.Password != req.ConfirmPassword {
		return "Les mots de passe ne correspondent pas", false
	}
	return "", true
}
