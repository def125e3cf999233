package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Callypige/dreamology-diary/internal/model"
)

// =============================================================================
// MOCK REPOSITORIES
// =============================================================================
//
// Unit tests never hit a real database. Because the services depend on the
// repository INTERFACES, a function-field mock can stand in and return
// controlled responses per test.

type mockUserRepository struct {
	createFn                  func(ctx context.Context, user *model.User) error
	getByIDFn                 func(ctx context.Context, id int64) (*model.User, error)
	getByEmailFn              func(ctx context.Context, email string) (*model.User, error)
	existsByEmailFn           func(ctx context.Context, email string) (bool, error)
	existsByNameFn            func(ctx context.Context, name string) (bool, error)
	getByVerificationTokenFn  func(ctx context.Context, token string) (*model.User, error)
	setVerifiedFn             func(ctx context.Context, userID int64) error
	setVerificationTokenFn    func(ctx context.Context, userID int64, token string, expires time.Time) error
	getByPasswordResetTokenFn func(ctx context.Context, token string) (*model.User, error)
	setPasswordResetTokenFn   func(ctx context.Context, userID int64, token string, expires time.Time) error
	updatePasswordFn          func(ctx context.Context, userID int64, passwordHashed string) error

	createCalls []*model.User
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	m.createCalls = append(m.createCalls, user)
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	user.ID = int64(len(m.createCalls))
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if m.existsByEmailFn != nil {
		return m.existsByEmailFn(ctx, email)
	}
	return false, nil
}

func (m *mockUserRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	if m.existsByNameFn != nil {
		return m.existsByNameFn(ctx, name)
	}
	return false, nil
}

func (m *mockUserRepository) GetByVerificationToken(ctx context.Context, token string) (*model.User, error) {
	if m.getByVerificationTokenFn != nil {
		return m.getByVerificationTokenFn(ctx, token)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) SetVerified(ctx context.Context, userID int64) error {
	if m.setVerifiedFn != nil {
		return m.setVerifiedFn(ctx, userID)
	}
	return nil
}

func (m *mockUserRepository) SetVerificationToken(ctx context.Context, userID int64, token string, expires time.Time) error {
	if m.setVerificationTokenFn != nil {
		return m.setVerificationTokenFn(ctx, userID, token, expires)
	}
	return nil
}

func (m *mockUserRepository) GetByPasswordResetToken(ctx context.Context, token string) (*model.User, error) {
	if m.getByPasswordResetTokenFn != nil {
		return m.getByPasswordResetTokenFn(ctx, token)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) SetPasswordResetToken(ctx context.Context, userID int64, token string, expires time.Time) error {
	if m.setPasswordResetTokenFn != nil {
		return m.setPasswordResetTokenFn(ctx, userID, token, expires)
	}
	return nil
}

func (m *mockUserRepository) UpdatePassword(ctx context.Context, userID int64, passwordHashed string) error {
	if m.updatePasswordFn != nil {
		return m.updatePasswordFn(ctx, userID, passwordHashed)
	}
	return nil
}

type mockProfileRepository struct {
	createFn    func(ctx context.Context, profile *model.Profile) error
	getByUserFn func(ctx context.Context, userID int64) (*model.Profile, error)
	updateFn    func(ctx context.Context, userID int64, req *model.UpdateProfileRequest) (*model.Profile, error)

	createCalls []*model.Profile
}

func (m *mockProfileRepository) Create(ctx context.Context, profile *model.Profile) error {
	m.createCalls = append(m.createCalls, profile)
	if m.createFn != nil {
		return m.createFn(ctx, profile)
	}
	profile.ID = int64(len(m.createCalls))
	return nil
}

func (m *mockProfileRepository) GetByUserID(ctx context.Context, userID int64) (*model.Profile, error) {
	if m.getByUserFn != nil {
		return m.getByUserFn(ctx, userID)
	}
	return nil, model.ErrProfileNotFound
}

func (m *mockProfileRepository) Update(ctx context.Context, userID int64, req *model.UpdateProfileRequest) (*model.Profile, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, userID, req)
	}
	return nil, model.ErrProfileNotFound
}

// mockDispatcher records email dispatches instead of touching Redis or SMTP.
type mockDispatcher struct {
	verifications []string // tokens
	welcomes      []string // recipients
	resets        []string // tokens

	failNext bool
}

func (m *mockDispatcher) DispatchVerification(ctx context.Context, userID int64, recipient, name, token string) error {
	if m.failNext {
		m.failNext = false
		return errors.New("stream unavailable")
	}
	m.verifications = append(m.verifications, token)
	return nil
}

func (m *mockDispatcher) DispatchWelcome(ctx context.Context, userID int64, recipient, name string) error {
	if m.failNext {
		m.failNext = false
		return errors.New("stream unavailable")
	}
	m.welcomes = append(m.welcomes, recipient)
	return nil
}

func (m *mockDispatcher) DispatchPasswordReset(ctx context.Context, userID int64, recipient, name, token string) error {
	if m.failNext {
		m.failNext = false
		return errors.New("stream unavailable")
	}
	m.resets = append(m.resets, token)
	return nil
}

func newTestUserService() (*UserService, *mockUserRepository, *mockProfileRepository, *mockDispatcher) {
	userRepo := &mockUserRepository{}
	profileRepo := &mockProfileRepository{}
	emails := &mockDispatcher{}
	return NewUserService(userRepo, profileRepo, emails), userRepo, profileRepo, emails
}

// =============================================================================
// SIGNUP TESTS
// =============================================================================

func TestUserService_Signup_Success(t *testing.T) {
	svc, userRepo, profileRepo, emails := newTestUserService()

	req := &model.SignupRequest{
		Name:            "reveuse",
		Email:           "Reveuse@Example.com",
		Password:        "motdepasse",
		ConfirmPassword: "motdepasse",
	}

	user, err := svc.Signup(context.Background(), req)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if user.Email != "reveuse@example.com" {
		t.Errorf("email = %q, want lowercased %q", user.Email, "reveuse@example.com")
	}

	if user.PasswordHashed == req.Password {
		t.Error("password should be hashed, not stored in plain text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte(req.Password)); err != nil {
		t.Errorf("stored hash does not match password: %v", err)
	}

	if user.EmailVerified {
		t.Error("new accounts must start unverified")
	}
	if user.EmailVerificationToken == nil || *user.EmailVerificationToken == "" {
		t.Fatal("expected a verification token")
	}
	if user.EmailVerificationExpires == nil {
		t.Fatal("expected a verification expiry")
	}
	ttl := time.Until(*user.EmailVerificationExpires)
	if ttl < 23*time.Hour || ttl > 25*time.Hour {
		t.Errorf("verification expiry = %v from now, want ~24h", ttl)
	}

	if len(profileRepo.createCalls) != 1 {
		t.Fatalf("expected 1 profile created, got %d", len(profileRepo.createCalls))
	}
	if profileRepo.createCalls[0].Name != "reveuse" {
		t.Errorf("profile name = %q, want %q", profileRepo.createCalls[0].Name, "reveuse")
	}

	if len(emails.verifications) != 1 || emails.verifications[0] != *user.EmailVerificationToken {
		t.Errorf("expected verification email with token %q, got %v", *user.EmailVerificationToken, emails.verifications)
	}

	if len(userRepo.createCalls) != 1 {
		t.Fatalf("expected 1 user created, got %d", len(userRepo.createCalls))
	}
}

func TestUserService_Signup_DuplicateEmail(t *testing.T) {
	svc, userRepo, _, _ := newTestUserService()
	userRepo.existsByEmailFn = func(ctx context.Context, email string) (bool, error) {
		return true, nil
	}

	_, err := svc.Signup(context.Background(), &model.SignupRequest{
		Name:            "reveuse",
		Email:           "reveuse@example.com",
		Password:        "motdepasse",
		ConfirmPassword: "motdepasse",
	})

	if !errors.Is(err, model.ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got: %v", err)
	}
	if len(userRepo.createCalls) != 0 {
		t.Error("no user should be created on duplicate email")
	}
}

func TestUserService_Signup_DuplicateName(t *testing.T) {
	svc, userRepo, _, _ := newTestUserService()
	userRepo.existsByNameFn = func(ctx context.Context, name string) (bool, error) {
		return true, nil
	}

	_, err := svc.Signup(context.Background(), &model.SignupRequest{
		Name:            "reveuse",
		Email:           "reveuse@example.com",
		Password:        "motdepasse",
		ConfirmPassword: "motdepasse",
	})

	if !errors.Is(err, model.ErrNameExists) {
		t.Fatalf("expected ErrNameExists, got: %v", err)
	}
}

func TestUserService_Signup_EmailFailureDoesNotRollBack(t *testing.T) {
	svc, userRepo, _, emails := newTestUserService()
	emails.failNext = true

	user, err := svc.Signup(context.Background(), &model.SignupRequest{
		Name:            "reveuse",
		Email:           "reveuse@example.com",
		Password:        "motdepasse",
		ConfirmPassword: "motdepasse",
	})

	if err != nil {
		t.Fatalf("signup must succeed even when the email dispatch fails, got: %v", err)
	}
	if user == nil || len(userRepo.createCalls) != 1 {
		t.Fatal("user should have been created despite email failure")
	}
}

// =============================================================================
// SIGNUP VALIDATION
// =============================================================================

func TestValidateSignup(t *testing.T) {
	base := model.SignupRequest{
		Name:            "reveuse",
		Email:           "reveuse@example.com",
		Password:        "motdepasse",
		ConfirmPassword: "motdepasse",
	}

	tests := []struct {
		name   string
		mutate func(r *model.SignupRequest)
		wantOK bool
	}{
		{"valid", func(r *model.SignupRequest) {}, true},
		{"name too short", func(r *model.SignupRequest) { r.Name = "ab" }, false},
		{"name too long", func(r *model.SignupRequest) { r.Name = "abcdefghijklmnopqrstu" }, false},
		{"name bad chars", func(r *model.SignupRequest) { r.Name = "rêveuse!" }, false},
		{"reserved name", func(r *model.SignupRequest) { r.Name = "Admin" }, false},
		{"bad email", func(r *model.SignupRequest) { r.Email = "pas-un-email" }, false},
		{"short password", func(r *model.SignupRequest) { r.Password, r.ConfirmPassword = "abc", "abc" }, false},
		{"confirm mismatch", func(r *model.SignupRequest) { r.ConfirmPassword = "autre" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mutate(&req)
			msg, ok := ValidateSignup(&req)
			if ok != tt.wantOK {
				t.Errorf("ValidateSignup ok = %v, want %v (msg=%q)", ok, tt.wantOK, msg)
			}
			if !ok && msg == "" {
				t.Error("violations must carry a message")
			}
		})
	}
}

// =============================================================================
// LOGIN TESTS
// =============================================================================

func TestUserService_Login(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("motdepasse"), bcrypt.DefaultCost)
	stored := &model.User{ID: 1, Name: "reveuse", Email: "reveuse@example.com", PasswordHashed: string(hash)}

	svc, userRepo, _, _ := newTestUserService()
	userRepo.getByEmailFn = func(ctx context.Context, email string) (*model.User, error) {
		if email == stored.Email {
			return stored, nil
		}
		return nil, model.ErrUserNotFound
	}

	user, err := svc.Login(context.Background(), &model.LoginRequest{Email: "Reveuse@Example.com", Password: "motdepasse"})
	if err != nil {
		t.Fatalf("expected login success, got: %v", err)
	}
	if user.ID != 1 {
		t.Errorf("user id = %d, want 1", user.ID)
	}

	if _, err := svc.Login(context.Background(), &model.LoginRequest{Email: stored.Email, Password: "mauvais"}); !errors.Is(err, model.ErrInvalidCredentials) {
		t.Errorf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}

	if _, err := svc.Login(context.Background(), &model.LoginRequest{Email: "inconnu@example.com", Password: "motdepasse"}); !errors.Is(err, model.ErrInvalidCredentials) {
		t.Errorf("unknown email: expected ErrInvalidCredentials (no enumeration), got %v", err)
	}
}

// =============================================================================
// EMAIL VERIFICATION TESTS
// =============================================================================

func TestUserService_VerifyEmail_Success(t *testing.T) {
	token := "tok-ok"
	expires := time.Now().Add(time.Hour)
	stored := &model.User{
		ID: 3, Name: "reveuse", Email: "reveuse@example.com",
		EmailVerificationToken:   &token,
		EmailVerificationExpires: &expires,
	}

	svc, userRepo, _, emails := newTestUserService()
	var verified []int64
	userRepo.getByVerificationTokenFn = func(ctx context.Context, tok string) (*model.User, error) {
		if tok == token {
			return stored, nil
		}
		return nil, model.ErrUserNotFound
	}
	userRepo.setVerifiedFn = func(ctx context.Context, userID int64) error {
		verified = append(verified, userID)
		return nil
	}

	user, err := svc.VerifyEmail(context.Background(), token)
	if err != nil {
		t.Fatalf("expected success, got: %v", err)
	}
	if !user.EmailVerified {
		t.Error("returned user should be marked verified")
	}
	if len(verified) != 1 || verified[0] != 3 {
		t.Errorf("SetVerified calls = %v, want [3]", verified)
	}
	if len(emails.welcomes) != 1 || emails.welcomes[0] != "reveuse@example.com" {
		t.Errorf("expected welcome email to reveuse@example.com, got %v", emails.welcomes)
	}
}

func TestUserService_VerifyEmail_UnknownToken(t *testing.T) {
	svc, _, _, _ := newTestUserService()

	if _, err := svc.VerifyEmail(context.Background(), "n-existe-pas"); !errors.Is(err, model.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got: %v", err)
	}
}

func TestUserService_VerifyEmail_ExpiredToken(t *testing.T) {
	token := "tok-vieux"
	expires := time.Now().Add(-time.Minute)
	stored := &model.User{ID: 3, EmailVerificationToken: &token, EmailVerificationExpires: &expires}

	svc, userRepo, _, _ := newTestUserService()
	userRepo.getByVerificationTokenFn = func(ctx context.Context, tok string) (*model.User, error) {
		return stored, nil
	}

	if _, err := svc.VerifyEmail(context.Background(), token); !errors.Is(err, model.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got: %v", err)
	}
}

func TestUserService_ResendVerification(t *testing.T) {
	stored := &model.User{ID: 3, Name: "reveuse", Email: "reveuse@example.com"}

	svc, userRepo, _, emails := newTestUserService()
	userRepo.getByEmailFn = func(ctx context.Context, email string) (*model.User, error) {
		if email == stored.Email {
			return stored, nil
		}
		return nil, model.ErrUserNotFound
	}

	// Unknown email: silent success, nothing dispatched.
	if err := svc.ResendVerification(context.Background(), "inconnu@example.com"); err != nil {
		t.Fatalf("unknown email must not error: %v", err)
	}
	if len(emails.verifications) != 0 {
		t.Error("no email should be dispatched for unknown address")
	}

	// Unverified account: new token dispatched.
	if err := svc.ResendVerification(context.Background(), stored.Email); err != nil {
		t.Fatalf("expected success, got: %v", err)
	}
	if len(emails.verifications) != 1 {
		t.Fatalf("expected 1 verification dispatch, got %d", len(emails.verifications))
	}

	// Already verified: explicit error.
	stored.EmailVerified = true
	if err := svc.ResendVerification(context.Background(), stored.Email); !errors.Is(err, model.ErrAlreadyVerified) {
		t.Fatalf("expected ErrAlreadyVerified, got: %v", err)
	}
}

// =============================================================================
// PASSWORD RESET TESTS
// =============================================================================

func TestUserService_ForgotPassword_AntiEnumeration(t *testing.T) {
	svc, _, _, emails := newTestUserService()

	if err := svc.ForgotPassword(context.Background(), "inconnu@example.com"); err != nil {
		t.Fatalf("unknown email must not error: %v", err)
	}
	if len(emails.resets) != 0 {
		t.Error("no reset email should be dispatched for unknown address")
	}
}

func TestUserService_ForgotPassword_IssuesToken(t *testing.T) {
	stored := &model.User{ID: 5, Name: "reveuse", Email: "reveuse@example.com"}

	svc, userRepo, _, emails := newTestUserService()
	userRepo.getByEmailFn = func(ctx context.Context, email string) (*model.User, error) {
		return stored, nil
	}
	var storedExpiry time.Time
	userRepo.setPasswordResetTokenFn = func(ctx context.Context, userID int64, token string, expires time.Time) error {
		storedExpiry = expires
		return nil
	}

	if err := svc.ForgotPassword(context.Background(), stored.Email); err != nil {
		t.Fatalf("expected success, got: %v", err)
	}
	if len(emails.resets) != 1 {
		t.Fatalf("expected 1 reset dispatch, got %d", len(emails.resets))
	}
	ttl := time.Until(storedExpiry)
	if ttl < 59*time.Minute || ttl > 61*time.Minute {
		t.Errorf("reset expiry = %v from now, want ~1h", ttl)
	}
}

func TestUserService_ResetPassword(t *testing.T) {
	expires := time.Now().Add(30 * time.Minute)
	stored := &model.User{ID: 5, Email: "reveuse@example.com", PasswordResetExpires: &expires}

	svc, userRepo, _, _ := newTestUserService()
	userRepo.getByPasswordResetTokenFn = func(ctx context.Context, token string) (*model.User, error) {
		if token == "tok-reset" {
			return stored, nil
		}
		return nil, model.ErrUserNotFound
	}
	var newHash string
	userRepo.updatePasswordFn = func(ctx context.Context, userID int64, passwordHashed string) error {
		newHash = passwordHashed
		return nil
	}

	user, err := svc.ResetPassword(context.Background(), &model.ResetPasswordRequest{
		Token: "tok-reset", Password: "nouveau-mdp", ConfirmPassword: "nouveau-mdp",
	})
	if err != nil {
		t.Fatalf("expected success, got: %v", err)
	}
	if user.ID != 5 {
		t.Errorf("user id = %d, want 5", user.ID)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(newHash), []byte("nouveau-mdp")); err != nil {
		t.Errorf("stored hash does not match new password: %v", err)
	}

	if _, err := svc.ResetPassword(context.Background(), &model.ResetPasswordRequest{Token: "inconnu", Password: "x", ConfirmPassword: "x"}); !errors.Is(err, model.ErrTokenInvalid) {
		t.Errorf("unknown token: expected ErrTokenInvalid, got %v", err)
	}

	past := time.Now().Add(-time.Minute)
	stored.PasswordResetExpires = &past
	if _, err := svc.ResetPassword(context.Background(), &model.ResetPasswordRequest{Token: "tok-reset", Password: "x", ConfirmPassword: "x"}); !errors.Is(err, model.ErrTokenExpired) {
		t.Errorf("expired token: expected ErrTokenExpired, got %v", err)
	}
}

// =============================================================================
// AVAILABILITY TESTS
// =============================================================================

func TestUserService_CheckAvailability(t *testing.T) {
	svc, userRepo, _, _ := newTestUserService()
	userRepo.existsByNameFn = func(ctx context.Context, name string) (bool, error) {
		return name == "prise", nil
	}
	userRepo.existsByEmailFn = func(ctx context.Context, email string) (bool, error) {
		return email == "prise@example.com", nil
	}

	tests := []struct {
		name      string
		field     string
		value     string
		available bool
	}{
		{"free name", "name", "reveuse", true},
		{"taken name", "name", "prise", false},
		{"too short", "name", "ab", false},
		{"reserved", "name", "admin", false},
		{"bad chars", "name", "é!è", false},
		{"free email", "email", "libre@example.com", true},
		{"taken email", "email", "prise@example.com", false},
		{"bad email", "email", "pas-un-email", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.CheckAvailability(context.Background(), &model.CheckAvailabilityRequest{Field: tt.field, Value: tt.value})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.Available != tt.available {
				t.Errorf("available = %v, want %v (message=%q)", resp.Available, tt.available, resp.Message)
			}
			if resp.Message == "" {
				t.Error("every availability response carries a message")
			}
		})
	}

	if _, err := svc.CheckAvailability(context.Background(), &model.CheckAvailabilityRequest{Field: "phone", Value: "x"}); err == nil {
		t.Error("unknown field should error")
	}
}
