package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Callypige/dreamology-diary/internal/model"
	"github.com/Callypige/dreamology-diary/internal/repository"
)

// ProfileService handles the presentation record attached to each account.
type ProfileService struct {
	repo     repository.ProfileRepository
	userRepo repository.UserRepository
}

func NewProfileService(repo repository.ProfileRepository, userRepo repository.UserRepository) *ProfileService {
	return &ProfileService{
		repo:     repo,
		userRepo: userRepo,
	}
}

// GetOrCreate fetches the user's profile, creating an empty one from the
// account record when missing. Accounts created before profiles existed
// get theirs on first read.
func (s *ProfileService) GetOrCreate(ctx context.Context, userID int64) (*model.Profile, error) {
	profile, err := s.repo.GetByUserID(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, model.ErrProfileNotFound) {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile = &model.Profile{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
	}
	if err := s.repo.Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	return profile, nil
}

// Update applies a partial profile update. Nil fields stay untouched.
func (s *ProfileService) Update(ctx context.Context, userID int64, req *model.UpdateProfileRequest) (*model.Profile, error) {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if !nameRe.MatchString(name) {
			return nil, fmt.Errorf("%w: Le nom doit contenir 3 à 20 caractères (lettres, chiffres, _ ou -)", model.ErrProfileValidation)
		}
		req.Name = &name
	}

	// Make sure the row exists before the partial UPDATE.
	if _, err := s.GetOrCreate(ctx, userID); err != nil {
		return nil, err
	}

	return s.repo.Update(ctx, userID, req)
}
