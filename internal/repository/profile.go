package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Callypige/dreamology-diary/internal/model"
)

const profileColumns = `id, user_id, name, email, bio, avatar_url, location, created_at, updated_at`

type profileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) ProfileRepository {
	return &profileRepository{db: db}
}

// Create inserts the one-to-one profile for a user.
func (r *profileRepository) Create(ctx context.Context, p *model.Profile) error {
	query := `
		INSERT INTO profiles (user_id, name, email, bio, avatar_url, location, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	row := r.db.QueryRowxContext(ctx, query, p.UserID, p.Name, p.Email, p.Bio, p.AvatarURL, p.Location)
	if err := row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert profile: %w", err)
	}
	return nil
}

// GetByUserID retrieves a user's profile.
func (r *profileRepository) GetByUserID(ctx context.Context, userID int64) (*model.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`

	var p model.Profile
	err := r.db.GetContext(ctx, &p, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}

// Update applies the supplied fields only, via COALESCE so nil inputs keep
// the stored value.
func (r *profileRepository) Update(ctx context.Context, userID int64, req *model.UpdateProfileRequest) (*model.Profile, error) {
	query := `
		UPDATE profiles
		SET name       = COALESCE($2, name),
		    bio        = COALESCE($3, bio),
		    avatar_url = COALESCE($4, avatar_url),
		    location   = COALESCE($5, location),
		    updated_at = NOW()
		WHERE user_id = $1
		RETURNING ` + profileColumns

	var p model.Profile
	err := r.db.GetContext(ctx, &p, query, userID, req.Name, req.Bio, req.AvatarURL, req.Location)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return &p, nil
}
