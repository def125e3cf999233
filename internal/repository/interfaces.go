package repository

import (
	"context"
	"time"

	"github.com/Callypige/dreamology-diary/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	GetByVerificationToken(ctx context.Context, token string) (*model.User, error)
	SetVerified(ctx context.Context, userID int64) error
	SetVerificationToken(ctx context.Context, userID int64, token string, expires time.Time) error
	GetByPasswordResetToken(ctx context.Context, token string) (*model.User, error)
	SetPasswordResetToken(ctx context.Context, userID int64, token string, expires time.Time) error
	UpdatePassword(ctx context.Context, userID int64, passwordHashed string) error
}

type ProfileRepository interface {
	Create(ctx context.Context, profile *model.Profile) error
	GetByUserID(ctx context.Context, userID int64) (*model.Profile, error)
	Update(ctx context.Context, userID int64, req *model.UpdateProfileRequest) (*model.Profile, error)
}

type RefreshTokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	Revoke(ctx context.Context, id string, replacedBy *string) error
	RevokeAllForUser(ctx context.Context, userID int64) error
	DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error)
}

// ClockAverage is the mean wall-clock position of a set of instants, hour
// and minute averaged independently.
type ClockAverage struct {
	Hour   float64 `db:"avg_hour"`
	Minute float64 `db:"avg_minute"`
	Count  int64   `db:"count"`
}

// DreamAggregates are the raw per-user counters behind the stats snapshot.
type DreamAggregates struct {
	Total     int64 `db:"total"`
	Recurring int64 `db:"recurring"`
	Lucid     int64 `db:"lucid"`
	Nightmare int64 `db:"nightmare"`
	Normal    int64 `db:"normal"`
	Other     int64 `db:"other"`
	WithAudio int64 `db:"with_audio"`
}

// DreamRepository gives tenant-scoped access to dream records: every read,
// update and delete carries the owner's id in the lookup itself, so a
// missing row and a row owned by someone else are indistinguishable.
type DreamRepository interface {
	Create(ctx context.Context, dream *model.Dream) error
	GetOwnedByID(ctx context.Context, dreamID, userID int64) (*model.Dream, error)
	Update(ctx context.Context, dreamID, userID int64, changes *model.DreamChanges) (*model.Dream, error)
	Delete(ctx context.Context, dreamID, userID int64) error
	List(ctx context.Context, userID int64, filter model.DreamFilter, page, limit int) ([]model.Dream, int64, error)

	Aggregates(ctx context.Context, userID int64) (*DreamAggregates, error)
	AverageDreamScore(ctx context.Context, userID int64) (avg float64, count int64, err error)
	TopTags(ctx context.Context, userID int64, limit int) ([]model.NameCount, error)
	TopMoods(ctx context.Context, userID int64, limit int) ([]model.NameCount, error)
	AverageSleepClock(ctx context.Context, userID int64, timeZone string) (*ClockAverage, error)
	AverageWakeClock(ctx context.Context, userID int64, timeZone string) (*ClockAverage, error)
}
