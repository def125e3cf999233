package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Callypige/dreamology-diary/internal/model"
	"github.com/Callypige/dreamology-diary/internal/repository"
	"github.com/Callypige/dreamology-diary/internal/timeutil"
)

const (
	// DefaultPageSize is the listing page size when the caller omits it.
	DefaultPageSize = 10

	// MaxPageSize caps the listing page size.
	MaxPageSize = 100
)

// DreamService handles business logic for dream records. All operations are
// scoped to the owning user; nothing here can reach another user's data.
type DreamService struct {
	repo repository.DreamRepository
}

func NewDreamService(repo repository.DreamRepository) *DreamService {
	return &DreamService{repo: repo}
}

func validationErr(msg string) error {
	return fmt.Errorf("%w: %s", model.ErrDreamValidation, msg)
}

// Create validates and persists a new dream. Sleep and wake clock strings
// are combined with the dream's date; a wake time earlier than the sleep
// time rolls over to the next day.
func (s *DreamService) Create(ctx context.Context, userID int64, req *model.CreateDreamRequest) (*model.Dream, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, validationErr("Le titre est requis")
	}

	dreamType := req.Type
	if dreamType == "" {
		dreamType = model.DreamTypeNormal
	}
	if !model.IsValidDreamType(dreamType) {
		return nil, validationErr("Type de rêve invalide")
	}

	dateStr := req.Date
	if dateStr == "" {
		dateStr = time.Now().UTC().Format("2006-01-02")
	}
	date, err := timeutil.ParseDate(dateStr)
	if err != nil {
		return nil, validationErr(timeutil.MsgInvalidDate)
	}

	if err := validateScores(req.Intensity, req.DreamClarity, req.DreamScore); err != nil {
		return nil, err
	}

	validation := timeutil.ValidateSleepTimes(req.SleepTime, req.WokeUpTime, dateStr)
	if !validation.IsValid {
		return nil, validationErr(strings.Join(validation.Errors, "; "))
	}

	sleepAt, wakeAt, err := normalizeSleepWindow(dateStr, req.SleepTime, req.WokeUpTime)
	if err != nil {
		return nil, validationErr(timeutil.MsgInvalidClock)
	}

	private := true
	if req.Private != nil {
		private = *req.Private
	}

	dream := &model.Dream{
		UserID:          userID,
		Title:           title,
		Description:     req.Description,
		Type:            dreamType,
		Date:            date,
		Lucidity:        req.Lucidity,
		Recurring:       req.Recurring,
		Private:         private,
		Intensity:       req.Intensity,
		DreamClarity:    req.DreamClarity,
		DreamScore:      req.DreamScore,
		Tags:            normalizeList(req.Tags),
		Characters:      normalizeList(req.Characters),
		Images:          normalizeList(req.Images),
		SleepTime:       sleepAt,
		WokeUpTime:      wakeAt,
	}
	if req.Mood != "" {
		dream.Mood = &req.Mood
	}
	if req.BeforeSleepMood != "" {
		dream.BeforeSleepMood = &req.BeforeSleepMood
	}
	if req.Location != "" {
		dream.Location = &req.Location
	}
	if req.Interpretation != "" {
		dream.Interpretation = &req.Interpretation
	}
	if req.AudioNote != "" {
		dream.AudioNote = &req.AudioNote
	}

	if err := s.repo.Create(ctx, dream); err != nil {
		return nil, fmt.Errorf("failed to create dream: %w", err)
	}

	return dream, nil
}

// Get fetches a single dream owned by userID.
func (s *DreamService) Get(ctx context.Context, dreamID, userID int64) (*model.Dream, error) {
	return s.repo.GetOwnedByID(ctx, dreamID, userID)
}

// Update applies a partial update. Fields the caller did not supply are
// left untouched. Supplying a date or clock time re-runs the sleep window
// normalization against the effective date.
func (s *DreamService) Update(ctx context.Context, dreamID, userID int64, req *model.UpdateDreamRequest) (*model.Dream, error) {
	existing, err := s.repo.GetOwnedByID(ctx, dreamID, userID)
	if err != nil {
		return nil, err
	}

	changes := &model.DreamChanges{
		Description:     req.Description,
		Mood:            req.Mood,
		BeforeSleepMood: req.BeforeSleepMood,
		Lucidity:        req.Lucidity,
		Recurring:       req.Recurring,
		Private:         req.Private,
		Intensity:       req.Intensity,
		DreamClarity:    req.DreamClarity,
		DreamScore:      req.DreamScore,
		Tags:            req.Tags,
		Characters:      req.Characters,
		Images:          req.Images,
		Location:        req.Location,
		Interpretation:  req.Interpretation,
		AudioNote:       req.AudioNote,
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, validationErr("Le titre est requis")
		}
		changes.Title = &title
	}

	if req.Type != nil {
		if !model.IsValidDreamType(*req.Type) {
			return nil, validationErr("Type de rêve invalide")
		}
		changes.Type = req.Type
	}

	if err := validateScores(req.Intensity, req.DreamClarity, req.DreamScore); err != nil {
		return nil, err
	}

	// Effective date for clock normalization: the new date if supplied,
	// otherwise the stored one.
	dateStr := existing.Date.UTC().Format("2006-01-02")
	if req.Date != nil {
		date, err := timeutil.ParseDate(*req.Date)
		if err != nil {
			return nil, validationErr(timeutil.MsgInvalidDate)
		}
		changes.Date = &date
		dateStr = date.UTC().Format("2006-01-02")
	}

	if req.SleepTime != nil || req.WokeUpTime != nil || req.Date != nil {
		sleepStr := timeutil.FormatTimeForInput(existing.SleepTime)
		if req.SleepTime != nil {
			sleepStr = *req.SleepTime
		}
		wakeStr := timeutil.FormatTimeForInput(existing.WokeUpTime)
		if req.WokeUpTime != nil {
			wakeStr = *req.WokeUpTime
		}

		validation := timeutil.ValidateSleepTimes(sleepStr, wakeStr, dateStr)
		if !validation.IsValid {
			return nil, validationErr(strings.Join(validation.Errors, "; "))
		}

		sleepAt, wakeAt, err := normalizeSleepWindow(dateStr, sleepStr, wakeStr)
		if err != nil {
			return nil, validationErr(timeutil.MsgInvalidClock)
		}
		changes.SleepTime = sleepAt
		changes.WokeUpTime = wakeAt
	}

	return s.repo.Update(ctx, dreamID, userID, changes)
}

// Delete removes a dream owned by userID. Deleting an already-deleted id
// reports not-found.
func (s *DreamService) Delete(ctx context.Context, dreamID, userID int64) error {
	return s.repo.Delete(ctx, dreamID, userID)
}

// List returns one page of the user's dreams matching the filter, newest
// first, with the pagination metadata block.
func (s *DreamService) List(ctx context.Context, userID int64, filter model.DreamFilter, page, limit int) (*model.DreamListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	dreams, total, err := s.repo.List(ctx, userID, filter, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list dreams: %w", err)
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))

	if dreams == nil {
		dreams = []model.Dream{}
	}

	return &model.DreamListResponse{
		Body: dreams,
		Pagination: model.Pagination{
			CurrentPage:     page,
			TotalPages:      totalPages,
			TotalDreams:     total,
			HasNextPage:     page < totalPages,
			HasPreviousPage: page > 1,
			Limit:           limit,
		},
	}, nil
}

// normalizeSleepWindow combines the dream date with the clock strings and
// rolls the wake instant to the next day when it lands before sleep.
func normalizeSleepWindow(dateStr, sleepStr, wakeStr string) (*time.Time, *time.Time, error) {
	var sleepAt, wakeAt *time.Time

	if sleepStr != "" {
		t, err := timeutil.CombineDateTime(dateStr, sleepStr)
		if err != nil {
			return nil, nil, err
		}
		sleepAt = &t
	}

	if wakeStr != "" {
		t, err := timeutil.CombineDateTime(dateStr, wakeStr)
		if err != nil {
			return nil, nil, err
		}
		if sleepAt != nil && !t.After(*sleepAt) {
			t = t.AddDate(0, 0, 1)
		}
		wakeAt = &t
	}

	return sleepAt, wakeAt, nil
}

func validateScores(scores ...*int) error {
	for _, v := range scores {
		if v != nil && (*v < 1 || *v > 10) {
			return validationErr("Les scores doivent être compris entre 1 et 10")
		}
	}
	return nil
}

func normalizeList(items []string) []string {
	if items == nil {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
