package model

import (
	"errors"
	"time"

	"github.com/lib/pq"
)

// Canonical dream types. Older revisions of the journal drifted between
// enum sets; this is the fixed set every write is validated against.
const (
	DreamTypeNormal    = "normal"
	DreamTypeLucid     = "lucide"
	DreamTypeNightmare = "cauchemar"
	DreamTypeOther     = "autre"
)

// IsValidDreamType reports whether t belongs to the canonical enum.
func IsValidDreamType(t string) bool {
	switch t {
	case DreamTypeNormal, DreamTypeLucid, DreamTypeNightmare, DreamTypeOther:
		return true
	}
	return false
}

// Dream is the core journaled record, owned by exactly one user.
type Dream struct {
	ID             int64          `db:"id" json:"id"`
	UserID         int64          `db:"user_id" json:"-"`
	Title          string         `db:"title" json:"title"`
	Description    string         `db:"description" json:"description"`
	Type           string         `db:"type" json:"type"`
	Date           time.Time      `db:"date" json:"date"`
	Mood           *string        `db:"mood" json:"mood,omitempty"`
	BeforeSleepMood *string       `db:"before_sleep_mood" json:"beforeSleepMood,omitempty"`
	Lucidity       bool           `db:"lucidity" json:"lucidity"`
	Recurring      bool           `db:"recurring" json:"recurring"`
	Private        bool           `db:"private" json:"private"`
	Intensity      *int           `db:"intensity" json:"intensity,omitempty"`
	DreamClarity   *int           `db:"dream_clarity" json:"dreamClarity,omitempty"`
	DreamScore     *int           `db:"dream_score" json:"dreamScore,omitempty"`
	Tags           pq.StringArray `db:"tags" json:"tags"`
	Characters     pq.StringArray `db:"characters" json:"characters"`
	Images         pq.StringArray `db:"images" json:"images"`
	Location       *string        `db:"location" json:"location,omitempty"`
	Interpretation *string        `db:"interpretation" json:"interpretation,omitempty"`
	AudioNote      *string        `db:"audio_note" json:"audioNote,omitempty"`
	SleepTime      *time.Time     `db:"sleep_time" json:"sleepTime,omitempty"`
	WokeUpTime     *time.Time     `db:"woke_up_time" json:"wokeUpTime,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updatedAt"`
}

// CreateDreamRequest is the create payload. Sleep and wake times arrive as
// "HH:MM" wall-clock strings and are combined with Date before persisting.
type CreateDreamRequest struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Type            string   `json:"type"`
	Date            string   `json:"date"` // YYYY-MM-DD, defaults to today
	Mood            string   `json:"mood"`
	BeforeSleepMood string   `json:"beforeSleepMood"`
	Lucidity        bool     `json:"lucidity"`
	Recurring       bool     `json:"recurring"`
	Private         *bool    `json:"private"`
	Intensity       *int     `json:"intensity"`
	DreamClarity    *int     `json:"dreamClarity"`
	DreamScore      *int     `json:"dreamScore"`
	Tags            []string `json:"tags"`
	Characters      []string `json:"characters"`
	Images          []string `json:"images"`
	Location        string   `json:"location"`
	Interpretation  string   `json:"interpretation"`
	AudioNote       string   `json:"audioNote"`
	SleepTime       string   `json:"sleepTime"`  // HH:MM
	WokeUpTime      string   `json:"wokeUpTime"` // HH:MM
}

// UpdateDreamRequest is the partial update payload. Nil fields are left
// untouched; the caller never overwrites with empty values it did not send.
type UpdateDreamRequest struct {
	Title           *string   `json:"title"`
	Description     *string   `json:"description"`
	Type            *string   `json:"type"`
	Date            *string   `json:"date"`
	Mood            *string   `json:"mood"`
	BeforeSleepMood *string   `json:"beforeSleepMood"`
	Lucidity        *bool     `json:"lucidity"`
	Recurring       *bool     `json:"recurring"`
	Private         *bool     `json:"private"`
	Intensity       *int      `json:"intensity"`
	DreamClarity    *int      `json:"dreamClarity"`
	DreamScore      *int      `json:"dreamScore"`
	Tags            *[]string `json:"tags"`
	Characters      *[]string `json:"characters"`
	Images          *[]string `json:"images"`
	Location        *string   `json:"location"`
	Interpretation  *string   `json:"interpretation"`
	AudioNote       *string   `json:"audioNote"`
	SleepTime       *string   `json:"sleepTime"`  // HH:MM
	WokeUpTime      *string   `json:"wokeUpTime"` // HH:MM
}

// DreamChanges is the storage-shaped partial update: clock strings already
// normalized into instants, nil fields omitted from the UPDATE entirely.
type DreamChanges struct {
	Title           *string
	Description     *string
	Type            *string
	Date            *time.Time
	Mood            *string
	BeforeSleepMood *string
	Lucidity        *bool
	Recurring       *bool
	Private         *bool
	Intensity       *int
	DreamClarity    *int
	DreamScore      *int
	Tags            *[]string
	Characters      *[]string
	Images          *[]string
	Location        *string
	Interpretation  *string
	AudioNote       *string
	SleepTime       *time.Time
	WokeUpTime      *time.Time
}

// DreamFilter is the typed criteria struct for listings. Zero values mean
// "no constraint"; every query is additionally scoped to the owner.
type DreamFilter struct {
	Type      string
	Mood      string
	Tag       string
	Recurring *bool
	// MinDreamScore is an inclusive lower bound, applied only when > 0.
	MinDreamScore int
	HasAudio      bool
	// Day restricts to a single UTC calendar day (YYYY-MM-DD).
	Day string
	// StartDate/EndDate form an inclusive UTC day range. Ignored when Day is set.
	StartDate string
	EndDate   string
}

// Pagination is the listing metadata block.
type Pagination struct {
	CurrentPage     int   `json:"currentPage"`
	TotalPages      int   `json:"totalPages"`
	TotalDreams     int64 `json:"totalDreams"`
	HasNextPage     bool  `json:"hasNextPage"`
	HasPreviousPage bool  `json:"hasPreviousPage"`
	Limit           int   `json:"limit"`
}

// DreamListResponse mirrors the historical payload shape of the journal API.
type DreamListResponse struct {
	Body       []Dream    `json:"body"`
	Pagination Pagination `json:"pagination"`
}

var (
	// ErrDreamNotFound covers both a missing id and an id owned by another
	// user; callers never learn which.
	ErrDreamNotFound = errors.New("dream not found")

	// ErrDreamValidation is returned when a dream payload fails a business rule
	ErrDreamValidation = errors.New("dream validation failed")
)
