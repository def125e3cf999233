package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Callypige/dreamology-diary/internal/model"
	"github.com/Callypige/dreamology-diary/internal/timeutil"
)

// audioNotePattern recognizes stored voice note URLs. Kept in SQL so the
// hasAudio filter and the audio counter agree on what counts as audio.
const audioNotePattern = `\.(webm|mp3|wav|m4a|ogg)$`

const dreamColumns = `
	id, user_id, title, description, type, date, mood, before_sleep_mood,
	lucidity, recurring, private, intensity, dream_clarity, dream_score,
	tags, characters, images, location, interpretation, audio_note,
	sleep_time, woke_up_time, created_at, updated_at`

type dreamRepository struct {
	db *sqlx.DB
}

func NewDreamRepository(db *sqlx.DB) DreamRepository {
	return &dreamRepository{db: db}
}

// Create inserts a new dream for its owner.
func (r *dreamRepository) Create(ctx context.Context, d *model.Dream) error {
	query := `
		INSERT INTO dreams (
			user_id, title, description, type, date, mood, before_sleep_mood,
			lucidity, recurring, private, intensity, dream_clarity, dream_score,
			tags, characters, images, location, interpretation, audio_note,
			sleep_time, woke_up_time
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		RETURNING id, date, created_at, updated_at
	`

	row := r.db.QueryRowxContext(ctx, query,
		d.UserID,
		d.Title,
		d.Description,
		d.Type,
		d.Date,
		d.Mood,
		d.BeforeSleepMood,
		d.Lucidity,
		d.Recurring,
		d.Private,
		d.Intensity,
		d.DreamClarity,
		d.DreamScore,
		d.Tags,
		d.Characters,
		d.Images,
		d.Location,
		d.Interpretation,
		d.AudioNote,
		d.SleepTime,
		d.WokeUpTime,
	)

	if err := row.Scan(&d.ID, &d.Date, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert dream: %w", err)
	}
	return nil
}

// GetOwnedByID fetches a dream matching both id and owner. A miss on
// either yields model.ErrDreamNotFound.
func (r *dreamRepository) GetOwnedByID(ctx context.Context, dreamID, userID int64) (*model.Dream, error) {
	query := `SELECT ` + dreamColumns + ` FROM dreams WHERE id = $1 AND user_id = $2`

	var d model.Dream
	err := r.db.GetContext(ctx, &d, query, dreamID, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrDreamNotFound
		}
		return nil, fmt.Errorf("failed to get dream: %w", err)
	}
	return &d, nil
}

// Update applies only the supplied changes, scoped to the owner, and
// returns the updated row.
func (r *dreamRepository) Update(ctx context.Context, dreamID, userID int64, changes *model.DreamChanges) (*model.Dream, error) {
	sets, args := buildDreamSet(changes)
	if len(sets) == 0 {
		// Nothing to change; still enforce the ownership check.
		return r.GetOwnedByID(ctx, dreamID, userID)
	}

	sets = append(sets, "updated_at = NOW()")
	args = append(args, dreamID, userID)
	query := fmt.Sprintf(
		`UPDATE dreams SET %s WHERE id = $%d AND user_id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args)-1, len(args), dreamColumns,
	)

	var d model.Dream
	err := r.db.GetContext(ctx, &d, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrDreamNotFound
		}
		return nil, fmt.Errorf("failed to update dream: %w", err)
	}
	return &d, nil
}

// Delete removes a dream, scoped to the owner. Deleting an id that is
// already gone reports not-found, never an error.
func (r *dreamRepository) Delete(ctx context.Context, dreamID, userID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM dreams WHERE id = $1 AND user_id = $2`, dreamID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete dream: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrDreamNotFound
	}
	return nil
}

// List counts and fetches one page of the owner's dreams matching the
// filter, most recent dream date first.
func (r *dreamRepository) List(ctx context.Context, userID int64, filter model.DreamFilter, page, limit int) ([]model.Dream, int64, error) {
	where, args := buildDreamWhere(userID, filter)

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM dreams `+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count dreams: %w", err)
	}

	offset := (page - 1) * limit
	query := fmt.Sprintf(
		`SELECT %s FROM dreams %s ORDER BY date DESC, id DESC LIMIT $%d OFFSET $%d`,
		dreamColumns, where, len(args)+1, len(args)+2,
	)
	args = append(args, limit, offset)

	dreams := []model.Dream{}
	if err := r.db.SelectContext(ctx, &dreams, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list dreams: %w", err)
	}
	return dreams, total, nil
}

// buildDreamWhere translates the typed filter into a WHERE clause. All
// criteria AND together and every query is scoped to the owner.
func buildDreamWhere(userID int64, f model.DreamFilter) (string, []interface{}) {
	clauses := []string{"user_id = $1"}
	args := []interface{}{userID}

	next := func() int { return len(args) + 1 }

	if f.Type != "" {
		clauses = append(clauses, fmt.Sprintf("type = $%d", next()))
		args = append(args, f.Type)
	}
	if f.Mood != "" {
		clauses = append(clauses, fmt.Sprintf("mood = $%d", next()))
		args = append(args, f.Mood)
	}
	if f.Tag != "" {
		clauses = append(clauses, fmt.Sprintf("$%d = ANY(tags)", next()))
		args = append(args, f.Tag)
	}
	if f.Recurring != nil {
		clauses = append(clauses, fmt.Sprintf("recurring = $%d", next()))
		args = append(args, *f.Recurring)
	}
	if f.MinDreamScore > 0 {
		clauses = append(clauses, fmt.Sprintf("dream_score >= $%d", next()))
		args = append(args, f.MinDreamScore)
	}
	if f.HasAudio {
		clauses = append(clauses, fmt.Sprintf("audio_note IS NOT NULL AND audio_note <> '' AND audio_note ~* $%d", next()))
		args = append(args, audioNotePattern)
	}

	if start, end, ok := filterDayRange(f); ok {
		clauses = append(clauses, fmt.Sprintf("date >= $%d AND date <= $%d", next(), next()+1))
		args = append(args, start, end)
	}

	return "WHERE " + strings.Join(clauses, " AND "), args
}

// filterDayRange resolves the single-day or day-range criteria into UTC
// day boundaries. Malformed dates drop the criterion rather than failing
// the whole listing.
func filterDayRange(f model.DreamFilter) (time.Time, time.Time, bool) {
	if f.Day != "" {
		day, err := timeutil.ParseDate(f.Day)
		if err != nil {
			return time.Time{}, time.Time{}, false
		}
		return day, endOfDay(day), true
	}
	if f.StartDate != "" && f.EndDate != "" {
		start, err := timeutil.ParseDate(f.StartDate)
		if err != nil {
			return time.Time{}, time.Time{}, false
		}
		end, err := timeutil.ParseDate(f.EndDate)
		if err != nil {
			return time.Time{}, time.Time{}, false
		}
		return start, endOfDay(end), true
	}
	return time.Time{}, time.Time{}, false
}

func endOfDay(day time.Time) time.Time {
	return day.Add(24*time.Hour - time.Millisecond)
}

// buildDreamSet expands the non-nil changes into SET fragments. Column
// order is fixed so the generated SQL is deterministic and testable.
func buildDreamSet(c *model.DreamChanges) ([]string, []interface{}) {
	var sets []string
	var args []interface{}

	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if c.Title != nil {
		add("title", *c.Title)
	}
	if c.Description != nil {
		add("description", *c.Description)
	}
	if c.Type != nil {
		add("type", *c.Type)
	}
	if c.Date != nil {
		add("date", *c.Date)
	}
	if c.Mood != nil {
		add("mood", *c.Mood)
	}
	if c.BeforeSleepMood != nil {
		add("before_sleep_mood", *c.BeforeSleepMood)
	}
	if c.Lucidity != nil {
		add("lucidity", *c.Lucidity)
	}
	if c.Recurring != nil {
		add("recurring", *c.Recurring)
	}
	if c.Private != nil {
		add("private", *c.Private)
	}
	if c.Intensity != nil {
		add("intensity", *c.Intensity)
	}
	if c.DreamClarity != nil {
		add("dream_clarity", *c.DreamClarity)
	}
	if c.DreamScore != nil {
		add("dream_score", *c.DreamScore)
	}
	if c.Tags != nil {
		add("tags", pq.StringArray(*c.Tags))
	}
	if c.Characters != nil {
		add("characters", pq.StringArray(*c.Characters))
	}
	if c.Images != nil {
		add("images", pq.StringArray(*c.Images))
	}
	if c.Location != nil {
		add("location", *c.Location)
	}
	if c.Interpretation != nil {
		add("interpretation", *c.Interpretation)
	}
	if c.AudioNote != nil {
		add("audio_note", *c.AudioNote)
	}
	if c.SleepTime != nil {
		add("sleep_time", *c.SleepTime)
	}
	if c.WokeUpTime != nil {
		add("woke_up_time", *c.WokeUpTime)
	}

	return sets, args
}

// Aggregates runs the single-pass counter query behind the stats snapshot.
func (r *dreamRepository) Aggregates(ctx context.Context, userID int64) (*DreamAggregates, error) {
	query := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE recurring) AS recurring,
			COUNT(*) FILTER (WHERE type = 'lucide') AS lucid,
			COUNT(*) FILTER (WHERE type = 'cauchemar') AS nightmare,
			COUNT(*) FILTER (WHERE type = 'normal') AS normal,
			COUNT(*) FILTER (WHERE type = 'autre') AS other,
			COUNT(*) FILTER (WHERE audio_note IS NOT NULL AND audio_note <> '' AND audio_note ~* $2) AS with_audio
		FROM dreams
		WHERE user_id = $1
	`

	var agg DreamAggregates
	if err := r.db.GetContext(ctx, &agg, query, userID, audioNotePattern); err != nil {
		return nil, fmt.Errorf("failed to aggregate dreams: %w", err)
	}
	return &agg, nil
}

// AverageDreamScore averages dream_score over rows that carry one.
func (r *dreamRepository) AverageDreamScore(ctx context.Context, userID int64) (float64, int64, error) {
	query := `
		SELECT COALESCE(AVG(dream_score), 0)::float8 AS avg, COUNT(dream_score) AS count
		FROM dreams
		WHERE user_id = $1 AND dream_score IS NOT NULL
	`

	var row struct {
		Avg   float64 `db:"avg"`
		Count int64   `db:"count"`
	}
	if err := r.db.GetContext(ctx, &row, query, userID); err != nil {
		return 0, 0, fmt.Errorf("failed to average dream score: %w", err)
	}
	return row.Avg, row.Count, nil
}

// TopTags returns the most frequent non-empty tags, ties broken by name
// for a stable order.
func (r *dreamRepository) TopTags(ctx context.Context, userID int64, limit int) ([]model.NameCount, error) {
	query := `
		SELECT tag AS name, COUNT(*) AS count
		FROM dreams, unnest(tags) AS tag
		WHERE user_id = $1 AND tag <> ''
		GROUP BY tag
		ORDER BY count DESC, name ASC
		LIMIT $2
	`

	counts := []model.NameCount{}
	if err := r.db.SelectContext(ctx, &counts, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to count tags: %w", err)
	}
	return counts, nil
}

// TopMoods returns the most frequent non-empty moods.
func (r *dreamRepository) TopMoods(ctx context.Context, userID int64, limit int) ([]model.NameCount, error) {
	query := `
		SELECT mood AS name, COUNT(*) AS count
		FROM dreams
		WHERE user_id = $1 AND mood IS NOT NULL AND mood <> ''
		GROUP BY mood
		ORDER BY count DESC, name ASC
		LIMIT $2
	`

	counts := []model.NameCount{}
	if err := r.db.SelectContext(ctx, &counts, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to count moods: %w", err)
	}
	return counts, nil
}

func (r *dreamRepository) AverageSleepClock(ctx context.Context, userID int64, timeZone string) (*ClockAverage, error) {
	return r.averageClock(ctx, userID, "sleep_time", timeZone)
}

func (r *dreamRepository) AverageWakeClock(ctx context.Context, userID int64, timeZone string) (*ClockAverage, error) {
	return r.averageClock(ctx, userID, "woke_up_time", timeZone)
}

// averageClock averages hour and minute independently, after shifting the
// stored UTC instants into the configured display timezone. column is one
// of the two fixed clock columns, never caller input.
func (r *dreamRepository) averageClock(ctx context.Context, userID int64, column, timeZone string) (*ClockAverage, error) {
	query := fmt.Sprintf(`
		SELECT
			AVG(EXTRACT(HOUR FROM %[1]s AT TIME ZONE $2))::float8 AS avg_hour,
			AVG(EXTRACT(MINUTE FROM %[1]s AT TIME ZONE $2))::float8 AS avg_minute,
			COUNT(*) AS count
		FROM dreams
		WHERE user_id = $1 AND %[1]s IS NOT NULL
	`, column)

	var row struct {
		AvgHour   *float64 `db:"avg_hour"`
		AvgMinute *float64 `db:"avg_minute"`
		Count     int64    `db:"count"`
	}
	if err := r.db.GetContext(ctx, &row, query, userID, timeZone); err != nil {
		return nil, fmt.Errorf("failed to average %s: %w", column, err)
	}
	if row.Count == 0 || row.AvgHour == nil || row.AvgMinute == nil {
		return &ClockAverage{Count: 0}, nil
	}
	return &ClockAverage{Hour: *row.AvgHour, Minute: *row.AvgMinute, Count: row.Count}, nil
}
