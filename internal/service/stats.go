package service

import (
	"context"
	"fmt"
	"math"

	"github.com/Callypige/dreamology-diary/internal/model"
	"github.com/Callypige/dreamology-diary/internal/repository"
)

// topListLimit caps the tag and mood leaderboards.
const topListLimit = 5

// StatsService assembles the per-user statistics snapshot. Every call runs
// the aggregation queries fresh against the store.
type StatsService struct {
	repo     repository.DreamRepository
	timeZone string
}

func NewStatsService(repo repository.DreamRepository, timeZone string) *StatsService {
	return &StatsService{
		repo:     repo,
		timeZone: timeZone,
	}
}

// Compute builds the full snapshot for one user.
func (s *StatsService) Compute(ctx context.Context, userID int64) (*model.DreamStats, error) {
	agg, err := s.repo.Aggregates(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate dreams: %w", err)
	}

	avgScore, scoreCount, err := s.repo.AverageDreamScore(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to average dream score: %w", err)
	}

	tags, err := s.repo.TopTags(ctx, userID, topListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank tags: %w", err)
	}
	moods, err := s.repo.TopMoods(ctx, userID, topListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank moods: %w", err)
	}

	sleepAvg, err := s.repo.AverageSleepClock(ctx, userID, s.timeZone)
	if err != nil {
		return nil, fmt.Errorf("failed to average sleep clock: %w", err)
	}
	wakeAvg, err := s.repo.AverageWakeClock(ctx, userID, s.timeZone)
	if err != nil {
		return nil, fmt.Errorf("failed to average wake clock: %w", err)
	}

	if tags == nil {
		tags = []model.NameCount{}
	}
	if moods == nil {
		moods = []model.NameCount{}
	}

	stats := &model.DreamStats{
		TotalDreams:     agg.Total,
		RecurringDreams: agg.Recurring,
		LucidDreams:     agg.Lucid,
		Nightmares:      agg.Nightmare,
		NormalDreams:    agg.Normal,
		OtherDreams:     agg.Other,
		DreamsWithAudio: agg.WithAudio,

		RecurringPercent: Percentage(agg.Recurring, agg.Total),
		LucidPercent:     Percentage(agg.Lucid, agg.Total),
		NightmarePercent: Percentage(agg.Nightmare, agg.Total),
		NormalPercent:    Percentage(agg.Normal, agg.Total),
		OtherPercent:     Percentage(agg.Other, agg.Total),
		AudioPercent:     Percentage(agg.WithAudio, agg.Total),

		DreamScore:      RoundScore(avgScore),
		DreamScoreCount: scoreCount,

		AverageSleepTime:    FormatClockAverage(sleepAvg, model.NoSleepTimeSentinel),
		AverageWakeTime:     FormatClockAverage(wakeAvg, model.NoWakeTimeSentinel),
		DreamsWithSleepTime: sleepAvg.Count,
		DreamsWithWakeTime:  wakeAvg.Count,

		Tags:  tags,
		Moods: moods,
	}

	return stats, nil
}

// Percentage returns part/total as a whole percent, rounded to nearest.
// A zero total yields 0, never a division by zero.
func Percentage(part, total int64) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

// RoundScore rounds an average score to one decimal.
func RoundScore(v float64) float64 {
	return math.Round(v*10) / 10
}

// FormatClockAverage renders a mean clock position as "H:MM" (no leading
// zero on the hour, matching the historical display), or the sentinel when
// no record contributed.
func FormatClockAverage(avg *repository.ClockAverage, sentinel string) string {
	if avg == nil || avg.Count == 0 {
		return sentinel
	}

	hour := int(math.Round(avg.Hour))
	minute := int(math.Round(avg.Minute))

	// Rounding can push minute to 60 or hour past 23; wrap both.
	if minute == 60 {
		minute = 0
		hour++
	}
	hour = hour % 24

	return fmt.Sprintf("%d:%02d", hour, minute)
}
