package model

// NameCount is one bucket of a top-N aggregation.
type NameCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// DreamStats is the all-time descriptive snapshot for one user. It is
// recomputed from scratch on every request; nothing here is cached or
// incrementally maintained, which is fine for a personal journal but does
// not scale to very large per-user record counts.
type DreamStats struct {
	TotalDreams     int64 `json:"totalDreams"`
	RecurringDreams int64 `json:"recurringDreams"`
	LucidDreams     int64 `json:"lucidDreams"`
	Nightmares      int64 `json:"nightmares"`
	NormalDreams    int64 `json:"normalDreams"`
	OtherDreams     int64 `json:"otherDreams"`
	DreamsWithAudio int64 `json:"dreamsWithAudio"`

	RecurringPercent int `json:"recurringPercent"`
	LucidPercent     int `json:"lucidPercent"`
	NightmarePercent int `json:"nightmarePercent"`
	NormalPercent    int `json:"normalPercent"`
	OtherPercent     int `json:"otherPercent"`
	AudioPercent     int `json:"audioPercent"`

	// DreamScore is the average over records carrying a score, rounded to
	// one decimal; 0 when no record contributes.
	DreamScore      float64 `json:"dreamScore"`
	DreamScoreCount int64   `json:"dreamScoreCount"`

	// AverageSleepTime / AverageWakeTime are "H:MM" strings in the
	// configured display timezone, or a French "no data" sentinel.
	AverageSleepTime    string `json:"averageSleepTime"`
	AverageWakeTime     string `json:"averageWakeTime"`
	DreamsWithSleepTime int64  `json:"dreamsWithSleepTime"`
	DreamsWithWakeTime  int64  `json:"dreamsWithWakeTime"`

	Tags  []NameCount `json:"tags"`
	Moods []NameCount `json:"moods"`
}

// Sentinel display values when no sleep/wake instants are recorded.
const (
	NoSleepTimeSentinel = "Pas d'heure de coucher"
	NoWakeTimeSentinel  = "Pas d'heure de réveil"
)
