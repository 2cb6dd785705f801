package model

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Mood is one of the fixed self-reported mood labels.
type Mood string

const (
	MoodHappy    Mood = "happy"
	MoodCalm     Mood = "calm"
	MoodExcited  Mood = "excited"
	MoodContent  Mood = "content"
	MoodNeutral  Mood = "neutral"
	MoodAnxious  Mood = "anxious"
	MoodStressed Mood = "stressed"
	MoodSad      Mood = "sad"
	MoodAngry    Mood = "angry"
	MoodTired    Mood = "tired"
)

// Moods lists every valid label in display order.
var Moods = []Mood{
	MoodHappy, MoodCalm, MoodExcited, MoodContent, MoodNeutral,
	MoodAnxious, MoodStressed, MoodSad, MoodAngry, MoodTired,
}

// Valid reports whether m is a known label.
func (m Mood) Valid() bool {
	for _, known := range Moods {
		if m == known {
			return true
		}
	}
	return false
}

const (
	MinIntensity = 1
	MaxIntensity = 5
)

// ErrInvalidRecord is returned for records outside the accepted domain.
var ErrInvalidRecord = errors.New("invalid mood record")

// MoodRecord is one timestamped self-report. It is the engine's only input.
type MoodRecord struct {
	Timestamp  time.Time `json:"timestamp"`
	Mood       Mood      `json:"mood"`
	Intensity  int       `json:"intensity"`
	Activities []string  `json:"activities"`
}

// Validate checks the mood label and intensity range.
func (r MoodRecord) Validate() error {
	if !r.Mood.Valid() {
		return fmt.Errorf("%w: unknown mood %q", ErrInvalidRecord, r.Mood)
	}
	if r.Intensity < MinIntensity || r.Intensity > MaxIntensity {
		return fmt.Errorf("%w: intensity must be between %d-%d, got %d", ErrInvalidRecord, MinIntensity, MaxIntensity, r.Intensity)
	}
	if r.Timestamp.IsZero() {
		return fmt.Errorf("%w: timestamp is required", ErrInvalidRecord)
	}
	return nil
}

// MoodEntry mirrors mood_entries rows: a MoodRecord plus ownership and journal fields.
type MoodEntry struct {
	ID             string    `json:"id"`
	UserID         string    `json:"-"`
	Mood           Mood      `json:"mood"`
	Intensity      int       `json:"intensity"`
	Activities     []string  `json:"activities"`
	Notes          string    `json:"notes"`
	Tags           []string  `json:"tags"`
	IsAutoDetected bool      `json:"is_auto_detected"`
	Timestamp      time.Time `json:"timestamp"`
	CreatedAt      time.Time `json:"created_at"`
}

// Record projects the entry onto the engine input.
func (e MoodEntry) Record() MoodRecord {
	return MoodRecord{
		Timestamp:  e.Timestamp,
		Mood:       e.Mood,
		Intensity:  e.Intensity,
		Activities: e.Activities,
	}
}

// EntryFilter narrows ListEntries results. Zero values mean "no constraint".
type EntryFilter struct {
	Mood         Mood
	AutoDetected *bool
	Since        time.Time
	Search       string
	Limit        int
}

// IntensityStats summarises intensities in the window.
type IntensityStats struct {
	Average float64 `json:"average"`
	Max     int     `json:"max"`
	Min     int     `json:"min"`
}

// SuggestionKind classifies a generated suggestion.
type SuggestionKind string

const (
	SuggestionDistribution        SuggestionKind = "distribution"
	SuggestionCorrelationPositive SuggestionKind = "correlation_positive"
	SuggestionCorrelationNegative SuggestionKind = "correlation_negative"
	SuggestionIntensityWarning    SuggestionKind = "intensity_warning"
	SuggestionAutoGenerated       SuggestionKind = "auto_generated"
)

// ParseSuggestionKind maps stored values back to a kind; anything unknown is auto_generated.
func ParseSuggestionKind(s string) SuggestionKind {
	switch k := SuggestionKind(s); k {
	case SuggestionDistribution, SuggestionCorrelationPositive,
		SuggestionCorrelationNegative, SuggestionIntensityWarning:
		return k
	}
	return SuggestionAutoGenerated
}

// Suggestion is a human-readable hint attached to one insight.
type Suggestion struct {
	ID              string         `json:"id,omitempty"`
	Content         string         `json:"content"`
	Kind            SuggestionKind `json:"suggestion_type"`
	ConfidenceScore *float64       `json:"confidence_score"`
}

// InsightSnapshot is the computed summary for one lookback window.
type InsightSnapshot struct {
	PeriodStart          string              `json:"period_start"`
	PeriodEnd            string              `json:"period_end"`
	MoodDistribution     OrderedMap[int]     `json:"mood_distribution"`
	MoodTimeseries       OrderedMap[Mood]    `json:"mood_timeseries"`
	TopActivities        OrderedMap[int]     `json:"top_activities"`
	ActivityCorrelations OrderedMap[float64] `json:"activity_correlations"`
	DominantMood         Mood                `json:"dominant_mood"`
	IntensityStats       IntensityStats      `json:"intensity_stats"`
}

// Insight is a snapshot together with its suggestions, as produced by one engine run.
type Insight struct {
	ID          string          `json:"id,omitempty"`
	UserID      string          `json:"-"`
	Snapshot    InsightSnapshot `json:"snapshot"`
	Suggestions []Suggestion    `json:"suggestions"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// RecordSource supplies a user's records at or after since, oldest first.
type RecordSource interface {
	RecordsSince(ctx context.Context, userID string, since time.Time) ([]MoodRecord, error)
}

// InsightService captures the operations the transport layer depends on.
type InsightService interface {
	Record(ctx context.Context, entry MoodEntry) (MoodEntry, error)
	Entry(ctx context.Context, userID, id string) (MoodEntry, error)
	Entries(ctx context.Context, userID string, filter EntryFilter) ([]MoodEntry, error)
	UpdateEntry(ctx context.Context, entry MoodEntry) (MoodEntry, error)
	DeleteEntry(ctx context.Context, userID, id string) error
	Generate(ctx context.Context, userID string) (*Insight, error)
	Insights(ctx context.Context, userID string) ([]Insight, error)
	Insight(ctx context.Context, userID, id string) (*Insight, error)
	Refresh(ctx context.Context) error
}
