package insight

import (
	"reflect"
	"testing"
	"time"

	"github.com/johncui/moodlens/pkg/model"
)

var base = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// rec builds a record day days and hour hours after base.
func rec(day, hour int, mood model.Mood, intensity int, activities ...string) model.MoodRecord {
	return model.MoodRecord{
		Timestamp:  base.AddDate(0, 0, day).Add(time.Duration(hour) * time.Hour),
		Mood:       mood,
		Intensity:  intensity,
		Activities: activities,
	}
}

func TestMoodDistribution(t *testing.T) {
	got := MoodDistribution([]model.MoodRecord{
		rec(0, 0, model.MoodSad, 2),
		rec(0, 1, model.MoodHappy, 4),
		rec(1, 0, model.MoodHappy, 4),
		rec(2, 0, model.MoodCalm, 3),
	})
	want := model.OrderedMap[int]{{Key: "sad", Value: 1}, {Key: "happy", Value: 2}, {Key: "calm", Value: 1}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MoodDistribution = %v, want %v", got, want)
	}

	if empty := MoodDistribution(nil); len(empty) != 0 {
		t.Errorf("empty input gave %v", empty)
	}
}

func TestDominantMoodTieGoesToFirstSeen(t *testing.T) {
	dist := model.OrderedMap[int]{{Key: "tired", Value: 2}, {Key: "happy", Value: 2}, {Key: "calm", Value: 1}}
	if got := DominantMood(dist); got != model.MoodTired {
		t.Errorf("DominantMood = %q, want tired", got)
	}
}

func TestMoodTimeseriesForwardFill(t *testing.T) {
	records := []model.MoodRecord{
		rec(0, 0, model.MoodHappy, 4),
		rec(0, 2, model.MoodHappy, 4),
		rec(0, 4, model.MoodSad, 2),
		rec(3, 0, model.MoodCalm, 3),
		rec(5, 0, model.MoodTired, 1),
	}
	got := MoodTimeseries(records, time.UTC)
	want := model.OrderedMap[model.Mood]{
		{Key: "2024-03-01", Value: model.MoodHappy},
		{Key: "2024-03-02", Value: model.MoodHappy},
		{Key: "2024-03-03", Value: model.MoodHappy},
		{Key: "2024-03-04", Value: model.MoodCalm},
		{Key: "2024-03-05", Value: model.MoodCalm},
		{Key: "2024-03-06", Value: model.MoodTired},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MoodTimeseries =\n%v\nwant\n%v", got, want)
	}
}

func TestMoodTimeseriesDayTieBreak(t *testing.T) {
	// Input order is deliberately reversed; sorting by time makes "anxious" first.
	records := []model.MoodRecord{
		rec(0, 3, model.MoodCalm, 3),
		rec(0, 2, model.MoodCalm, 3),
		rec(0, 1, model.MoodAnxious, 2),
		rec(0, 0, model.MoodAnxious, 2),
	}
	got := MoodTimeseries(records, time.UTC)
	if len(got) != 1 || got[0].Value != model.MoodAnxious {
		t.Errorf("MoodTimeseries = %v, want single anxious day", got)
	}
}

func TestMoodTimeseriesUsesLocation(t *testing.T) {
	east := time.FixedZone("UTC-5", -5*3600)
	// 03:00 UTC on Mar 2 is still Mar 1 in UTC-5.
	records := []model.MoodRecord{
		{Timestamp: time.Date(2024, 3, 2, 3, 0, 0, 0, time.UTC), Mood: model.MoodSad, Intensity: 2},
		{Timestamp: time.Date(2024, 3, 2, 15, 0, 0, 0, time.UTC), Mood: model.MoodHappy, Intensity: 4},
	}
	got := MoodTimeseries(records, east)
	want := model.OrderedMap[model.Mood]{
		{Key: "2024-03-01", Value: model.MoodSad},
		{Key: "2024-03-02", Value: model.MoodHappy},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MoodTimeseries = %v, want %v", got, want)
	}
	if utc := MoodTimeseries(records, time.UTC); len(utc) != 1 {
		t.Errorf("UTC series has %d days, want 1", len(utc))
	}
}

func TestMoodTimeseriesAcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	records := []model.MoodRecord{
		{Timestamp: time.Date(2024, 3, 9, 12, 0, 0, 0, ny), Mood: model.MoodCalm, Intensity: 3},
		{Timestamp: time.Date(2024, 3, 12, 12, 0, 0, 0, ny), Mood: model.MoodSad, Intensity: 2},
	}
	got := MoodTimeseries(records, ny)
	if keys := got.Keys(); !reflect.DeepEqual(keys, []string{"2024-03-09", "2024-03-10", "2024-03-11", "2024-03-12"}) {
		t.Errorf("keys = %v", keys)
	}
}

func TestMoodTimeseriesEmpty(t *testing.T) {
	if got := MoodTimeseries(nil, time.UTC); len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}
}

func TestTopActivities(t *testing.T) {
	records := []model.MoodRecord{
		rec(0, 0, model.MoodHappy, 4, "read", "walk", "walk"),
		rec(1, 0, model.MoodHappy, 4),
		rec(2, 0, model.MoodCalm, 3, "cook", "read"),
		rec(3, 0, model.MoodCalm, 3, "music"),
	}
	got := TopActivities(records)
	want := model.OrderedMap[int]{{Key: "read", Value: 2}, {Key: "walk", Value: 2}, {Key: "cook", Value: 1}, {Key: "music", Value: 1}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TopActivities = %v, want %v", got, want)
	}
}

func TestIntensitySummary(t *testing.T) {
	tests := []struct {
		name        string
		intensities []int
		want        model.IntensityStats
	}{
		{"constant", []int{4, 4, 4, 4, 4}, model.IntensityStats{Average: 4.0, Max: 4, Min: 4}},
		{"rounds up", []int{1, 2, 2}, model.IntensityStats{Average: 1.7, Max: 2, Min: 1}},
		{"rounds half to even", []int{1, 2, 3, 3}, model.IntensityStats{Average: 2.2, Max: 3, Min: 1}},
		{"below warning threshold", []int{2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 3, 3, 3, 3, 3, 3, 3, 3, 3}, model.IntensityStats{Average: 2.4, Max: 3, Min: 2}},
		{"half to even odd digit", []int{4, 5, 5, 5}, model.IntensityStats{Average: 4.8, Max: 5, Min: 4}},
		{"single", []int{5}, model.IntensityStats{Average: 5, Max: 5, Min: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var records []model.MoodRecord
			for i, v := range tt.intensities {
				records = append(records, rec(i, 0, model.MoodNeutral, v))
			}
			got, ok := IntensitySummary(records)
			if !ok || got != tt.want {
				t.Errorf("IntensitySummary = %+v, %v; want %+v", got, ok, tt.want)
			}
		})
	}

	if _, ok := IntensitySummary(nil); ok {
		t.Error("empty input reported ok")
	}
}
