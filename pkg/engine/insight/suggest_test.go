package insight

import (
	"testing"

	"github.com/johncui/moodlens/pkg/model"
)

func TestSuggest(t *testing.T) {
	tests := []struct {
		name string
		snap model.InsightSnapshot
		want []model.SuggestionKind
	}{
		{
			name: "empty snapshot",
			snap: model.InsightSnapshot{},
			want: nil,
		},
		{
			name: "thresholds are exclusive",
			snap: model.InsightSnapshot{
				MoodDistribution:     model.OrderedMap[int]{{Key: "calm", Value: 3}},
				ActivityCorrelations: model.OrderedMap[float64]{{Key: "tea", Value: 0.4}, {Key: "tv", Value: -0.4}},
				IntensityStats:       model.IntensityStats{Average: 2.5, Max: 4, Min: 1},
			},
			want: []model.SuggestionKind{model.SuggestionDistribution},
		},
		{
			name: "every rule fires in order",
			snap: model.InsightSnapshot{
				MoodDistribution:     model.OrderedMap[int]{{Key: "sad", Value: 4}, {Key: "calm", Value: 1}},
				ActivityCorrelations: model.OrderedMap[float64]{{Key: "tv", Value: -0.8}, {Key: "walk", Value: 0.41}, {Key: "tea", Value: 0.1}},
				IntensityStats:       model.IntensityStats{Average: 1.9, Max: 3, Min: 1},
			},
			want: []model.SuggestionKind{
				model.SuggestionDistribution,
				model.SuggestionCorrelationNegative,
				model.SuggestionCorrelationPositive,
				model.SuggestionIntensityWarning,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Suggest(tt.snap)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d suggestions %+v, want %v", len(got), got, tt.want)
			}
			for i := range got {
				if got[i].Kind != tt.want[i] {
					t.Errorf("suggestion %d kind = %s, want %s", i, got[i].Kind, tt.want[i])
				}
				if got[i].Content == "" {
					t.Errorf("suggestion %d has no content", i)
				}
			}
		})
	}
}

func TestSuggestContent(t *testing.T) {
	got := Suggest(model.InsightSnapshot{
		MoodDistribution:     model.OrderedMap[int]{{Key: "calm", Value: 2}, {Key: "tired", Value: 2}},
		ActivityCorrelations: model.OrderedMap[float64]{{Key: "late nights", Value: -0.7}},
		IntensityStats:       model.IntensityStats{Average: 3, Max: 5, Min: 1},
	})
	want := []string{
		"Your most frequent mood was calm (2 times).",
		"Consider reducing late nights as it correlates with lower moods.",
	}
	if len(got) != len(want) {
		t.Fatalf("got %+v", got)
	}
	for i := range want {
		if got[i].Content != want[i] {
			t.Errorf("content %d = %q, want %q", i, got[i].Content, want[i])
		}
	}
}
