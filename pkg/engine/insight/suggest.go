package insight

import (
	"fmt"

	"github.com/johncui/moodlens/pkg/model"
)

// Fixed suggestion thresholds.
const (
	PositiveCorrelation = 0.4
	NegativeCorrelation = -0.4
	LowIntensityAverage = 2.5
)

// Suggest derives suggestions from a computed snapshot. Every matching rule fires,
// in the order distribution, correlations, intensity.
func Suggest(s model.InsightSnapshot) []model.Suggestion {
	var out []model.Suggestion

	if len(s.MoodDistribution) > 0 {
		mood := DominantMood(s.MoodDistribution)
		count, _ := s.MoodDistribution.Get(string(mood))
		out = append(out, model.Suggestion{
			Kind:    model.SuggestionDistribution,
			Content: fmt.Sprintf("Your most frequent mood was %s (%d times).", mood, count),
		})
	}

	for _, p := range s.ActivityCorrelations {
		switch {
		case p.Value > PositiveCorrelation:
			out = append(out, model.Suggestion{
				Kind:    model.SuggestionCorrelationPositive,
				Content: fmt.Sprintf("Keep up with %s, it's positively impacting your mood!", p.Key),
			})
		case p.Value < NegativeCorrelation:
			out = append(out, model.Suggestion{
				Kind:    model.SuggestionCorrelationNegative,
				Content: fmt.Sprintf("Consider reducing %s as it correlates with lower moods.", p.Key),
			})
		}
	}

	// Max is zero only when no intensities were summarised.
	if s.IntensityStats.Max > 0 && s.IntensityStats.Average < LowIntensityAverage {
		out = append(out, model.Suggestion{
			Kind:    model.SuggestionIntensityWarning,
			Content: "Your average mood intensity is low. Consider engaging in uplifting activities.",
		})
	}
	return out
}
