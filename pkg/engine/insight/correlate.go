package insight

import (
	"fmt"
	"math"

	"github.com/johncui/moodlens/pkg/model"
)

const (
	// MinCorrelationRecords is the smallest window that gets any correlation.
	MinCorrelationRecords = 4
	// MinActivityOccurrences is how many records must carry an activity before
	// it is correlated.
	MinActivityOccurrences = 3
)

// Dropped records why one activity is missing from the correlation output.
type Dropped struct {
	Activity string
	Reason   error
}

// Correlation is the per-activity result of Correlate.
type Correlation struct {
	Coefficients model.OrderedMap[float64]
	Dropped      []Dropped
}

// Correlate computes the Pearson coefficient between each activity's presence
// vector and the intensity vector, rounded to two decimals. Activities are visited
// in first-seen order. A window shorter than MinCorrelationRecords yields an empty
// result and ErrInsufficientSample; per-activity failures land in Dropped and never
// affect the other activities.
func Correlate(records []model.MoodRecord) (Correlation, error) {
	res := Correlation{Coefficients: model.OrderedMap[float64]{}}
	if len(records) < MinCorrelationRecords {
		return res, ErrInsufficientSample
	}

	intensity := make([]float64, len(records))
	for i, r := range records {
		intensity[i] = float64(r.Intensity)
	}

	for _, activity := range distinctActivities(records) {
		presence, hits := presenceVector(records, activity)
		if hits < MinActivityOccurrences {
			res.Dropped = append(res.Dropped, Dropped{Activity: activity, Reason: ErrTooFewOccurrences})
			continue
		}
		coef, err := pearson(presence, intensity)
		if err != nil {
			res.Dropped = append(res.Dropped, Dropped{Activity: activity, Reason: err})
			continue
		}
		res.Coefficients = append(res.Coefficients, model.Pair[float64]{Key: activity, Value: coef})
	}
	return res, nil
}

func distinctActivities(records []model.MoodRecord) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range records {
		for _, a := range r.Activities {
			if !seen[a] {
				seen[a] = true
				out = append(out, a)
			}
		}
	}
	return out
}

// presenceVector marks 1 for every record that carries activity at least once.
func presenceVector(records []model.MoodRecord, activity string) ([]float64, int) {
	vec := make([]float64, len(records))
	hits := 0
	for i, r := range records {
		for _, a := range r.Activities {
			if a == activity {
				vec[i] = 1
				hits++
				break
			}
		}
	}
	return vec, hits
}

func pearson(x, y []float64) (float64, error) {
	if len(x) != len(y) || len(x) < 2 {
		return 0, fmt.Errorf("%w: vectors of length %d and %d", ErrDegenerate, len(x), len(y))
	}
	n := float64(len(x))
	var mx, my float64
	for i := range x {
		mx += x[i]
		my += y[i]
	}
	mx /= n
	my /= n

	var sxy, sxx, syy float64
	for i := range x {
		dx, dy := x[i]-mx, y[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0, fmt.Errorf("%w: zero variance", ErrDegenerate)
	}
	r := sxy / math.Sqrt(sxx*syy)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, fmt.Errorf("%w: non-finite coefficient", ErrDegenerate)
	}
	return math.Max(-1, math.Min(1, roundTo(r, 2))), nil
}
