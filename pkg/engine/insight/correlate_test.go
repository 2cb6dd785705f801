package insight

import (
	"errors"
	"math"
	"testing"

	"github.com/johncui/moodlens/pkg/model"
)

func walkWindow() []model.MoodRecord {
	var records []model.MoodRecord
	for i, v := range []int{5, 5, 4} {
		records = append(records, rec(i, 0, model.MoodHappy, v, "walk"))
	}
	for i, v := range []int{1, 1, 1, 1, 2, 2, 1} {
		records = append(records, rec(3+i, 0, model.MoodSad, v))
	}
	return records
}

func TestCorrelatePositive(t *testing.T) {
	res, err := Correlate(walkWindow())
	if err != nil {
		t.Fatalf("Correlate: %v", err)
	}
	got, ok := res.Coefficients.Get("walk")
	if !ok {
		t.Fatalf("walk missing from %v", res.Coefficients)
	}
	if got != 0.96 {
		t.Errorf("walk = %v, want 0.96", got)
	}
}

func TestCorrelateNegative(t *testing.T) {
	records := []model.MoodRecord{
		rec(0, 0, model.MoodSad, 1, "doomscroll"),
		rec(1, 0, model.MoodSad, 2, "doomscroll"),
		rec(2, 0, model.MoodSad, 1, "doomscroll"),
		rec(3, 0, model.MoodHappy, 5),
		rec(4, 0, model.MoodHappy, 4),
	}
	res, err := Correlate(records)
	if err != nil {
		t.Fatalf("Correlate: %v", err)
	}
	got, _ := res.Coefficients.Get("doomscroll")
	if got >= -0.4 {
		t.Errorf("doomscroll = %v, want strongly negative", got)
	}
}

func TestCorrelateInsufficientSample(t *testing.T) {
	records := []model.MoodRecord{
		rec(0, 0, model.MoodHappy, 5, "walk"),
		rec(1, 0, model.MoodHappy, 5, "walk"),
		rec(2, 0, model.MoodSad, 1, "walk"),
	}
	res, err := Correlate(records)
	if !errors.Is(err, ErrInsufficientSample) {
		t.Errorf("err = %v, want ErrInsufficientSample", err)
	}
	if len(res.Coefficients) != 0 {
		t.Errorf("coefficients = %v, want empty", res.Coefficients)
	}
}

func TestCorrelateTooFewOccurrences(t *testing.T) {
	records := walkWindow()
	records[5].Activities = []string{"yoga"}
	records[6].Activities = []string{"yoga"}

	res, err := Correlate(records)
	if err != nil {
		t.Fatalf("Correlate: %v", err)
	}
	if _, ok := res.Coefficients.Get("yoga"); ok {
		t.Error("yoga appears twice and should be excluded")
	}
	if !droppedFor(res, "yoga", ErrTooFewOccurrences) {
		t.Errorf("dropped = %v, want yoga/ErrTooFewOccurrences", res.Dropped)
	}
}

func TestCorrelateDuplicateTagsCountOncePerRecord(t *testing.T) {
	records := []model.MoodRecord{
		rec(0, 0, model.MoodHappy, 5, "walk", "walk", "walk"),
		rec(1, 0, model.MoodSad, 1),
		rec(2, 0, model.MoodSad, 2),
		rec(3, 0, model.MoodSad, 1),
	}
	res, _ := Correlate(records)
	if _, ok := res.Coefficients.Get("walk"); ok {
		t.Error("one record with a repeated tag must not satisfy the occurrence guard")
	}
}

func TestCorrelateZeroVariancePresence(t *testing.T) {
	records := []model.MoodRecord{
		rec(0, 0, model.MoodHappy, 5, "exercise"),
		rec(1, 0, model.MoodHappy, 5, "exercise"),
		rec(2, 0, model.MoodSad, 1, "exercise"),
		rec(3, 0, model.MoodSad, 1, "exercise"),
	}
	res, err := Correlate(records)
	if err != nil {
		t.Fatalf("Correlate: %v", err)
	}
	if len(res.Coefficients) != 0 {
		t.Errorf("coefficients = %v, want empty", res.Coefficients)
	}
	if !droppedFor(res, "exercise", ErrDegenerate) {
		t.Errorf("dropped = %v, want exercise/ErrDegenerate", res.Dropped)
	}
}

func TestCorrelateZeroVarianceIntensityKeepsOthersIsolated(t *testing.T) {
	records := []model.MoodRecord{
		rec(0, 0, model.MoodCalm, 3, "tea"),
		rec(1, 0, model.MoodCalm, 3, "tea"),
		rec(2, 0, model.MoodCalm, 3, "tea"),
		rec(3, 0, model.MoodCalm, 3),
	}
	res, err := Correlate(records)
	if err != nil {
		t.Fatalf("Correlate: %v", err)
	}
	if len(res.Coefficients) != 0 || !droppedFor(res, "tea", ErrDegenerate) {
		t.Errorf("res = %+v", res)
	}
}

func TestCorrelateRange(t *testing.T) {
	records := []model.MoodRecord{
		rec(0, 0, model.MoodHappy, 5, "a", "b"),
		rec(1, 0, model.MoodHappy, 5, "a"),
		rec(2, 0, model.MoodHappy, 5, "a", "b"),
		rec(3, 0, model.MoodSad, 1, "b"),
		rec(4, 0, model.MoodSad, 1),
		rec(5, 0, model.MoodSad, 1, "b"),
	}
	res, err := Correlate(records)
	if err != nil {
		t.Fatalf("Correlate: %v", err)
	}
	if got, _ := res.Coefficients.Get("a"); got != 1 {
		t.Errorf("a = %v, want 1", got)
	}
	for _, p := range res.Coefficients {
		if p.Value < -1 || p.Value > 1 {
			t.Errorf("%s = %v outside [-1, 1]", p.Key, p.Value)
		}
		if scaled := p.Value * 100; math.Abs(scaled-math.Round(scaled)) > 1e-9 {
			t.Errorf("%s = %v not rounded to 2 places", p.Key, p.Value)
		}
	}
}

func droppedFor(res Correlation, activity string, reason error) bool {
	for _, d := range res.Dropped {
		if d.Activity == activity && errors.Is(d.Reason, reason) {
			return true
		}
	}
	return false
}
