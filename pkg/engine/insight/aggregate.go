package insight

import (
	"math"
	"sort"
	"time"

	"github.com/johncui/moodlens/pkg/model"
)

// DateLayout is the ISO-8601 calendar date format used for timeseries keys and periods.
const DateLayout = "2006-01-02"

// sortRecords returns a copy ordered by timestamp. Equal timestamps keep input order,
// so "first seen" is always well defined.
func sortRecords(records []model.MoodRecord) []model.MoodRecord {
	out := make([]model.MoodRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// counter tallies string keys and remembers the order they were first seen.
type counter struct {
	index map[string]int
	pairs model.OrderedMap[int]
}

func newCounter() *counter {
	return &counter{index: make(map[string]int)}
}

func (c *counter) add(key string) {
	if i, ok := c.index[key]; ok {
		c.pairs[i].Value++
		return
	}
	c.index[key] = len(c.pairs)
	c.pairs = append(c.pairs, model.Pair[int]{Key: key, Value: 1})
}

// top returns the highest count; ties go to the key seen first.
func (c *counter) top() (string, int) {
	var key string
	best := 0
	for _, p := range c.pairs {
		if p.Value > best {
			key, best = p.Key, p.Value
		}
	}
	return key, best
}

// MoodDistribution counts each mood label, in first-seen order.
func MoodDistribution(records []model.MoodRecord) model.OrderedMap[int] {
	c := newCounter()
	for _, r := range records {
		c.add(string(r.Mood))
	}
	if len(c.pairs) == 0 {
		return model.OrderedMap[int]{}
	}
	return c.pairs
}

// DominantMood picks the highest count from a distribution, first entry winning ties.
func DominantMood(dist model.OrderedMap[int]) model.Mood {
	var mood string
	best := 0
	for _, p := range dist {
		if p.Value > best {
			mood, best = p.Key, p.Value
		}
	}
	return model.Mood(mood)
}

// calendarDay truncates t to its calendar date in loc. The result is expressed as
// midnight UTC so that day arithmetic is unaffected by DST transitions in loc.
func calendarDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MoodTimeseries assigns one mood per calendar day from the first to the last
// record's day. A day's value is its modal mood (ties go to the mood logged first
// that day); days without records carry the previous day's value forward.
func MoodTimeseries(records []model.MoodRecord, loc *time.Location) model.OrderedMap[model.Mood] {
	if len(records) == 0 {
		return model.OrderedMap[model.Mood]{}
	}
	if loc == nil {
		loc = time.UTC
	}
	sorted := sortRecords(records)

	perDay := make(map[time.Time]*counter)
	for _, r := range sorted {
		day := calendarDay(r.Timestamp, loc)
		c, ok := perDay[day]
		if !ok {
			c = newCounter()
			perDay[day] = c
		}
		c.add(string(r.Mood))
	}

	first := calendarDay(sorted[0].Timestamp, loc)
	last := calendarDay(sorted[len(sorted)-1].Timestamp, loc)

	var series model.OrderedMap[model.Mood]
	var lastSeen model.Mood
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		if c, ok := perDay[day]; ok {
			mood, _ := c.top()
			lastSeen = model.Mood(mood)
		}
		series = append(series, model.Pair[model.Mood]{Key: day.Format(DateLayout), Value: lastSeen})
	}
	return series
}

// TopActivities counts every activity occurrence, including repeats within one
// record, sorted by count descending with first-seen order breaking ties.
func TopActivities(records []model.MoodRecord) model.OrderedMap[int] {
	c := newCounter()
	for _, r := range records {
		for _, a := range r.Activities {
			c.add(a)
		}
	}
	if len(c.pairs) == 0 {
		return model.OrderedMap[int]{}
	}
	out := c.pairs
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Value > out[j].Value
	})
	return out
}

// IntensitySummary returns the mean intensity rounded to one decimal plus the exact
// extremes. ok is false for an empty input.
func IntensitySummary(records []model.MoodRecord) (stats model.IntensityStats, ok bool) {
	if len(records) == 0 {
		return stats, false
	}
	stats.Min, stats.Max = records[0].Intensity, records[0].Intensity
	sum := 0
	for _, r := range records {
		sum += r.Intensity
		if r.Intensity < stats.Min {
			stats.Min = r.Intensity
		}
		if r.Intensity > stats.Max {
			stats.Max = r.Intensity
		}
	}
	stats.Average = roundTo(float64(sum)/float64(len(records)), 1)
	return stats, true
}

// roundTo rounds half to even on the scaled value, so 2.25 becomes 2.2.
func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.RoundToEven(v*scale) / scale
}
