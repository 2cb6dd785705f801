package insight

import (
	"context"
	"fmt"
	"time"

	"github.com/johncui/moodlens/pkg/model"
)

// Loader selects one user's records inside a trailing lookback window.
type Loader struct {
	src model.RecordSource
	now func() time.Time
}

// NewLoader wraps src. now defaults to time.Now.
func NewLoader(src model.RecordSource, now func() time.Time) *Loader {
	if now == nil {
		now = time.Now
	}
	return &Loader{src: src, now: now}
}

// Load returns every record with timestamp >= now - lookbackDays days together with
// the window it covers. No records is a valid result, not an error.
func (l *Loader) Load(ctx context.Context, userID string, lookbackDays int) ([]model.MoodRecord, Window, error) {
	if lookbackDays <= 0 {
		return nil, Window{}, fmt.Errorf("%w: %d", ErrInvalidLookback, lookbackDays)
	}
	end := l.now()
	start := end.Add(-time.Duration(lookbackDays) * 24 * time.Hour)
	window := Window{Start: start, End: end}

	records, err := l.src.RecordsSince(ctx, userID, start)
	if err != nil {
		return nil, window, fmt.Errorf("load records: %w", err)
	}

	out := records[:0:0]
	for _, r := range records {
		if !r.Timestamp.Before(start) && !r.Timestamp.After(end) {
			out = append(out, r)
		}
	}
	return out, window, nil
}
