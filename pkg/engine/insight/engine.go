// Package insight turns a window of mood records into an insight snapshot:
// aggregate statistics, a daily timeline, activity correlations and suggestions.
// Everything here is synchronous and free of shared state.
package insight

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/johncui/moodlens/pkg/model"
)

// Window is the lookback period an insight covers.
type Window struct {
	Start time.Time
	End   time.Time
}

// Options configures Engine.
type Options struct {
	Location *time.Location
	Logger   *slog.Logger
	Now      func() time.Time
}

// Engine assembles insights. It holds configuration only, so one Engine may be
// shared by concurrent callers.
type Engine struct {
	loc    *time.Location
	logger *slog.Logger
	now    func() time.Time
}

// New builds an Engine, defaulting to UTC and a stdout text logger.
func New(opt Options) *Engine {
	if opt.Location == nil {
		opt.Location = time.UTC
	}
	if opt.Logger == nil {
		opt.Logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}
	return &Engine{loc: opt.Location, logger: opt.Logger, now: opt.Now}
}

// Assemble computes one insight from records. An empty input yields ErrNoData.
// Any other failure is a *GenerationError and no insight is returned.
func (e *Engine) Assemble(records []model.MoodRecord, window Window) (ins *model.Insight, err error) {
	if len(records) == 0 {
		return nil, ErrNoData
	}

	stage := "validate"
	defer func() {
		if r := recover(); r != nil {
			ins, err = nil, &GenerationError{Stage: stage, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	for i, r := range records {
		if verr := r.Validate(); verr != nil {
			return nil, &GenerationError{Stage: stage, Err: fmt.Errorf("record %d: %w", i, verr)}
		}
	}
	sorted := sortRecords(records)

	stage = "aggregate"
	snap := model.InsightSnapshot{
		PeriodStart:      window.Start.In(e.loc).Format(DateLayout),
		PeriodEnd:        window.End.In(e.loc).Format(DateLayout),
		MoodDistribution: MoodDistribution(sorted),
		MoodTimeseries:   MoodTimeseries(sorted, e.loc),
		TopActivities:    TopActivities(sorted),
	}
	snap.DominantMood = DominantMood(snap.MoodDistribution)
	stats, ok := IntensitySummary(sorted)
	if !ok {
		return nil, &GenerationError{Stage: stage, Err: fmt.Errorf("no intensities in %d records", len(sorted))}
	}
	snap.IntensityStats = stats

	stage = "correlate"
	corr, cerr := Correlate(sorted)
	if cerr != nil {
		e.logger.Debug("correlations skipped", "records", len(sorted), "reason", cerr)
	}
	for _, d := range corr.Dropped {
		e.logger.Debug("correlation dropped", "activity", d.Activity, "reason", d.Reason)
	}
	snap.ActivityCorrelations = corr.Coefficients

	stage = "suggest"
	suggestions := Suggest(snap)

	return &model.Insight{
		Snapshot:    snap,
		Suggestions: suggestions,
		GeneratedAt: e.now(),
	}, nil
}

// Generate loads the user's window through loader and assembles an insight.
// The run is abort-or-complete: a cancelled ctx yields its error and no insight.
func (e *Engine) Generate(ctx context.Context, loader *Loader, userID string, lookbackDays int) (*model.Insight, error) {
	records, window, err := loader.Load(ctx, userID, lookbackDays)
	if err != nil {
		return nil, err
	}
	ins, err := e.Assemble(records, window)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ins.UserID = userID
	return ins, nil
}
