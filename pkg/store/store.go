package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/johncui/moodlens/pkg/engine/insight"
	"github.com/johncui/moodlens/pkg/memory"
	"github.com/johncui/moodlens/pkg/model"
	"github.com/johncui/moodlens/pkg/store/sqlite"
)

// ErrNotFound is returned for missing entries and insights.
var ErrNotFound = sqlite.ErrNotFound

// ErrMissingUser rejects operations without a user id.
var ErrMissingUser = errors.New("user id is required")

// Options configures Service.
type Options struct {
	DBPath       string
	Location     *time.Location
	LookbackDays int
	DirtySize    int
	DirtyTTL     time.Duration
	Logger       *slog.Logger
	Now          func() time.Time
}

// Service stores mood entries, runs the insight engine over them and keeps the
// resulting insights. It implements model.InsightService.
type Service struct {
	db       *sqlite.Database
	engine   *insight.Engine
	loader   *insight.Loader
	dirty    *memory.DirtyBuffer
	lookback int
	logger   *slog.Logger
	now      func() time.Time
}

// NewService opens storage and wires the engine.
func NewService(ctx context.Context, opt Options) (*Service, error) {
	if opt.Logger == nil {
		opt.Logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}
	if opt.LookbackDays == 0 {
		opt.LookbackDays = 30
	}
	if opt.DirtySize == 0 {
		opt.DirtySize = 256
	}
	if opt.DirtyTTL == 0 {
		opt.DirtyTTL = 24 * time.Hour
	}
	db, err := sqlite.New(ctx, sqlite.Config{Path: opt.DBPath, Logger: opt.Logger})
	if err != nil {
		return nil, err
	}

	return &Service{
		db: db,
		engine: insight.New(insight.Options{
			Location: opt.Location,
			Logger:   opt.Logger,
			Now:      opt.Now,
		}),
		loader:   insight.NewLoader(db, opt.Now),
		dirty:    memory.NewDirtyBuffer(opt.DirtySize, opt.DirtyTTL, opt.Now),
		lookback: opt.LookbackDays,
		logger:   opt.Logger,
		now:      opt.Now,
	}, nil
}

// Record stores a new entry and marks its user for refresh. A zero timestamp
// means "now".
func (s *Service) Record(ctx context.Context, e model.MoodEntry) (model.MoodEntry, error) {
	if e.UserID == "" {
		return model.MoodEntry{}, ErrMissingUser
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = s.now()
	}
	saved, err := s.db.InsertEntry(ctx, e)
	if err != nil {
		return model.MoodEntry{}, err
	}
	s.dirty.Add(e.UserID)
	return saved, nil
}

// Entry returns one of the user's entries.
func (s *Service) Entry(ctx context.Context, userID, id string) (model.MoodEntry, error) {
	return s.db.GetEntry(ctx, userID, id)
}

// Entries lists the user's entries, newest first.
func (s *Service) Entries(ctx context.Context, userID string, f model.EntryFilter) ([]model.MoodEntry, error) {
	return s.db.ListEntries(ctx, userID, f)
}

// UpdateEntry rewrites an existing entry and marks its user for refresh.
func (s *Service) UpdateEntry(ctx context.Context, e model.MoodEntry) (model.MoodEntry, error) {
	if e.UserID == "" {
		return model.MoodEntry{}, ErrMissingUser
	}
	if e.Timestamp.IsZero() {
		current, err := s.db.GetEntry(ctx, e.UserID, e.ID)
		if err != nil {
			return model.MoodEntry{}, err
		}
		e.Timestamp = current.Timestamp
	}
	updated, err := s.db.UpdateEntry(ctx, e)
	if err != nil {
		return model.MoodEntry{}, err
	}
	s.dirty.Add(e.UserID)
	return updated, nil
}

// DeleteEntry removes an entry and marks its user for refresh.
func (s *Service) DeleteEntry(ctx context.Context, userID, id string) error {
	if err := s.db.DeleteEntry(ctx, userID, id); err != nil {
		return err
	}
	s.dirty.Add(userID)
	return nil
}

// Generate computes and persists a fresh insight for userID over the configured
// lookback window. insight.ErrNoData is returned unchanged when the window is empty;
// nothing is stored unless the whole insight was produced.
func (s *Service) Generate(ctx context.Context, userID string) (*model.Insight, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}
	ins, err := s.engine.Generate(ctx, s.loader, userID, s.lookback)
	if err != nil {
		return nil, err
	}
	if err := s.db.SaveInsight(ctx, ins); err != nil {
		return nil, fmt.Errorf("save insight: %w", err)
	}
	s.logger.Info("insight generated",
		"user", userID, "insight", ins.ID,
		"dominant_mood", ins.Snapshot.DominantMood,
		"suggestions", len(ins.Suggestions))
	return ins, nil
}

// Insights lists the user's stored insights, latest period first.
func (s *Service) Insights(ctx context.Context, userID string) ([]model.Insight, error) {
	return s.db.ListInsights(ctx, userID, 0)
}

// Insight returns one stored insight.
func (s *Service) Insight(ctx context.Context, userID, id string) (*model.Insight, error) {
	return s.db.GetInsight(ctx, userID, id)
}

// Refresh regenerates insights for every user marked since the last refresh.
// Users without data are skipped; other failures are logged and returned joined,
// without stopping the remaining users.
func (s *Service) Refresh(ctx context.Context) error {
	started := s.now()
	users := s.dirty.Snapshot()
	if len(users) == 0 {
		return nil
	}

	var errs []error
	for _, userID := range users {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, err := s.Generate(ctx, userID)
		switch {
		case err == nil:
		case errors.Is(err, insight.ErrNoData):
			s.logger.Debug("refresh skipped, no data", "user", userID)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return err
		default:
			s.logger.Error("refresh failed", "user", userID, "err", err)
			errs = append(errs, fmt.Errorf("user %s: %w", userID, err))
		}
		s.dirty.Remove(userID, started)
	}
	return errors.Join(errs...)
}

// MarkActive queues every user with entries inside the lookback window for the
// next Refresh.
func (s *Service) MarkActive(ctx context.Context) (int, error) {
	since := s.now().Add(-time.Duration(s.lookback) * 24 * time.Hour)
	users, err := s.db.ActiveUsers(ctx, since)
	if err != nil {
		return 0, err
	}
	for _, u := range users {
		s.dirty.Add(u)
	}
	return len(users), nil
}

// Pending reports how many users await a refresh.
func (s *Service) Pending() int {
	return s.dirty.Len()
}

// Close releases resources.
func (s *Service) Close() error {
	return s.db.Close()
}

var _ model.InsightService = (*Service)(nil)
