package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/johncui/moodlens/pkg/model"
)

// SaveInsight stores a snapshot and its suggestions in one transaction, assigning ids.
// On error nothing is written.
func (d *Database) SaveInsight(ctx context.Context, ins *model.Insight) error {
	if ins == nil || ins.UserID == "" {
		return errors.New("insight with user id is required")
	}
	snap := ins.Snapshot
	cols := make([]string, 0, 5)
	for _, v := range []any{snap.MoodDistribution, snap.MoodTimeseries, snap.TopActivities, snap.ActivityCorrelations, snap.IntensityStats} {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode insight: %w", err)
		}
		cols = append(cols, string(b))
	}
	if ins.GeneratedAt.IsZero() {
		ins.GeneratedAt = time.Now()
	}
	id := uuid.NewString()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
        INSERT INTO insights(id, user_id, period_start, period_end, dominant_mood,
            mood_distribution, mood_timeseries, top_activities, activity_correlations,
            intensity_stats, generated_at)
        VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
    `, id, ins.UserID, snap.PeriodStart, snap.PeriodEnd, string(snap.DominantMood),
		cols[0], cols[1], cols[2], cols[3], cols[4], formatTime(ins.GeneratedAt)); err != nil {
		return err
	}

	suggestions := make([]model.Suggestion, len(ins.Suggestions))
	for i, s := range ins.Suggestions {
		s.ID = uuid.NewString()
		if _, err := tx.ExecContext(ctx, `
            INSERT INTO suggestions(id, insight_id, position, content, suggestion_type, confidence_score, generated_at)
            VALUES(?, ?, ?, ?, ?, ?, ?);
        `, s.ID, id, i, s.Content, string(s.Kind), s.ConfidenceScore, formatTime(ins.GeneratedAt)); err != nil {
			return err
		}
		suggestions[i] = s
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	ins.ID = id
	ins.Suggestions = suggestions
	return nil
}

const insightColumns = `id, user_id, period_start, period_end, dominant_mood, mood_distribution,
    mood_timeseries, top_activities, activity_correlations, intensity_stats, generated_at`

// GetInsight fetches one insight owned by userID, with its suggestions.
func (d *Database) GetInsight(ctx context.Context, userID, id string) (*model.Insight, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+insightColumns+` FROM insights WHERE id = ? AND user_id = ?;`, id, userID)
	ins, err := scanInsight(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if ins.Suggestions, err = d.suggestionsFor(ctx, ins.ID); err != nil {
		return nil, err
	}
	return ins, nil
}

// ListInsights returns the user's insights, latest period first.
func (d *Database) ListInsights(ctx context.Context, userID string, limit int) ([]model.Insight, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.db.QueryContext(ctx, `
        SELECT `+insightColumns+`
        FROM insights
        WHERE user_id = ?
        ORDER BY period_end DESC, generated_at DESC
        LIMIT ?;
    `, userID, limit)
	if err != nil {
		return nil, err
	}
	var out []model.Insight
	for rows.Next() {
		ins, err := scanInsight(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, *ins)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// The connection pool holds a single connection, so suggestions are read
	// only after the insight cursor is closed.
	for i := range out {
		if out[i].Suggestions, err = d.suggestionsFor(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (d *Database) suggestionsFor(ctx context.Context, insightID string) ([]model.Suggestion, error) {
	rows, err := d.db.QueryContext(ctx, `
        SELECT id, content, suggestion_type, confidence_score
        FROM suggestions
        WHERE insight_id = ?
        ORDER BY position ASC;
    `, insightID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Suggestion{}
	for rows.Next() {
		var s model.Suggestion
		var kind string
		var score sql.NullFloat64
		if err := rows.Scan(&s.ID, &s.Content, &kind, &score); err != nil {
			return nil, err
		}
		s.Kind = model.ParseSuggestionKind(kind)
		if score.Valid {
			v := score.Float64
			s.ConfidenceScore = &v
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanInsight(s scanner) (*model.Insight, error) {
	var ins model.Insight
	var dominant, generated string
	var dist, series, top, corr, stats sql.NullString
	if err := s.Scan(&ins.ID, &ins.UserID, &ins.Snapshot.PeriodStart, &ins.Snapshot.PeriodEnd, &dominant,
		&dist, &series, &top, &corr, &stats, &generated); err != nil {
		return nil, err
	}
	ins.Snapshot.DominantMood = model.Mood(dominant)
	var err error
	if ins.GeneratedAt, err = parseTime(generated); err != nil {
		return nil, fmt.Errorf("insight %s generated_at: %w", ins.ID, err)
	}
	fields := []struct {
		raw sql.NullString
		dst any
	}{
		{dist, &ins.Snapshot.MoodDistribution},
		{series, &ins.Snapshot.MoodTimeseries},
		{top, &ins.Snapshot.TopActivities},
		{corr, &ins.Snapshot.ActivityCorrelations},
		{stats, &ins.Snapshot.IntensityStats},
	}
	for _, f := range fields {
		if !f.raw.Valid || f.raw.String == "" {
			continue
		}
		if err := json.Unmarshal([]byte(f.raw.String), f.dst); err != nil {
			return nil, fmt.Errorf("insight %s: decode: %w", ins.ID, err)
		}
	}
	return &ins, nil
}
