package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/johncui/moodlens/pkg/model"
)

// likeEscaper makes LIKE treat wildcard characters in a search term literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

const entryColumns = `id, user_id, mood, intensity, activities, notes, tags, is_auto_detected, timestamp, created_at`

// InsertEntry writes a new mood_entries row and returns it with id and created_at set.
func (d *Database) InsertEntry(ctx context.Context, e model.MoodEntry) (model.MoodEntry, error) {
	if e.UserID == "" {
		return model.MoodEntry{}, fmt.Errorf("user id is required")
	}
	if err := e.Record().Validate(); err != nil {
		return model.MoodEntry{}, err
	}
	e.ID = uuid.NewString()
	e.CreatedAt = time.Now().UTC()
	e.Timestamp = e.Timestamp.UTC()
	e.Activities = nonNil(e.Activities)
	e.Tags = nonNil(e.Tags)
	acts, _ := json.Marshal(e.Activities)
	tags, _ := json.Marshal(e.Tags)

	_, err := d.db.ExecContext(ctx, `
        INSERT INTO mood_entries(`+entryColumns+`)
        VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
    `, e.ID, e.UserID, string(e.Mood), e.Intensity, string(acts), e.Notes, string(tags),
		e.IsAutoDetected, formatTime(e.Timestamp), formatTime(e.CreatedAt))
	if err != nil {
		return model.MoodEntry{}, err
	}
	return e, nil
}

// UpdateEntry replaces the mutable fields of an existing entry owned by e.UserID.
func (d *Database) UpdateEntry(ctx context.Context, e model.MoodEntry) (model.MoodEntry, error) {
	if err := e.Record().Validate(); err != nil {
		return model.MoodEntry{}, err
	}
	acts, _ := json.Marshal(nonNil(e.Activities))
	tags, _ := json.Marshal(nonNil(e.Tags))

	res, err := d.db.ExecContext(ctx, `
        UPDATE mood_entries
        SET mood = ?, intensity = ?, activities = ?, notes = ?, tags = ?, is_auto_detected = ?, timestamp = ?
        WHERE id = ? AND user_id = ?;
    `, string(e.Mood), e.Intensity, string(acts), e.Notes, string(tags), e.IsAutoDetected,
		formatTime(e.Timestamp), e.ID, e.UserID)
	if err != nil {
		return model.MoodEntry{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.MoodEntry{}, ErrNotFound
	}
	return d.GetEntry(ctx, e.UserID, e.ID)
}

// GetEntry fetches one entry owned by userID.
func (d *Database) GetEntry(ctx context.Context, userID, id string) (model.MoodEntry, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM mood_entries WHERE id = ? AND user_id = ?;`, id, userID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.MoodEntry{}, ErrNotFound
	}
	return e, err
}

// DeleteEntry removes one entry owned by userID.
func (d *Database) DeleteEntry(ctx context.Context, userID, id string) error {
	res, err := d.db.ExecContext(ctx, `DELETE FROM mood_entries WHERE id = ? AND user_id = ?;`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListEntries returns the user's entries newest first, narrowed by f.
func (d *Database) ListEntries(ctx context.Context, userID string, f model.EntryFilter) ([]model.MoodEntry, error) {
	where := []string{"user_id = ?"}
	args := []any{userID}
	if f.Mood != "" {
		where = append(where, "mood = ?")
		args = append(args, string(f.Mood))
	}
	if f.AutoDetected != nil {
		where = append(where, "is_auto_detected = ?")
		args = append(args, *f.AutoDetected)
	}
	if !f.Since.IsZero() {
		where = append(where, "timestamp >= ?")
		args = append(args, formatTime(f.Since))
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + likeEscaper.Replace(term) + "%"
		where = append(where, `(notes LIKE ? ESCAPE '\' OR tags LIKE ? ESCAPE '\' OR activities LIKE ? ESCAPE '\')`)
		args = append(args, like, like, like)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)

	rows, err := d.db.QueryContext(ctx, `
        SELECT `+entryColumns+`
        FROM mood_entries
        WHERE `+strings.Join(where, " AND ")+`
        ORDER BY timestamp DESC
        LIMIT ?;
    `, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.MoodEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// RecordsSince returns the user's records with timestamp >= since, oldest first.
func (d *Database) RecordsSince(ctx context.Context, userID string, since time.Time) ([]model.MoodRecord, error) {
	rows, err := d.db.QueryContext(ctx, `
        SELECT `+entryColumns+`
        FROM mood_entries
        WHERE user_id = ? AND timestamp >= ?
        ORDER BY timestamp ASC;
    `, userID, formatTime(since))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.MoodRecord
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e.Record())
	}
	return out, rows.Err()
}

// ActiveUsers lists users with at least one entry at or after since.
func (d *Database) ActiveUsers(ctx context.Context, since time.Time) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `
        SELECT DISTINCT user_id FROM mood_entries WHERE timestamp >= ? ORDER BY user_id;
    `, formatTime(since))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (model.MoodEntry, error) {
	var e model.MoodEntry
	var mood, ts, created string
	var acts, tags sql.NullString
	if err := s.Scan(&e.ID, &e.UserID, &mood, &e.Intensity, &acts, &e.Notes, &tags, &e.IsAutoDetected, &ts, &created); err != nil {
		return e, err
	}
	e.Mood = model.Mood(mood)
	var err error
	if e.Timestamp, err = parseTime(ts); err != nil {
		return e, fmt.Errorf("entry %s timestamp: %w", e.ID, err)
	}
	if e.CreatedAt, err = parseTime(created); err != nil {
		return e, fmt.Errorf("entry %s created_at: %w", e.ID, err)
	}
	if acts.Valid && acts.String != "" {
		if err := json.Unmarshal([]byte(acts.String), &e.Activities); err != nil {
			return e, fmt.Errorf("entry %s activities: %w", e.ID, err)
		}
	}
	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &e.Tags); err != nil {
			return e, fmt.Errorf("entry %s tags: %w", e.ID, err)
		}
	}
	e.Activities = nonNil(e.Activities)
	e.Tags = nonNil(e.Tags)
	return e, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
