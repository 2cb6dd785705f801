package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/johncui/moodlens/pkg/engine/insight"
	"github.com/johncui/moodlens/pkg/model"
	"github.com/johncui/moodlens/pkg/store"
)

const userHeader = "X-User-ID"

type ctxKey struct{}

type server struct {
	svc    model.InsightService
	loc    *time.Location
	logger *slog.Logger
	now    func() time.Time
}

func newRouter(svc model.InsightService, loc *time.Location, logger *slog.Logger) http.Handler {
	s := &server{svc: svc, loc: loc, logger: logger, now: time.Now}
	return s.routes()
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(requireUser)

		r.Route("/entries", func(r chi.Router) {
			r.Post("/", s.createEntry)
			r.Get("/", s.listEntries)
			r.Get("/{id}", s.getEntry)
			r.Put("/{id}", s.updateEntry)
			r.Delete("/{id}", s.deleteEntry)
		})

		r.Route("/insights", func(r chi.Router) {
			r.Post("/generate", s.generateInsight)
			r.Get("/", s.listInsights)
			r.Get("/{id}", s.getInsight)
		})
	})
	return r
}

// requireUser takes the caller identity from X-User-ID. Authentication happens upstream.
func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		user := req.Header.Get(userHeader)
		if user == "" {
			writeError(w, http.StatusUnauthorized, "missing_user", "X-User-ID header is required")
			return
		}
		next.ServeHTTP(w, req.WithContext(context.WithValue(req.Context(), ctxKey{}, user)))
	})
}

func userFrom(req *http.Request) string {
	user, _ := req.Context().Value(ctxKey{}).(string)
	return user
}

// ------------ entries ------------

type entryRequest struct {
	Mood           model.Mood `json:"mood"`
	Intensity      int        `json:"intensity"`
	Activities     []string   `json:"activities"`
	Notes          string     `json:"notes"`
	Tags           []string   `json:"tags"`
	IsAutoDetected bool       `json:"is_auto_detected"`
	Timestamp      *time.Time `json:"timestamp"`
}

func (r entryRequest) entry(userID string) model.MoodEntry {
	e := model.MoodEntry{
		UserID:         userID,
		Mood:           r.Mood,
		Intensity:      r.Intensity,
		Activities:     r.Activities,
		Notes:          r.Notes,
		Tags:           r.Tags,
		IsAutoDetected: r.IsAutoDetected,
	}
	if r.Timestamp != nil {
		e.Timestamp = *r.Timestamp
	}
	return e
}

func (s *server) createEntry(w http.ResponseWriter, req *http.Request) {
	var in entryRequest
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	saved, err := s.svc.Record(req.Context(), in.entry(userFrom(req)))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, saved)
}

func (s *server) listEntries(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	filter := model.EntryFilter{
		Mood:   model.Mood(q.Get("mood")),
		Search: q.Get("search"),
	}
	if v := q.Get("auto"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "auto must be a boolean")
			return
		}
		filter.AutoDetected = &b
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("date_filter"); v != "" {
		since, ok := s.dateFilterStart(v)
		if !ok {
			writeError(w, http.StatusBadRequest, "bad_request", "date_filter must be today, week or month")
			return
		}
		filter.Since = since
	}

	entries, err := s.svc.Entries(req.Context(), userFrom(req), filter)
	if err != nil {
		s.fail(w, err)
		return
	}
	if entries == nil {
		entries = []model.MoodEntry{}
	}
	writeJSON(w, entries)
}

// dateFilterStart maps the list shortcuts to the start of a calendar day in s.loc.
func (s *server) dateFilterStart(name string) (time.Time, bool) {
	y, m, d := s.now().In(s.loc).Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, s.loc)
	switch name {
	case "today":
		return today, true
	case "week":
		return today.AddDate(0, 0, -7), true
	case "month":
		return today.AddDate(0, 0, -30), true
	}
	return time.Time{}, false
}

func (s *server) getEntry(w http.ResponseWriter, req *http.Request) {
	e, err := s.svc.Entry(req.Context(), userFrom(req), chi.URLParam(req, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, e)
}

func (s *server) updateEntry(w http.ResponseWriter, req *http.Request) {
	var in entryRequest
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	e := in.entry(userFrom(req))
	e.ID = chi.URLParam(req, "id")
	updated, err := s.svc.UpdateEntry(req.Context(), e)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, updated)
}

func (s *server) deleteEntry(w http.ResponseWriter, req *http.Request) {
	if err := s.svc.DeleteEntry(req.Context(), userFrom(req), chi.URLParam(req, "id")); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ------------ insights ------------

type insightResponse struct {
	ID                   string                       `json:"id"`
	PeriodStart          string                       `json:"period_start"`
	PeriodEnd            string                       `json:"period_end"`
	DominantMood         model.Mood                   `json:"dominant_mood"`
	MoodDistribution     model.OrderedMap[int]        `json:"mood_distribution"`
	MoodTimeseries       model.OrderedMap[model.Mood] `json:"mood_timeseries"`
	TopActivities        model.OrderedMap[int]        `json:"top_activities"`
	ActivityCorrelations model.OrderedMap[float64]    `json:"activity_correlations"`
	ActivityImpact       model.OrderedMap[float64]    `json:"activity_impact"`
	IntensityStats       model.IntensityStats         `json:"intensity_stats"`
	Suggestions          []model.Suggestion           `json:"suggestions"`
	GeneratedAt          time.Time                    `json:"generated_at"`
}

func toResponse(ins *model.Insight) insightResponse {
	snap := ins.Snapshot
	impact := make(model.OrderedMap[float64], len(snap.ActivityCorrelations))
	for i, p := range snap.ActivityCorrelations {
		impact[i] = model.Pair[float64]{Key: p.Key, Value: math.Abs(p.Value)}
	}
	suggestions := ins.Suggestions
	if suggestions == nil {
		suggestions = []model.Suggestion{}
	}
	return insightResponse{
		ID:                   ins.ID,
		PeriodStart:          snap.PeriodStart,
		PeriodEnd:            snap.PeriodEnd,
		DominantMood:         snap.DominantMood,
		MoodDistribution:     snap.MoodDistribution,
		MoodTimeseries:       snap.MoodTimeseries,
		TopActivities:        snap.TopActivities,
		ActivityCorrelations: snap.ActivityCorrelations,
		ActivityImpact:       impact,
		IntensityStats:       snap.IntensityStats,
		Suggestions:          suggestions,
		GeneratedAt:          ins.GeneratedAt,
	}
}

func (s *server) generateInsight(w http.ResponseWriter, req *http.Request) {
	ins, err := s.svc.Generate(req.Context(), userFrom(req))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, toResponse(ins))
}

func (s *server) listInsights(w http.ResponseWriter, req *http.Request) {
	list, err := s.svc.Insights(req.Context(), userFrom(req))
	if err != nil {
		s.fail(w, err)
		return
	}
	out := make([]insightResponse, len(list))
	for i := range list {
		out[i] = toResponse(&list[i])
	}
	writeJSON(w, out)
}

func (s *server) getInsight(w http.ResponseWriter, req *http.Request) {
	ins, err := s.svc.Insight(req.Context(), userFrom(req), chi.URLParam(req, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, toResponse(ins))
}

// ------------ helpers ------------

type errorResponse struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

// fail maps service errors onto HTTP outcomes. No data is its own status so
// clients can show an "awaiting data" state instead of an error.
func (s *server) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, insight.ErrNoData):
		writeError(w, http.StatusUnprocessableEntity, "no_data", "not enough data to generate insights")
	case errors.Is(err, model.ErrInvalidRecord):
		writeError(w, http.StatusBadRequest, "invalid_record", err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, insight.ErrGenerationFailed):
		s.logger.Error("insight generation failed", "err", err)
		writeError(w, http.StatusInternalServerError, "generation_failed", "insight generation failed")
	default:
		s.logger.Error("request failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	writeJSONStatus(w, status, errorResponse{Code: code, Detail: detail})
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("encode response", "err", err)
	}
}
