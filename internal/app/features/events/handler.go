// Package events provides the event management API.
//
// Endpoints (mounted at /api/events):
//   - GET    /                          - list events (category/date filters)
//   - POST   /                          - create event, notify interested volunteers
//   - GET    /stats                     - per-event stat rows for all events
//   - GET    /overview                  - totals across the platform
//   - GET    /{id}                      - fetch one event
//   - DELETE /{id}                      - delete event (no cascade)
//   - POST   /{id}/register             - register a volunteer
//   - POST   /{id}/feedback             - rate (1-5) with optional review
//   - POST   /{id}/reviews              - append a review
//   - GET    /{id}/stats                - one event's stats
//   - GET    /{id}/progress             - task completion ratio
//   - GET    /{id}/report               - full report
//   - GET    /{id}/registered-volunteers
//   - GET    /{id}/potential-volunteers
//   - GET    /{id}/tasks                - distinct assigned task names
package events

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	eventstore "github.com/openvolunteer/volunteerhub/internal/app/store/events"
	participantstore "github.com/openvolunteer/volunteerhub/internal/app/store/participants"
	userstore "github.com/openvolunteer/volunteerhub/internal/app/store/users"
	"github.com/openvolunteer/volunteerhub/internal/app/system/jsonutil"
	"github.com/openvolunteer/volunteerhub/internal/app/system/notify"
	"github.com/openvolunteer/volunteerhub/internal/app/system/timeouts"
	"github.com/openvolunteer/volunteerhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler handles event API requests.
type Handler struct {
	events       *eventstore.Store
	users        *userstore.Store
	participants *participantstore.Store
	notify       *notify.Enqueuer
	log          *zap.Logger
}

// NewHandler creates a new events handler.
func NewHandler(
	events *eventstore.Store,
	users *userstore.Store,
	participants *participantstore.Store,
	enq *notify.Enqueuer,
	log *zap.Logger,
) *Handler {
	return &Handler{
		events:       events,
		users:        users,
		participants: participants,
		notify:       enq,
		log:          log,
	}
}

// eventID extracts and parses the {id} URL parameter.
func eventID(r *http.Request) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
}

// ListHandler handles GET /api/events.
func (h *Handler) ListHandler(w http.ResponseWriter, r *http.Request) {
	var filter eventstore.ListFilter
	filter.Category = r.URL.Query().Get("category")
	if v := r.URL.Query().Get("after"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			jsonutil.BadRequest(w, "after must be RFC 3339")
			return
		}
		filter.After = t
	}
	if v := r.URL.Query().Get("before"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			jsonutil.BadRequest(w, "before must be RFC 3339")
			return
		}
		filter.Before = t
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	events, err := h.events.List(ctx, filter)
	if err != nil {
		h.log.Error("failed to list events", zap.Error(err))
		jsonutil.InternalError(w, "failed to list events")
		return
	}
	if events == nil {
		events = []models.Event{}
	}
	jsonutil.OK(w, events)
}

// GetHandler handles GET /api/events/{id}.
func (h *Handler) GetHandler(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		jsonutil.BadRequest(w, "invalid event id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short)
	defer cancel()

	ev, err := h.events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, eventstore.ErrNotFound) {
			jsonutil.NotFound(w, "event not found")
			return
		}
		h.log.Error("failed to fetch event", zap.String("event_id", id.Hex()), zap.Error(err))
		jsonutil.InternalError(w, "failed to fetch event")
		return
	}
	jsonutil.OK(w, ev)
}

// CreateHandler handles POST /api/events. After the event commits, one
// new_event notification is queued per volunteer whose interests include
// the category; a queue failure never fails the create.
func (h *Handler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var in createEventRequest
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	if in.Name == "" || in.Category == "" || in.Description == "" || in.Location == "" {
		jsonutil.BadRequest(w, "name, category, description and location are required")
		return
	}

	parse := func(field, v string, dst *time.Time) bool {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			jsonutil.BadRequest(w, field+" must be RFC 3339")
			return false
		}
		*dst = t
		return true
	}

	ev := models.Event{
		Name:        in.Name,
		Category:    in.Category,
		Description: in.Description,
		Location:    in.Location,
		Photos:      in.Photos,
		Schedule:    in.Schedule,
	}
	if !parse("date", in.Date, &ev.Date) ||
		!parse("registration_start", in.RegistrationStart, &ev.RegistrationStart) ||
		!parse("registration_end", in.RegistrationEnd, &ev.RegistrationEnd) ||
		!parse("event_start", in.EventStart, &ev.EventStart) ||
		!parse("event_end", in.EventEnd, &ev.EventEnd) {
		return
	}
	if in.GeoLocation != nil {
		ev.GeoLocation = *in.GeoLocation
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	created, err := h.events.Create(ctx, ev)
	if err != nil {
		switch {
		case errors.Is(err, eventstore.ErrBadWindow):
			jsonutil.BadRequest(w, err.Error())
		case errors.Is(err, eventstore.ErrDuplicateName):
			jsonutil.Conflict(w, err.Error())
		default:
			h.log.Error("failed to create event", zap.String("name", in.Name), zap.Error(err))
			jsonutil.InternalError(w, "failed to create event")
		}
		return
	}

	// Fan out to interested volunteers through the outbox.
	interested, err := h.users.FindByInterest(ctx, created.Category)
	if err != nil {
		h.log.Error("failed to find interested volunteers",
			zap.String("category", created.Category), zap.Error(err))
	} else {
		for i := range interested {
			_ = h.notify.NewEvent(ctx, &interested[i], &created)
		}
	}

	jsonutil.Created(w, created)
}

// DeleteHandler handles DELETE /api/events/{id}. Volunteer subscriptions
// referencing the event are intentionally left in place.
func (h *Handler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		jsonutil.BadRequest(w, "invalid event id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short)
	defer cancel()

	if err := h.events.Delete(ctx, id); err != nil {
		if errors.Is(err, eventstore.ErrNotFound) {
			jsonutil.NotFound(w, "event not found")
			return
		}
		h.log.Error("failed to delete event", zap.String("event_id", id.Hex()), zap.Error(err))
		jsonutil.InternalError(w, "failed to delete event")
		return
	}
	jsonutil.NoContent(w)
}

// RegisterHandler handles POST /api/events/{id}/register. The subscription
// commits first; the confirmation email is queued afterwards and its failure
// does not undo the registration.
func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		jsonutil.BadRequest(w, "invalid event id")
		return
	}
	var in registerRequest
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	volunteerID, err := primitive.ObjectIDFromHex(in.VolunteerID)
	if err != nil {
		jsonutil.BadRequest(w, "invalid volunteer_id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	ev, err := h.events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, eventstore.ErrNotFound) {
			jsonutil.NotFound(w, "event not found")
			return
		}
		h.log.Error("failed to fetch event", zap.String("event_id", id.Hex()), zap.Error(err))
		jsonutil.InternalError(w, "failed to fetch event")
		return
	}

	if err := h.users.Subscribe(ctx, volunteerID, id); err != nil {
		switch {
		case errors.Is(err, userstore.ErrNotFound):
			jsonutil.NotFound(w, "volunteer not found")
		case errors.Is(err, userstore.ErrAlreadySubscribed):
			jsonutil.Conflict(w, err.Error())
		default:
			h.log.Error("failed to register volunteer",
				zap.String("event_id", id.Hex()),
				zap.String("volunteer_id", volunteerID.Hex()),
				zap.Error(err))
			jsonutil.InternalError(w, "failed to register volunteer")
		}
		return
	}

	u, err := h.users.GetByID(ctx, volunteerID)
	if err == nil {
		_ = h.notify.RegistrationSuccess(ctx, u, ev)
	}

	jsonutil.OK(w, map[string]string{
		"event_id":     id.Hex(),
		"volunteer_id": volunteerID.Hex(),
		"status":       "registered",
	})
}

// FeedbackHandler handles POST /api/events/{id}/feedback.
func (h *Handler) FeedbackHandler(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		jsonutil.BadRequest(w, "invalid event id")
		return
	}
	var in feedbackRequest
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short)
	defer cancel()

	if err := h.events.AddFeedback(ctx, id, in.Rating, in.Review); err != nil {
		switch {
		case errors.Is(err, eventstore.ErrBadRating):
			jsonutil.BadRequest(w, err.Error())
		case errors.Is(err, eventstore.ErrNotFound):
			jsonutil.NotFound(w, "event not found")
		default:
			h.log.Error("failed to record feedback", zap.String("event_id", id.Hex()), zap.Error(err))
			jsonutil.InternalError(w, "failed to record feedback")
		}
		return
	}
	jsonutil.OK(w, map[string]string{"status": "recorded"})
}

// ReviewHandler handles POST /api/events/{id}/reviews.
func (h *Handler) ReviewHandler(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		jsonutil.BadRequest(w, "invalid event id")
		return
	}
	var in reviewRequest
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short)
	defer cancel()

	if err := h.events.AddReview(ctx, id, in.Review); err != nil {
		if errors.Is(err, eventstore.ErrNotFound) {
			jsonutil.NotFound(w, "event not found")
			return
		}
		jsonutil.BadRequest(w, err.Error())
		return
	}
	jsonutil.OK(w, map[string]string{"status": "recorded"})
}

// statsFor builds the stat row for one event.
func (h *Handler) statsFor(ctx context.Context, ev *models.Event) (statsResponse, error) {
	volunteers, err := h.users.CountSubscribedToEvent(ctx, ev.ID)
	if err != nil {
		return statsResponse{}, err
	}
	participants, err := h.participants.CountForEvent(ctx, ev.ID)
	if err != nil {
		return statsResponse{}, err
	}
	return statsResponse{
		EventID:          ev.ID.Hex(),
		Name:             ev.Name,
		VolunteerCount:   volunteers,
		ParticipantCount: participants,
		AverageRating:    ev.AverageRating(),
		RatingCount:      ev.RatingCount(),
	}, nil
}

// StatsHandler handles GET /api/events/{id}/stats.
func (h *Handler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		jsonutil.BadRequest(w, "invalid event id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	ev, err := h.events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, eventstore.ErrNotFound) {
			jsonutil.NotFound(w, "event not found")
			return
		}
		h.log.Error("failed to fetch event", zap.String("event_id", id.Hex()), zap.Error(err))
		jsonutil.InternalError(w, "failed to fetch event")
		return
	}
	stats, err := h.statsFor(ctx, ev)
	if err != nil {
		h.log.Error("failed to compute event stats", zap.String("event_id", id.Hex()), zap.Error(err))
		jsonutil.InternalError(w, "failed to compute event stats")
		return
	}
	jsonutil.OK(w, stats)
}

// AllStatsHandler handles GET /api/events/stats.
func (h *Handler) AllStatsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long)
	defer cancel()

	events, err := h.events.List(ctx, eventstore.ListFilter{})
	if err != nil {
		h.log.Error("failed to list events", zap.Error(err))
		jsonutil.InternalError(w, "failed to list events")
		return
	}
	rows := make([]statsResponse, 0, len(events))
	for i := range events {
		row, err := h.statsFor(ctx, &events[i])
		if err != nil {
			h.log.Error("failed to compute event stats",
				zap.String("event_id", events[i].ID.Hex()), zap.Error(err))
			jsonutil.InternalError(w, "failed to compute event stats")
			return
		}
		rows = append(rows, row)
	}
	jsonutil.OK(w, rows)
}

// OverviewHandler handles GET /api/events/overview.
func (h *Handler) OverviewHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	totalEvents, err := h.events.CountAll(ctx)
	if err == nil {
		var upcoming, volunteers, participants int64
		upcoming, err = h.events.CountUpcoming(ctx, time.Now())
		if err == nil {
			volunteers, err = h.users.CountAll(ctx)
		}
		if err == nil {
			participants, err = h.participants.CountAll(ctx)
		}
		if err == nil {
			jsonutil.OK(w, overviewResponse{
				TotalEvents:       totalEvents,
				UpcomingEvents:    upcoming,
				TotalVolunteers:   volunteers,
				TotalParticipants: participants,
			})
			return
		}
	}
	h.log.Error("failed to compute overview", zap.Error(err))
	jsonutil.InternalError(w, "failed to compute overview")
}

// assignments derives the event-side assignment projection from volunteer
// subscriptions. The volunteer side is the authoritative record.
func (h *Handler) assignments(ctx context.Context, id primitive.ObjectID) ([]assignedVolunteer, error) {
	subscribed, err := h.users.SubscribedToEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	out := []assignedVolunteer{}
	for i := range subscribed {
		u := &subscribed[i]
		sub := u.Subscription(id)
		if sub == nil {
			continue
		}
		for _, task := range sub.AssignedTasks {
			out = append(out, assignedVolunteer{
				VolunteerID: u.ID.Hex(),
				Name:        u.Name,
				TaskName:    task.Name,
				Status:      task.Status,
			})
		}
	}
	return out, nil
}

// ProgressHandler handles GET /api/events/{id}/progress.
func (h *Handler) ProgressHandler(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		jsonutil.BadRequest(w, "invalid event id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	if _, err := h.events.GetByID(ctx, id); err != nil {
		if errors.Is(err, eventstore.ErrNotFound) {
			jsonutil.NotFound(w, "event not found")
			return
		}
		h.log.Error("failed to fetch event", zap.String("event_id", id.Hex()), zap.Error(err))
		jsonutil.InternalError(w, "failed to fetch event")
		return
	}

	assignments, err := h.assignments(ctx, id)
	if err != nil {
		h.log.Error("failed to compute progress", zap.String("event_id", id.Hex()), zap.Error(err))
		jsonutil.InternalError(w, "failed to compute progress")
		return
	}

	resp := progressResponse{EventID: id.Hex(), TotalTasks: len(assignments)}
	for _, a := range assignments {
		if a.Status == models.TaskCompleted {
			resp.CompletedTasks++
		}
	}
	if resp.TotalTasks > 0 {
		resp.Progress = float64(resp.CompletedTasks) / float64(resp.TotalTasks)
	}
	jsonutil.OK(w, resp)
}

// ReportHandler handles GET /api/events/{id}/report. Participant counts come
// from real participation data.
func (h *Handler) ReportHandler(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		jsonutil.BadRequest(w, "invalid event id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long)
	defer cancel()

	ev, err := h.events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, eventstore.ErrNotFound) {
			jsonutil.NotFound(w, "event not found")
			return
		}
		h.log.Error("failed to fetch event", zap.String("event_id", id.Hex()), zap.Error(err))
		jsonutil.InternalError(w, "failed to fetch event")
		return
	}

	stats, err := h.statsFor(ctx, ev)
	if err != nil {
		h.log.Error("failed to compute event report", zap.String("event_id", id.Hex()), zap.Error(err))
		jsonutil.InternalError(w, "failed to compute event report")
		return
	}
	assignments, err := h.assignments(ctx, id)
	if err != nil {
		h.log.Error("failed to compute event report", zap.String("event_id", id.Hex()), zap.Error(err))
		jsonutil.InternalError(w, "failed to compute event report")
		return
	}

	reviews := ev.Reviews
	if reviews == nil {
		reviews = []string{}
	}
	jsonutil.OK(w, reportResponse{
		EventID:          ev.ID.Hex(),
		Name:             ev.Name,
		Category:         ev.Category,
		Location:         ev.Location,
		Date:             ev.Date,
		VolunteerCount:   stats.VolunteerCount,
		ParticipantCount: stats.ParticipantCount,
		AverageRating:    stats.AverageRating,
		RatingCount:      stats.RatingCount,
		Reviews:          reviews,
		Assignments:      assignments,
	})
}

// RegisteredVolunteersHandler handles GET /api/events/{id}/registered-volunteers.
func (h *Handler) RegisteredVolunteersHandler(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		jsonutil.BadRequest(w, "invalid event id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	users, err := h.users.SubscribedToEvent(ctx, id)
	if err != nil {
		h.log.Error("failed to list registered volunteers",
			zap.String("event_id", id.Hex()), zap.Error(err))
		jsonutil.InternalError(w, "failed to list registered volunteers")
		return
	}
	jsonutil.OK(w, summarize(users))
}

// PotentialVolunteersHandler handles GET /api/events/{id}/potential-volunteers:
// volunteers whose interests match the event category.
func (h *Handler) PotentialVolunteersHandler(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		jsonutil.BadRequest(w, "invalid event id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	ev, err := h.events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, eventstore.ErrNotFound) {
			jsonutil.NotFound(w, "event not found")
			return
		}
		h.log.Error("failed to fetch event", zap.String("event_id", id.Hex()), zap.Error(err))
		jsonutil.InternalError(w, "failed to fetch event")
		return
	}
	users, err := h.users.FindByInterest(ctx, ev.Category)
	if err != nil {
		h.log.Error("failed to list potential volunteers",
			zap.String("event_id", id.Hex()), zap.Error(err))
		jsonutil.InternalError(w, "failed to list potential volunteers")
		return
	}
	jsonutil.OK(w, summarize(users))
}

// TasksHandler handles GET /api/events/{id}/tasks: the distinct task names
// assigned for the event.
func (h *Handler) TasksHandler(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		jsonutil.BadRequest(w, "invalid event id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	assignments, err := h.assignments(ctx, id)
	if err != nil {
		h.log.Error("failed to list event tasks", zap.String("event_id", id.Hex()), zap.Error(err))
		jsonutil.InternalError(w, "failed to list event tasks")
		return
	}

	seen := map[string]bool{}
	names := []string{}
	for _, a := range assignments {
		if !seen[a.TaskName] {
			seen[a.TaskName] = true
			names = append(names, a.TaskName)
		}
	}
	jsonutil.OK(w, names)
}

func summarize(users []models.User) []volunteerSummary {
	out := make([]volunteerSummary, len(users))
	for i, u := range users {
		out[i] = volunteerSummary{
			ID:                   u.ID.Hex(),
			Name:                 u.Name,
			Email:                u.Email,
			Rank:                 u.Rank,
			InterestedCategories: u.InterestedCategories,
		}
	}
	return out
}
