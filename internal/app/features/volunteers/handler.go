// Package volunteers provides the volunteer management API.
//
// Endpoints (mounted at /api/volunteers):
//   - POST /register             - volunteer signup (bcrypt password)
//   - POST /login                - credential check, returns the volunteer
//   - POST /                     - admin add (no password)
//   - GET  /                     - list volunteers
//   - GET  /leaderboard          - top 10 by points (Redis-cached when configured)
//   - GET  /ranks                - the rank ladder, ascending
//   - GET  /id-by-email          - lookup id for an email
//   - POST /tasks                - bulk task assignment
//   - POST /participation        - combined volunteer/participant upsert
//   - GET  /{id}                 - fetch one volunteer
//   - PUT  /{id}                 - partial profile update
//   - POST /{id}/tasks           - assign a task
//   - PUT  /{id}/tasks/status    - set a task's status
//   - POST /{id}/event-requests  - invitation email (no subscription change)
//   - POST /{id}/points          - grant points, advancing rank on thresholds
package volunteers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	eventstore "github.com/openvolunteer/volunteerhub/internal/app/store/events"
	participantstore "github.com/openvolunteer/volunteerhub/internal/app/store/participants"
	userstore "github.com/openvolunteer/volunteerhub/internal/app/store/users"
	"github.com/openvolunteer/volunteerhub/internal/app/system/authutil"
	"github.com/openvolunteer/volunteerhub/internal/app/system/jsonutil"
	"github.com/openvolunteer/volunteerhub/internal/app/system/notify"
	"github.com/openvolunteer/volunteerhub/internal/app/system/timeouts"
	"github.com/openvolunteer/volunteerhub/internal/domain/models"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// leaderboardCacheKey is the Redis key holding the serialized leaderboard.
const leaderboardCacheKey = "volunteerhub:leaderboard"

// Handler handles volunteer API requests.
type Handler struct {
	users        *userstore.Store
	events       *eventstore.Store
	participants *participantstore.Store
	notify       *notify.Enqueuer

	// cache is optional; nil disables leaderboard caching.
	cache    *redis.Client
	cacheTTL time.Duration

	log *zap.Logger
}

// NewHandler creates a new volunteers handler. cache may be nil.
func NewHandler(
	users *userstore.Store,
	events *eventstore.Store,
	participants *participantstore.Store,
	enq *notify.Enqueuer,
	cache *redis.Client,
	cacheTTL time.Duration,
	log *zap.Logger,
) *Handler {
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &Handler{
		users:        users,
		events:       events,
		participants: participants,
		notify:       enq,
		cache:        cache,
		cacheTTL:     cacheTTL,
		log:          log,
	}
}

func volunteerID(r *http.Request) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
}

// RegisterHandler handles POST /api/volunteers/register.
func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var in registerRequest
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	if in.Name == "" || in.Email == "" || in.Password == "" {
		jsonutil.BadRequest(w, "name, email and password are required")
		return
	}

	hash, err := authutil.HashPassword(in.Password)
	if err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short)
	defer cancel()

	u, err := h.users.Create(ctx, models.User{
		Name:                 in.Name,
		Email:                in.Email,
		PasswordHash:         hash,
		InterestedCategories: in.InterestedCategories,
		InterestedTasks:      in.InterestedTasks,
		Skills:               in.Skills,
		Availability:         in.Availability,
	})
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			jsonutil.Conflict(w, err.Error())
			return
		}
		h.handleCreateError(w, in.Email, err)
		return
	}
	jsonutil.Created(w, u)
}

// LoginHandler handles POST /api/volunteers/login: verifies credentials and
// returns the volunteer. Unknown emails and wrong passwords get the same 401
// so the response does not leak which emails are registered.
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	if in.Email == "" || in.Password == "" {
		jsonutil.BadRequest(w, "email and password are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short)
	defer cancel()

	u, err := h.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			jsonutil.Error(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.log.Error("failed to look up volunteer", zap.Error(err))
		jsonutil.InternalError(w, "failed to log in")
		return
	}
	if !authutil.CheckPassword(u.PasswordHash, in.Password) {
		jsonutil.Error(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	jsonutil.OK(w, u)
}

// AddHandler handles POST /api/volunteers: admin-created volunteers with no
// credentials of their own.
func (h *Handler) AddHandler(w http.ResponseWriter, r *http.Request) {
	var in addRequest
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	if in.Name == "" || in.Email == "" {
		jsonutil.BadRequest(w, "name and email are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short)
	defer cancel()

	u, err := h.users.Create(ctx, models.User{
		Name:                 in.Name,
		Email:                in.Email,
		InterestedCategories: in.InterestedCategories,
		InterestedTasks:      in.InterestedTasks,
		Skills:               in.Skills,
		Availability:         in.Availability,
	})
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			jsonutil.Conflict(w, err.Error())
			return
		}
		h.handleCreateError(w, in.Email, err)
		return
	}
	jsonutil.Created(w, u)
}

func (h *Handler) handleCreateError(w http.ResponseWriter, email string, err error) {
	if errors.Is(err, userstore.ErrBadWeekday) || errors.Is(err, userstore.ErrBadRank) {
		jsonutil.BadRequest(w, err.Error())
		return
	}
	h.log.Error("failed to create volunteer", zap.String("email", email), zap.Error(err))
	jsonutil.InternalError(w, "failed to create volunteer")
}

// RanksHandler handles GET /api/volunteers/ranks: the progression ladder in
// ascending order, for client dropdowns and profile badges.
func (h *Handler) RanksHandler(w http.ResponseWriter, _ *http.Request) {
	jsonutil.OK(w, map[string][]string{"ranks": models.RankTiers()})
}

// ListHandler handles GET /api/volunteers.
func (h *Handler) ListHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	users, err := h.users.List(ctx)
	if err != nil {
		h.log.Error("failed to list volunteers", zap.Error(err))
		jsonutil.InternalError(w, "failed to list volunteers")
		return
	}
	if users == nil {
		users = []models.User{}
	}
	jsonutil.OK(w, users)
}

// GetHandler handles GET /api/volunteers/{id}.
func (h *Handler) GetHandler(w http.ResponseWriter, r *http.Request) {
	id, err := volunteerID(r)
	if err != nil {
		jsonutil.BadRequest(w, "invalid volunteer id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short)
	defer cancel()

	u, err := h.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			jsonutil.NotFound(w, "volunteer not found")
			return
		}
		h.log.Error("failed to fetch volunteer", zap.String("volunteer_id", id.Hex()), zap.Error(err))
		jsonutil.InternalError(w, "failed to fetch volunteer")
		return
	}
	jsonutil.OK(w, u)
}

// UpdateHandler handles PUT /api/volunteers/{id}.
func (h *Handler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := volunteerID(r)
	if err != nil {
		jsonutil.BadRequest(w, "invalid volunteer id")
		return
	}
	var in updateRequest
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short)
	defer cancel()

	err = h.users.UpdateProfile(ctx, id, userstore.ProfileUpdate{
		Name:                 in.Name,
		Email:                in.Email,
		InterestedCategories: in.InterestedCategories,
	})
	if err != nil {
		switch {
		case errors.Is(err, userstore.ErrNotFound):
			jsonutil.NotFound(w, "volunteer not found")
		case errors.Is(err, userstore.ErrDuplicateEmail):
			jsonutil.Conflict(w, err.Error())
		default:
			h.log.Error("failed to update volunteer", zap.String("volunteer_id", id.Hex()), zap.Error(err))
			jsonutil.InternalError(w, "failed to update volunteer")
		}
		return
	}

	u, err := h.users.GetByID(ctx, id)
	if err != nil {
		h.log.Error("failed to reload volunteer", zap.String("volunteer_id", id.Hex()), zap.Error(err))
		jsonutil.InternalError(w, "failed to reload volunteer")
		return
	}
	jsonutil.OK(w, u)
}

// IDByEmailHandler handles GET /api/volunteers/id-by-email?email=...
func (h *Handler) IDByEmailHandler(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		jsonutil.BadRequest(w, "email query parameter is required")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short)
	defer cancel()

	u, err := h.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			jsonutil.NotFound(w, "volunteer not found")
			return
		}
		h.log.Error("failed to look up volunteer", zap.Error(err))
		jsonutil.InternalError(w, "failed to look up volunteer")
		return
	}
	jsonutil.OK(w, map[string]string{"id": u.ID.Hex()})
}

// LeaderboardHandler handles GET /api/volunteers/leaderboard: top 10 by
// points, served from Redis when a fresh copy is cached.
func (h *Handler) LeaderboardHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	if h.cache != nil {
		cached, err := h.cache.Get(ctx, leaderboardCacheKey).Bytes()
		if err == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(cached)
			return
		}
		if !errors.Is(err, redis.Nil) {
			h.log.Warn("leaderboard cache read failed", zap.Error(err))
		}
	}

	entries, err := h.users.Leaderboard(ctx, 10)
	if err != nil {
		h.log.Error("failed to compute leaderboard", zap.Error(err))
		jsonutil.InternalError(w, "failed to compute leaderboard")
		return
	}
	if entries == nil {
		entries = []userstore.LeaderboardEntry{}
	}

	if h.cache != nil {
		if body, err := json.Marshal(entries); err == nil {
			if err := h.cache.Set(ctx, leaderboardCacheKey, body, h.cacheTTL).Err(); err != nil {
				h.log.Warn("leaderboard cache write failed", zap.Error(err))
			}
		}
	}
	jsonutil.OK(w, entries)
}

// invalidateLeaderboard drops the cached leaderboard after a points change.
func (h *Handler) invalidateLeaderboard(ctx context.Context) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Del(ctx, leaderboardCacheKey).Err(); err != nil {
		h.log.Warn("leaderboard cache invalidation failed", zap.Error(err))
	}
}

// assignOne assigns a task to a single volunteer and queues the
// notification. Returns an HTTP status and message on failure.
func (h *Handler) assignOne(ctx context.Context, userID, eventID primitive.ObjectID, task models.AssignedTask, ev *models.Event) (int, string) {
	if err := h.users.AssignTask(ctx, userID, eventID, task); err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			return http.StatusNotFound, "volunteer not found"
		}
		h.log.Error("failed to assign task",
			zap.String("volunteer_id", userID.Hex()),
			zap.String("event_id", eventID.Hex()),
			zap.Error(err))
		return http.StatusInternalServerError, "failed to assign task"
	}

	if u, err := h.users.GetByID(ctx, userID); err == nil {
		_ = h.notify.TaskAssigned(ctx, u, ev, task)
	}
	return 0, ""
}

// AssignTaskHandler handles POST /api/volunteers/{id}/tasks.
func (h *Handler) AssignTaskHandler(w http.ResponseWriter, r *http.Request) {
	id, err := volunteerID(r)
	if err != nil {
		jsonutil.BadRequest(w, "invalid volunteer id")
		return
	}

	var in assignTaskRequest
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	task, eventID, ev, ok := h.buildTask(ctx, w, in)
	if !ok {
		return
	}

	if status, msg := h.assignOne(ctx, id, eventID, task, ev); status != 0 {
		jsonutil.Error(w, status, msg)
		return
	}
	jsonutil.OK(w, map[string]string{"status": "assigned"})
}

// BulkAssignTaskHandler handles POST /api/volunteers/tasks: the same task
// assigned to several volunteers, processed sequentially. Volunteers that
// fail are reported; the rest keep their assignment.
func (h *Handler) BulkAssignTaskHandler(w http.ResponseWriter, r *http.Request) {
	var in assignTaskRequest
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	if len(in.VolunteerIDs) == 0 {
		jsonutil.BadRequest(w, "volunteer_ids is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long)
	defer cancel()

	task, eventID, ev, ok := h.buildTask(ctx, w, in)
	if !ok {
		return
	}

	assigned := []string{}
	failed := map[string]string{}
	for _, hexID := range in.VolunteerIDs {
		userID, err := primitive.ObjectIDFromHex(hexID)
		if err != nil {
			failed[hexID] = "invalid volunteer id"
			continue
		}
		if status, msg := h.assignOne(ctx, userID, eventID, task, ev); status != 0 {
			failed[hexID] = msg
			continue
		}
		assigned = append(assigned, hexID)
	}

	jsonutil.OK(w, map[string]any{
		"assigned": assigned,
		"failed":   failed,
	})
}

// buildTask validates the task body and resolves the target event.
func (h *Handler) buildTask(ctx context.Context, w http.ResponseWriter, in assignTaskRequest) (models.AssignedTask, primitive.ObjectID, *models.Event, bool) {
	if in.Name == "" || in.EventID == "" {
		jsonutil.BadRequest(w, "event_id and name are required")
		return models.AssignedTask{}, primitive.NilObjectID, nil, false
	}
	eventID, err := primitive.ObjectIDFromHex(in.EventID)
	if err != nil {
		jsonutil.BadRequest(w, "invalid event_id")
		return models.AssignedTask{}, primitive.NilObjectID, nil, false
	}

	task := models.AssignedTask{Name: in.Name, Status: models.TaskPending}
	if in.Deadline != "" {
		t, err := time.Parse(time.RFC3339, in.Deadline)
		if err != nil {
			jsonutil.BadRequest(w, "deadline must be RFC 3339")
			return models.AssignedTask{}, primitive.NilObjectID, nil, false
		}
		task.Deadline = &t
	}

	ev, err := h.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, eventstore.ErrNotFound) {
			jsonutil.NotFound(w, "event not found")
			return models.AssignedTask{}, primitive.NilObjectID, nil, false
		}
		h.log.Error("failed to fetch event", zap.String("event_id", eventID.Hex()), zap.Error(err))
		jsonutil.InternalError(w, "failed to fetch event")
		return models.AssignedTask{}, primitive.NilObjectID, nil, false
	}
	return task, eventID, ev, true
}

// TaskStatusHandler handles PUT /api/volunteers/{id}/tasks/status.
func (h *Handler) TaskStatusHandler(w http.ResponseWriter, r *http.Request) {
	id, err := volunteerID(r)
	if err != nil {
		jsonutil.BadRequest(w, "invalid volunteer id")
		return
	}
	var in taskStatusRequest
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	eventID, err := primitive.ObjectIDFromHex(in.EventID)
	if err != nil {
		jsonutil.BadRequest(w, "invalid event_id")
		return
	}
	if in.TaskName == "" {
		jsonutil.BadRequest(w, "task_name is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short)
	defer cancel()

	err = h.users.UpdateTaskStatus(ctx, id, eventID, in.TaskName, in.Status)
	if err != nil {
		switch {
		case errors.Is(err, userstore.ErrNotFound):
			jsonutil.NotFound(w, "volunteer not found")
		case errors.Is(err, userstore.ErrTaskNotFound):
			jsonutil.NotFound(w, err.Error())
		default:
			jsonutil.BadRequest(w, err.Error())
		}
		return
	}
	jsonutil.OK(w, map[string]string{"status": "updated"})
}

// EventRequestHandler handles POST /api/volunteers/{id}/event-requests.
// This is step one of the two-step invite flow: it only emails an
// invitation. The volunteer subscribes themselves via the register endpoint
// if they accept.
func (h *Handler) EventRequestHandler(w http.ResponseWriter, r *http.Request) {
	id, err := volunteerID(r)
	if err != nil {
		jsonutil.BadRequest(w, "invalid volunteer id")
		return
	}
	var in eventRequestBody
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	eventID, err := primitive.ObjectIDFromHex(in.EventID)
	if err != nil {
		jsonutil.BadRequest(w, "invalid event_id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	u, err := h.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			jsonutil.NotFound(w, "volunteer not found")
			return
		}
		h.log.Error("failed to fetch volunteer", zap.String("volunteer_id", id.Hex()), zap.Error(err))
		jsonutil.InternalError(w, "failed to fetch volunteer")
		return
	}
	if u.Subscription(eventID) != nil {
		jsonutil.Conflict(w, "volunteer is already registered for this event")
		return
	}

	ev, err := h.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, eventstore.ErrNotFound) {
			jsonutil.NotFound(w, "event not found")
			return
		}
		h.log.Error("failed to fetch event", zap.String("event_id", eventID.Hex()), zap.Error(err))
		jsonutil.InternalError(w, "failed to fetch event")
		return
	}

	if err := h.notify.EventInvitation(ctx, u.Name, u.Email, ev); err != nil {
		jsonutil.InternalError(w, "failed to queue invitation")
		return
	}
	jsonutil.Accepted(w, map[string]string{"status": "invitation queued"})
}

// ParticipationHandler handles POST /api/volunteers/participation: a single
// upsert endpoint creating the actor record when missing, branching on
// participation_type.
func (h *Handler) ParticipationHandler(w http.ResponseWriter, r *http.Request) {
	var in participationRequest
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	if in.Email == "" || in.Name == "" {
		jsonutil.BadRequest(w, "name and email are required")
		return
	}
	eventID, err := primitive.ObjectIDFromHex(in.EventID)
	if err != nil {
		jsonutil.BadRequest(w, "invalid event_id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	switch in.ParticipationType {
	case "volunteer":
		err = h.users.UpsertSubscription(ctx, in.Email, in.Name, eventID)
		if errors.Is(err, userstore.ErrAlreadySubscribed) {
			jsonutil.Conflict(w, err.Error())
			return
		}
	case "participant":
		err = h.participants.UpsertParticipation(ctx, in.Email, in.Name, eventID, in.Status)
	default:
		jsonutil.BadRequest(w, `participation_type must be "volunteer" or "participant"`)
		return
	}

	if err != nil {
		h.log.Error("participation upsert failed",
			zap.String("type", in.ParticipationType),
			zap.String("event_id", eventID.Hex()),
			zap.Error(err))
		jsonutil.InternalError(w, "participation upsert failed")
		return
	}
	jsonutil.OK(w, map[string]string{"status": "recorded"})
}

// AddPointsHandler handles POST /api/volunteers/{id}/points: grants points
// and advances the rank when a threshold is crossed.
func (h *Handler) AddPointsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := volunteerID(r)
	if err != nil {
		jsonutil.BadRequest(w, "invalid volunteer id")
		return
	}
	var in addPointsRequest
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	if in.Points <= 0 {
		jsonutil.BadRequest(w, "points must be positive")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short)
	defer cancel()

	if err := h.users.AddPoints(ctx, id, in.Points); err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			jsonutil.NotFound(w, "volunteer not found")
			return
		}
		h.log.Error("failed to add points", zap.String("volunteer_id", id.Hex()), zap.Error(err))
		jsonutil.InternalError(w, "failed to add points")
		return
	}
	h.invalidateLeaderboard(ctx)

	u, err := h.users.GetByID(ctx, id)
	if err != nil {
		h.log.Error("failed to reload volunteer", zap.String("volunteer_id", id.Hex()), zap.Error(err))
		jsonutil.InternalError(w, "failed to reload volunteer")
		return
	}
	jsonutil.OK(w, u)
}
