// Package participants provides the participant (attendee) API.
//
// Endpoints (mounted at /api/participants):
//   - POST /signup       - participant signup
//   - GET  /{id}         - fetch one participant
//   - GET  /{id}/events  - the events the participant has joined
package participants

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	eventstore "github.com/openvolunteer/volunteerhub/internal/app/store/events"
	participantstore "github.com/openvolunteer/volunteerhub/internal/app/store/participants"
	"github.com/openvolunteer/volunteerhub/internal/app/system/authutil"
	"github.com/openvolunteer/volunteerhub/internal/app/system/jsonutil"
	"github.com/openvolunteer/volunteerhub/internal/app/system/timeouts"
	"github.com/openvolunteer/volunteerhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// signupRequest is the body for POST /api/participants/signup.
type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Handler handles participant API requests.
type Handler struct {
	participants *participantstore.Store
	events       *eventstore.Store
	log          *zap.Logger
}

// NewHandler creates a new participants handler.
func NewHandler(participants *participantstore.Store, events *eventstore.Store, log *zap.Logger) *Handler {
	return &Handler{participants: participants, events: events, log: log}
}

// SignupHandler handles POST /api/participants/signup.
func (h *Handler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var in signupRequest
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

	p, err := h.participants.Create(ctx, models.Participant{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, participantstore.ErrDuplicateEmail) {
			jsonutil.Conflict(w, err.Error())
			return
		}
		h.log.Error("failed to create participant", zap.String("email", in.Email), zap.Error(err))
		jsonutil.InternalError(w, "failed to create participant")
		return
	}
	jsonutil.Created(w, p)
}

// GetHandler handles GET /api/participants/{id}.
func (h *Handler) GetHandler(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.BadRequest(w, "invalid participant id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short)
	defer cancel()

	p, err := h.participants.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, participantstore.ErrNotFound) {
			jsonutil.NotFound(w, "participant not found")
			return
		}
		h.log.Error("failed to fetch participant", zap.String("participant_id", id.Hex()), zap.Error(err))
		jsonutil.InternalError(w, "failed to fetch participant")
		return
	}
	jsonutil.OK(w, p)
}

// EventsHandler handles GET /api/participants/{id}/events: resolves the
// participant's event references to full documents. References to deleted
// events drop out of the result.
func (h *Handler) EventsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.BadRequest(w, "invalid participant id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	ids, err := h.participants.ParticipatedEventIDs(ctx, id)
	if err != nil {
		if errors.Is(err, participantstore.ErrNotFound) {
			jsonutil.NotFound(w, "participant not found")
			return
		}
		h.log.Error("failed to fetch participations", zap.String("participant_id", id.Hex()), zap.Error(err))
		jsonutil.InternalError(w, "failed to fetch participations")
		return
	}

	events, err := h.events.GetManyByIDs(ctx, ids)
	if err != nil {
		h.log.Error("failed to resolve participated events", zap.String("participant_id", id.Hex()), zap.Error(err))
		jsonutil.InternalError(w, "failed to resolve participated events")
		return
	}
	jsonutil.OK(w, events)
}
