// Package emailapi provides the direct notification-send API.
//
// POST /api/email/send validates the email type against the template
// registry and queues the message through the outbox; delivery happens
// asynchronously in the notification worker.
package emailapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/openvolunteer/volunteerhub/internal/app/system/jsonutil"
	"github.com/openvolunteer/volunteerhub/internal/app/system/mailer"
	"github.com/openvolunteer/volunteerhub/internal/app/system/notify"
	"github.com/openvolunteer/volunteerhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// sendRequest is the body for POST /api/email/send.
type sendRequest struct {
	EmailType string        `json:"email_type"`
	Recipient string        `json:"recipient"`
	Params    mailer.Params `json:"params,omitempty"`
}

// Handler handles email API requests.
type Handler struct {
	notify *notify.Enqueuer
	log    *zap.Logger
}

// NewHandler creates a new emailapi handler.
func NewHandler(enq *notify.Enqueuer, log *zap.Logger) *Handler {
	return &Handler{notify: enq, log: log}
}

// SendHandler handles POST /api/email/send. An unknown email type is a 400,
// never a panic; a valid request returns 202 once the message is queued.
func (h *Handler) SendHandler(w http.ResponseWriter, r *http.Request) {
	var in sendRequest
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	if in.Recipient == "" {
		jsonutil.BadRequest(w, "recipient is required")
		return
	}
	if in.Params == nil {
		in.Params = mailer.Params{}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short)
	defer cancel()

	if err := h.notify.Enqueue(ctx, in.EmailType, in.Recipient, in.Params); err != nil {
		if errors.Is(err, mailer.ErrUnknownType) {
			jsonutil.BadRequest(w, "unknown email type: "+in.EmailType)
			return
		}
		h.log.Error("failed to queue email",
			zap.String("email_type", in.EmailType),
			zap.Error(err))
		jsonutil.InternalError(w, "failed to queue email")
		return
	}

	jsonutil.Accepted(w, map[string]string{"status": "queued"})
}
