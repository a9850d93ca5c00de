// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
)

// Notification email types. Every outbox entry and every /api/email/send
// request carries one of these.
const (
	TypeRegistrationSuccess  = "registration_success"
	TypeTaskAssigned         = "task_assigned"
	TypeTaskDeadlineReminder = "task_deadline_reminder"
	TypeNewEvent             = "new_event"
	TypeEventInvitation      = "event_invitation"
)

// Params carries the template fields for one notification.
// Recognized keys: name, event_name, event_date, location, category,
// task_name, deadline.
type Params map[string]string

// ErrUnknownType is returned when an email type is not in the registry.
var ErrUnknownType = errors.New("unknown email type")

// builder renders one email type from its params.
type builder func(p Params) (subject, textBody, htmlBody string)

// registry maps email types to their builders. Unknown types produce
// ErrUnknownType rather than a panic, so a bad request can never take
// down a worker.
var registry = map[string]builder{
	TypeRegistrationSuccess:  registrationSuccessEmail,
	TypeTaskAssigned:         taskAssignedEmail,
	TypeTaskDeadlineReminder: taskDeadlineReminderEmail,
	TypeNewEvent:             newEventEmail,
	TypeEventInvitation:      eventInvitationEmail,
}

// KnownType reports whether emailType has a registered builder.
func KnownType(emailType string) bool {
	_, ok := registry[emailType]
	return ok
}

// Build renders the subject, plain-text body, and HTML body for an email
// type. Returns ErrUnknownType when the type is not registered.
func Build(emailType string, p Params) (subject, textBody, htmlBody string, err error) {
	b, ok := registry[emailType]
	if !ok {
		return "", "", "", fmt.Errorf("%w: %q", ErrUnknownType, emailType)
	}
	subject, textBody, htmlBody = b(p)
	return subject, textBody, htmlBody, nil
}

func registrationSuccessEmail(p Params) (string, string, string) {
	subject := "Registration confirmed: " + p["event_name"]
	text := "Hi " + p["name"] + ",\n\n" +
		"You are registered for " + p["event_name"] + " on " + p["event_date"] + ".\n" +
		"Location: " + p["location"] + "\n\n" +
		"Thank you for volunteering!"
	html := renderHTML(htmlRegistrationSuccess, p)
	return subject, text, html
}

func taskAssignedEmail(p Params) (string, string, string) {
	subject := "New task assigned: " + p["task_name"]
	text := "Hi " + p["name"] + ",\n\n" +
		"You have been assigned the task \"" + p["task_name"] + "\" for " + p["event_name"] + "."
	if p["deadline"] != "" {
		text += "\nDeadline: " + p["deadline"]
	}
	text += "\n\nPlease mark the task completed once it is done."
	html := renderHTML(htmlTaskAssigned, p)
	return subject, text, html
}

func taskDeadlineReminderEmail(p Params) (string, string, string) {
	subject := "Task overdue: " + p["task_name"]
	text := "Hi " + p["name"] + ",\n\n" +
		"Your task \"" + p["task_name"] + "\" for " + p["event_name"] +
		" passed its deadline (" + p["deadline"] + ") and is still pending.\n\n" +
		"Please complete it or reach out to the event organizer."
	html := renderHTML(htmlTaskDeadlineReminder, p)
	return subject, text, html
}

func newEventEmail(p Params) (string, string, string) {
	subject := "New " + p["category"] + " event: " + p["event_name"]
	text := "Hi " + p["name"] + ",\n\n" +
		"A new event matching your interests was just published:\n\n" +
		p["event_name"] + " on " + p["event_date"] + " at " + p["location"] + ".\n\n" +
		"Register now to take part!"
	html := renderHTML(htmlNewEvent, p)
	return subject, text, html
}

func eventInvitationEmail(p Params) (string, string, string) {
	subject := "You are invited: " + p["event_name"]
	text := "Hi " + p["name"] + ",\n\n" +
		"You have been invited to volunteer at " + p["event_name"] +
		" on " + p["event_date"] + ".\n\n" +
		"Confirm your registration from your dashboard to take part."
	html := renderHTML(htmlEventInvitation, p)
	return subject, text, html
}

// renderHTML executes one of the body templates. Template execution over a
// map cannot fail here; a broken template is a programming error caught in
// tests.
func renderHTML(t *template.Template, p Params) string {
	var buf bytes.Buffer
	if err := t.Execute(&buf, p); err != nil {
		return ""
	}
	return buf.String()
}

var (
	htmlRegistrationSuccess = template.Must(template.New("registration_success").Parse(`
<div style="font-family:sans-serif;max-width:600px">
  <h2>Registration confirmed</h2>
  <p>Hi {{.name}},</p>
  <p>You are registered for <strong>{{.event_name}}</strong> on {{.event_date}}.</p>
  <p>Location: {{.location}}</p>
  <p>Thank you for volunteering!</p>
</div>`))

	htmlTaskAssigned = template.Must(template.New("task_assigned").Parse(`
<div style="font-family:sans-serif;max-width:600px">
  <h2>New task assigned</h2>
  <p>Hi {{.name}},</p>
  <p>You have been assigned <strong>{{.task_name}}</strong> for {{.event_name}}.</p>
  {{if .deadline}}<p>Deadline: {{.deadline}}</p>{{end}}
  <p>Please mark the task completed once it is done.</p>
</div>`))

	htmlTaskDeadlineReminder = template.Must(template.New("task_deadline_reminder").Parse(`
<div style="font-family:sans-serif;max-width:600px">
  <h2>Task overdue</h2>
  <p>Hi {{.name}},</p>
  <p>Your task <strong>{{.task_name}}</strong> for {{.event_name}} passed its
  deadline ({{.deadline}}) and is still pending.</p>
  <p>Please complete it or reach out to the event organizer.</p>
</div>`))

	htmlNewEvent = template.Must(template.New("new_event").Parse(`
<div style="font-family:sans-serif;max-width:600px">
  <h2>New event in {{.category}}</h2>
  <p>Hi {{.name}},</p>
  <p><strong>{{.event_name}}</strong> on {{.event_date}} at {{.location}}.</p>
  <p>Register now to take part!</p>
</div>`))

	htmlEventInvitation = template.Must(template.New("event_invitation").Parse(`
<div style="font-family:sans-serif;max-width:600px">
  <h2>You are invited</h2>
  <p>Hi {{.name}},</p>
  <p>You have been invited to volunteer at <strong>{{.event_name}}</strong>
  on {{.event_date}}.</p>
  <p>Confirm your registration from your dashboard to take part.</p>
</div>`))
)
