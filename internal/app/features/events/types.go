// internal/app/features/events/types.go
package events

import (
	"time"

	"github.com/openvolunteer/volunteerhub/internal/domain/models"
)

// createEventRequest is the body for POST /api/events.
type createEventRequest struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Date        string `json:"date"` // RFC 3339

	Photos []string `json:"photos,omitempty"`

	RegistrationStart string `json:"registration_start"`
	RegistrationEnd   string `json:"registration_end"`
	EventStart        string `json:"event_start"`
	EventEnd          string `json:"event_end"`

	GeoLocation *models.GeoPoint      `json:"geo_location,omitempty"`
	Schedule    []models.ScheduleItem `json:"schedule,omitempty"`
}

// registerRequest is the body for POST /api/events/{id}/register.
type registerRequest struct {
	VolunteerID string `json:"volunteer_id"`
}

// feedbackRequest is the body for POST /api/events/{id}/feedback.
type feedbackRequest struct {
	Rating int    `json:"rating"`
	Review string `json:"review,omitempty"`
}

// reviewRequest is the body for POST /api/events/{id}/reviews.
type reviewRequest struct {
	Review string `json:"review"`
}

// statsResponse summarizes one event.
type statsResponse struct {
	EventID          string  `json:"event_id"`
	Name             string  `json:"name"`
	VolunteerCount   int64   `json:"volunteer_count"`
	ParticipantCount int64   `json:"participant_count"`
	AverageRating    float64 `json:"average_rating"`
	RatingCount      int64   `json:"rating_count"`
}

// overviewResponse aggregates across all events.
type overviewResponse struct {
	TotalEvents       int64 `json:"total_events"`
	UpcomingEvents    int64 `json:"upcoming_events"`
	TotalVolunteers   int64 `json:"total_volunteers"`
	TotalParticipants int64 `json:"total_participants"`
}

// progressResponse reports task completion for one event, computed over the
// authoritative volunteer-side assignments.
type progressResponse struct {
	EventID        string  `json:"event_id"`
	TotalTasks     int     `json:"total_tasks"`
	CompletedTasks int     `json:"completed_tasks"`
	Progress       float64 `json:"progress"` // 0..1, 0 when no tasks
}

// assignedVolunteer is one row of the event-side assignment projection,
// derived on read from volunteer subscriptions.
type assignedVolunteer struct {
	VolunteerID string `json:"volunteer_id"`
	Name        string `json:"name"`
	TaskName    string `json:"task_name"`
	Status      string `json:"status"`
}

// volunteerSummary is a projection of a subscribed or matching volunteer.
type volunteerSummary struct {
	ID                   string   `json:"id"`
	Name                 string   `json:"name"`
	Email                string   `json:"email"`
	Rank                 string   `json:"rank"`
	InterestedCategories []string `json:"interested_categories,omitempty"`
}

// reportResponse is the full per-event report.
type reportResponse struct {
	EventID          string              `json:"event_id"`
	Name             string              `json:"name"`
	Category         string              `json:"category"`
	Location         string              `json:"location"`
	Date             time.Time           `json:"date"`
	VolunteerCount   int64               `json:"volunteer_count"`
	ParticipantCount int64               `json:"participant_count"`
	AverageRating    float64             `json:"average_rating"`
	RatingCount      int64               `json:"rating_count"`
	Reviews          []string            `json:"reviews"`
	Assignments      []assignedVolunteer `json:"assignments"`
}
