// internal/app/features/volunteers/types.go
package volunteers

// registerRequest is the body for POST /api/volunteers/register.
type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`

	InterestedCategories []string `json:"interested_categories,omitempty"`
	InterestedTasks      []string `json:"interested_tasks,omitempty"`
	Skills               []string `json:"skills,omitempty"`
	Availability         []string `json:"availability,omitempty"`
}

// loginRequest is the body for POST /api/volunteers/login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// addRequest is the body for POST /api/volunteers (admin add, no password).
type addRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`

	InterestedCategories []string `json:"interested_categories,omitempty"`
	InterestedTasks      []string `json:"interested_tasks,omitempty"`
	Skills               []string `json:"skills,omitempty"`
	Availability         []string `json:"availability,omitempty"`
}

// updateRequest is the body for PUT /api/volunteers/{id}. Only these three
// fields are honored; anything else in the body is ignored.
type updateRequest struct {
	Name                 string   `json:"name,omitempty"`
	Email                string   `json:"email,omitempty"`
	InterestedCategories []string `json:"interested_categories,omitempty"`
}

// assignTaskRequest is the body for POST /api/volunteers/{id}/tasks and the
// bulk POST /api/volunteers/tasks (which adds VolunteerIDs).
type assignTaskRequest struct {
	VolunteerIDs []string `json:"volunteer_ids,omitempty"` // bulk form only
	EventID      string   `json:"event_id"`
	Name         string   `json:"name"`
	Deadline     string   `json:"deadline,omitempty"` // RFC 3339
}

// taskStatusRequest is the body for PUT /api/volunteers/{id}/tasks/status.
type taskStatusRequest struct {
	EventID  string `json:"event_id"`
	TaskName string `json:"task_name"`
	Status   string `json:"status"`
}

// eventRequestBody is the body for POST /api/volunteers/{id}/event-requests.
type eventRequestBody struct {
	EventID string `json:"event_id"`
}

// participationRequest is the body for POST /api/volunteers/participation,
// the combined upsert endpoint.
type participationRequest struct {
	ParticipationType string `json:"participation_type"` // volunteer | participant
	Name              string `json:"name"`
	Email             string `json:"email"`
	EventID           string `json:"event_id"`
	Status            string `json:"status,omitempty"` // participant branch only
}

// addPointsRequest is the body for POST /api/volunteers/{id}/points.
type addPointsRequest struct {
	Points int64 `json:"points"`
}
