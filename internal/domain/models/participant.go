// internal/domain/models/participant.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Participant is a registered attendee, tracked separately from volunteers.
type Participant struct {
	ID    primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name  string             `bson:"name" json:"name"`
	Email string             `bson:"email" json:"email"` // lowercase, unique

	PasswordHash string `bson:"password_hash,omitempty" json:"-"`

	ParticipatedEvents []Participation `bson:"participated_events" json:"participated_events"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Participation records one event attendance with its lifecycle status.
type Participation struct {
	EventID primitive.ObjectID `bson:"event_id" json:"event_id"`
	Status  string             `bson:"status" json:"status"` // registered, attended, completed
}

// Participation status values
const (
	ParticipationRegistered = "registered"
	ParticipationAttended   = "attended"
	ParticipationCompleted  = "completed"
)

// IsValidParticipationStatus checks a participation status value.
func IsValidParticipationStatus(s string) bool {
	switch s {
	case ParticipationRegistered, ParticipationAttended, ParticipationCompleted:
		return true
	}
	return false
}
