// internal/domain/models/event.go
package models

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event is a volunteering event with a registration window and an
// execution window.
//
// Window invariant (validated at create):
//
//	RegistrationStart <= RegistrationEnd <= EventStart <= EventEnd
type Event struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Category    string             `bson:"category" json:"category"`
	Description string             `bson:"description" json:"description"`
	Location    string             `bson:"location" json:"location"`
	Date        time.Time          `bson:"date" json:"date"`

	Photos []string `bson:"photos,omitempty" json:"photos,omitempty"`

	RegistrationStart time.Time `bson:"registration_start" json:"registration_start"`
	RegistrationEnd   time.Time `bson:"registration_end" json:"registration_end"`
	EventStart        time.Time `bson:"event_start" json:"event_start"`
	EventEnd          time.Time `bson:"event_end" json:"event_end"`

	// GeoLocation defaults to a Point at [0,0] when omitted on create.
	GeoLocation GeoPoint `bson:"geo_location" json:"geo_location"`

	// Reviews are sanitized before storage.
	Reviews []string `bson:"reviews,omitempty" json:"reviews,omitempty"`

	Schedule []ScheduleItem `bson:"schedule,omitempty" json:"schedule,omitempty"`

	// Ratings is a star-count histogram: Ratings[i] holds the number of
	// (i+1)-star ratings.
	Ratings [5]int64 `bson:"ratings" json:"ratings"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// GeoPoint is a GeoJSON Point: coordinates are [longitude, latitude].
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

// DefaultGeoPoint returns the Point used when an event has no location fix.
func DefaultGeoPoint() GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: []float64{0, 0}}
}

// ScheduleItem is one agenda entry of an event.
type ScheduleItem struct {
	Time    string `bson:"time" json:"time"`
	Heading string `bson:"heading" json:"heading"`
	Details string `bson:"details,omitempty" json:"details,omitempty"`
}

// RatingCount returns the total number of ratings recorded.
func (e *Event) RatingCount() int64 {
	var n int64
	for _, c := range e.Ratings {
		n += c
	}
	return n
}

// AverageRating returns the mean star value rounded to one decimal,
// or 0 when no ratings exist.
func (e *Event) AverageRating() float64 {
	var sum, count int64
	for i, c := range e.Ratings {
		sum += int64(i+1) * c
		count += c
	}
	if count == 0 {
		return 0
	}
	return math.Round(float64(sum)/float64(count)*10) / 10
}

// ValidateWindow checks the registration/execution ordering invariant.
func (e *Event) ValidateWindow() bool {
	return !e.RegistrationEnd.Before(e.RegistrationStart) &&
		!e.EventStart.Before(e.RegistrationEnd) &&
		!e.EventEnd.Before(e.EventStart)
}
