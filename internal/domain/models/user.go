// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a registered volunteer.
//
// Identity fields:
//   - Email: what the volunteer signs up with (stored lowercase, unique)
//   - PasswordHash: bcrypt hash (never serialized to JSON)
type User struct {
	ID    primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name  string             `bson:"name" json:"name"`
	Email string             `bson:"email" json:"email"` // lowercase, unique

	PasswordHash string `bson:"password_hash,omitempty" json:"-"`

	// Rank progression. Rank advances through the tiers in RankTiers as
	// CurrPoints crosses PointsForNextRank.
	Rank              string `bson:"rank" json:"rank"`
	NextRank          string `bson:"next_rank,omitempty" json:"next_rank,omitempty"`
	PointsForNextRank int64  `bson:"points_for_next_rank,omitempty" json:"points_for_next_rank,omitempty"`

	// Activity counters
	EventsVolunteered  int64 `bson:"events_volunteered" json:"events_volunteered"`
	VolunteerHours     int64 `bson:"volunteer_hours" json:"volunteer_hours"`
	CurrPoints         int64 `bson:"curr_points" json:"curr_points"`
	EventsParticipated int64 `bson:"events_participated" json:"events_participated"`

	// EventsSubscribed is the authoritative record of which events this
	// volunteer registered for and which tasks they were assigned.
	// At most one entry per event.
	EventsSubscribed []EventSubscription `bson:"events_subscribed" json:"events_subscribed"`

	InterestedCategories []string `bson:"interested_categories,omitempty" json:"interested_categories,omitempty"`
	InterestedTasks      []string `bson:"interested_tasks,omitempty" json:"interested_tasks,omitempty"`
	Skills               []string `bson:"skills,omitempty" json:"skills,omitempty"`

	HeatmapActivity []HeatmapSample `bson:"heatmap_activity,omitempty" json:"heatmap_activity,omitempty"`

	// Availability holds weekday names ("monday".."sunday").
	Availability []string `bson:"availability,omitempty" json:"availability,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// EventSubscription ties a volunteer to one event plus the tasks assigned
// to them for that event.
type EventSubscription struct {
	EventID       primitive.ObjectID `bson:"event_id" json:"event_id"`
	AssignedTasks []AssignedTask     `bson:"assigned_tasks" json:"assigned_tasks"`
}

// AssignedTask is a named unit of work with a pending/completed status and
// an optional deadline.
type AssignedTask struct {
	Name     string     `bson:"name" json:"name"`
	Status   string     `bson:"status" json:"status"` // pending, completed
	Deadline *time.Time `bson:"deadline,omitempty" json:"deadline,omitempty"`
}

// HeatmapSample is one day of recorded activity.
type HeatmapSample struct {
	Date  time.Time `bson:"date" json:"date"`
	Count int64     `bson:"count" json:"count"`
}

// Task status values
const (
	TaskPending   = "pending"
	TaskCompleted = "completed"
)

// IsValidTaskStatus checks if a task status is valid.
func IsValidTaskStatus(s string) bool {
	return s == TaskPending || s == TaskCompleted
}

// Volunteer rank tiers, lowest to highest.
const (
	RankGuardianAngel     = "guardian-angel"
	RankCompassionWarrior = "compassion-warrior"
	RankHopeBearer        = "hope-bearer"
	RankKindnessSentinel  = "kindness-sentinel"
	RankInclusionChampion = "inclusion-champion"
)

// rankTier describes one step of the progression ladder.
type rankTier struct {
	Rank      string
	Threshold int64 // points needed to advance past this tier
}

// rankLadder is the static progression table. The final tier has no
// successor; PointsForNextRank is zero once it is reached.
var rankLadder = []rankTier{
	{RankGuardianAngel, 100},
	{RankCompassionWarrior, 250},
	{RankHopeBearer, 500},
	{RankKindnessSentinel, 1000},
	{RankInclusionChampion, 0},
}

// RankTiers returns all rank names in ascending order.
func RankTiers() []string {
	out := make([]string, len(rankLadder))
	for i, t := range rankLadder {
		out[i] = t.Rank
	}
	return out
}

// IsValidRank checks if a rank name is one of the five tiers.
func IsValidRank(rank string) bool {
	for _, t := range rankLadder {
		if t.Rank == rank {
			return true
		}
	}
	return false
}

// FirstRank returns the entry tier with its successor and threshold.
func FirstRank() (rank, next string, threshold int64) {
	return rankLadder[0].Rank, rankLadder[1].Rank, rankLadder[0].Threshold
}

// NextRankOf returns the tier after rank, or "" when rank is the top tier
// or unknown. The returned threshold is the points needed to advance past
// rank itself.
func NextRankOf(rank string) (next string, threshold int64) {
	for i, t := range rankLadder {
		if t.Rank == rank && i+1 < len(rankLadder) {
			return rankLadder[i+1].Rank, t.Threshold
		}
	}
	return "", 0
}

// Weekday names accepted in Availability.
var weekdays = map[string]bool{
	"monday": true, "tuesday": true, "wednesday": true,
	"thursday": true, "friday": true, "saturday": true, "sunday": true,
}

// IsValidWeekday checks an availability entry.
func IsValidWeekday(day string) bool {
	return weekdays[day]
}

// Subscription returns the subscription entry for eventID, or nil.
func (u *User) Subscription(eventID primitive.ObjectID) *EventSubscription {
	for i := range u.EventsSubscribed {
		if u.EventsSubscribed[i].EventID == eventID {
			return &u.EventsSubscribed[i]
		}
	}
	return nil
}
