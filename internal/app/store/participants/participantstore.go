// internal/app/store/participants/participantstore.go
package participantstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/openvolunteer/volunteerhub/internal/app/system/normalize"
	"github.com/openvolunteer/volunteerhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrDuplicateEmail is returned when a participant with this email already exists.
	ErrDuplicateEmail = errors.New("a participant with this email already exists")
	// ErrNotFound is returned when no participant matches.
	ErrNotFound = errors.New("participant not found")
)

// Store provides participant persistence.
type Store struct {
	c *mongo.Collection
}

// New creates a new participant store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("participants")}
}

// Create inserts a new participant.
func (s *Store) Create(ctx context.Context, p models.Participant) (models.Participant, error) {
	p.ID = primitive.NewObjectID()
	p.Name = normalize.Name(p.Name)
	p.Email = normalize.Email(p.Email)

	if p.ParticipatedEvents == nil {
		p.ParticipatedEvents = []models.Participation{}
	}
	for i := range p.ParticipatedEvents {
		p.ParticipatedEvents[i].Status = normalize.Status(p.ParticipatedEvents[i].Status)
		if !models.IsValidParticipationStatus(p.ParticipatedEvents[i].Status) {
			return models.Participant{}, errors.New(`participation status must be "registered", "attended" or "completed"`)
		}
	}

	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Participant{}, ErrDuplicateEmail
		}
		return models.Participant{}, err
	}
	return p, nil
}

// GetByID loads a participant by ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Participant, error) {
	var p models.Participant
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// GetByEmail looks up a participant by normalized email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.Participant, error) {
	var p models.Participant
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// UpsertParticipation records an event participation for the participant
// identified by email, creating the participant when missing. An existing
// participation for the same event has its status overwritten.
func (s *Store) UpsertParticipation(ctx context.Context, email, name string, eventID primitive.ObjectID, status string) error {
	status = normalize.Status(status)
	if status == "" {
		status = models.ParticipationRegistered
	}
	if !models.IsValidParticipationStatus(status) {
		return errors.New(`participation status must be "registered", "attended" or "completed"`)
	}

	email = normalize.Email(email)
	now := time.Now()

	// Overwrite the status when the participation already exists.
	res, err := s.c.UpdateOne(ctx,
		bson.M{"email": email, "participated_events.event_id": eventID},
		bson.M{"$set": bson.M{
			"participated_events.$.status": status,
			"updated_at":                   now,
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// Otherwise push a new participation, inserting the participant if needed.
	_, err = s.c.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{
			"$push": bson.M{"participated_events": models.Participation{
				EventID: eventID,
				Status:  status,
			}},
			"$set": bson.M{"updated_at": now},
			"$setOnInsert": bson.M{
				"name":       normalize.Name(name),
				"created_at": now,
			},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

// ParticipatedEventIDs returns the IDs of all events the participant has a
// participation for. Callers resolve them against the event store, which
// silently drops references to deleted events.
func (s *Store) ParticipatedEventIDs(ctx context.Context, id primitive.ObjectID) ([]primitive.ObjectID, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(p.ParticipatedEvents))
	for _, ev := range p.ParticipatedEvents {
		ids = append(ids, ev.EventID)
	}
	return ids, nil
}

// CountForEvent counts participants holding a participation for the event.
func (s *Store) CountForEvent(ctx context.Context, eventID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"participated_events.event_id": eventID})
}

// CountAll returns the total number of participants.
func (s *Store) CountAll(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}
