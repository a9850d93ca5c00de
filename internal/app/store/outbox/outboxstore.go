// internal/app/store/outbox/outboxstore.go
package outboxstore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Entry status constants.
const (
	StatusPending = "pending"
	StatusRunning = "running"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

// Entry is one queued notification. Handlers commit their business write
// first and then enqueue an Entry; the delivery worker picks it up
// afterwards, so a failed send never rolls back the underlying operation.
type Entry struct {
	ID          primitive.ObjectID `bson:"_id"`
	EmailType   string             `bson:"email_type"` // registry key, see mailer
	Recipient   string             `bson:"recipient"`  // destination address
	Params      map[string]string  `bson:"params"`     // template fields
	Status      string             `bson:"status"`
	Attempts    int                `bson:"attempts"`
	MaxAttempts int                `bson:"max_attempts"`
	Error       string             `bson:"error,omitempty"`
	ScheduledAt time.Time          `bson:"scheduled_at"`
	StartedAt   *time.Time         `bson:"started_at,omitempty"`
	CompletedAt *time.Time         `bson:"completed_at,omitempty"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
	WorkerID    string             `bson:"worker_id,omitempty"`
}

// ErrNotFound is returned when an entry is not found.
var ErrNotFound = errors.New("outbox entry not found")

// Store provides notification queue persistence.
type Store struct {
	c *mongo.Collection
}

// New creates a new outbox store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("outbox")}
}

// Enqueue adds a pending notification that is eligible immediately.
func (s *Store) Enqueue(ctx context.Context, emailType, recipient string, params map[string]string) (Entry, error) {
	now := time.Now()
	e := Entry{
		ID:          primitive.NewObjectID(),
		EmailType:   emailType,
		Recipient:   recipient,
		Params:      params,
		Status:      StatusPending,
		MaxAttempts: 3,
		ScheduledAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.c.InsertOne(ctx, e); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// ClaimNext atomically claims the oldest eligible pending entry.
// Returns nil, nil when nothing is due.
func (s *Store) ClaimNext(ctx context.Context, workerID string) (*Entry, error) {
	now := time.Now()

	filter := bson.M{
		"status":       StatusPending,
		"scheduled_at": bson.M{"$lte": now},
	}
	update := bson.M{
		"$set": bson.M{
			"status":     StatusRunning,
			"started_at": now,
			"worker_id":  workerID,
			"updated_at": now,
		},
		"$inc": bson.M{"attempts": 1},
	}
	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "scheduled_at", Value: 1}}).
		SetReturnDocument(options.After)

	var e Entry
	err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&e)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

// MarkSent marks an entry as delivered.
func (s *Store) MarkSent(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now()
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"status":       StatusSent,
			"completed_at": now,
			"updated_at":   now,
		},
	})
	return err
}

// Fail records a delivery failure. Entries with remaining attempts are
// rescheduled after retryDelay * attempts; exhausted entries are marked
// failed permanently.
func (s *Store) Fail(ctx context.Context, id primitive.ObjectID, errMsg string, retryDelay time.Duration) error {
	e, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	now := time.Now()

	if e.Attempts < e.MaxAttempts {
		_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
			"$set": bson.M{
				"status":       StatusPending,
				"error":        errMsg,
				"scheduled_at": now.Add(retryDelay * time.Duration(e.Attempts)),
				"started_at":   nil,
				"worker_id":    "",
				"updated_at":   now,
			},
		})
		return err
	}

	_, err = s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"status":       StatusFailed,
			"error":        errMsg,
			"completed_at": now,
			"updated_at":   now,
		},
	})
	return err
}

// GetByID retrieves an entry by ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*Entry, error) {
	var e Entry
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// CountByStatus returns the number of entries with the given status.
func (s *Store) CountByStatus(ctx context.Context, status string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"status": status})
}

// ListByRecipient returns all entries queued for one address, newest first.
func (s *Store) ListByRecipient(ctx context.Context, recipient string) ([]Entry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"recipient": recipient}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []Entry
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteCompletedBefore removes sent and permanently failed entries whose
// completion predates cutoff. Used by the retention cleanup job.
func (s *Store) DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{
		"status":       bson.M{"$in": []string{StatusSent, StatusFailed}},
		"completed_at": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
