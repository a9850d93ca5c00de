// internal/app/store/events/eventstore.go
package eventstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/openvolunteer/volunteerhub/internal/app/system/htmlsanitize"
	"github.com/openvolunteer/volunteerhub/internal/app/system/normalize"
	"github.com/openvolunteer/volunteerhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no event matches.
	ErrNotFound = errors.New("event not found")
	// ErrDuplicateName is returned when an event with this name already exists.
	ErrDuplicateName = errors.New("an event with this name already exists")
	// ErrBadWindow is returned when the event windows are out of order.
	ErrBadWindow = errors.New("event windows must satisfy registration_start <= registration_end <= event_start <= event_end")
	// ErrBadRating is returned for a star value outside 1..5.
	ErrBadRating = errors.New("rating must be between 1 and 5")
)

// Store provides event persistence.
type Store struct {
	c *mongo.Collection
}

// New creates a new event store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("events")}
}

// Create inserts a new event. The window ordering is validated up front;
// a missing geo location defaults to a Point at [0,0].
func (s *Store) Create(ctx context.Context, e models.Event) (models.Event, error) {
	if !e.ValidateWindow() {
		return models.Event{}, ErrBadWindow
	}

	e.ID = primitive.NewObjectID()
	e.Category = normalize.Category(e.Category)
	e.Description = htmlsanitize.Description(e.Description)

	if e.GeoLocation.Type == "" || len(e.GeoLocation.Coordinates) != 2 {
		e.GeoLocation = models.DefaultGeoPoint()
	}
	for i, r := range e.Reviews {
		e.Reviews[i] = htmlsanitize.Review(r)
	}

	now := time.Now()
	e.CreatedAt = now
	e.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, e); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Event{}, ErrDuplicateName
		}
		return models.Event{}, err
	}
	return e, nil
}

// GetByID loads an event by ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	var e models.Event
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// GetByName loads an event by exact name.
func (s *Store) GetByName(ctx context.Context, name string) (*models.Event, error) {
	var e models.Event
	if err := s.c.FindOne(ctx, bson.M{"name": name}).Decode(&e); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// ListFilter narrows the event listing. Zero values mean "no filter".
type ListFilter struct {
	Category string
	After    time.Time
	Before   time.Time
}

// List returns events matching the filter, soonest first.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.Event, error) {
	filter := bson.M{}
	if f.Category != "" {
		filter["category"] = normalize.Category(f.Category)
	}
	dateRange := bson.M{}
	if !f.After.IsZero() {
		dateRange["$gte"] = f.After
	}
	if !f.Before.IsZero() {
		dateRange["$lte"] = f.Before
	}
	if len(dateRange) > 0 {
		filter["date"] = dateRange
	}

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var events []models.Event
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Delete removes an event. Volunteer subscriptions referencing the event
// are left untouched; they resolve to a missing event on read.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddFeedback records a star rating and an optional review with a single
// update: the histogram slot for the star is incremented, and the review is
// appended when non-empty. Concurrent feedback never loses a rating.
func (s *Store) AddFeedback(ctx context.Context, id primitive.ObjectID, stars int, review string) error {
	if stars < 1 || stars > 5 {
		return ErrBadRating
	}

	update := bson.M{
		"$inc": bson.M{fmt.Sprintf("ratings.%d", stars-1): 1},
		"$set": bson.M{"updated_at": time.Now()},
	}
	if clean := htmlsanitize.Review(review); clean != "" {
		update["$push"] = bson.M{"reviews": clean}
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddReview appends a review without a rating.
func (s *Store) AddReview(ctx context.Context, id primitive.ObjectID, review string) error {
	clean := htmlsanitize.Review(review)
	if clean == "" {
		return errors.New("review must not be empty")
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$push": bson.M{"reviews": clean},
		"$set":  bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// GetManyByIDs loads the events whose IDs appear in ids, soonest first.
// IDs with no matching event are silently dropped.
func (s *Store) GetManyByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Event, error) {
	if len(ids) == 0 {
		return []models.Event{}, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var events []models.Event
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// CountAll returns the total number of events.
func (s *Store) CountAll(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}

// CountUpcoming counts events whose date is at or after now.
func (s *Store) CountUpcoming(ctx context.Context, now time.Time) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"date": bson.M{"$gte": now}})
}

// CategoryCount is one row of the per-category event aggregation.
type CategoryCount struct {
	Category string `bson:"_id" json:"category"`
	Count    int64  `bson:"count" json:"count"`
}

// CountByCategory aggregates events per category, descending by count.
func (s *Store) CountByCategory(ctx context.Context) ([]CategoryCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   "$category",
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []CategoryCount
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
