// internal/app/store/users/userstore.go
package userstore

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
	// ErrDuplicateEmail is returned when a volunteer with this email already exists.
	ErrDuplicateEmail = errors.New("a volunteer with this email already exists")
	// ErrAlreadySubscribed is returned when the volunteer already holds a
	// subscription for the event.
	ErrAlreadySubscribed = errors.New("volunteer is already registered for this event")
	// ErrNotFound is returned when no volunteer matches.
	ErrNotFound = errors.New("volunteer not found")
	// ErrTaskNotFound is returned when no assigned task matches the
	// volunteer, event, and task name.
	ErrTaskNotFound = errors.New("task not found for this volunteer and event")
	// ErrBadWeekday is returned for an availability entry that is not a
	// weekday name.
	ErrBadWeekday = errors.New(`availability entries must be weekday names ("monday".."sunday")`)
	// ErrBadRank is returned for a rank outside the five-tier ladder.
	ErrBadRank = errors.New("invalid rank")
)

// Store provides volunteer persistence.
type Store struct {
	c *mongo.Collection
}

// New creates a new volunteer store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// Create inserts a new volunteer after normalizing and validating fields.
// New volunteers start at the first rank tier.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Name = normalize.Name(u.Name)
	u.Email = normalize.Email(u.Email)

	for i, c := range u.InterestedCategories {
		u.InterestedCategories[i] = normalize.Category(c)
	}
	for i, d := range u.Availability {
		day := normalize.Weekday(d)
		if !models.IsValidWeekday(day) {
			return models.User{}, ErrBadWeekday
		}
		u.Availability[i] = day
	}

	if u.Rank == "" {
		u.Rank, u.NextRank, u.PointsForNextRank = models.FirstRank()
	} else if !models.IsValidRank(u.Rank) {
		return models.User{}, ErrBadRank
	}

	if u.EventsSubscribed == nil {
		u.EventsSubscribed = []models.EventSubscription{}
	}

	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// GetByID loads a volunteer by ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a volunteer by normalized email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// List returns all volunteers sorted by name.
func (s *Store) List(ctx context.Context) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ProfileUpdate holds the fields a volunteer may overwrite. Anything else
// in an update request is deliberately ignored.
type ProfileUpdate struct {
	Name                 string
	Email                string
	InterestedCategories []string
}

// UpdateProfile applies a partial profile overwrite.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) error {
	set := bson.M{"updated_at": time.Now()}
	if upd.Name != "" {
		set["name"] = normalize.Name(upd.Name)
	}
	if upd.Email != "" {
		set["email"] = normalize.Email(upd.Email)
	}
	if upd.InterestedCategories != nil {
		cats := make([]string, len(upd.InterestedCategories))
		for i, c := range upd.InterestedCategories {
			cats[i] = normalize.Category(c)
		}
		set["interested_categories"] = cats
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Subscribe registers the volunteer for an event with a single conditional
// update, so two concurrent registrations for the same pair cannot both
// append an entry.
func (s *Store) Subscribe(ctx context.Context, userID, eventID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{
			"_id":                        userID,
			"events_subscribed.event_id": bson.M{"$ne": eventID},
		},
		bson.M{
			"$push": bson.M{"events_subscribed": models.EventSubscription{
				EventID:       eventID,
				AssignedTasks: []models.AssignedTask{},
			}},
			"$set": bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// Either the volunteer does not exist or they already hold a
		// subscription. Distinguish for the caller.
		if _, err := s.GetByID(ctx, userID); err != nil {
			return err
		}
		return ErrAlreadySubscribed
	}
	return nil
}

// AssignTask pushes a task onto the volunteer's subscription for the event,
// creating the subscription when it is missing. EventsVolunteered is bumped
// to 1 only when it is currently exactly 0; it is not a general counter.
func (s *Store) AssignTask(ctx context.Context, userID, eventID primitive.ObjectID, task models.AssignedTask) error {
	if task.Status == "" {
		task.Status = models.TaskPending
	}
	now := time.Now()

	// Push onto an existing subscription entry first.
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": userID, "events_subscribed.event_id": eventID},
		bson.M{
			"$push": bson.M{"events_subscribed.$.assigned_tasks": task},
			"$set":  bson.M{"updated_at": now},
		},
	)
	if err != nil {
		return err
	}

	if res.MatchedCount == 0 {
		// No subscription yet: create one carrying the task, guarded the
		// same way Subscribe is.
		res, err = s.c.UpdateOne(ctx,
			bson.M{
				"_id":                        userID,
				"events_subscribed.event_id": bson.M{"$ne": eventID},
			},
			bson.M{
				"$push": bson.M{"events_subscribed": models.EventSubscription{
					EventID:       eventID,
					AssignedTasks: []models.AssignedTask{task},
				}},
				"$set": bson.M{"updated_at": now},
			},
		)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			// A concurrent Subscribe can land between the two updates and
			// make both miss. Retry the push against the entry it created
			// before concluding the volunteer does not exist.
			res, err = s.c.UpdateOne(ctx,
				bson.M{"_id": userID, "events_subscribed.event_id": eventID},
				bson.M{
					"$push": bson.M{"events_subscribed.$.assigned_tasks": task},
					"$set":  bson.M{"updated_at": now},
				},
			)
			if err != nil {
				return err
			}
			if res.MatchedCount == 0 {
				return ErrNotFound
			}
		}
	}

	// First-time bump only: 0 -> 1, never beyond.
	_, err = s.c.UpdateOne(ctx,
		bson.M{"_id": userID, "events_volunteered": 0},
		bson.M{"$inc": bson.M{"events_volunteered": 1}},
	)
	return err
}

// UpdateTaskStatus sets the status of one named task within the volunteer's
// subscription for the event.
func (s *Store) UpdateTaskStatus(ctx context.Context, userID, eventID primitive.ObjectID, taskName, status string) error {
	if !models.IsValidTaskStatus(status) {
		return errors.New(`status must be "pending" or "completed"`)
	}

	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{
			bson.M{"ev.event_id": eventID},
			bson.M{"tk.name": taskName},
		},
	})
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{
			"events_subscribed.$[ev].assigned_tasks.$[tk].status": status,
			"updated_at": time.Now(),
		}},
		opts,
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	if res.ModifiedCount == 0 {
		// Matched the volunteer but no array element satisfied the
		// filters, or the task already held this status. Re-read to
		// tell the two apart.
		u, err := s.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		sub := u.Subscription(eventID)
		if sub == nil {
			return ErrTaskNotFound
		}
		for _, t := range sub.AssignedTasks {
			if t.Name == taskName {
				return nil
			}
		}
		return ErrTaskNotFound
	}
	return nil
}

// LeaderboardEntry is one row of the points leaderboard.
type LeaderboardEntry struct {
	Position int    `json:"position"`
	Name     string `json:"name"`
	Score    int64  `json:"score"`
	Rank     string `json:"rank"`
}

// Leaderboard returns the top limit volunteers by current points, descending.
func (s *Store) Leaderboard(ctx context.Context, limit int64) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "curr_points", Value: -1}}).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, len(users))
	for i, u := range users {
		entries[i] = LeaderboardEntry{
			Position: i + 1,
			Name:     u.Name,
			Score:    u.CurrPoints,
			Rank:     u.Rank,
		}
	}
	return entries, nil
}

// FindByInterest returns volunteers whose interested categories include the
// (normalized) category. Used to fan out new-event notifications.
func (s *Store) FindByInterest(ctx context.Context, category string) ([]models.User, error) {
	cur, err := s.c.Find(ctx, bson.M{"interested_categories": normalize.Category(category)})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// SubscribedToEvent returns all volunteers registered for the event.
func (s *Store) SubscribedToEvent(ctx context.Context, eventID primitive.ObjectID) ([]models.User, error) {
	cur, err := s.c.Find(ctx, bson.M{"events_subscribed.event_id": eventID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// CountSubscribedToEvent counts volunteers registered for the event.
func (s *Store) CountSubscribedToEvent(ctx context.Context, eventID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"events_subscribed.event_id": eventID})
}

// OverdueTaskUsers returns volunteers holding at least one pending task whose
// deadline is before now. Used by the daily reminder sweep.
func (s *Store) OverdueTaskUsers(ctx context.Context, now time.Time) ([]models.User, error) {
	filter := bson.M{
		"events_subscribed.assigned_tasks": bson.M{
			"$elemMatch": bson.M{
				"status":   models.TaskPending,
				"deadline": bson.M{"$ne": nil, "$lt": now},
			},
		},
	}
	cur, err := s.c.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// AddPoints increments the volunteer's points and advances their rank when
// the new total crosses the promotion threshold. The increment itself is
// atomic; if two promotions race, the rank settles on the next call.
func (s *Store) AddPoints(ctx context.Context, id primitive.ObjectID, points int64) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{"curr_points": points},
			"$set": bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}

	u, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	for u.NextRank != "" && u.PointsForNextRank > 0 && u.CurrPoints >= u.PointsForNextRank {
		newRank := u.NextRank
		next, nextThreshold := models.NextRankOf(newRank)
		_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
			"rank":                 newRank,
			"next_rank":            next,
			"points_for_next_rank": nextThreshold,
			"updated_at":           time.Now(),
		}})
		if err != nil {
			return err
		}
		u.Rank = newRank
		u.NextRank = next
		u.PointsForNextRank = nextThreshold
	}
	return nil
}

// UpsertSubscription registers a volunteer for an event by email, creating
// the volunteer document when it does not exist. Used by the combined
// participation endpoint.
func (s *Store) UpsertSubscription(ctx context.Context, email, name string, eventID primitive.ObjectID) error {
	now := time.Now()
	rank, next, threshold := models.FirstRank()
	_, err := s.c.UpdateOne(ctx,
		bson.M{
			"email":                      normalize.Email(email),
			"events_subscribed.event_id": bson.M{"$ne": eventID},
		},
		bson.M{
			"$push": bson.M{"events_subscribed": models.EventSubscription{
				EventID:       eventID,
				AssignedTasks: []models.AssignedTask{},
			}},
			"$set": bson.M{"updated_at": now},
			"$setOnInsert": bson.M{
				"name":                 normalize.Name(name),
				"rank":                 rank,
				"next_rank":            next,
				"points_for_next_rank": threshold,
				"created_at":           now,
			},
		},
		options.Update().SetUpsert(true),
	)
	if wafflemongo.IsDup(err) {
		// The volunteer exists and is already subscribed: the guard
		// excluded them, so the upsert tried to insert a duplicate email.
		return ErrAlreadySubscribed
	}
	return err
}

// RecordHeatmapActivity appends one daily activity sample.
func (s *Store) RecordHeatmapActivity(ctx context.Context, id primitive.ObjectID, day time.Time, count int64) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$push": bson.M{"heatmap_activity": models.HeatmapSample{Date: day, Count: count}},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CountAll returns the total number of volunteers.
func (s *Store) CountAll(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}

// CountCreatedSince counts volunteers created at or after t.
func (s *Store) CountCreatedSince(ctx context.Context, t time.Time) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"created_at": bson.M{"$gte": t}})
}

// CategoryInterest is one row of the category interest aggregation.
type CategoryInterest struct {
	Category string `bson:"_id" json:"category"`
	Count    int64  `bson:"count" json:"count"`
}

// CategoryInterests aggregates how many volunteers list each category as an
// interest, descending by count.
func (s *Store) CategoryInterests(ctx context.Context) ([]CategoryInterest, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$unwind", Value: "$interested_categories"}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$interested_categories",
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []CategoryInterest
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
