// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
Errors are aggregated so every problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureUsers(ctx, db); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensureEvents(ctx, db); err != nil {
		problems = append(problems, "events: "+err.Error())
	}
	if err := ensureParticipants(ctx, db); err != nil {
		problems = append(problems, "participants: "+err.Error())
	}
	if err := ensureOutbox(ctx, db); err != nil {
		problems = append(problems, "outbox: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	av := a != nil && *a
	bv := b != nil && *b
	return av == bv
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		var desiredName string
		var desiredUnique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			if m.Options.Unique != nil {
				desiredUnique = m.Options.Unique
			}
		}
		desiredSig := keySig(m.Keys.(bson.D))

		start := time.Now()

		// Load existing indexes for this collection.
		existing := map[string]existingIndex{} // sig -> index
		cur, err := coll.Indexes().List(ctx)
		if err == nil {
			for cur.Next(ctx) {
				var idx existingIndex
				if err := cur.Decode(&idx); err != nil {
					zap.L().Warn("failed to decode existing index",
						zap.String("collection", coll.Name()),
						zap.Error(err))
					continue
				}
				existing[keySig(idx.Key)] = idx
			}
			cur.Close(ctx)
		}

		if ex, ok := existing[desiredSig]; ok {
			if sameBoolPtr(desiredUnique, ex.Unique) {
				continue
			}

			// Options mismatch (e.g. upgrading to unique). Drop and recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), desiredName, err))
				continue
			}
			if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
				if mongo.IsDuplicateKeyError(err) && desiredUnique != nil && *desiredUnique {
					errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), desiredName))
				} else {
					errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
				}
				continue
			}
			zap.L().Info("index dropped and recreated",
				zap.String("collection", coll.Name()),
				zap.String("name", desiredName),
				zap.String("keys", desiredSig),
				zap.String("took", time.Since(start).String()))
			continue
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			zap.L().Warn("index ensure failed",
				zap.String("collection", coll.Name()),
				zap.String("name", desiredName),
				zap.String("keys", desiredSig),
				zap.Error(err))
			errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
			continue
		}

		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", desiredSig),
			zap.Bool("unique", desiredUnique != nil && *desiredUnique),
			zap.String("took", time.Since(start).String()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                             */
/* -------------------------------------------------------------------------- */

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("users")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// One account per email.
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_email"),
		},

		// Leaderboard: top volunteers by points.
		{
			Keys:    bson.D{{Key: "curr_points", Value: -1}},
			Options: options.Index().SetName("idx_users_currpoints_desc"),
		},

		// New-event fanout by interest category.
		{
			Keys:    bson.D{{Key: "interested_categories", Value: 1}},
			Options: options.Index().SetName("idx_users_interested_categories"),
		},

		// Registered-volunteer lookups per event.
		{
			Keys:    bson.D{{Key: "events_subscribed.event_id", Value: 1}},
			Options: options.Index().SetName("idx_users_subscribed_event"),
		},
	})
}

func ensureEvents(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("events")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Report lookups resolve events by name.
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_events_name"),
		},

		// Listing filters: category narrowed by date.
		{
			Keys: bson.D{
				{Key: "category", Value: 1},
				{Key: "date", Value: 1},
			},
			Options: options.Index().SetName("idx_events_category_date"),
		},

		// Upcoming-event counts and date-sorted listings.
		{
			Keys:    bson.D{{Key: "date", Value: 1}},
			Options: options.Index().SetName("idx_events_date"),
		},

		// Map queries over event locations.
		{
			Keys:    bson.D{{Key: "geo_location", Value: "2dsphere"}},
			Options: options.Index().SetName("idx_events_geo"),
		},
	})
}

func ensureParticipants(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("participants")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// One participant record per email.
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_participants_email"),
		},

		// Participant counts per event.
		{
			Keys:    bson.D{{Key: "participated_events.event_id", Value: 1}},
			Options: options.Index().SetName("idx_participants_event"),
		},
	})
}

func ensureOutbox(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("outbox")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Worker claim path: oldest eligible pending entry.
		{
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "scheduled_at", Value: 1},
			},
			Options: options.Index().SetName("idx_outbox_status_scheduled"),
		},

		// Per-recipient history.
		{
			Keys: bson.D{
				{Key: "recipient", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_outbox_recipient_created"),
		},

		// Retention cleanup of delivered entries.
		{
			Keys:    bson.D{{Key: "completed_at", Value: 1}},
			Options: options.Index().SetSparse(true).SetName("idx_outbox_completed"),
		},
	})
}
