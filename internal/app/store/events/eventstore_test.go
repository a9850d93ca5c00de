package eventstore

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/openvolunteer/volunteerhub/internal/domain/models"
	"github.com/openvolunteer/volunteerhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// validEvent returns an event with a well-ordered window, offset so
// multiple calls produce distinct names.
func validEvent(name string) models.Event {
	base := time.Now().Add(24 * time.Hour)
	return models.Event{
		Name:              name,
		Category:          "Environment",
		Description:       "Beach cleanup day",
		Location:          "Shoreline Park",
		Date:              base.Add(72 * time.Hour),
		RegistrationStart: base,
		RegistrationEnd:   base.Add(48 * time.Hour),
		EventStart:        base.Add(72 * time.Hour),
		EventEnd:          base.Add(80 * time.Hour),
	}
}

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, validEvent("Beach Cleanup"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if created.ID.IsZero() {
		t.Error("Create() did not assign ID")
	}
	if created.Category != "environment" {
		t.Errorf("Create() Category = %q, want %q", created.Category, "environment")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("Create() did not set timestamps")
	}
}

func TestStore_Create_DefaultGeoPoint(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, validEvent("No Location"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if created.GeoLocation.Type != "Point" {
		t.Errorf("GeoLocation.Type = %q, want %q", created.GeoLocation.Type, "Point")
	}
	if len(created.GeoLocation.Coordinates) != 2 ||
		created.GeoLocation.Coordinates[0] != 0 || created.GeoLocation.Coordinates[1] != 0 {
		t.Errorf("GeoLocation.Coordinates = %v, want [0 0]", created.GeoLocation.Coordinates)
	}

	// An explicit location is kept as given.
	withGeo := validEvent("With Location")
	withGeo.GeoLocation = models.GeoPoint{Type: "Point", Coordinates: []float64{-92.33, 38.95}}
	created, err = store.Create(ctx, withGeo)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.GeoLocation.Coordinates[0] != -92.33 {
		t.Errorf("GeoLocation.Coordinates = %v, want the supplied point", created.GeoLocation.Coordinates)
	}
}

func TestStore_Create_BadWindow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e := validEvent("Backwards")
	e.RegistrationEnd = e.RegistrationStart.Add(-time.Hour)

	_, err := store.Create(ctx, e)
	if !errors.Is(err, ErrBadWindow) {
		t.Errorf("Create() error = %v, want ErrBadWindow", err)
	}
}

func TestStore_Create_DuplicateName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, validEvent("Twice")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	_, err := store.Create(ctx, validEvent("Twice"))
	if !errors.Is(err, ErrDuplicateName) {
		t.Errorf("Create() error = %v, want ErrDuplicateName", err)
	}
}

func TestStore_Create_SanitizesDescription(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e := validEvent("Scripted")
	e.Description = `<script>alert("x")</script>Tree planting`

	created, err := store.Create(ctx, e)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.Description != "Tree planting" {
		t.Errorf("Description = %q, want scripts stripped", created.Description)
	}
}

func TestStore_AddFeedback(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, validEvent("Rated"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := store.AddFeedback(ctx, created.ID, 5, "Loved it"); err != nil {
		t.Fatalf("AddFeedback() error = %v", err)
	}
	if err := store.AddFeedback(ctx, created.ID, 5, ""); err != nil {
		t.Fatalf("AddFeedback() error = %v", err)
	}
	if err := store.AddFeedback(ctx, created.ID, 2, ""); err != nil {
		t.Fatalf("AddFeedback() error = %v", err)
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Ratings[4] != 2 {
		t.Errorf("Ratings[4] = %d, want 2", got.Ratings[4])
	}
	if got.Ratings[1] != 1 {
		t.Errorf("Ratings[1] = %d, want 1", got.Ratings[1])
	}
	if got.RatingCount() != 3 {
		t.Errorf("RatingCount() = %d, want 3", got.RatingCount())
	}
	if len(got.Reviews) != 1 || got.Reviews[0] != "Loved it" {
		t.Errorf("Reviews = %v, want only the non-empty review", got.Reviews)
	}
}

func TestStore_AddFeedback_BadRating(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, validEvent("Strict"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	for _, stars := range []int{0, 6, -1} {
		if err := store.AddFeedback(ctx, created.ID, stars, ""); !errors.Is(err, ErrBadRating) {
			t.Errorf("AddFeedback(%d) error = %v, want ErrBadRating", stars, err)
		}
	}
}

func TestStore_List_Filters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for i, cat := range []string{"environment", "education", "environment"} {
		e := validEvent(fmt.Sprintf("Event %d", i))
		e.Category = cat
		e.Date = time.Now().Add(time.Duration(i+1) * 24 * time.Hour)
		if _, err := store.Create(ctx, e); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	got, err := store.List(ctx, ListFilter{Category: "environment"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("List(category) length = %d, want 2", len(got))
	}

	got, err = store.List(ctx, ListFilter{After: time.Now().Add(36 * time.Hour)})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("List(after) length = %d, want 2", len(got))
	}
	if len(got) == 2 && got[0].Date.After(got[1].Date) {
		t.Error("List() not sorted by date ascending")
	}
}

func TestStore_Delete_LeavesSubscriptionsAlone(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, validEvent("Doomed"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// A volunteer document referencing the event, written directly so this
	// test exercises only the event store.
	users := db.Collection("users")
	userID := primitive.NewObjectID()
	if _, err := users.InsertOne(ctx, models.User{
		ID:    userID,
		Name:  "Holdout",
		Email: "holdout@example.com",
		EventsSubscribed: []models.EventSubscription{
			{EventID: created.ID, AssignedTasks: []models.AssignedTask{}},
		},
	}); err != nil {
		t.Fatalf("InsertOne(user) error = %v", err)
	}

	if err := store.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.GetByID(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}

	// The subscription entry survives; it dangles by design.
	var u models.User
	if err := users.FindOne(ctx, bson.M{"_id": userID}).Decode(&u); err != nil {
		t.Fatalf("FindOne(user) error = %v", err)
	}
	if len(u.EventsSubscribed) != 1 || u.EventsSubscribed[0].EventID != created.ID {
		t.Errorf("subscription after event delete = %+v, want untouched", u.EventsSubscribed)
	}
}

func TestStore_GetManyByIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, err := store.Create(ctx, validEvent("A"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	b, err := store.Create(ctx, validEvent("B"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := store.GetManyByIDs(ctx, []primitive.ObjectID{a.ID, b.ID, primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("GetManyByIDs() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("GetManyByIDs() length = %d, want 2 (unknown ID dropped)", len(got))
	}

	got, err = store.GetManyByIDs(ctx, nil)
	if err != nil {
		t.Fatalf("GetManyByIDs(nil) error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("GetManyByIDs(nil) length = %d, want 0", len(got))
	}
}

func TestStore_CountByCategory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for i, cat := range []string{"health", "health", "education"} {
		e := validEvent(fmt.Sprintf("Counted %d", i))
		e.Category = cat
		if _, err := store.Create(ctx, e); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	got, err := store.CountByCategory(ctx)
	if err != nil {
		t.Fatalf("CountByCategory() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("CountByCategory() length = %d, want 2", len(got))
	}
	if got[0].Category != "health" || got[0].Count != 2 {
		t.Errorf("top category = %+v, want health with count 2", got[0])
	}
}
