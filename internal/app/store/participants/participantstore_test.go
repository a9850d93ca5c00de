package participantstore

import (
	"errors"
	"testing"

	"github.com/openvolunteer/volunteerhub/internal/domain/models"
	"github.com/openvolunteer/volunteerhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Participant{
		Name:  " Pat Attendee ",
		Email: "Pat@Example.COM",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if created.ID.IsZero() {
		t.Error("Create() did not assign ID")
	}
	if created.Email != "pat@example.com" {
		t.Errorf("Create() Email = %q, want %q", created.Email, "pat@example.com")
	}
	if created.ParticipatedEvents == nil {
		t.Error("Create() left ParticipatedEvents nil")
	}
}

func TestStore_Create_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.Participant{Name: "One", Email: "dup@example.com"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	_, err := store.Create(ctx, models.Participant{Name: "Two", Email: "dup@example.com"})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("Create() error = %v, want ErrDuplicateEmail", err)
	}
}

func TestStore_Create_InvalidStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Create(ctx, models.Participant{
		Name:  "Bad",
		Email: "bad@example.com",
		ParticipatedEvents: []models.Participation{
			{EventID: primitive.NewObjectID(), Status: "lurking"},
		},
	})
	if err == nil {
		t.Error("Create() with invalid participation status should return error")
	}
}

func TestStore_UpsertParticipation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	eventID := primitive.NewObjectID()

	// First call inserts the participant with a default registered status.
	if err := store.UpsertParticipation(ctx, "fresh@example.com", "Fresh Face", eventID, ""); err != nil {
		t.Fatalf("UpsertParticipation() error = %v", err)
	}

	got, err := store.GetByEmail(ctx, "fresh@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if len(got.ParticipatedEvents) != 1 {
		t.Fatalf("ParticipatedEvents length = %d, want 1", len(got.ParticipatedEvents))
	}
	if got.ParticipatedEvents[0].Status != models.ParticipationRegistered {
		t.Errorf("Status = %q, want %q", got.ParticipatedEvents[0].Status, models.ParticipationRegistered)
	}

	// Same event again overwrites the status instead of appending.
	if err := store.UpsertParticipation(ctx, "fresh@example.com", "Fresh Face", eventID, models.ParticipationAttended); err != nil {
		t.Fatalf("UpsertParticipation() repeat error = %v", err)
	}
	got, err = store.GetByEmail(ctx, "fresh@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if len(got.ParticipatedEvents) != 1 {
		t.Errorf("ParticipatedEvents length = %d, want still 1", len(got.ParticipatedEvents))
	}
	if got.ParticipatedEvents[0].Status != models.ParticipationAttended {
		t.Errorf("Status = %q, want %q", got.ParticipatedEvents[0].Status, models.ParticipationAttended)
	}

	// A different event appends a second participation.
	if err := store.UpsertParticipation(ctx, "fresh@example.com", "Fresh Face", primitive.NewObjectID(), ""); err != nil {
		t.Fatalf("UpsertParticipation() second event error = %v", err)
	}
	got, err = store.GetByEmail(ctx, "fresh@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if len(got.ParticipatedEvents) != 2 {
		t.Errorf("ParticipatedEvents length = %d, want 2", len(got.ParticipatedEvents))
	}
}

func TestStore_UpsertParticipation_StatusNormalized(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	eventID := primitive.NewObjectID()
	if err := store.UpsertParticipation(ctx, "loud@example.com", "Loud", eventID, "  Attended "); err != nil {
		t.Fatalf("UpsertParticipation() error = %v", err)
	}

	got, err := store.GetByEmail(ctx, "loud@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if got.ParticipatedEvents[0].Status != models.ParticipationAttended {
		t.Errorf("Status = %q, want %q", got.ParticipatedEvents[0].Status, models.ParticipationAttended)
	}
}

func TestStore_Create_StatusNormalized(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Participant{
		Name:  "Mixed Case",
		Email: "mixed@example.com",
		ParticipatedEvents: []models.Participation{
			{EventID: primitive.NewObjectID(), Status: "COMPLETED"},
		},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ParticipatedEvents[0].Status != models.ParticipationCompleted {
		t.Errorf("Status = %q, want %q", created.ParticipatedEvents[0].Status, models.ParticipationCompleted)
	}
}

func TestStore_UpsertParticipation_InvalidStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := store.UpsertParticipation(ctx, "x@example.com", "X", primitive.NewObjectID(), "lurking")
	if err == nil {
		t.Error("UpsertParticipation() with invalid status should return error")
	}
}

func TestStore_ParticipatedEventIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	eventA := primitive.NewObjectID()
	eventB := primitive.NewObjectID()

	created, err := store.Create(ctx, models.Participant{
		Name:  "Joiner",
		Email: "joiner@example.com",
		ParticipatedEvents: []models.Participation{
			{EventID: eventA, Status: models.ParticipationRegistered},
			{EventID: eventB, Status: models.ParticipationCompleted},
		},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	ids, err := store.ParticipatedEventIDs(ctx, created.ID)
	if err != nil {
		t.Fatalf("ParticipatedEventIDs() error = %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("ParticipatedEventIDs() length = %d, want 2", len(ids))
	}
}

func TestStore_CountForEvent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	eventID := primitive.NewObjectID()
	for _, email := range []string{"a@example.com", "b@example.com"} {
		if err := store.UpsertParticipation(ctx, email, email, eventID, ""); err != nil {
			t.Fatalf("UpsertParticipation() error = %v", err)
		}
	}
	if err := store.UpsertParticipation(ctx, "c@example.com", "c", primitive.NewObjectID(), ""); err != nil {
		t.Fatalf("UpsertParticipation() error = %v", err)
	}

	n, err := store.CountForEvent(ctx, eventID)
	if err != nil {
		t.Fatalf("CountForEvent() error = %v", err)
	}
	if n != 2 {
		t.Errorf("CountForEvent() = %d, want 2", n)
	}
}
