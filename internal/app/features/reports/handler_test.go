package reports

import (
	"net/http"
	"testing"
	"time"

	eventstore "github.com/openvolunteer/volunteerhub/internal/app/store/events"
	participantstore "github.com/openvolunteer/volunteerhub/internal/app/store/participants"
	userstore "github.com/openvolunteer/volunteerhub/internal/app/store/users"
	"github.com/openvolunteer/volunteerhub/internal/domain/models"
	"github.com/openvolunteer/volunteerhub/internal/testutil"
	"go.uber.org/zap"
)

type env struct {
	users        *userstore.Store
	events       *eventstore.Store
	participants *participantstore.Store
	router       http.Handler
}

// setup builds the report surface. apiKey gates the whole router when
// non-empty.
func setup(t *testing.T, apiKey string) *env {
	t.Helper()
	db := testutil.SetupTestDB(t)

	users := userstore.New(db)
	events := eventstore.New(db)
	participants := participantstore.New(db)
	h := NewHandler(events, users, participants, zap.NewNop())
	return &env{
		users:        users,
		events:       events,
		participants: participants,
		router:       Routes(h, apiKey, zap.NewNop()),
	}
}

func (e *env) createEvent(t *testing.T, name, category string) models.Event {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	base := time.Now().Add(24 * time.Hour)
	ev, err := e.events.Create(ctx, models.Event{
		Name:              name,
		Category:          category,
		Location:          "town hall",
		Date:              base.Add(72 * time.Hour),
		RegistrationStart: base,
		RegistrationEnd:   base.Add(48 * time.Hour),
		EventStart:        base.Add(72 * time.Hour),
		EventEnd:          base.Add(80 * time.Hour),
	})
	if err != nil {
		t.Fatalf("Create(event) error = %v", err)
	}
	return ev
}

func TestAPIKeyGate(t *testing.T) {
	e := setup(t, "s3cret")

	// No header.
	rec := testutil.NewRecorder()
	e.router.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/dashboard"))
	rec.AssertStatus(t, http.StatusUnauthorized)

	// Wrong key.
	req := testutil.NewRequest(http.MethodGet, "/dashboard")
	req.Header.Set("Authorization", "Bearer wrong")
	rec = testutil.NewRecorder()
	e.router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusUnauthorized)

	// Correct key.
	req = testutil.NewRequest(http.MethodGet, "/dashboard")
	req.Header.Set("Authorization", "Bearer s3cret")
	rec = testutil.NewRecorder()
	e.router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusOK)
}

func TestAPIKeyGate_DisabledWhenUnconfigured(t *testing.T) {
	e := setup(t, "")

	rec := testutil.NewRecorder()
	e.router.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/dashboard"))
	rec.AssertStatus(t, http.StatusOK)
}

func TestEventsHandler_Counts(t *testing.T) {
	e := setup(t, "")
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ev := e.createEvent(t, "Coastal Cleanup", "environment")

	u, err := e.users.Create(ctx, models.User{Name: "Helper", Email: "helper@example.com"})
	if err != nil {
		t.Fatalf("Create(user) error = %v", err)
	}
	if err := e.users.Subscribe(ctx, u.ID, ev.ID); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if err := e.participants.UpsertParticipation(ctx, "guest@example.com", "Guest", ev.ID, ""); err != nil {
		t.Fatalf("UpsertParticipation() error = %v", err)
	}
	if err := e.events.AddFeedback(ctx, ev.ID, 4, "solid"); err != nil {
		t.Fatalf("AddFeedback() error = %v", err)
	}

	rec := testutil.NewRecorder()
	e.router.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/events"))
	rec.AssertStatus(t, http.StatusOK)

	var rows []eventRow
	rec.DecodeJSON(t, &rows)
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0].VolunteerCount != 1 {
		t.Errorf("VolunteerCount = %d, want 1", rows[0].VolunteerCount)
	}
	if rows[0].ParticipantCount != 1 {
		t.Errorf("ParticipantCount = %d, want 1", rows[0].ParticipantCount)
	}
	if rows[0].AverageRating != 4.0 {
		t.Errorf("AverageRating = %v, want 4.0", rows[0].AverageRating)
	}
}

func TestCategoriesHandler_MergesBothSides(t *testing.T) {
	e := setup(t, "")
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e.createEvent(t, "Tree Planting", "environment")
	e.createEvent(t, "River Cleanup", "environment")
	e.createEvent(t, "Tutoring Night", "education")

	// health has interested volunteers but no events.
	_, err := e.users.Create(ctx, models.User{
		Name:                 "Curious",
		Email:                "curious@example.com",
		InterestedCategories: []string{"environment", "health"},
	})
	if err != nil {
		t.Fatalf("Create(user) error = %v", err)
	}

	rec := testutil.NewRecorder()
	e.router.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/categories"))
	rec.AssertStatus(t, http.StatusOK)

	var rows []categoryRow
	rec.DecodeJSON(t, &rows)
	byCat := map[string]categoryRow{}
	for _, row := range rows {
		byCat[row.Category] = row
	}
	if len(byCat) != 3 {
		t.Fatalf("categories = %d, want environment, education and health", len(byCat))
	}
	if got := byCat["environment"]; got.EventCount != 2 || got.InterestedCount != 1 {
		t.Errorf("environment = %+v, want 2 events and 1 interested", got)
	}
	if got := byCat["education"]; got.EventCount != 1 || got.InterestedCount != 0 {
		t.Errorf("education = %+v, want 1 event and 0 interested", got)
	}
	if got := byCat["health"]; got.EventCount != 0 || got.InterestedCount != 1 {
		t.Errorf("health = %+v, want 0 events and 1 interested", got)
	}

	// Sorted by event count descending.
	if rows[0].Category != "environment" {
		t.Errorf("rows[0] = %q, want environment first", rows[0].Category)
	}
}

func TestDashboardHandler(t *testing.T) {
	e := setup(t, "")
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e.createEvent(t, "Upcoming Fair", "community")

	if _, err := e.users.Create(ctx, models.User{Name: "V", Email: "v@example.com"}); err != nil {
		t.Fatalf("Create(user) error = %v", err)
	}
	if _, err := e.participants.Create(ctx, models.Participant{Name: "P", Email: "p@example.com"}); err != nil {
		t.Fatalf("Create(participant) error = %v", err)
	}

	rec := testutil.NewRecorder()
	e.router.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/dashboard"))
	rec.AssertStatus(t, http.StatusOK)

	var got dashboardResponse
	rec.DecodeJSON(t, &got)
	if got.TotalEvents != 1 || got.UpcomingEvents != 1 {
		t.Errorf("events = %d/%d upcoming, want 1/1", got.TotalEvents, got.UpcomingEvents)
	}
	if got.TotalVolunteers != 1 || got.TotalParticipants != 1 {
		t.Errorf("actors = %d volunteers, %d participants, want 1 each", got.TotalVolunteers, got.TotalParticipants)
	}
}

func TestActivitiesHandler_NewestFirst(t *testing.T) {
	e := setup(t, "")
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := e.users.Create(ctx, models.User{Name: "Active", Email: "active@example.com"})
	if err != nil {
		t.Fatalf("Create(user) error = %v", err)
	}
	old := time.Now().Add(-48 * time.Hour).Truncate(time.Second)
	recent := time.Now().Add(-1 * time.Hour).Truncate(time.Second)
	if err := e.users.RecordHeatmapActivity(ctx, u.ID, old, 2); err != nil {
		t.Fatalf("RecordHeatmapActivity(old) error = %v", err)
	}
	if err := e.users.RecordHeatmapActivity(ctx, u.ID, recent, 5); err != nil {
		t.Fatalf("RecordHeatmapActivity(recent) error = %v", err)
	}

	rec := testutil.NewRecorder()
	e.router.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/activities"))
	rec.AssertStatus(t, http.StatusOK)

	var rows []activityRow
	rec.DecodeJSON(t, &rows)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].Count != 5 {
		t.Errorf("rows[0].Count = %d, want the most recent sample first", rows[0].Count)
	}
}

func TestVolunteerOverviewHandler(t *testing.T) {
	e := setup(t, "")
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := e.users.Create(ctx, models.User{
		Name:                 "Fresh",
		Email:                "fresh@example.com",
		InterestedCategories: []string{"health"},
	})
	if err != nil {
		t.Fatalf("Create(user) error = %v", err)
	}

	rec := testutil.NewRecorder()
	e.router.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/volunteer-overview"))
	rec.AssertStatus(t, http.StatusOK)

	var got volunteerOverviewResponse
	rec.DecodeJSON(t, &got)
	if got.TotalVolunteers != 1 {
		t.Errorf("TotalVolunteers = %d, want 1", got.TotalVolunteers)
	}
	if got.NewThisMonth != 1 {
		t.Errorf("NewThisMonth = %d, want the just-created volunteer counted", got.NewThisMonth)
	}
	if got.InterestsByCount["health"] != 1 {
		t.Errorf("InterestsByCount = %v, want health: 1", got.InterestsByCount)
	}
}

func TestEventDetailHandler(t *testing.T) {
	e := setup(t, "")
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ev := e.createEvent(t, "Soup Kitchen Shift", "community")
	if err := e.events.AddFeedback(ctx, ev.ID, 5, "great evening"); err != nil {
		t.Fatalf("AddFeedback() error = %v", err)
	}

	rec := testutil.NewRecorder()
	e.router.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/event-detail?name=Soup+Kitchen+Shift"))
	rec.AssertStatus(t, http.StatusOK)

	var got eventDetailResponse
	rec.DecodeJSON(t, &got)
	if got.Name != "Soup Kitchen Shift" {
		t.Errorf("Name = %q", got.Name)
	}
	if len(got.Reviews) != 1 || got.Reviews[0] != "great evening" {
		t.Errorf("Reviews = %v, want the submitted review", got.Reviews)
	}
	if got.AverageRating != 5.0 {
		t.Errorf("AverageRating = %v, want 5.0", got.AverageRating)
	}
}

func TestEventDetailHandler_StockReviews(t *testing.T) {
	e := setup(t, "")

	e.createEvent(t, "Unreviewed Gala", "community")

	rec := testutil.NewRecorder()
	e.router.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/event-detail?name=Unreviewed+Gala"))
	rec.AssertStatus(t, http.StatusOK)

	var got eventDetailResponse
	rec.DecodeJSON(t, &got)
	if len(got.Reviews) != len(stockReviews) {
		t.Errorf("Reviews = %d entries, want the stock set when none were submitted", len(got.Reviews))
	}
}

func TestEventDetailHandler_Missing(t *testing.T) {
	e := setup(t, "")

	rec := testutil.NewRecorder()
	e.router.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/event-detail"))
	rec.AssertStatus(t, http.StatusBadRequest)

	rec = testutil.NewRecorder()
	e.router.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/event-detail?name=Nope"))
	rec.AssertStatus(t, http.StatusNotFound)
}
