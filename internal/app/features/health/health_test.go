package health

import (
	"net/http"
	"testing"

	"github.com/openvolunteer/volunteerhub/internal/testutil"
	"go.uber.org/zap"
)

func setup(t *testing.T) http.Handler {
	t.Helper()
	db := testutil.SetupTestDB(t)
	h := NewHandler(db.Client(), nil, zap.NewNop())
	return Routes(h)
}

func TestCheck(t *testing.T) {
	router := setup(t)

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/"))
	rec.AssertStatus(t, http.StatusOK)

	var got Response
	rec.DecodeJSON(t, &got)
	if got.Status != "ok" {
		t.Errorf("Status = %q, want ok", got.Status)
	}
	if got.Services["mongodb"] != "ok" {
		t.Errorf("mongodb = %q, want ok", got.Services["mongodb"])
	}
	if _, reported := got.Services["redis"]; reported {
		t.Error("redis reported in services, want omitted when the cache is disabled")
	}
}

func TestReady(t *testing.T) {
	router := setup(t)

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/ready"))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "ready")
}

func TestLive(t *testing.T) {
	router := setup(t)

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/live"))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "alive")
}
