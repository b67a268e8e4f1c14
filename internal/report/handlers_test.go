package report

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v3"
)

func passThrough(c *fiber.Ctx) error { return c.Next() }

func newApp(t *testing.T, mock pgxmock.PgxPoolIface) *fiber.App {
	t.Helper()
	app := fiber.New()
	RegisterRoutes(app.Group("/reports"), NewService(mock, nil), passThrough)
	return app
}

func TestReportHandlersCreate(t *testing.T) {
	mock := newMock(t)
	app := newApp(t, mock)

	mock.ExpectQuery(`INSERT INTO catch_reports`).
		WithArgs(pgxmock.AnyArg(), "trip-1", "a1", "Rui", "sea bass", "", 70, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	body := `{"trip_id":"trip-1","angler_id":"a1","angler_name":"Rui","species":"sea bass","confidence":70}`
	req := httptest.NewRequest(http.MethodPost, "/reports/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var created CatchReport
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID == "" || created.Species != "sea bass" {
		t.Fatalf("unexpected body: %+v", created)
	}
}

func TestReportHandlersCreateMissingFields(t *testing.T) {
	app := newApp(t, newMock(t))

	req := httptest.NewRequest(http.MethodPost, "/reports/", strings.NewReader(`{"species":"tuna"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestReportHandlersAddPhoto(t *testing.T) {
	mock := newMock(t)
	app := newApp(t, mock)

	mock.ExpectQuery(`INSERT INTO report_photos`).
		WithArgs(pgxmock.AnyArg(), "r1", "https://cdn.example/p.jpg").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	req := httptest.NewRequest(http.MethodPost, "/reports/r1/photos", strings.NewReader(`{"photo_url":"https://cdn.example/p.jpg"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status %d", resp.StatusCode)
	}
}

func TestReportHandlersListForTrip(t *testing.T) {
	mock := newMock(t)
	app := newApp(t, mock)

	caught := time.Now().UTC()
	mock.ExpectQuery(`SELECT id, trip_id, angler_id`).
		WithArgs("trip-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "trip_id", "angler_id", "angler_name", "species", "notes", "confidence", "caught_at", "created_at"}).
			AddRow("r1", "trip-1", "a1", "Rui", "sea bass", "", 85, caught, caught))
	mock.ExpectQuery(`SELECT id, report_id, photo_url`).
		WithArgs([]string{"r1"}).
		WillReturnRows(pgxmock.NewRows([]string{"id", "report_id", "photo_url", "created_at"}))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/reports/trip/trip-1", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var reports []CatchReport
	if err := json.NewDecoder(resp.Body).Decode(&reports); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(reports) != 1 || reports[0].AnglerName != "Rui" {
		t.Fatalf("unexpected reports: %+v", reports)
	}
}

func TestReportHandlersLeaderboard(t *testing.T) {
	mock := newMock(t)
	app := newApp(t, mock)

	mock.ExpectQuery(`SELECT angler_id, angler_name, COUNT`).
		WillReturnRows(pgxmock.NewRows([]string{"angler_id", "angler_name", "count", "max"}).
			AddRow("a1", "Rui", 4, time.Now()))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/reports/leaderboard", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var entries []LeaderboardEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 1 || entries[0].Catches != 4 {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}
