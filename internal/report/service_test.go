package report

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/oncletomfr-eng/cascais-fishing-sub015/internal/stream"

	"github.com/pashagolub/pgxmock/v3"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func newHubWithSubscriber(t *testing.T) (*stream.Hub, *stream.Subscriber) {
	t.Helper()
	hub := stream.NewHub(nil, time.Hour)
	t.Cleanup(hub.Close)
	return hub, hub.Register(nil, nil, stream.Filters{})
}

func TestAddReportBroadcasts(t *testing.T) {
	mock := newMock(t)
	hub, sub := newHubWithSubscriber(t)
	svc := NewService(mock, hub)

	mock.ExpectQuery(`INSERT INTO catch_reports`).
		WithArgs(pgxmock.AnyArg(), "trip-1", "angler-1", "Rui", "sea bass", "near the point", 85, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	created, err := svc.AddReport(context.Background(), CatchReport{
		TripID:     "trip-1",
		AnglerID:   "angler-1",
		AnglerName: "Rui",
		Species:    "sea bass",
		Notes:      "near the point",
		Confidence: 85,
	})
	if err != nil {
		t.Fatalf("add report: %v", err)
	}
	if created.ID == "" || created.CaughtAt.IsZero() {
		t.Fatalf("unexpected report: %+v", created)
	}

	select {
	case msg := <-sub.Send:
		var ev stream.Event
		if err := json.Unmarshal(msg, &ev); err != nil {
			t.Fatalf("unmarshal event: %v", err)
		}
		if ev.Type != stream.EventBiteReport || ev.Confidence != 85 || ev.ParticipantName != "Rui" {
			t.Fatalf("unexpected event: %+v", ev)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("no bite report broadcast")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAddReportConfidenceRange(t *testing.T) {
	svc := NewService(newMock(t), nil)
	for _, confidence := range []int{-1, 101} {
		if _, err := svc.AddReport(context.Background(), CatchReport{TripID: "t", AnglerID: "a", Confidence: confidence}); err == nil {
			t.Fatalf("expected error for confidence %d", confidence)
		}
	}
}

func TestReportsAttachPhotos(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock, nil)

	caught := time.Now().UTC()
	mock.ExpectQuery(`SELECT id, trip_id, angler_id`).
		WithArgs("trip-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "trip_id", "angler_id", "angler_name", "species", "notes", "confidence", "caught_at", "created_at"}).
			AddRow("r1", "trip-1", "a1", "Rui", "sea bass", "", 85, caught, caught).
			AddRow("r2", "trip-1", "a2", "Ana", "mackerel", "", 60, caught, caught))
	mock.ExpectQuery(`SELECT id, report_id, photo_url`).
		WithArgs([]string{"r1", "r2"}).
		WillReturnRows(pgxmock.NewRows([]string{"id", "report_id", "photo_url", "created_at"}).
			AddRow("p1", "r1", "https://cdn.example/p1.jpg", caught))

	reports, err := svc.Reports(context.Background(), "trip-1")
	if err != nil {
		t.Fatalf("reports: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}
	if len(reports[0].Photos) != 1 || reports[0].Photos[0].URL != "https://cdn.example/p1.jpg" {
		t.Fatalf("expected photo on first report: %+v", reports[0])
	}
	if len(reports[1].Photos) != 0 {
		t.Fatalf("expected no photos on second report")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestReportsEmptySkipsPhotoQuery(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock, nil)

	mock.ExpectQuery(`SELECT id, trip_id, angler_id`).
		WithArgs("trip-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "trip_id", "angler_id", "angler_name", "species", "notes", "confidence", "caught_at", "created_at"}))

	reports, err := svc.Reports(context.Background(), "trip-1")
	if err != nil {
		t.Fatalf("reports: %v", err)
	}
	if len(reports) != 0 {
		t.Fatalf("expected no reports")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAddPhoto(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock, nil)

	mock.ExpectQuery(`INSERT INTO report_photos`).
		WithArgs(pgxmock.AnyArg(), "r1", "https://cdn.example/p.jpg").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	photo, err := svc.AddPhoto(context.Background(), "r1", "https://cdn.example/p.jpg")
	if err != nil {
		t.Fatalf("add photo: %v", err)
	}
	if photo.ID == "" || photo.ReportID != "r1" {
		t.Fatalf("unexpected photo: %+v", photo)
	}
}

func TestLeaderboard(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock, nil)

	last := time.Now().UTC()
	mock.ExpectQuery(`SELECT angler_id, angler_name, COUNT`).
		WillReturnRows(pgxmock.NewRows([]string{"angler_id", "angler_name", "count", "max"}).
			AddRow("a1", "Rui", 7, last).
			AddRow("a2", "Ana", 3, last))

	entries, err := svc.Leaderboard(context.Background())
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(entries) != 2 || entries[0].Catches != 7 || entries[0].AnglerName != "Rui" {
		t.Fatalf("unexpected leaderboard: %+v", entries)
	}
}
