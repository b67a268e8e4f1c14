package weather

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

func receiveEvent(t *testing.T, sub *stream.Subscriber) stream.Event {
	t.Helper()
	select {
	case msg := <-sub.Send:
		var ev stream.Event
		if err := json.Unmarshal(msg, &ev); err != nil {
			t.Fatalf("unmarshal event: %v", err)
		}
		return ev
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timeout waiting for event")
		return stream.Event{}
	}
}

func TestPostAlertBroadcasts(t *testing.T) {
	mock := newMock(t)
	hub := stream.NewHub(nil, time.Hour)
	t.Cleanup(hub.Close)
	sub := hub.Register(nil, nil, stream.Filters{})
	svc := NewService(mock, hub)

	from := time.Now().UTC()
	until := from.Add(6 * time.Hour)
	mock.ExpectQuery(`INSERT INTO weather_alerts`).
		WithArgs(pgxmock.AnyArg(), "trip-1", SeverityWarning, "swell building after noon", from, until).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	alert, err := svc.PostAlert(context.Background(), Alert{
		TripID:     "trip-1",
		Severity:   SeverityWarning,
		Message:    "swell building after noon",
		ValidFrom:  from,
		ValidUntil: until,
	})
	if err != nil {
		t.Fatalf("post alert: %v", err)
	}
	if alert.ID == "" {
		t.Fatalf("missing alert id")
	}

	ev := receiveEvent(t, sub)
	if ev.Type != stream.EventWeatherAlert || ev.Severity != SeverityWarning {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestPostAlertValidation(t *testing.T) {
	svc := NewService(newMock(t), nil)

	if _, err := svc.PostAlert(context.Background(), Alert{TripID: "t", Severity: "apocalyptic", Message: "x"}); err == nil {
		t.Fatalf("expected severity error")
	}
	if _, err := svc.PostAlert(context.Background(), Alert{TripID: "t", Severity: SeverityAdvisory}); err == nil {
		t.Fatalf("expected message error")
	}
}

func TestPostUpdateRespectsAlertsOnly(t *testing.T) {
	mock := newMock(t)
	hub := stream.NewHub(nil, time.Hour)
	t.Cleanup(hub.Close)
	all := hub.Register(nil, nil, stream.Filters{})
	alertsOnly := hub.Register(nil, nil, stream.Filters{AlertsOnly: true})
	svc := NewService(mock, hub)

	mock.ExpectQuery(`INSERT INTO weather_updates`).
		WithArgs(pgxmock.AnyArg(), "trip-1", 12.5, 0.8, 21.0).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	if _, err := svc.PostUpdate(context.Background(), Update{TripID: "trip-1", WindKnots: 12.5, WaveHeightM: 0.8, AirTempC: 21.0}); err != nil {
		t.Fatalf("post update: %v", err)
	}

	ev := receiveEvent(t, all)
	if ev.Type != stream.EventWeatherUpdate {
		t.Fatalf("unexpected event: %+v", ev)
	}
	select {
	case msg := <-alertsOnly.Send:
		t.Fatalf("alerts-only subscriber got update: %s", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestAlertsList(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock, nil)

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT id, trip_id, severity`).
		WithArgs("trip-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "trip_id", "severity", "message", "valid_from", "valid_until", "created_at"}).
			AddRow("w1", "trip-1", SeverityDanger, "gale warning", now, now.Add(time.Hour), now))

	alerts, err := svc.Alerts(context.Background(), "trip-1")
	if err != nil {
		t.Fatalf("alerts: %v", err)
	}
	if len(alerts) != 1 || alerts[0].Severity != SeverityDanger {
		t.Fatalf("unexpected alerts: %+v", alerts)
	}
}
