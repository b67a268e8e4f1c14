package spot

import (
	"context"
	"testing"
	"time"

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

func spotRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "name", "description", "kind", "st_y", "st_x", "coalesce", "created_by", "is_verified", "created_at"})
}

func TestCreateSpot(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock)

	mock.ExpectQuery(`INSERT INTO fishing_spots`).
		WithArgs(pgxmock.AnyArg(), "Guia Reef", "rocky bottom", "reef", -9.45, 38.68, 14.0, "angler-1", false).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	created, err := svc.Create(context.Background(), Spot{
		Name:        "Guia Reef",
		Description: "rocky bottom",
		Kind:        "reef",
		Lat:         38.68,
		Lng:         -9.45,
		DepthM:      14.0,
		CreatedBy:   "angler-1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("missing id")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateSpotRequiresName(t *testing.T) {
	svc := NewService(newMock(t))
	if _, err := svc.Create(context.Background(), Spot{}); err == nil {
		t.Fatalf("expected error for empty name")
	}
}

func TestGetSpot(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock)

	mock.ExpectQuery(`SELECT id, name, description`).
		WithArgs("s1").
		WillReturnRows(spotRows().AddRow("s1", "Guia Reef", "", "reef", 38.68, -9.45, 14.0, "angler-1", true, time.Now()))

	sp, err := svc.Get(context.Background(), "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if sp.Name != "Guia Reef" || sp.Lat != 38.68 || !sp.IsVerified {
		t.Fatalf("unexpected spot: %+v", sp)
	}
}

func TestNearbyFiltersAndSorts(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock)

	// Cascais marina, Guincho beach and a far-away point near Porto.
	mock.ExpectQuery(`SELECT id, name, description`).
		WillReturnRows(spotRows().
			AddRow("far", "Douro Mouth", "", "estuary", 41.14, -8.67, 5.0, "a", false, time.Now()).
			AddRow("guincho", "Guincho", "", "beach", 38.73, -9.47, 3.0, "a", false, time.Now()).
			AddRow("marina", "Cascais Marina", "", "harbour", 38.69, -9.42, 6.0, "a", false, time.Now()))

	nearby, err := svc.Nearby(context.Background(), 38.697, -9.42, 30)
	if err != nil {
		t.Fatalf("nearby: %v", err)
	}
	if len(nearby) != 2 {
		t.Fatalf("expected 2 spots within radius, got %d", len(nearby))
	}
	if nearby[0].ID != "marina" || nearby[1].ID != "guincho" {
		t.Fatalf("unexpected order: %s, %s", nearby[0].ID, nearby[1].ID)
	}
	if nearby[0].DistanceKm >= nearby[1].DistanceKm {
		t.Fatalf("distances not ascending")
	}
}

func TestNearbyEmpty(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock)

	mock.ExpectQuery(`SELECT id, name, description`).
		WillReturnRows(spotRows())

	nearby, err := svc.Nearby(context.Background(), 38.7, -9.4, 10)
	if err != nil {
		t.Fatalf("nearby: %v", err)
	}
	if len(nearby) != 0 {
		t.Fatalf("expected no spots")
	}
}
