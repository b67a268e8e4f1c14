package weather

import (
	"context"
	"errors"
	"time"

	"github.com/oncletomfr-eng/cascais-fishing-sub015/internal/db"
	"github.com/oncletomfr-eng/cascais-fishing-sub015/internal/stream"

	"github.com/google/uuid"
)

type Service struct {
	db  db.Querier
	hub *stream.Hub
}

func NewService(q db.Querier, hub *stream.Hub) *Service {
	return &Service{db: q, hub: hub}
}

func (s *Service) PostAlert(ctx context.Context, input Alert) (Alert, error) {
	switch input.Severity {
	case SeverityAdvisory, SeverityWarning, SeverityDanger:
	default:
		return Alert{}, errors.New("severity must be advisory, warning or danger")
	}
	if input.Message == "" {
		return Alert{}, errors.New("message required")
	}

	input.ID = uuid.NewString()
	row := s.db.QueryRow(ctx, `
		INSERT INTO weather_alerts (id, trip_id, severity, message, valid_from, valid_until)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at
	`, input.ID, input.TripID, input.Severity, input.Message, input.ValidFrom, input.ValidUntil)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return Alert{}, err
	}

	if s.hub != nil {
		s.hub.Broadcast(stream.Event{
			TripID:    input.TripID,
			Type:      stream.EventWeatherAlert,
			Timestamp: time.Now().UTC(),
			Severity:  input.Severity,
		})
	}
	return input, nil
}

func (s *Service) PostUpdate(ctx context.Context, input Update) (Update, error) {
	input.ID = uuid.NewString()
	row := s.db.QueryRow(ctx, `
		INSERT INTO weather_updates (id, trip_id, wind_knots, wave_height_m, air_temp_c)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at
	`, input.ID, input.TripID, input.WindKnots, input.WaveHeightM, input.AirTempC)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return Update{}, err
	}

	if s.hub != nil {
		s.hub.Broadcast(stream.Event{
			TripID:    input.TripID,
			Type:      stream.EventWeatherUpdate,
			Timestamp: time.Now().UTC(),
		})
	}
	return input, nil
}

func (s *Service) Alerts(ctx context.Context, tripID string) ([]Alert, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, trip_id, severity, message, valid_from, valid_until, created_at
		FROM weather_alerts WHERE trip_id=$1
		ORDER BY created_at DESC
	`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []Alert
	for rows.Next() {
		var a Alert
		if err := rows.Scan(&a.ID, &a.TripID, &a.Severity, &a.Message, &a.ValidFrom, &a.ValidUntil, &a.CreatedAt); err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, nil
}
