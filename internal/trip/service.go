package trip

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/oncletomfr-eng/cascais-fishing-sub015/internal/db"
	"github.com/oncletomfr-eng/cascais-fishing-sub015/internal/stream"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const listCacheTTL = time.Minute

var ErrNotFound = errors.New("trip not found")

type Service struct {
	db    db.Querier
	redis *redis.Client
	hub   *stream.Hub
}

func NewService(q db.Querier, redisClient *redis.Client, hub *stream.Hub) *Service {
	return &Service{db: q, redis: redisClient, hub: hub}
}

func (s *Service) Create(ctx context.Context, input Trip) (Trip, error) {
	if input.Date.IsZero() {
		return Trip{}, errors.New("date required")
	}
	if !ValidSlot(input.TimeSlot) {
		return Trip{}, errors.New("time_slot must be morning, afternoon or evening")
	}
	if input.MaxParticipants < 1 {
		return Trip{}, errors.New("max_participants must be at least 1")
	}
	if input.MinRequired < 1 || input.MinRequired > input.MaxParticipants {
		return Trip{}, errors.New("min_required must be between 1 and max_participants")
	}
	if input.PricePerPersonCents < 0 {
		return Trip{}, errors.New("price_per_person_cents must not be negative")
	}

	input.ID = uuid.NewString()
	input.Status = StatusForming
	row := s.db.QueryRow(ctx, `
		INSERT INTO trips (id, date, time_slot, max_participants, min_required, price_per_person_cents, departure_port, description, status, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at
	`, input.ID, input.Date, input.TimeSlot, input.MaxParticipants, input.MinRequired, input.PricePerPersonCents, input.DeparturePort, input.Description, input.Status, input.CreatedBy)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return Trip{}, err
	}

	s.invalidateListCache()
	return input, nil
}

func (s *Service) Get(ctx context.Context, id string) (Trip, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, date, time_slot, max_participants, min_required, price_per_person_cents, departure_port, description, status, created_by, created_at
		FROM trips WHERE id=$1
	`, id)
	var t Trip
	if err := row.Scan(&t.ID, &t.Date, &t.TimeSlot, &t.MaxParticipants, &t.MinRequired, &t.PricePerPersonCents, &t.DeparturePort, &t.Description, &t.Status, &t.CreatedBy, &t.CreatedAt); err != nil {
		return Trip{}, ErrNotFound
	}
	return t, nil
}

func (s *Service) GetOverview(ctx context.Context, id string) (Overview, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return Overview{}, err
	}

	var current int
	row := s.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(participants),0) FROM bookings WHERE trip_id=$1 AND status='confirmed'
	`, id)
	if err := row.Scan(&current); err != nil {
		return Overview{}, err
	}
	return makeOverview(t, current), nil
}

func (s *Service) List(ctx context.Context) ([]Overview, error) {
	if s.redis != nil {
		cached, err := s.redis.Get(ctx, ListCacheKey).Bytes()
		if err == nil {
			var overviews []Overview
			if json.Unmarshal(cached, &overviews) == nil {
				return overviews, nil
			}
		}
	}

	rows, err := s.db.Query(ctx, `
		SELECT t.id, t.date, t.time_slot, t.max_participants, t.min_required, t.price_per_person_cents,
		       t.departure_port, t.description, t.status, t.created_by, t.created_at,
		       COALESCE(SUM(b.participants) FILTER (WHERE b.status='confirmed'), 0)
		FROM trips t
		LEFT JOIN bookings b ON b.trip_id = t.id
		GROUP BY t.id
		ORDER BY t.date, t.time_slot
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var overviews []Overview
	for rows.Next() {
		var t Trip
		var current int
		if err := rows.Scan(&t.ID, &t.Date, &t.TimeSlot, &t.MaxParticipants, &t.MinRequired, &t.PricePerPersonCents,
			&t.DeparturePort, &t.Description, &t.Status, &t.CreatedBy, &t.CreatedAt, &current); err != nil {
			return nil, err
		}
		overviews = append(overviews, makeOverview(t, current))
	}

	if s.redis != nil {
		if body, err := json.Marshal(overviews); err == nil {
			_ = s.redis.Set(ctx, ListCacheKey, body, listCacheTTL).Err()
		}
	}
	return overviews, nil
}

func (s *Service) Update(ctx context.Context, id string, patch Trip) (Trip, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return Trip{}, err
	}
	if !patch.Date.IsZero() {
		t.Date = patch.Date
	}
	if patch.TimeSlot != "" {
		if !ValidSlot(patch.TimeSlot) {
			return Trip{}, errors.New("time_slot must be morning, afternoon or evening")
		}
		t.TimeSlot = patch.TimeSlot
	}
	if patch.DeparturePort != "" {
		t.DeparturePort = patch.DeparturePort
	}
	if patch.Description != "" {
		t.Description = patch.Description
	}
	if patch.PricePerPersonCents > 0 {
		t.PricePerPersonCents = patch.PricePerPersonCents
	}

	_, err = s.db.Exec(ctx, `
		UPDATE trips
		SET date=$2, time_slot=$3, price_per_person_cents=$4, departure_port=$5, description=$6
		WHERE id=$1
	`, t.ID, t.Date, t.TimeSlot, t.PricePerPersonCents, t.DeparturePort, t.Description)
	if err != nil {
		return Trip{}, err
	}

	s.invalidateListCache()
	return t, nil
}

// Cancel transitions the trip to cancelled. Trips are never deleted, so the
// booking audit trail underneath them survives.
func (s *Service) Cancel(ctx context.Context, id string) (Overview, error) {
	overview, err := s.GetOverview(ctx, id)
	if err != nil {
		return Overview{}, err
	}

	_, err = s.db.Exec(ctx, `UPDATE trips SET status='cancelled' WHERE id=$1`, id)
	if err != nil {
		return Overview{}, err
	}
	overview.Status = StatusCancelled
	overview.DisplayStatus = DisplayStatus(StatusCancelled, overview.CurrentParticipants, overview.MinRequired, overview.SpotsRemaining)

	if s.hub != nil {
		s.hub.Broadcast(stream.Event{
			TripID:              overview.ID,
			Type:                stream.EventStatusChanged,
			CurrentParticipants: overview.CurrentParticipants,
			Status:              overview.DisplayStatus,
			Timestamp:           time.Now().UTC(),
			SpotsRemaining:      overview.SpotsRemaining,
			MaxParticipants:     overview.MaxParticipants,
		})
	}
	s.invalidateListCache()
	return overview, nil
}

func (s *Service) invalidateListCache() {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(context.Background(), ListCacheKey).Err(); err != nil {
		log.Printf("trip: list cache invalidation: %v", err)
	}
}

func makeOverview(t Trip, current int) Overview {
	spots := t.MaxParticipants - current
	return Overview{
		Trip:                t,
		CurrentParticipants: current,
		SpotsRemaining:      spots,
		DisplayStatus:       DisplayStatus(t.Status, current, t.MinRequired, spots),
	}
}
