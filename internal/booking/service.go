package booking

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/oncletomfr-eng/cascais-fishing-sub015/internal/db"
	"github.com/oncletomfr-eng/cascais-fishing-sub015/internal/stream"
	"github.com/oncletomfr-eng/cascais-fishing-sub015/internal/trip"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Service owns every mutation of a trip's participant aggregate. Trip
// status follows the aggregate: forming trips are promoted to confirmed at
// quorum, confirmed trips demote back to forming when cancellations drop
// the aggregate below quorum again.
type Service struct {
	db          db.Querier
	redis       *redis.Client
	hub         *stream.Hub
	autoConfirm bool
	locks       tripLocks
	now         func() time.Time
}

func NewService(q db.Querier, redisClient *redis.Client, hub *stream.Hub, autoConfirm bool) *Service {
	return &Service{db: q, redis: redisClient, hub: hub, autoConfirm: autoConfirm, now: time.Now}
}

type tripInfo struct {
	ID              string
	Date            time.Time
	MaxParticipants int
	MinRequired     int
	PriceCents      int64
	Status          string
}

// Create books participants onto a trip. The capacity check, the booking
// write and the conditional status transition run under the trip's lock so
// concurrent requests cannot jointly overflow capacity. The broadcast and
// cache invalidation run after the lock is released.
func (s *Service) Create(ctx context.Context, input Booking) (Result, error) {
	if input.Participants < 1 {
		return Result{}, errors.New("participants must be at least 1")
	}
	if input.ContactName == "" {
		return Result{}, errors.New("contact_name required")
	}

	result, ev, err := s.create(ctx, input)
	if err != nil {
		return Result{}, err
	}
	if ev != nil {
		s.afterMutation(*ev)
	}
	return result, nil
}

func (s *Service) create(ctx context.Context, input Booking) (Result, *stream.Event, error) {
	unlock := s.locks.lock(input.TripID)
	defer unlock()

	t, err := s.loadTrip(ctx, input.TripID)
	if err != nil {
		return Result{}, nil, err
	}
	if t.Status == trip.StatusCancelled {
		return Result{}, nil, ErrTripUnavailable
	}

	current, err := s.confirmedSum(ctx, s.db, t.ID)
	if err != nil {
		return Result{}, nil, err
	}
	available := t.MaxParticipants - current
	if input.Participants > available {
		return Result{}, nil, &CapacityError{Available: available}
	}

	input.ID = uuid.NewString()
	input.TotalPriceCents = t.PriceCents * int64(input.Participants)
	input.Status = StatusPending
	if s.autoConfirm {
		input.Status = StatusConfirmed
	}

	tripStatus := t.Status
	var ev *stream.Event
	err = s.withTx(ctx, func(tx db.Querier) error {
		row := tx.QueryRow(ctx, `
			INSERT INTO bookings (id, trip_id, contact_name, contact_phone, contact_email, participants, total_price_cents, status)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			RETURNING created_at
		`, input.ID, input.TripID, input.ContactName, input.ContactPhone, input.ContactEmail, input.Participants, input.TotalPriceCents, input.Status)
		if err := row.Scan(&input.CreatedAt); err != nil {
			return err
		}

		if input.Status == StatusConfirmed {
			newCount := current + input.Participants
			eventType := stream.EventParticipantJoined
			if newCount >= t.MinRequired && t.Status == trip.StatusForming {
				if _, err := tx.Exec(ctx, `UPDATE trips SET status='confirmed' WHERE id=$1 AND status='forming'`, t.ID); err != nil {
					return err
				}
				tripStatus = trip.StatusConfirmed
				eventType = stream.EventConfirmed
			}
			e := s.makeEvent(t, eventType, tripStatus, newCount, input.ContactName)
			ev = &e
		}
		return nil
	})
	if err != nil {
		return Result{}, nil, err
	}

	return Result{BookingID: input.ID, TotalPriceCents: input.TotalPriceCents, TripStatus: tripStatus}, ev, nil
}

// Cancel retracts a booking. The row is kept as an audit trail; only its
// status flips. A second retraction of the same booking reports
// ErrBookingNotFound rather than decrementing the aggregate twice.
func (s *Service) Cancel(ctx context.Context, bookingID string) (CancelResult, error) {
	result, ev, err := s.cancel(ctx, bookingID)
	if err != nil {
		return CancelResult{}, err
	}
	if ev != nil {
		s.afterMutation(*ev)
	}
	return result, nil
}

func (s *Service) cancel(ctx context.Context, bookingID string) (CancelResult, *stream.Event, error) {
	tripID, err := s.lookupTripID(ctx, bookingID)
	if err != nil {
		return CancelResult{}, nil, err
	}

	unlock := s.locks.lock(tripID)
	defer unlock()

	var participants int
	var status, contactName string
	row := s.db.QueryRow(ctx, `SELECT participants, status, contact_name FROM bookings WHERE id=$1`, bookingID)
	if err := row.Scan(&participants, &status, &contactName); err != nil {
		return CancelResult{}, nil, ErrBookingNotFound
	}
	if status == StatusCancelled {
		return CancelResult{}, nil, ErrBookingNotFound
	}

	t, err := s.loadTrip(ctx, tripID)
	if err != nil {
		return CancelResult{}, nil, err
	}

	var remaining int
	tripStatus := t.Status
	var ev *stream.Event
	err = s.withTx(ctx, func(tx db.Querier) error {
		if _, err := tx.Exec(ctx, `UPDATE bookings SET status='cancelled' WHERE id=$1`, bookingID); err != nil {
			return err
		}
		remaining, err = s.confirmedSum(ctx, tx, tripID)
		if err != nil {
			return err
		}

		if status == StatusConfirmed {
			eventType := stream.EventParticipantLeft
			if remaining < t.MinRequired && t.Status == trip.StatusConfirmed && !s.departed(t) {
				if _, err := tx.Exec(ctx, `UPDATE trips SET status='forming' WHERE id=$1 AND status='confirmed'`, tripID); err != nil {
					return err
				}
				tripStatus = trip.StatusForming
				eventType = stream.EventStatusChanged
			}
			e := s.makeEvent(t, eventType, tripStatus, remaining, contactName)
			ev = &e
		}
		return nil
	})
	if err != nil {
		return CancelResult{}, nil, err
	}

	return CancelResult{TripStatus: tripStatus, RemainingParticipants: remaining}, ev, nil
}

// Confirm promotes a pending booking (auto-confirm off) into the aggregate,
// re-running the capacity check and the quorum transition.
func (s *Service) Confirm(ctx context.Context, bookingID string) (Result, error) {
	result, ev, err := s.confirm(ctx, bookingID)
	if err != nil {
		return Result{}, err
	}
	if ev != nil {
		s.afterMutation(*ev)
	}
	return result, nil
}

func (s *Service) confirm(ctx context.Context, bookingID string) (Result, *stream.Event, error) {
	tripID, err := s.lookupTripID(ctx, bookingID)
	if err != nil {
		return Result{}, nil, err
	}

	unlock := s.locks.lock(tripID)
	defer unlock()

	var participants int
	var priceCents int64
	var status, contactName string
	row := s.db.QueryRow(ctx, `SELECT participants, total_price_cents, status, contact_name FROM bookings WHERE id=$1`, bookingID)
	if err := row.Scan(&participants, &priceCents, &status, &contactName); err != nil {
		return Result{}, nil, ErrBookingNotFound
	}
	if status != StatusPending {
		return Result{}, nil, ErrNotPending
	}

	t, err := s.loadTrip(ctx, tripID)
	if err != nil {
		return Result{}, nil, err
	}
	if t.Status == trip.StatusCancelled {
		return Result{}, nil, ErrTripUnavailable
	}

	current, err := s.confirmedSum(ctx, s.db, tripID)
	if err != nil {
		return Result{}, nil, err
	}
	available := t.MaxParticipants - current
	if participants > available {
		return Result{}, nil, &CapacityError{Available: available}
	}

	newCount := current + participants
	tripStatus := t.Status
	eventType := stream.EventParticipantJoined
	err = s.withTx(ctx, func(tx db.Querier) error {
		if _, err := tx.Exec(ctx, `UPDATE bookings SET status='confirmed' WHERE id=$1`, bookingID); err != nil {
			return err
		}
		if newCount >= t.MinRequired && t.Status == trip.StatusForming {
			if _, err := tx.Exec(ctx, `UPDATE trips SET status='confirmed' WHERE id=$1 AND status='forming'`, tripID); err != nil {
				return err
			}
			tripStatus = trip.StatusConfirmed
			eventType = stream.EventConfirmed
		}
		return nil
	})
	if err != nil {
		return Result{}, nil, err
	}

	ev := s.makeEvent(t, eventType, tripStatus, newCount, contactName)
	return Result{BookingID: bookingID, TotalPriceCents: priceCents, TripStatus: tripStatus}, &ev, nil
}

func (s *Service) Get(ctx context.Context, id string) (Booking, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, trip_id, contact_name, contact_phone, contact_email, participants, total_price_cents, status, created_at
		FROM bookings WHERE id=$1
	`, id)
	var b Booking
	if err := row.Scan(&b.ID, &b.TripID, &b.ContactName, &b.ContactPhone, &b.ContactEmail, &b.Participants, &b.TotalPriceCents, &b.Status, &b.CreatedAt); err != nil {
		return Booking{}, ErrBookingNotFound
	}
	return b, nil
}

func (s *Service) ListForTrip(ctx context.Context, tripID string) ([]Booking, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, trip_id, contact_name, contact_phone, contact_email, participants, total_price_cents, status, created_at
		FROM bookings WHERE trip_id=$1
		ORDER BY created_at
	`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []Booking
	for rows.Next() {
		var b Booking
		if err := rows.Scan(&b.ID, &b.TripID, &b.ContactName, &b.ContactPhone, &b.ContactEmail, &b.Participants, &b.TotalPriceCents, &b.Status, &b.CreatedAt); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, nil
}

func (s *Service) loadTrip(ctx context.Context, id string) (tripInfo, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, date, max_participants, min_required, price_per_person_cents, status
		FROM trips WHERE id=$1
	`, id)
	var t tripInfo
	if err := row.Scan(&t.ID, &t.Date, &t.MaxParticipants, &t.MinRequired, &t.PriceCents, &t.Status); err != nil {
		return tripInfo{}, ErrTripNotFound
	}
	return t, nil
}

func (s *Service) lookupTripID(ctx context.Context, bookingID string) (string, error) {
	var tripID string
	row := s.db.QueryRow(ctx, `SELECT trip_id FROM bookings WHERE id=$1`, bookingID)
	if err := row.Scan(&tripID); err != nil {
		return "", ErrBookingNotFound
	}
	return tripID, nil
}

func (s *Service) confirmedSum(ctx context.Context, q db.Querier, tripID string) (int, error) {
	var sum int
	row := q.QueryRow(ctx, `SELECT COALESCE(SUM(participants),0) FROM bookings WHERE trip_id=$1 AND status='confirmed'`, tripID)
	if err := row.Scan(&sum); err != nil {
		return 0, err
	}
	return sum, nil
}

// withTx runs fn inside a transaction so a booking write and its trip
// status transition land or fail together.
func (s *Service) withTx(ctx context.Context, fn func(tx db.Querier) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// departed reports whether the trip's date is already behind us. A departed
// trip keeps its confirmed status no matter how many bookings cancel; it
// must not reopen for forming.
func (s *Service) departed(t tripInfo) bool {
	if t.Date.IsZero() {
		return false
	}
	today := s.now().UTC().Truncate(24 * time.Hour)
	return t.Date.Before(today)
}

func (s *Service) makeEvent(t tripInfo, eventType, tripStatus string, count int, participantName string) stream.Event {
	spots := t.MaxParticipants - count
	return stream.Event{
		TripID:              t.ID,
		Type:                eventType,
		CurrentParticipants: count,
		Status:              trip.DisplayStatus(tripStatus, count, t.MinRequired, spots),
		Timestamp:           s.now().UTC(),
		SpotsRemaining:      spots,
		MaxParticipants:     t.MaxParticipants,
		ParticipantName:     participantName,
	}
}

// afterMutation runs once the booking write is done: broadcast the update
// and drop the cached listing. Both are best-effort and must never fail the
// caller.
func (s *Service) afterMutation(ev stream.Event) {
	if s.hub != nil {
		s.hub.Broadcast(ev)
	}
	if s.redis != nil {
		if err := s.redis.Del(context.Background(), trip.ListCacheKey).Err(); err != nil {
			log.Printf("booking: list cache invalidation: %v", err)
		}
	}
}
