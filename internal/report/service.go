package report

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

func (s *Service) AddReport(ctx context.Context, input CatchReport) (CatchReport, error) {
	if input.Confidence < 0 || input.Confidence > 100 {
		return CatchReport{}, errors.New("confidence must be between 0 and 100")
	}
	input.ID = uuid.NewString()
	if input.CaughtAt.IsZero() {
		input.CaughtAt = time.Now().UTC()
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO catch_reports (id, trip_id, angler_id, angler_name, species, notes, confidence, caught_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at
	`, input.ID, input.TripID, input.AnglerID, input.AnglerName, input.Species, input.Notes, input.Confidence, input.CaughtAt)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return CatchReport{}, err
	}

	if s.hub != nil {
		s.hub.Broadcast(stream.Event{
			TripID:          input.TripID,
			Type:            stream.EventBiteReport,
			Timestamp:       time.Now().UTC(),
			ParticipantName: input.AnglerName,
			Confidence:      input.Confidence,
		})
	}
	return input, nil
}

func (s *Service) AddPhoto(ctx context.Context, reportID, url string) (Photo, error) {
	photo := Photo{
		ID:       uuid.NewString(),
		ReportID: reportID,
		URL:      url,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO report_photos (id, report_id, photo_url)
		VALUES ($1,$2,$3)
		RETURNING created_at
	`, photo.ID, photo.ReportID, photo.URL)
	if err := row.Scan(&photo.CreatedAt); err != nil {
		return Photo{}, err
	}
	return photo, nil
}

func (s *Service) Reports(ctx context.Context, tripID string) ([]CatchReport, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, trip_id, angler_id, angler_name, species, notes, confidence, caught_at, created_at
		FROM catch_reports WHERE trip_id=$1
		ORDER BY caught_at DESC
	`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []CatchReport
	var ids []string
	for rows.Next() {
		var r CatchReport
		if err := rows.Scan(&r.ID, &r.TripID, &r.AnglerID, &r.AnglerName, &r.Species, &r.Notes, &r.Confidence, &r.CaughtAt, &r.CreatedAt); err != nil {
			return nil, err
		}
		reports = append(reports, r)
		ids = append(ids, r.ID)
	}
	if len(ids) == 0 {
		return reports, nil
	}

	photoRows, err := s.db.Query(ctx, `
		SELECT id, report_id, photo_url, created_at
		FROM report_photos WHERE report_id = ANY($1)
		ORDER BY created_at
	`, ids)
	if err != nil {
		return nil, err
	}
	defer photoRows.Close()

	byReport := map[string][]Photo{}
	for photoRows.Next() {
		var p Photo
		if err := photoRows.Scan(&p.ID, &p.ReportID, &p.URL, &p.CreatedAt); err != nil {
			return nil, err
		}
		byReport[p.ReportID] = append(byReport[p.ReportID], p)
	}
	for i := range reports {
		reports[i].Photos = byReport[reports[i].ID]
	}
	return reports, nil
}

func (s *Service) Leaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT angler_id, angler_name, COUNT(*), MAX(caught_at)
		FROM catch_reports
		GROUP BY angler_id, angler_name
		ORDER BY COUNT(*) DESC, MAX(caught_at) DESC
		LIMIT 20
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.AnglerID, &e.AnglerName, &e.Catches, &e.LastCatch); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}
