package spot

import (
	"context"
	"errors"
	"sort"

	"github.com/oncletomfr-eng/cascais-fishing-sub015/internal/db"
	"github.com/oncletomfr-eng/cascais-fishing-sub015/internal/shared/geo"

	"github.com/google/uuid"
)

type Service struct {
	db db.Querier
}

func NewService(q db.Querier) *Service {
	return &Service{db: q}
}

func (s *Service) Create(ctx context.Context, input Spot) (Spot, error) {
	if input.Name == "" {
		return Spot{}, errors.New("name required")
	}
	input.ID = uuid.NewString()
	row := s.db.QueryRow(ctx, `
		INSERT INTO fishing_spots (id, name, description, kind, location, depth_m, created_by, is_verified)
		VALUES ($1,$2,$3,$4, ST_SetSRID(ST_MakePoint($5,$6), 4326)::geography, $7, $8, $9)
		RETURNING created_at
	`, input.ID, input.Name, input.Description, input.Kind, input.Lng, input.Lat, input.DepthM, input.CreatedBy, input.IsVerified)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return Spot{}, err
	}
	return input, nil
}

func (s *Service) Get(ctx context.Context, id string) (Spot, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, description, kind, ST_Y(location::geometry), ST_X(location::geometry),
		       COALESCE(depth_m,0), created_by, is_verified, created_at
		FROM fishing_spots WHERE id=$1
	`, id)
	var sp Spot
	if err := row.Scan(&sp.ID, &sp.Name, &sp.Description, &sp.Kind, &sp.Lat, &sp.Lng, &sp.DepthM, &sp.CreatedBy, &sp.IsVerified, &sp.CreatedAt); err != nil {
		return Spot{}, err
	}
	return sp, nil
}

func (s *Service) List(ctx context.Context) ([]Spot, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, description, kind, ST_Y(location::geometry), ST_X(location::geometry),
		       COALESCE(depth_m,0), created_by, is_verified, created_at
		FROM fishing_spots
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var spots []Spot
	for rows.Next() {
		var sp Spot
		if err := rows.Scan(&sp.ID, &sp.Name, &sp.Description, &sp.Kind, &sp.Lat, &sp.Lng, &sp.DepthM, &sp.CreatedBy, &sp.IsVerified, &sp.CreatedAt); err != nil {
			return nil, err
		}
		spots = append(spots, sp)
	}
	return spots, nil
}

// Nearby returns spots within radiusKm of the given point, closest first.
func (s *Service) Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]NearbySpot, error) {
	spots, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	var nearby []NearbySpot
	for _, sp := range spots {
		d := geo.HaversineKm(lat, lng, sp.Lat, sp.Lng)
		if d <= radiusKm {
			nearby = append(nearby, NearbySpot{Spot: sp, DistanceKm: d})
		}
	}
	sort.Slice(nearby, func(i, j int) bool { return nearby[i].DistanceKm < nearby[j].DistanceKm })
	return nearby, nil
}
