package spot

import "time"

type Spot struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Kind        string    `json:"kind"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	DepthM      float64   `json:"depth_m"`
	CreatedBy   string    `json:"created_by"`
	IsVerified  bool      `json:"is_verified"`
	CreatedAt   time.Time `json:"created_at"`
}

// NearbySpot is a Spot annotated with its distance from the query point.
type NearbySpot struct {
	Spot
	DistanceKm float64 `json:"distance_km"`
}
