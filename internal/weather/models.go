package weather

import "time"

const (
	SeverityAdvisory = "advisory"
	SeverityWarning  = "warning"
	SeverityDanger   = "danger"
)

type Alert struct {
	ID         string    `json:"id"`
	TripID     string    `json:"trip_id"`
	Severity   string    `json:"severity"`
	Message    string    `json:"message"`
	ValidFrom  time.Time `json:"valid_from"`
	ValidUntil time.Time `json:"valid_until"`
	CreatedAt  time.Time `json:"created_at"`
}

// Update is a routine conditions report, as opposed to an Alert. Subscribers
// with the alerts-only filter never see these.
type Update struct {
	ID          string    `json:"id"`
	TripID      string    `json:"trip_id"`
	WindKnots   float64   `json:"wind_knots"`
	WaveHeightM float64   `json:"wave_height_m"`
	AirTempC    float64   `json:"air_temp_c"`
	CreatedAt   time.Time `json:"created_at"`
}
