package stream

import "time"

const (
	EventParticipantJoined = "participant_joined"
	EventParticipantLeft   = "participant_left"
	EventStatusChanged     = "status_changed"
	EventConfirmed         = "confirmed"
	EventBiteReport        = "bite_report"
	EventWeatherUpdate     = "weather_update"
	EventWeatherAlert      = "weather_alert"
	EventHeartbeat         = "heartbeat"
)

// Event is the JSON contract pushed to subscribers. It is built fresh on
// every mutation and never persisted.
type Event struct {
	TripID              string    `json:"trip_id"`
	Type                string    `json:"type"`
	CurrentParticipants int       `json:"current_participants"`
	Status              string    `json:"status"`
	Timestamp           time.Time `json:"timestamp"`
	SpotsRemaining      int       `json:"spots_remaining"`
	MaxParticipants     int       `json:"max_participants"`
	ParticipantName     string    `json:"participant_name,omitempty"`
	Confidence          int       `json:"confidence,omitempty"`
	Severity            string    `json:"severity,omitempty"`
}
