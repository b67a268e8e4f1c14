package booking

import "time"

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

type Booking struct {
	ID              string    `json:"id"`
	TripID          string    `json:"trip_id"`
	ContactName     string    `json:"contact_name"`
	ContactPhone    string    `json:"contact_phone"`
	ContactEmail    string    `json:"contact_email"`
	Participants    int       `json:"participants"`
	TotalPriceCents int64     `json:"total_price_cents"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

// Result is what a successful booking mutation reports back to the caller.
type Result struct {
	BookingID       string `json:"booking_id"`
	TotalPriceCents int64  `json:"total_price_cents"`
	TripStatus      string `json:"trip_status"`
}

type CancelResult struct {
	TripStatus            string `json:"trip_status"`
	RemainingParticipants int    `json:"remaining_participants"`
}
