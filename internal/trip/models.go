package trip

import "time"

const (
	StatusForming   = "forming"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

const (
	SlotMorning   = "morning"
	SlotAfternoon = "afternoon"
	SlotEvening   = "evening"
)

// ListCacheKey holds the redis key for the cached trip listing. Booking
// mutations delete it after commit.
const ListCacheKey = "cache:trips"

type Trip struct {
	ID                  string    `json:"id"`
	Date                time.Time `json:"date"`
	TimeSlot            string    `json:"time_slot"`
	MaxParticipants     int       `json:"max_participants"`
	MinRequired         int       `json:"min_required"`
	PricePerPersonCents int64     `json:"price_per_person_cents"`
	DeparturePort       string    `json:"departure_port"`
	Description         string    `json:"description"`
	Status              string    `json:"status"`
	CreatedBy           string    `json:"created_by"`
	CreatedAt           time.Time `json:"created_at"`
}

// Overview is a Trip plus the derived aggregate the listing pages show.
type Overview struct {
	Trip
	CurrentParticipants int    `json:"current_participants"`
	SpotsRemaining      int    `json:"spots_remaining"`
	DisplayStatus       string `json:"display_status"`
}

func ValidSlot(slot string) bool {
	switch slot {
	case SlotMorning, SlotAfternoon, SlotEvening:
		return true
	}
	return false
}
