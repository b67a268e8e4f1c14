package report

import "time"

type CatchReport struct {
	ID         string    `json:"id"`
	TripID     string    `json:"trip_id"`
	AnglerID   string    `json:"angler_id"`
	AnglerName string    `json:"angler_name"`
	Species    string    `json:"species"`
	Notes      string    `json:"notes"`
	Confidence int       `json:"confidence"`
	CaughtAt   time.Time `json:"caught_at"`
	CreatedAt  time.Time `json:"created_at"`
	Photos     []Photo   `json:"photos,omitempty"`
}

type Photo struct {
	ID        string    `json:"id"`
	ReportID  string    `json:"report_id"`
	URL       string    `json:"photo_url"`
	CreatedAt time.Time `json:"created_at"`
}

type LeaderboardEntry struct {
	AnglerID   string    `json:"angler_id"`
	AnglerName string    `json:"angler_name"`
	Catches    int       `json:"catches"`
	LastCatch  time.Time `json:"last_catch"`
}
