package booking

import (
	"errors"
	"fmt"
)

var (
	ErrTripNotFound    = errors.New("trip not found")
	ErrTripUnavailable = errors.New("trip is no longer available")
	ErrBookingNotFound = errors.New("booking not found")
	ErrNotPending      = errors.New("booking is not pending")
)

// CapacityError reports the exact number of spots left so the caller can
// adjust the request and retry.
type CapacityError struct {
	Available int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("Only %d spots available", e.Available)
}
