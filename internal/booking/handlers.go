package booking

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// Handlers answer in the result style the booking clients expect: every
// outcome is {"success": ...} JSON, errors are carried in the body rather
// than thrown past the API boundary.
func RegisterRoutes(r fiber.Router, svc *Service) {
	r.Post("/", func(c *fiber.Ctx) error {
		var req Booking
		if err := c.BodyParser(&req); err != nil {
			return failure(c, fiber.StatusBadRequest, "invalid payload")
		}
		if req.TripID == "" {
			return failure(c, fiber.StatusBadRequest, "trip_id required")
		}
		result, err := svc.Create(c.Context(), req)
		if err != nil {
			return mapError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success":           true,
			"booking_id":        result.BookingID,
			"total_price_cents": result.TotalPriceCents,
			"trip_status":       result.TripStatus,
		})
	})

	r.Delete("/:id", func(c *fiber.Ctx) error {
		result, err := svc.Cancel(c.Context(), c.Params("id"))
		if err != nil {
			return mapError(c, err)
		}
		return c.JSON(fiber.Map{
			"success":                true,
			"message":                "booking cancelled",
			"trip_status":            result.TripStatus,
			"remaining_participants": result.RemainingParticipants,
		})
	})

	r.Post("/:id/confirm", func(c *fiber.Ctx) error {
		result, err := svc.Confirm(c.Context(), c.Params("id"))
		if err != nil {
			return mapError(c, err)
		}
		return c.JSON(fiber.Map{
			"success":           true,
			"booking_id":        result.BookingID,
			"total_price_cents": result.TotalPriceCents,
			"trip_status":       result.TripStatus,
		})
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		b, err := svc.Get(c.Context(), c.Params("id"))
		if err != nil {
			return mapError(c, err)
		}
		return c.JSON(b)
	})
}

// RegisterTripRoutes exposes the per-trip booking listing on the trips
// group.
func RegisterTripRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/:id/bookings", authMiddleware, func(c *fiber.Ctx) error {
		bookings, err := svc.ListForTrip(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(bookings)
	})
}

func mapError(c *fiber.Ctx, err error) error {
	var capacity *CapacityError
	switch {
	case errors.As(err, &capacity):
		return failure(c, fiber.StatusConflict, capacity.Error())
	case errors.Is(err, ErrTripNotFound), errors.Is(err, ErrBookingNotFound):
		return failure(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrTripUnavailable), errors.Is(err, ErrNotPending):
		return failure(c, fiber.StatusConflict, err.Error())
	default:
		return failure(c, fiber.StatusBadRequest, err.Error())
	}
}

func failure(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "error": message})
}
