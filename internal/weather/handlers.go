package weather

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/alerts", authMiddleware, func(c *fiber.Ctx) error {
		var req Alert
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.TripID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "trip_id required")
		}
		alert, err := svc.PostAlert(c.Context(), req)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(alert)
	})

	r.Post("/updates", authMiddleware, func(c *fiber.Ctx) error {
		var req Update
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.TripID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "trip_id required")
		}
		update, err := svc.PostUpdate(c.Context(), req)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(update)
	})

	r.Get("/alerts/:tripID", func(c *fiber.Ctx) error {
		alerts, err := svc.Alerts(c.Context(), c.Params("tripID"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(alerts)
	})
}
