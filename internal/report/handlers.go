package report

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req CatchReport
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.TripID == "" || req.AnglerID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "trip_id and angler_id required")
		}
		created, err := svc.AddReport(c.Context(), req)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	})

	r.Post("/:id/photos", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			URL string `json:"photo_url"`
		}
		if err := c.BodyParser(&body); err != nil || body.URL == "" {
			return fiber.NewError(fiber.StatusBadRequest, "photo_url required")
		}
		photo, err := svc.AddPhoto(c.Context(), c.Params("id"), body.URL)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(photo)
	})

	r.Get("/trip/:tripID", func(c *fiber.Ctx) error {
		reports, err := svc.Reports(c.Context(), c.Params("tripID"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(reports)
	})

	r.Get("/leaderboard", func(c *fiber.Ctx) error {
		entries, err := svc.Leaderboard(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(entries)
	})
}
