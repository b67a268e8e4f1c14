package spot

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req Spot
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		created, err := svc.Create(c.Context(), req)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	})

	r.Get("/nearby", func(c *fiber.Ctx) error {
		lat, err1 := strconv.ParseFloat(c.Query("lat"), 64)
		lng, err2 := strconv.ParseFloat(c.Query("lng"), 64)
		if err1 != nil || err2 != nil {
			return fiber.NewError(fiber.StatusBadRequest, "lat and lng required")
		}
		radius, err := strconv.ParseFloat(c.Query("radius_km"), 64)
		if err != nil || radius <= 0 {
			radius = 25
		}
		spots, err := svc.Nearby(c.Context(), lat, lng, radius)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(spots)
	})

	r.Get("/", func(c *fiber.Ctx) error {
		spots, err := svc.List(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(spots)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		sp, err := svc.Get(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "spot not found")
		}
		return c.JSON(sp)
	})
}
