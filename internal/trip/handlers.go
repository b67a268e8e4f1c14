package trip

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req Trip
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.CreatedBy == "" {
			req.CreatedBy, _ = c.Locals("user_id").(string)
		}
		created, err := svc.Create(c.Context(), req)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	})

	r.Get("/", func(c *fiber.Ctx) error {
		overviews, err := svc.List(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(overviews)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		overview, err := svc.GetOverview(c.Context(), c.Params("id"))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "trip not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(overview)
	})

	r.Put("/:id", authMiddleware, func(c *fiber.Ctx) error {
		var req Trip
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		updated, err := svc.Update(c.Context(), c.Params("id"), req)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "trip not found")
			}
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(updated)
	})

	r.Post("/:id/cancel", authMiddleware, func(c *fiber.Ctx) error {
		overview, err := svc.Cancel(c.Context(), c.Params("id"))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "trip not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(overview)
	})
}
