package media

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oncletomfr-eng/cascais-fishing-sub015/internal/db"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const baseURL = "https://media.cascais-fishing.example"

// Kinds accepted for an upload. Anything else is rejected before the insert.
var allowedKinds = map[string]struct{}{
	"catch_photo": {},
	"trip_cover":  {},
	"avatar":      {},
}

// ErrInvalidUpload marks a rejected upload payload.
var ErrInvalidUpload = errors.New("invalid upload")

type Service struct {
	db db.Querier
}

func NewService(q db.Querier) *Service {
	return &Service{db: q}
}

type Object struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// SaveObject records an uploaded object for the angler. The public URL is
// scoped under the fresh object id so uploaded names cannot collide.
func (s *Service) SaveObject(ctx context.Context, anglerID, fileName, kind string) (Object, error) {
	if anglerID == "" {
		return Object{}, fmt.Errorf("%w: angler id required", ErrInvalidUpload)
	}
	if fileName == "" || strings.ContainsAny(fileName, "/\\") {
		return Object{}, fmt.Errorf("%w: bad file name", ErrInvalidUpload)
	}
	if _, ok := allowedKinds[kind]; !ok {
		return Object{}, fmt.Errorf("%w: unsupported kind %q", ErrInvalidUpload, kind)
	}

	obj := Object{ID: uuid.NewString()}
	obj.URL = baseURL + "/" + obj.ID + "/" + fileName
	_, err := s.db.Exec(ctx, `
		INSERT INTO media_objects (id, angler_id, url, kind)
		VALUES ($1,$2,$3,$4)
	`, obj.ID, anglerID, obj.URL, kind)
	if err != nil {
		return Object{}, err
	}
	return obj, nil
}

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/upload", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			FileName string `json:"file_name"`
			Kind     string `json:"kind"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		if body.Kind == "" {
			body.Kind = "catch_photo"
		}

		// Uploads belong to the authenticated angler, never to an id
		// picked by the client.
		anglerID, _ := c.Locals("user_id").(string)
		if anglerID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing identity")
		}

		obj, err := svc.SaveObject(c.Context(), anglerID, body.FileName, body.Kind)
		if err != nil {
			if errors.Is(err, ErrInvalidUpload) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":         obj.ID,
			"url":        obj.URL,
			"expires_at": time.Now().Add(15 * time.Minute),
		})
	})
}
