package server

import (
	"time"

	"github.com/oncletomfr-eng/cascais-fishing-sub015/internal/auth"
	"github.com/oncletomfr-eng/cascais-fishing-sub015/internal/booking"
	"github.com/oncletomfr-eng/cascais-fishing-sub015/internal/config"
	"github.com/oncletomfr-eng/cascais-fishing-sub015/internal/media"
	"github.com/oncletomfr-eng/cascais-fishing-sub015/internal/report"
	"github.com/oncletomfr-eng/cascais-fishing-sub015/internal/spot"
	"github.com/oncletomfr-eng/cascais-fishing-sub015/internal/stream"
	"github.com/oncletomfr-eng/cascais-fishing-sub015/internal/trip"
	"github.com/oncletomfr-eng/cascais-fishing-sub015/internal/weather"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Stream *stream.Hub
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	heartbeat := time.Duration(cfg.StreamHeartbeatSec) * time.Second

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     db,
		Redis:  redisClient,
		Stream: stream.NewHub(redisClient, heartbeat),
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	tripSvc := trip.NewService(s.DB, s.Redis, s.Stream)
	bookingSvc := booking.NewService(s.DB, s.Redis, s.Stream, s.Cfg.AutoConfirm)

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, s.DB))
	trips := s.App.Group("/trips")
	trip.RegisterRoutes(trips, tripSvc, jwtMiddleware)
	booking.RegisterTripRoutes(trips, bookingSvc, jwtMiddleware)
	booking.RegisterRoutes(s.App.Group("/bookings"), bookingSvc)
	report.RegisterRoutes(s.App.Group("/reports"), report.NewService(s.DB, s.Stream), jwtMiddleware)
	weather.RegisterRoutes(s.App.Group("/weather"), weather.NewService(s.DB, s.Stream), jwtMiddleware)
	spot.RegisterRoutes(s.App.Group("/spots"), spot.NewService(s.DB), jwtMiddleware)
	media.RegisterRoutes(s.App.Group("/media"), media.NewService(s.DB), jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}
