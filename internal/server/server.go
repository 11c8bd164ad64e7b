package server

import (
	_ "embed"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yash181999/Cycle-Tracking-App/internal/archive"
	"github.com/yash181999/Cycle-Tracking-App/internal/config"
	"github.com/yash181999/Cycle-Tracking-App/internal/location"
	"github.com/yash181999/Cycle-Tracking-App/internal/render"
	"github.com/yash181999/Cycle-Tracking-App/internal/ride"
	"github.com/yash181999/Cycle-Tracking-App/internal/stream"
	"github.com/yash181999/Cycle-Tracking-App/internal/tracking"
)

//go:embed web/index.html
var indexHTML []byte

type Server struct {
	App      *fiber.App
	Cfg      config.Config
	DB       *pgxpool.Pool
	Redis    *redis.Client
	Stream   *stream.Hub
	Tracker  *ride.Tracker
	Tracking *tracking.Service
	Log      logrus.FieldLogger
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}

	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{Output: log.Writer()}))

	source, push := newLocationSource(cfg, log)
	tracker := ride.NewTracker(source, nil, log)
	hub := stream.NewHub(redisClient, log)

	var archiveSvc *archive.Service
	if db != nil {
		archiveSvc = archive.NewService(db)
	}

	s := &Server{
		App:     app,
		Cfg:     cfg,
		DB:      db,
		Redis:   redisClient,
		Stream:  hub,
		Tracker: tracker,
		Log:     log,
	}
	s.Tracking = tracking.NewService(tracker, tracking.Options{
		Push:    push,
		Hub:     hub,
		Archive: archiveSvc,
		Map: render.Options{
			AccessToken: cfg.MapboxToken,
			MapStyle:    cfg.MapStyle,
			Zoom:        cfg.MapZoom,
		},
		Log: log,
	})

	registerRoutes(s, archiveSvc)
	return s
}

// Close ends any live ride and stops the stream fan-out. The HTTP app is shut down separately.
func (s *Server) Close() {
	s.Tracker.Close()
	s.Stream.Close()
}

func registerRoutes(s *Server, archiveSvc *archive.Service) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"archive": archiveSvc != nil,
			"redis":   s.Redis != nil,
		})
	})

	s.App.Get("/", func(c *fiber.Ctx) error {
		c.Type("html", "utf-8")
		return c.Send(indexHTML)
	})

	tracking.RegisterRoutes(s.App.Group("/tracking"), s.Tracking)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
	if archiveSvc != nil {
		archive.RegisterRoutes(s.App.Group("/archive"), archiveSvc)
	}
}

// newLocationSource picks the configured source. A GPX replay that cannot be loaded falls back
// to pushed samples so the server still starts.
func newLocationSource(cfg config.Config, log logrus.FieldLogger) (ride.LocationSource, *location.PushSource) {
	if cfg.LocationSource == config.SourceGPX {
		replay, err := location.LoadGPXFile(cfg.ReplayGPXPath, cfg.ReplayInterval)
		if err == nil {
			log.WithField("points", replay.Len()).Info("replaying gpx track as location source")
			return replay, nil
		}
		log.WithError(err).WithField("path", cfg.ReplayGPXPath).Warn("gpx replay unavailable, accepting pushed samples")
	}
	push := location.NewPushSource()
	return push, push
}
