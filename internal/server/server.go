// Package server exposes the geometry engine over HTTP.
package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/danmaps/GridScaper/internal/logging"
	"github.com/danmaps/GridScaper/internal/observability"
	"github.com/danmaps/GridScaper/internal/store"
)

// Config wires the server's collaborators. Logger defaults to Noop;
// Collector and Store may be nil, which disables metrics and scene
// persistence respectively.
type Config struct {
	Logger    logging.Logger
	Collector *observability.EngineCollector
	Store     *store.Store
}

// Server holds the HTTP handler set over the engine.
type Server struct {
	log     logging.Logger
	metrics *observability.EngineCollector
	store   *store.Store
}

// New builds a Server from its collaborators.
func New(cfg Config) *Server {
	log := cfg.Logger
	if log == nil {
		log = logging.Noop()
	}
	return &Server{
		log:     log,
		metrics: cfg.Collector,
		store:   cfg.Store,
	}
}

// App assembles the fiber application: recovery, request logging and
// metrics middleware, then the API routes.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "GridScaper Engine",
	})

	app.Use(recover.New())
	app.Use(s.requestMiddleware)

	app.Get("/health/live", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "alive"})
	})
	app.Get("/health/ready", s.handleReady)

	api := app.Group("/api/v1")
	api.Post("/catenary/solve", s.handleCatenarySolve)
	api.Post("/conductors/curve", s.handleConductorCurve)
	api.Post("/clearances/check", s.handleClearanceCheck)
	api.Post("/gis/parse", s.handleGISParse)
	api.Post("/gis/convert", s.handleGISConvert)
	api.Post("/terrain/surface", s.handleTerrainSurface)
	api.Post("/profile/parse", s.handleProfileParse)
	api.Post("/profile/terrain", s.handleProfileTerrain)

	api.Post("/scenes", s.handleSceneCreate)
	api.Get("/scenes", s.handleSceneList)
	api.Get("/scenes/:id", s.handleSceneGet)
	api.Put("/scenes/:id", s.handleSceneUpdate)
	api.Delete("/scenes/:id", s.handleSceneDelete)
	api.Post("/scenes/:id/recompute", s.handleSceneRecompute)
	api.Get("/scenes/:id/render", s.handleSceneRender)

	return app
}

// requestMiddleware assigns a request ID, logs the request outcome,
// and feeds the per-route counter.
func (s *Server) requestMiddleware(c fiber.Ctx) error {
	start := time.Now()
	ctx, reqID := logging.EnsureRequestID(context.Background())

	err := c.Next()

	status := c.Response().StatusCode()
	route := c.Route().Path
	s.metrics.ObserveRequest(route, c.Method(), status)
	s.log.Info(ctx, "http request",
		logging.String("request_id", reqID),
		logging.String("method", c.Method()),
		logging.String("path", c.Path()),
		logging.Int("status", status),
		logging.String("duration", time.Since(start).String()),
	)
	return err
}

func (s *Server) handleReady(c fiber.Ctx) error {
	if s.store != nil {
		if _, err := s.store.List(context.Background()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "store unavailable"})
		}
	}
	return c.JSON(fiber.Map{"status": "ready"})
}
