package tracking

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/yash181999/Cycle-Tracking-App/internal/location"
	"github.com/yash181999/Cycle-Tracking-App/internal/render"
	"github.com/yash181999/Cycle-Tracking-App/internal/ride"
)

func RegisterRoutes(r fiber.Router, svc *Service) {
	r.Post("/ride/start", func(c *fiber.Ctx) error {
		summary, err := svc.Start(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(summary)
	})

	r.Post("/ride/pause", func(c *fiber.Ctx) error {
		summary, err := svc.Pause()
		if err != nil {
			return statusError(err)
		}
		return c.JSON(summary)
	})

	r.Post("/ride/stop", func(c *fiber.Ctx) error {
		summary, err := svc.Stop()
		if err != nil {
			return statusError(err)
		}
		return c.JSON(summary)
	})

	r.Get("/ride", func(c *fiber.Ctx) error {
		return c.JSON(svc.Current())
	})

	r.Get("/ride/path", func(c *fiber.Ctx) error {
		return c.JSON(svc.Path())
	})

	r.Post("/ride/samples", func(c *fiber.Ctx) error {
		var req SampleRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := svc.Ingest(c.Context(), req); err != nil {
			return statusError(err)
		}
		return c.SendStatus(fiber.StatusAccepted)
	})

	r.Post("/ride/errors", func(c *fiber.Ctx) error {
		var req FailureRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Code == "" && req.Message == "" {
			return fiber.NewError(fiber.StatusBadRequest, "code or message required")
		}
		if err := svc.ReportFailure(c.Context(), req); err != nil {
			return statusError(err)
		}
		return c.SendStatus(fiber.StatusAccepted)
	})

	r.Get("/ride/map", func(c *fiber.Ctx) error {
		view, err := svc.MapView()
		if err != nil {
			return statusError(err)
		}
		return c.JSON(view)
	})

	r.Get("/ride/export.gpx", func(c *fiber.Ctx) error {
		name, body, err := svc.ExportGPX()
		if err != nil {
			return statusError(err)
		}
		c.Attachment(name)
		c.Set(fiber.HeaderContentType, "application/gpx+xml")
		return c.Send(body)
	})

	r.Get("/ride/export.fit", func(c *fiber.Ctx) error {
		name, body, err := svc.ExportFIT()
		if err != nil {
			return statusError(err)
		}
		c.Attachment(name)
		c.Set(fiber.HeaderContentType, "application/vnd.ant.fit")
		return c.Send(body)
	})
}

func statusError(err error) error {
	switch {
	case errors.Is(err, ride.ErrNotTracking), errors.Is(err, ride.ErrNotActive),
		errors.Is(err, render.ErrNotStopped), errors.Is(err, location.ErrNoSubscriber),
		errors.Is(err, ErrNotPushSource):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, render.ErrEmptyPath):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidSample):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}
