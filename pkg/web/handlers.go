package web

import (
	"errors"
	"math"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-airdrums/pkg/engine"
	"github.com/teslashibe/go-airdrums/pkg/zones"
)

var errNoController = errors.New("web: no engine controller")

// handleHealth reports liveness and hub traffic.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	snap, ok := s.Latest()
	resp := fiber.Map{
		"status":   "ok",
		"uptime_s": time.Since(s.started).Seconds(),
		"hub":      s.stateHub.Stats(),
	}
	if ok {
		resp["seq"] = snap.Seq
		resp["audio_state"] = snap.AudioState
		resp["live"] = snap.Spectrum.Live
	}
	return c.JSON(resp)
}

// handleState returns the latest snapshot.
func (s *Server) handleState(c *fiber.Ctx) error {
	snap, ok := s.Latest()
	if !ok {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "no frame yet",
		})
	}
	return c.JSON(snap)
}

// ZonesResponse is the body of GET /api/zones.
type ZonesResponse struct {
	Layout []zones.Zone `json:"layout"`
	Views  []zones.View `json:"views"`
}

func (s *Server) handleZones(c *fiber.Ctx) error {
	resp := ZonesResponse{Layout: s.layout, Views: []zones.View{}}
	if snap, ok := s.Latest(); ok && snap.Zones != nil {
		resp.Views = snap.Zones
	}
	return c.JSON(resp)
}

// ImpulseRequest is the body of POST /api/impulse/:id. A missing strength
// means a full strike.
type ImpulseRequest struct {
	Strength *float64 `json:"strength"`
}

func (s *Server) handleImpulse(c *fiber.Ctx) error {
	id := c.Params("id")

	var req ImpulseRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid body: " + err.Error(),
			})
		}
	}
	strength := strengthOr(req.Strength, 1)
	if math.IsNaN(strength) || math.IsInf(strength, 0) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "strength must be finite",
		})
	}

	if s.ctrl == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": errNoController.Error(),
		})
	}
	if err := s.ctrl.QueueImpulse(id, strength); err != nil {
		status := fiber.StatusInternalServerError
		if errors.Is(err, engine.ErrQueueFull) {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"id":       id,
		"strength": strength,
	})
}

// handleAudio starts or stops capture analysis.
func (s *Server) handleAudio(c *fiber.Ctx) error {
	var enable bool
	switch c.Params("action") {
	case "start":
		enable = true
	case "stop":
	default:
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "action must be start or stop",
		})
	}
	if s.ctrl == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": errNoController.Error(),
		})
	}
	if err := s.ctrl.QueueAudioAnalysis(enable); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"audio": c.Params("action")})
}
