package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type CheckHandler struct {
	store Pinger
}

func NewCheckHandler(store Pinger) *CheckHandler {
	return &CheckHandler{store: store}
}

func (h *CheckHandler) HandleHealthy(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"result": "ok"})
}

// HandleReady also checks the knowledge store.
func (h *CheckHandler) HandleReady(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		return ErrUnavailable("knowledge store unavailable: " + err.Error())
	}
	return c.JSON(fiber.Map{"result": "ready"})
}
