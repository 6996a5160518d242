package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/obrasdb/internal/services"
)

// Health handles GET /health
func (h *Handler) Health(c *fiber.Ctx) error {
	result := services.HealthCheck(c.UserContext(), h.Config, h.Inventory.DB(), h.Log)
	status := fiber.StatusOK
	if result.Status != "healthy" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(result)
}
