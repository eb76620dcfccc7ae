package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/contractintel/backend/internal/storage/memory"
	"github.com/contractintel/backend/internal/storage/models"
)

const apiVersion = "1.0.0"

type AdminHandler struct {
	store *memory.Store
}

func NewAdminHandler(store *memory.Store) *AdminHandler {
	return &AdminHandler{store: store}
}

func (h *AdminHandler) Health(c *fiber.Ctx) error {
	return c.JSON(models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Version:   apiVersion,
	})
}

// Metrics returns the JSON counters snapshot: one counter per operation
// plus the derived document count.
func (h *AdminHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(h.store.Metrics())
}
