package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/contractintel/backend/internal/extraction"
	"github.com/contractintel/backend/internal/storage/memory"
	"github.com/contractintel/backend/pkg/logger"
)

type ExtractionHandler struct {
	store   *memory.Store
	service *extraction.Service
}

func NewExtractionHandler(store *memory.Store, service *extraction.Service) *ExtractionHandler {
	return &ExtractionHandler{
		store:   store,
		service: service,
	}
}

// ExtractFields runs structured field extraction over a stored document.
func (h *ExtractionHandler) ExtractFields(c *fiber.Ctx) error {
	documentID := c.Query("document_id")

	doc, ok := h.store.Get(documentID)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Document not found",
		})
	}

	h.store.Increment(memory.MetricExtractions)

	fields, err := h.service.ExtractFields(c.Context(), doc.Text)
	if err != nil {
		logger.Error("Field extraction failed", zap.String("document_id", documentID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Extraction failed: " + err.Error(),
		})
	}

	return c.JSON(fields)
}
