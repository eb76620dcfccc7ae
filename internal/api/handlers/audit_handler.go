package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/contractintel/backend/internal/audit"
	"github.com/contractintel/backend/internal/storage/memory"
)

type AuditHandler struct {
	store   *memory.Store
	service *audit.Service
}

func NewAuditHandler(store *memory.Store, service *audit.Service) *AuditHandler {
	return &AuditHandler{
		store:   store,
		service: service,
	}
}

// Audit runs the risk audit over one stored document. On success the list is
// never empty: malformed provider output degrades to a single placeholder
// finding instead of silent data loss.
func (h *AuditHandler) Audit(c *fiber.Ctx) error {
	documentID := c.Query("document_id")

	if !h.store.Exists(documentID) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Document not found",
		})
	}

	h.store.Increment(memory.MetricAudits)

	findings := h.service.Audit(c.Context(), documentID)

	return c.JSON(findings)
}

// BatchAudit audits several documents at once; unknown ids are skipped and
// produce no entry in the result map.
func (h *AuditHandler) BatchAudit(c *fiber.Ctx) error {
	var req struct {
		DocumentIDs []string `json:"document_ids"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if len(req.DocumentIDs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "document_ids is required",
		})
	}

	results := h.service.BatchAudit(c.Context(), req.DocumentIDs)

	return c.JSON(results)
}
