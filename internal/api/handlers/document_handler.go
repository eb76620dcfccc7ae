package handlers

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/contractintel/backend/internal/pdf"
	"github.com/contractintel/backend/internal/storage/memory"
	"github.com/contractintel/backend/internal/storage/models"
	"github.com/contractintel/backend/pkg/logger"
)

// Extractor is the slice of the PDF adapter the ingestion path needs.
type Extractor interface {
	Extract(data []byte) (string, int, error)
	SaveUpload(data []byte, filename string) (string, error)
}

type DocumentHandler struct {
	store     *memory.Store
	extractor Extractor
}

func NewDocumentHandler(store *memory.Store, extractor Extractor) *DocumentHandler {
	return &DocumentHandler{
		store:     store,
		extractor: extractor,
	}
}

// Ingest accepts a multipart list of PDF files. Per-file failures collect as
// warnings; the call only fails when no file could be processed.
func (h *DocumentHandler) Ingest(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No files provided",
		})
	}

	files := form.File["files"]
	if len(files) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No files provided",
		})
	}

	documentIDs := []string{}
	errors := []string{}
	processed := 0

	for _, fileHeader := range files {
		filename := fileHeader.Filename

		if !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
			errors = append(errors, fmt.Sprintf("Skipped %s - not a PDF", filename))
			continue
		}

		file, err := fileHeader.Open()
		if err != nil {
			errors = append(errors, fmt.Sprintf("Error processing %s: %s", filename, err.Error()))
			continue
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			errors = append(errors, fmt.Sprintf("Error processing %s: %s", filename, err.Error()))
			continue
		}

		// Staging save is best effort; a failed save never blocks extraction.
		if _, err := h.extractor.SaveUpload(data, filename); err != nil {
			logger.Warn("Upload staging save failed", zap.String("filename", filename), zap.Error(err))
		}

		text, pageCount, err := h.extractor.Extract(data)
		if err != nil {
			errors = append(errors, fmt.Sprintf("Error processing %s: %s", filename, err.Error()))
			continue
		}

		docID := pdf.DocumentID(filename, text)
		h.store.Store(docID, filename, text, map[string]string{
			"page_count": strconv.Itoa(pageCount),
		}, pageCount)

		logger.Info("Document ingested",
			zap.String("doc_id", docID),
			zap.String("filename", filename),
			zap.Int("pages", pageCount),
		)

		documentIDs = append(documentIDs, docID)
		processed++
	}

	if processed == 0 {
		detail := "No valid PDF files processed"
		if len(errors) > 0 {
			detail += ". Errors: " + strings.Join(errors, "; ")
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": detail,
		})
	}

	return c.JSON(models.IngestResponse{
		DocumentIDs:    documentIDs,
		Message:        fmt.Sprintf("Successfully ingested %d document(s)", processed),
		ProcessedCount: processed,
		Errors:         errors,
	})
}

// ListDocuments returns a redacted listing: never the extracted text.
func (h *DocumentHandler) ListDocuments(c *fiber.Ctx) error {
	docs := h.store.List()

	summaries := make([]models.DocumentSummary, 0, len(docs))
	for _, doc := range docs {
		summaries = append(summaries, models.DocumentSummary{
			ID:         doc.ID,
			Filename:   doc.Filename,
			UploadedAt: doc.UploadedAt,
			PageCount:  doc.PageCount,
		})
	}

	return c.JSON(fiber.Map{
		"total":     len(summaries),
		"documents": summaries,
	})
}
