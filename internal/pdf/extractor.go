package pdf

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/contractintel/backend/pkg/logger"
	"github.com/contractintel/backend/pkg/utils"
)

// Extractor turns raw PDF bytes into page-annotated plain text. Uploads are
// also written to a staging directory, best effort, before extraction.
type Extractor struct {
	uploadDir string
}

func NewExtractor(uploadDir string) *Extractor {
	return &Extractor{uploadDir: uploadDir}
}

// Extract returns the concatenated text of every page, each preceded by a
// "[PAGE <n>]" marker line, right-trimmed, plus the page count. Corrupt,
// encrypted, or empty PDFs surface as a single error; there is no retry and
// no partial result.
func (e *Extractor) Extract(data []byte) (string, int, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("failed to parse PDF: %w", err)
	}

	pageCount := reader.NumPage()
	if pageCount == 0 {
		return "", 0, fmt.Errorf("PDF contains no pages")
	}

	var text strings.Builder
	for i := 1; i <= pageCount; i++ {
		page := reader.Page(i)

		pageText := ""
		if !page.V.IsNull() {
			pageText, err = page.GetPlainText(nil)
			if err != nil {
				return "", 0, fmt.Errorf("failed to extract text from page %d: %w", i, err)
			}
		}

		text.WriteString(fmt.Sprintf("\n[PAGE %d]\n%s\n", i, pageText))
	}

	return strings.TrimSpace(text.String()), pageCount, nil
}

// SaveUpload writes the uploaded bytes to the staging directory. Failures are
// logged and returned, but callers treat the save as best effort.
func (e *Extractor) SaveUpload(data []byte, filename string) (string, error) {
	if err := os.MkdirAll(e.uploadDir, 0755); err != nil {
		logger.Warn("Failed to create upload directory", zap.String("dir", e.uploadDir), zap.Error(err))
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	path := filepath.Join(e.uploadDir, filepath.Base(filename))
	if err := os.WriteFile(path, data, 0644); err != nil {
		logger.Warn("Failed to save upload", zap.String("path", path), zap.Error(err))
		return "", fmt.Errorf("failed to save upload: %w", err)
	}

	return path, nil
}

// DocumentID derives a stable identifier from the filename and the first
// 1000 characters of the extracted text. Identical filename and leading text
// always hash to the same id, so re-ingesting a document overwrites it.
func DocumentID(filename, text string) string {
	return utils.HashString(fmt.Sprintf("%s_%s", filename, utils.TruncateChars(text, 1000)))
}
