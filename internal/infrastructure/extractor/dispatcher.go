package extractor

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/kirillkom/expert-coach-assistant/internal/core/domain"
	"github.com/kirillkom/expert-coach-assistant/internal/core/ports"
)

// Dispatcher routes extraction to the format-specific extractor, chosen by
// MIME type first and file extension as fallback. Unrecognized formats go to
// the plain-text extractor, which rejects binary input with a clear error.
type Dispatcher struct {
	plaintext ports.TextExtractor
	pdf       ports.TextExtractor
	xlsx      ports.TextExtractor
}

func NewDispatcher(plaintext, pdf, xlsx ports.TextExtractor) *Dispatcher {
	return &Dispatcher{plaintext: plaintext, pdf: pdf, xlsx: xlsx}
}

func (d *Dispatcher) Extract(ctx context.Context, doc *domain.Document) (string, error) {
	extractor := d.pick(doc)
	if extractor == nil {
		return "", fmt.Errorf("no extractor for %s (%s)", doc.Filename, doc.MimeType)
	}
	return extractor.Extract(ctx, doc)
}

func (d *Dispatcher) pick(doc *domain.Document) ports.TextExtractor {
	switch normalizeMime(doc.MimeType) {
	case "application/pdf":
		return d.pdf
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return d.xlsx
	case "text/plain", "text/markdown", "text/csv":
		return d.plaintext
	}

	switch strings.ToLower(filepath.Ext(doc.Filename)) {
	case ".pdf":
		return d.pdf
	case ".xlsx":
		return d.xlsx
	default:
		return d.plaintext
	}
}

func normalizeMime(mimeType string) string {
	if mimeType == "" {
		return ""
	}
	parsed, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(mimeType))
	}
	return parsed
}
