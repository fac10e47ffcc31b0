package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDF concatenates per-page text with a blank-line separator, skipping
// pages that are empty after trimming.
func (e *Extractor) extractPDF(data []byte) (text string, err error) {
	// The pdf package panics on some malformed documents.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = &ExtractionError{Format: "pdf", Err: fmt.Errorf("malformed document: %v", r)}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &ExtractionError{Format: "pdf", Err: err}
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", &ExtractionError{Format: "pdf", Err: err}
		}
		if trimmed := strings.TrimSpace(content); trimmed != "" {
			pages = append(pages, trimmed)
		}
	}

	return strings.Join(pages, "\n\n"), nil
}
