// Package extract turns uploaded report documents into plain text. One
// extractor handles every supported format and dispatches on the declared
// extension; the underlying engines (PDF parser, tesseract, goquery) are
// hidden behind it.
package extract

import (
	"context"
	"fmt"
	"strings"
)

// UnsupportedFormatError is returned when the declared format is not in the
// recognized set.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file type: %q", e.Format)
}

// ExtractionError wraps a failure of the underlying extraction engine, such
// as a corrupt file or a missing tesseract binary.
type ExtractionError struct {
	Format string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extracting text from %s: %v", e.Format, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// OCRFunc runs optical character recognition over a whole image.
type OCRFunc func(ctx context.Context, image []byte) (string, error)

type Config struct {
	// TesseractCmd is the tesseract binary invoked for image OCR.
	TesseractCmd string
	// OCR overrides the tesseract invocation; used by tests.
	OCR OCRFunc
}

type Extractor struct {
	ocr OCRFunc
}

func NewWithConfig(config Config) *Extractor {
	if config.TesseractCmd == "" {
		config.TesseractCmd = "tesseract"
	}
	ocr := config.OCR
	if ocr == nil {
		ocr = tesseractOCR(config.TesseractCmd)
	}
	return &Extractor{ocr: ocr}
}

func New() *Extractor {
	return NewWithConfig(Config{})
}

// Extract returns the plain text of the document. An empty result is valid;
// only engine failures and unknown formats are errors.
func (e *Extractor) Extract(ctx context.Context, data []byte, format string) (string, error) {
	switch strings.ToLower(format) {
	case "pdf":
		return e.extractPDF(data)
	case "png", "jpg", "jpeg":
		return e.extractImage(ctx, data)
	case "txt":
		return string(data), nil
	case "docx":
		return e.extractDocx(data)
	case "html", "htm":
		return e.extractHTML(data)
	default:
		return "", &UnsupportedFormatError{Format: format}
	}
}

func (e *Extractor) extractImage(ctx context.Context, data []byte) (string, error) {
	text, err := e.ocr(ctx, data)
	if err != nil {
		return "", &ExtractionError{Format: "image", Err: err}
	}
	return text, nil
}
