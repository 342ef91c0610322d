// Package extract reads uploaded DOCX/PDF question banks and flattens them
// into a single ordered text stream with {{imageN}} placeholder tokens plus
// the extracted image bytes, ready for segmentation.
package extract

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Result is the output of one extraction: reading-order text with inline
// {{imageN}} placeholders (1-based, indexing into Images) and the PNG
// buffers in document order. Images not referenced from Text may exist
// (unused media parts); every placeholder in Text must resolve.
type Result struct {
	Text   string
	Images [][]byte
}

var (
	// ErrUnsupportedFormat rejects anything that is not .docx or .pdf.
	ErrUnsupportedFormat = errors.New("unsupported document format (only .docx/.pdf)")
	// ErrExtraction wraps structural corruption in the container itself.
	ErrExtraction = errors.New("document extraction failed")
)

// PlaceholderRe matches an inline image token and captures its 1-based index.
var PlaceholderRe = regexp.MustCompile(`\{\{image(\d+)\}\}`)

// Placeholder renders the inline token for the n-th extracted image (1-based).
func Placeholder(n int) string { return fmt.Sprintf("{{image%d}}", n) }

// Document dispatches on the declared filename extension.
func Document(data []byte, filename string) (Result, error) {
	return DocumentOCR(data, filename, DefaultOCR())
}

// DocumentOCR is Document with an explicit OCR toolchain, for deployments
// that pin binary paths or languages.
func DocumentOCR(data []byte, filename string, ocr OCRConfig) (Result, error) {
	name := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(name, ".docx"):
		res, err := DOCX(data)
		if err != nil {
			return Result{}, fmt.Errorf("%w: docx: %w", ErrExtraction, err)
		}
		return res, nil
	case strings.HasSuffix(name, ".pdf"):
		res, err := PDF(data, ocr)
		if err != nil {
			return Result{}, fmt.Errorf("%w: pdf: %w", ErrExtraction, err)
		}
		return res, nil
	default:
		return Result{}, ErrUnsupportedFormat
	}
}
