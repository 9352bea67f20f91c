// Package rasterize turns PDF note attachments into raster frames the
// recognition pipeline can consume. PDFs are validated and counted with
// pdfcpu before any page is rendered with the MuPDF-backed renderer.
package rasterize

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// DefaultDPI is the render resolution for recognition input. 300 DPI is
// the common OCR sweet spot; higher wastes pixels that preprocessing will
// downscale anyway.
const DefaultDPI = 300

// IsPDF reports whether the payload looks like a PDF document.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF-"))
}

// PageCount validates the document and returns its page count.
func PageCount(data []byte) (int, error) {
	count, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return 0, fmt.Errorf("invalid PDF: %w", err)
	}
	return count, nil
}

// RenderPage rasterizes one page (1-indexed) to a PNG frame at the given
// DPI. A dpi of 0 uses DefaultDPI.
func RenderPage(data []byte, page int, dpi float64) ([]byte, error) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}

	count, err := PageCount(data)
	if err != nil {
		return nil, err
	}
	if page < 1 || page > count {
		return nil, fmt.Errorf("page %d out of range: document has %d pages", page, count)
	}

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	img, err := doc.ImageDPI(page-1, dpi)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page %d: %w", page, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}
