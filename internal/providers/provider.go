package providers

import (
	"context"
	"time"

	"github.com/inkscan/inkscan/internal/textproc"
)

// Provider identifiers embedded in results. Callers use these to tell which
// engine produced a result; the field is always set by the provider itself.
const (
	ProviderRemote = "remote"
	ProviderLocal  = "local"
)

// OCRProvider extracts text from a single raster image.
// Separate implementations exist for the cloud document-text endpoint and
// the bundled Tesseract engine; they differ in rate limiting, retry
// behavior, and confidence semantics but return the same Result shape.
type OCRProvider interface {
	// Name returns the provider identifier ("remote" or "local").
	Name() string

	// Recognize extracts text from an image. The language code is
	// provider-specific: ISO 639-1 for the remote endpoint, Tesseract
	// dialect codes ("eng", "deu", ...) for the local engine.
	Recognize(ctx context.Context, image []byte, language string) (*Result, error)

	// Rate limiting and retry properties
	RequestsPerSecond() float64
	MaxRetries() int
	RetryDelayBase() time.Duration
}

// Result is the unified output of a recognition attempt. It is created
// fresh per invocation and immutable once returned.
type Result struct {
	// Text is the raw recognized text, possibly spanning multiple lines.
	Text string `json:"text"`

	// Confidence is a 0-100 score. The remote endpoint returns a
	// calibrated value; the local engine reports its own word-level
	// average. Callers treat both as comparable percentages.
	Confidence float64 `json:"confidence"`

	// Provider records which engine produced this result.
	Provider string `json:"provider"`

	// Structured is present only when structure extraction has been run.
	Structured *textproc.StructuredData `json:"structured_data,omitempty"`

	// ProcessingTime is the wall-clock duration of the attempt that
	// produced this result, not cumulative across fallback.
	ProcessingTime time.Duration `json:"processing_time"`

	// Language is the code used for this attempt, if one was resolved.
	Language string `json:"language,omitempty"`
}
