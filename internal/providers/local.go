package providers

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/otiai10/gosseract/v2"
)

// TesseractConfig holds configuration for the local recognition engine.
type TesseractConfig struct {
	// DataPath overrides the tessdata directory when set.
	DataPath string
}

// TesseractClient implements OCRProvider using a locally-executing
// Tesseract engine. It is the last resort in the fallback chain: errors
// here are hard failures for the whole recognition call.
//
// A fresh worker is acquired per call and released on every path, so no
// engine state leaks across calls. This trades a small startup cost per
// recognition for safety against leaking native workers.
type TesseractClient struct {
	dataPath string

	// newClient is swapped in tests to avoid requiring a tesseract install.
	newClient func() *gosseract.Client
}

// NewTesseractClient creates a new local recognition provider.
func NewTesseractClient(cfg TesseractConfig) *TesseractClient {
	return &TesseractClient{
		dataPath:  cfg.DataPath,
		newClient: gosseract.NewClient,
	}
}

// Name returns the provider identifier.
func (t *TesseractClient) Name() string {
	return ProviderLocal
}

// RequestsPerSecond returns 0: the local engine is not rate limited.
func (t *TesseractClient) RequestsPerSecond() float64 {
	return 0
}

// MaxRetries returns 0: a local engine failure is deterministic, so
// retrying is pointless.
func (t *TesseractClient) MaxRetries() int {
	return 0
}

// RetryDelayBase returns 0 (no retries).
func (t *TesseractClient) RetryDelayBase() time.Duration {
	return 0
}

// Recognize runs Tesseract over the image with the given engine language
// dialect ("eng", "deu", "chi_sim", ...). Confidence is the word-level
// average reported by the engine, rounded to an integer.
func (t *TesseractClient) Recognize(ctx context.Context, image []byte, language string) (*Result, error) {
	start := time.Now()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	client := t.newClient()
	defer client.Close()

	if t.dataPath != "" {
		if err := client.SetTessdataPrefix(t.dataPath); err != nil {
			return nil, fmt.Errorf("set tessdata prefix: %w", err)
		}
	}
	if language != "" {
		if err := client.SetLanguage(language); err != nil {
			return nil, fmt.Errorf("set language %q: %w", language, err)
		}
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("tesseract recognition failed: %w", err)
	}
	text = strings.TrimSpace(text)

	confidence := wordConfidence(client)
	if confidence == 0 && text != "" {
		// Word boxes unavailable; estimate from text quality instead.
		confidence = estimateConfidence(text)
	}

	return &Result{
		Text:           text,
		Confidence:     math.Round(confidence),
		Provider:       ProviderLocal,
		ProcessingTime: time.Since(start),
		Language:       language,
	}, nil
}

// wordConfidence averages the engine's per-word confidence (0-100).
// Returns 0 when bounding boxes are unavailable.
func wordConfidence(client *gosseract.Client) float64 {
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return 0
	}
	var sum float64
	for _, b := range boxes {
		sum += b.Confidence
	}
	return sum / float64(len(boxes))
}

// estimateConfidence scores recognized text on simple quality indicators:
// length, word count, and the share of alphabetic characters.
func estimateConfidence(text string) float64 {
	confidence := 50.0

	if len(text) > 1000 {
		confidence += 10
	}
	if len(text) > 5000 {
		confidence += 10
	}
	if len(strings.Fields(text)) > 100 {
		confidence += 10
	}

	alphaCount := 0
	for _, r := range text {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			alphaCount++
		}
	}
	if len(text) > 0 {
		ratio := float64(alphaCount) / float64(len(text))
		if ratio > 0.5 && ratio < 0.9 {
			confidence += 10
		}
	}

	if confidence > 85 {
		confidence = 85
	}
	return confidence
}

// Verify interface
var _ OCRProvider = (*TesseractClient)(nil)
