// Package ocr orchestrates preprocessing, language detection, and the
// two-tier provider fallback into a single recognition operation.
package ocr

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/avast/retry-go/v4"

	"github.com/inkscan/inkscan/internal/langdetect"
	"github.com/inkscan/inkscan/internal/preprocess"
	"github.com/inkscan/inkscan/internal/providers"
	"github.com/inkscan/inkscan/internal/textproc"
)

// Preprocessor normalizes an image before recognition.
// Satisfied by preprocess.Preprocessor.
type Preprocessor interface {
	Preprocess(ctx context.Context, data []byte) (*preprocess.Result, error)
}

// LanguageDetector resolves a working language and maps it to the local
// engine's dialect. Satisfied by langdetect.Detector.
type LanguageDetector interface {
	Detect(ctx context.Context, image []byte) string
	MapForTesseract(code string) string
}

// Service coordinates the recognition pipeline. Collaborators are injected
// at construction so tests can substitute fakes for any stage.
//
// A Service holds no per-call mutable state; concurrent ProcessImage calls
// are safe without locking.
type Service struct {
	remote   providers.OCRProvider
	local    providers.OCRProvider
	detector LanguageDetector
	pre      Preprocessor
	logger   *slog.Logger
}

// Config holds the Service's collaborators.
type Config struct {
	// Remote is the primary provider. Required.
	Remote providers.OCRProvider
	// Local is the fallback provider. Required.
	Local providers.OCRProvider
	// Detector resolves "auto" language requests. Optional: without one,
	// "auto" resolves to English.
	Detector LanguageDetector
	// Preprocessor runs when callers request preprocessing. Optional:
	// without one, images pass through untouched.
	Preprocessor Preprocessor
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// New creates a recognition service.
func New(cfg Config) (*Service, error) {
	if cfg.Remote == nil {
		return nil, fmt.Errorf("remote provider is required")
	}
	if cfg.Local == nil {
		return nil, fmt.Errorf("local provider is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		remote:   cfg.Remote,
		local:    cfg.Local,
		detector: cfg.Detector,
		pre:      cfg.Preprocessor,
		logger:   logger.With("component", "ocr"),
	}, nil
}

// ProcessImage runs the full pipeline: optional preprocessing, language
// resolution, remote recognition, and local fallback.
//
// The remote attempt retries transient failures per the provider's retry
// budget; if it still fails, the image falls through to the local engine
// with the language mapped to its dialect. A remote failure alone never
// fails the call. If both providers fail, the returned error is a
// *FallbackError carrying both causes.
func (s *Service) ProcessImage(ctx context.Context, image []byte, language string, usePreprocessing bool) (*providers.Result, error) {
	working := image

	if usePreprocessing && s.pre != nil {
		pre, err := s.pre.Preprocess(ctx, working)
		if err != nil {
			return nil, fmt.Errorf("preprocess image: %w", err)
		}
		working = pre.Image
		// Quality and size are diagnostic only; they never branch the flow.
		s.logger.Info("image preprocessed",
			"quality", fmt.Sprintf("%.1f", pre.Quality),
			"original_size", fmt.Sprintf("%dx%d", pre.OriginalSize.Width, pre.OriginalSize.Height),
			"processed_size", fmt.Sprintf("%dx%d", pre.ProcessedSize.Width, pre.ProcessedSize.Height),
		)
	}

	resolved := s.resolveLanguage(ctx, working, language)

	result, remoteErr := s.recognizeRemote(ctx, working, resolved)
	if remoteErr == nil {
		s.logger.Info("remote recognition succeeded",
			"confidence", result.Confidence,
			"duration", result.ProcessingTime,
			"language", resolved,
		)
		return result, nil
	}

	s.logger.Warn("remote recognition failed, falling back to local engine", "error", remoteErr)

	mapped := s.mapLanguage(resolved)
	result, localErr := s.local.Recognize(ctx, working, mapped)
	if localErr != nil {
		return nil, &FallbackError{Remote: remoteErr, Local: localErr}
	}

	s.logger.Info("local recognition succeeded",
		"confidence", result.Confidence,
		"duration", result.ProcessingTime,
		"language", mapped,
	)
	return result, nil
}

// PreprocessImage exposes preprocessing standalone for callers that want
// normalization without recognition.
func (s *Service) PreprocessImage(ctx context.Context, image []byte) (*preprocess.Result, error) {
	if s.pre == nil {
		return nil, fmt.Errorf("no preprocessor configured")
	}
	return s.pre.Preprocess(ctx, image)
}

// DetectLanguage exposes the language probe standalone.
func (s *Service) DetectLanguage(ctx context.Context, image []byte) string {
	return s.resolveLanguage(ctx, image, langdetect.Auto)
}

// CleanText normalizes whitespace in recognized text.
func (s *Service) CleanText(text string) string {
	return textproc.CleanText(text)
}

// ExtractStructuredData derives structure from a recognition result's text.
// The result itself is not modified.
func (s *Service) ExtractStructuredData(result *providers.Result) *textproc.StructuredData {
	return textproc.ExtractStructure(result.Text)
}

// resolveLanguage turns "auto" (or empty) into a concrete code via the
// detector; explicit codes pass through as-is.
func (s *Service) resolveLanguage(ctx context.Context, image []byte, language string) string {
	if language != "" && language != langdetect.Auto {
		return language
	}
	if s.detector == nil {
		return "en"
	}
	detected := s.detector.Detect(ctx, image)
	s.logger.Debug("language detected", "language", detected)
	return detected
}

func (s *Service) mapLanguage(code string) string {
	if s.detector == nil {
		return langdetect.MapForTesseract(code)
	}
	return s.detector.MapForTesseract(code)
}

// recognizeRemote drives the remote provider with its own retry budget.
// Retries use exponential backoff from the provider's base delay; context
// cancellation aborts the loop.
func (s *Service) recognizeRemote(ctx context.Context, image []byte, language string) (*providers.Result, error) {
	attempts := uint(s.remote.MaxRetries())
	if attempts == 0 {
		attempts = 1
	}

	var result *providers.Result
	err := retry.Do(
		func() error {
			r, err := s.remote.Recognize(ctx, image, language)
			if err != nil {
				return err
			}
			result = r
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(s.remote.RetryDelayBase()),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return result, nil
}
