// Package langdetect resolves a working language code for recognition.
// Detection runs a lightweight remote text probe over the image and then
// classifies the sample by script; it never fails, falling back to English
// so the calling pipeline is never aborted by a probe error.
package langdetect

import (
	"context"
	"log/slog"
	"strings"
)

// Auto is the sentinel language value that triggers detection.
const Auto = "auto"

// TextSampler obtains a quick text sample from an image. Satisfied by
// providers.RemoteClient via its lightweight text-detection feature.
type TextSampler interface {
	DetectText(ctx context.Context, image []byte) (string, error)
}

// Detector classifies the dominant script of image text.
type Detector struct {
	sampler TextSampler
	logger  *slog.Logger
}

// New creates a detector backed by the given sampler.
func New(sampler TextSampler, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{sampler: sampler, logger: logger}
}

// Detect returns an ISO 639-1 language code for the image's text.
// Any probe failure resolves to "en": language detection is advisory and
// must never abort recognition.
func (d *Detector) Detect(ctx context.Context, image []byte) string {
	if d.sampler == nil {
		return "en"
	}

	sample, err := d.sampler.DetectText(ctx, image)
	if err != nil {
		d.logger.Warn("language probe failed, assuming English", "error", err)
		return "en"
	}

	return Classify(sample)
}

// scriptCheck pairs a language code with its character predicate.
// Order matters: checks run in fixed precedence, first match wins.
type scriptCheck struct {
	code  string
	match func(r rune) bool
}

var scriptChecks = []scriptCheck{
	{"zh", func(r rune) bool { return r >= 0x4E00 && r <= 0x9FFF }}, // CJK unified ideographs
	{"ja", func(r rune) bool { return (r >= 0x3040 && r <= 0x309F) || (r >= 0x30A0 && r <= 0x30FF) }}, // Hiragana, Katakana
	{"ko", func(r rune) bool { return r >= 0xAC00 && r <= 0xD7AF }}, // Hangul syllables
	{"ar", func(r rune) bool { return r >= 0x0600 && r <= 0x06FF }}, // Arabic block
	{"ru", func(r rune) bool { return r >= 0x0400 && r <= 0x04FF }}, // Cyrillic block
	{"fr", runeSet("àâæçéèêëîïôœùûüÿ")},
	{"de", runeSet("äöüßÄÖÜ")},
	{"es", runeSet("áéíóúñ¿¡")},
}

func runeSet(chars string) func(r rune) bool {
	return func(r rune) bool { return strings.ContainsRune(chars, r) }
}

// Classify returns the language code for a text sample, defaulting to "en"
// when no script check matches.
func Classify(sample string) string {
	for _, check := range scriptChecks {
		for _, r := range sample {
			if check.match(r) {
				return check.code
			}
		}
	}
	return "en"
}

// tesseractLangs maps generic ISO 639-1 codes to the local engine's
// dialect codes.
var tesseractLangs = map[string]string{
	"en": "eng",
	"es": "spa",
	"fr": "fra",
	"de": "deu",
	"it": "ita",
	"pt": "por",
	"ru": "rus",
	"ja": "jpn",
	"ko": "kor",
	"zh": "chi_sim",
	"ar": "ara",
}

// MapForTesseract converts a generic language code to the local engine's
// dialect. Total: unknown codes map to "eng".
func (d *Detector) MapForTesseract(code string) string {
	return MapForTesseract(code)
}

// MapForTesseract is the package-level form of the dialect mapping.
func MapForTesseract(code string) string {
	if mapped, ok := tesseractLangs[code]; ok {
		return mapped
	}
	return "eng"
}
