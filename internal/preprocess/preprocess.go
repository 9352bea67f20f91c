// Package preprocess normalizes raw note images before recognition:
// bounded downscale, contrast enhancement, and a pixel-contrast quality
// score that the pipeline logs for diagnostics.
package preprocess

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"math"

	"golang.org/x/image/draw"
)

// Preprocessing constants. The dimension bound keeps payloads inside the
// remote endpoint's size limits while preserving aspect ratio exactly.
const (
	DefaultMaxDimension = 2048
	DefaultJPEGQuality  = 95

	contrastFactor   = 1.2
	brightnessOffset = 10
)

// Size is a pixel dimension pair.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Result is the output of a preprocessing pass.
type Result struct {
	// Image is the re-encoded frame (JPEG).
	Image []byte `json:"-"`

	OriginalSize  Size `json:"original_size"`
	ProcessedSize Size `json:"processed_size"`

	// Quality is a 0-100 score derived from luminance contrast.
	// Informational only: the pipeline logs it but never branches on it.
	Quality float64 `json:"quality"`
}

// Preprocessor normalizes and enhances images.
type Preprocessor struct {
	// MaxDimension bounds the longer output axis (default 2048).
	MaxDimension int
	// JPEGQuality is the re-encode quality setting (default 95).
	JPEGQuality int
}

// New creates a preprocessor with default settings.
func New() *Preprocessor {
	return &Preprocessor{
		MaxDimension: DefaultMaxDimension,
		JPEGQuality:  DefaultJPEGQuality,
	}
}

// Preprocess decodes the image, resizes it to fit within MaxDimension
// (aspect ratio preserved, no cropping), applies a fixed linear
// contrast/brightness transform per RGB channel, scores contrast quality,
// and re-encodes the adjusted frame as JPEG.
//
// Only a decode failure produces an error; everything after decode is
// deterministic over the pixel buffer.
func (p *Preprocessor) Preprocess(ctx context.Context, data []byte) (*Result, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	bounds := img.Bounds()
	origW, origH := bounds.Dx(), bounds.Dy()
	targetW, targetH := targetSize(origW, origH, p.maxDimension())

	// Render at target dimensions with a high-quality resampling filter.
	dst := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)

	enhance(dst)
	quality := contrastQuality(dst)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: p.jpegQuality()}); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}

	return &Result{
		Image:         buf.Bytes(),
		OriginalSize:  Size{Width: origW, Height: origH},
		ProcessedSize: Size{Width: targetW, Height: targetH},
		Quality:       quality,
	}, nil
}

func (p *Preprocessor) maxDimension() int {
	if p.MaxDimension > 0 {
		return p.MaxDimension
	}
	return DefaultMaxDimension
}

func (p *Preprocessor) jpegQuality() int {
	if p.JPEGQuality > 0 {
		return p.JPEGQuality
	}
	return DefaultJPEGQuality
}

// targetSize scales both dimensions by the same ratio so the longer axis
// equals the bound exactly; dimensions already within the bound pass
// through unchanged.
func targetSize(w, h, maxDim int) (int, int) {
	if w <= maxDim && h <= maxDim {
		return w, h
	}
	if w >= h {
		ratio := float64(maxDim) / float64(w)
		return maxDim, max(1, int(math.Round(float64(h)*ratio)))
	}
	ratio := float64(maxDim) / float64(h)
	return max(1, int(math.Round(float64(w)*ratio))), maxDim
}

// enhance applies output = clamp(contrast*input + brightness) to each RGB
// channel in place. Alpha is untouched.
func enhance(img *image.RGBA) {
	pix := img.Pix
	for i := 0; i < len(pix); i += 4 {
		for c := 0; c < 3; c++ {
			v := contrastFactor*float64(pix[i+c]) + brightnessOffset
			pix[i+c] = clampByte(v)
		}
	}
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// contrastQuality converts each pixel to luminance, takes the population
// standard deviation across the frame, and scales it to 0-100. Flat
// images score near 0; high-contrast documents score high.
func contrastQuality(img *image.RGBA) float64 {
	pix := img.Pix
	n := len(pix) / 4
	if n == 0 {
		return 0
	}

	var sum, sumSq float64
	for i := 0; i < len(pix); i += 4 {
		lum := 0.299*float64(pix[i]) + 0.587*float64(pix[i+1]) + 0.114*float64(pix[i+2])
		sum += lum
		sumSq += lum * lum
	}

	mean := sum / float64(n)
	variance := sumSq/float64(n) - mean*mean
	if variance < 0 {
		variance = 0
	}
	stddev := math.Sqrt(variance)

	quality := stddev / 128 * 100
	if quality > 100 {
		quality = 100
	}
	if quality < 0 {
		quality = 0
	}
	return quality
}
