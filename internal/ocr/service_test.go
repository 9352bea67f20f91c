package ocr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/inkscan/inkscan/internal/langdetect"
	"github.com/inkscan/inkscan/internal/preprocess"
	"github.com/inkscan/inkscan/internal/providers"
)

// stubDetector returns a fixed language and records calls.
type stubDetector struct {
	language string
	calls    int
}

func (d *stubDetector) Detect(ctx context.Context, image []byte) string {
	d.calls++
	return d.language
}

func (d *stubDetector) MapForTesseract(code string) string {
	return langdetect.MapForTesseract(code)
}

func newService(t *testing.T, remote, local providers.OCRProvider, det LanguageDetector) *Service {
	t.Helper()
	svc, err := New(Config{
		Remote:       remote,
		Local:        local,
		Detector:     det,
		Preprocessor: preprocess.New(),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return svc
}

func testImage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x/8+y/8)%2 == 0 {
				img.Set(x, y, color.White)
			} else {
				img.Set(x, y, color.Black)
			}
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

func TestNewRequiresProviders(t *testing.T) {
	if _, err := New(Config{Local: providers.NewMockProvider("local")}); err == nil {
		t.Error("expected error without remote provider")
	}
	if _, err := New(Config{Remote: providers.NewMockProvider("remote")}); err == nil {
		t.Error("expected error without local provider")
	}
}

func TestProcessImageRemoteSuccess(t *testing.T) {
	remote := providers.NewMockProvider(providers.ProviderRemote)
	remote.ResponseText = "remote text"
	local := providers.NewMockProvider(providers.ProviderLocal)

	svc := newService(t, remote, local, &stubDetector{language: "en"})

	result, err := svc.ProcessImage(context.Background(), testImage(t, 64, 64), "en", false)
	if err != nil {
		t.Fatalf("ProcessImage() error = %v", err)
	}
	if result.Provider != providers.ProviderRemote {
		t.Errorf("Provider = %q, want remote", result.Provider)
	}
	if result.Text != "remote text" {
		t.Errorf("Text = %q", result.Text)
	}
	if local.RequestCount() != 0 {
		t.Errorf("local provider called %d times, want 0", local.RequestCount())
	}
}

func TestProcessImageFallsBackToLocal(t *testing.T) {
	remote := providers.NewMockProvider(providers.ProviderRemote)
	remote.ShouldFail = true
	local := providers.NewMockProvider(providers.ProviderLocal)
	local.ResponseText = "local text"

	svc := newService(t, remote, local, &stubDetector{language: "en"})

	result, err := svc.ProcessImage(context.Background(), testImage(t, 64, 64), "en", false)
	if err != nil {
		t.Fatalf("ProcessImage() error = %v, want fallback success", err)
	}
	if result.Provider != providers.ProviderLocal {
		t.Errorf("Provider = %q, want local", result.Provider)
	}
	if result.Text != "local text" {
		t.Errorf("Text = %q", result.Text)
	}
	// The dialect mapping is applied before the local attempt.
	if result.Language != "eng" {
		t.Errorf("Language = %q, want eng", result.Language)
	}
}

func TestProcessImageBothFail(t *testing.T) {
	remote := providers.NewMockProvider(providers.ProviderRemote)
	remote.ShouldFail = true
	remote.FailMessage = "remote transport down"
	local := providers.NewMockProvider(providers.ProviderLocal)
	local.ShouldFail = true
	local.FailMessage = "engine exploded"

	svc := newService(t, remote, local, &stubDetector{language: "en"})

	_, err := svc.ProcessImage(context.Background(), testImage(t, 64, 64), "en", false)
	if err == nil {
		t.Fatal("expected error when both providers fail")
	}

	// The local engine's message leads; the remote cause is preserved.
	if !strings.HasPrefix(err.Error(), "local: engine exploded") {
		t.Errorf("error %q should lead with the local failure", err)
	}
	if !strings.Contains(err.Error(), "remote transport down") {
		t.Errorf("error %q should carry the remote cause", err)
	}

	var fbErr *FallbackError
	if !errors.As(err, &fbErr) {
		t.Fatalf("error type = %T, want *FallbackError", err)
	}
	if fbErr.Remote == nil || fbErr.Local == nil {
		t.Error("FallbackError should carry both causes")
	}
}

func TestProcessImageRetriesRemote(t *testing.T) {
	remote := providers.NewMockProvider(providers.ProviderRemote)
	remote.ShouldFail = true
	remote.Retries = 3
	remote.RetryDelay = time.Millisecond
	local := providers.NewMockProvider(providers.ProviderLocal)

	svc := newService(t, remote, local, &stubDetector{language: "en"})

	if _, err := svc.ProcessImage(context.Background(), testImage(t, 64, 64), "en", false); err != nil {
		t.Fatalf("ProcessImage() error = %v", err)
	}
	if got := remote.RequestCount(); got != 3 {
		t.Errorf("remote attempts = %d, want 3", got)
	}
	if got := local.RequestCount(); got != 1 {
		t.Errorf("local attempts = %d, want 1", got)
	}
}

func TestProcessImageAutoLanguage(t *testing.T) {
	remote := providers.NewMockProvider(providers.ProviderRemote)
	local := providers.NewMockProvider(providers.ProviderLocal)
	det := &stubDetector{language: "de"}

	svc := newService(t, remote, local, det)

	result, err := svc.ProcessImage(context.Background(), testImage(t, 64, 64), "auto", false)
	if err != nil {
		t.Fatalf("ProcessImage() error = %v", err)
	}
	if det.calls != 1 {
		t.Errorf("detector called %d times, want 1", det.calls)
	}
	if result.Language != "de" {
		t.Errorf("Language = %q, want de", result.Language)
	}
}

func TestProcessImageExplicitLanguageSkipsDetection(t *testing.T) {
	remote := providers.NewMockProvider(providers.ProviderRemote)
	local := providers.NewMockProvider(providers.ProviderLocal)
	det := &stubDetector{language: "de"}

	svc := newService(t, remote, local, det)

	if _, err := svc.ProcessImage(context.Background(), testImage(t, 64, 64), "fr", false); err != nil {
		t.Fatalf("ProcessImage() error = %v", err)
	}
	if det.calls != 0 {
		t.Errorf("detector called %d times, want 0", det.calls)
	}
}

func TestProcessImagePreprocessDecodeFailurePropagates(t *testing.T) {
	remote := providers.NewMockProvider(providers.ProviderRemote)
	local := providers.NewMockProvider(providers.ProviderLocal)

	svc := newService(t, remote, local, &stubDetector{language: "en"})

	_, err := svc.ProcessImage(context.Background(), []byte("garbage"), "en", true)
	if err == nil {
		t.Fatal("expected decode error to propagate")
	}
	if remote.RequestCount() != 0 || local.RequestCount() != 0 {
		t.Error("providers should not run when preprocessing fails")
	}
}

func TestProcessImageEndToEndWithFailingRemote(t *testing.T) {
	// A 4000x3000 frame forces the resize path; the remote stub always
	// fails, so the pipeline must land on the local provider.
	remote := providers.NewMockProvider(providers.ProviderRemote)
	remote.ShouldFail = true
	local := providers.NewMockProvider(providers.ProviderLocal)
	local.ResponseText = "page one contents"

	svc := newService(t, remote, local, &stubDetector{language: "en"})

	done := make(chan struct{})
	var result *providers.Result
	var err error
	go func() {
		result, err = svc.ProcessImage(context.Background(), testImage(t, 4000, 3000), "auto", true)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(30 * time.Second):
		t.Fatal("ProcessImage did not complete in bounded time")
	}

	if err != nil {
		t.Fatalf("ProcessImage() error = %v", err)
	}
	if result.Provider != providers.ProviderLocal {
		t.Errorf("Provider = %q, want local", result.Provider)
	}
	if result.ProcessingTime <= 0 {
		t.Errorf("ProcessingTime = %v, want > 0", result.ProcessingTime)
	}
	if result.Text == "" {
		t.Error("expected non-empty text")
	}
}

func TestExtractStructuredData(t *testing.T) {
	svc := newService(t,
		providers.NewMockProvider(providers.ProviderRemote),
		providers.NewMockProvider(providers.ProviderLocal),
		nil,
	)

	res := &providers.Result{Text: "- item\nplain sentence"}
	data := svc.ExtractStructuredData(res)
	if len(data.Lists) != 1 || len(data.Paragraphs) != 1 {
		t.Errorf("unexpected structure: %+v", data)
	}
	// The source result is not modified.
	if res.Structured != nil {
		t.Error("ExtractStructuredData should not attach structure to the result")
	}
}

func TestCleanTextDelegates(t *testing.T) {
	svc := newService(t,
		providers.NewMockProvider(providers.ProviderRemote),
		providers.NewMockProvider(providers.ProviderLocal),
		nil,
	)
	if got := svc.CleanText("a    b"); got != "a b" {
		t.Errorf("CleanText = %q", got)
	}
}
