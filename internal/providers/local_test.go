package providers

import (
	"context"
	"strings"
	"testing"

	"github.com/otiai10/gosseract/v2"
)

// The engine-backed path needs a tesseract install, so these tests cover
// everything up to the native boundary.

func TestTesseractClientMetadata(t *testing.T) {
	client := NewTesseractClient(TesseractConfig{})

	if client.Name() != ProviderLocal {
		t.Errorf("Name() = %q, want %q", client.Name(), ProviderLocal)
	}
	if client.RequestsPerSecond() != 0 {
		t.Errorf("RequestsPerSecond() = %v, want 0", client.RequestsPerSecond())
	}
	if client.MaxRetries() != 0 {
		t.Errorf("MaxRetries() = %v, want 0", client.MaxRetries())
	}
	if client.RetryDelayBase() != 0 {
		t.Errorf("RetryDelayBase() = %v, want 0", client.RetryDelayBase())
	}
}

func TestTesseractRecognizeCancelledContext(t *testing.T) {
	client := NewTesseractClient(TesseractConfig{})
	// The context check runs before any engine work, so a cancelled
	// context must return without touching the native library.
	client.newClient = func() *gosseract.Client {
		t.Fatal("engine should not be created for a cancelled context")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Recognize(ctx, []byte("img"), "eng")
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestEstimateConfidence(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{
			name: "short text gets the base score",
			text: "hi",
			want: 50,
		},
		{
			name: "mixed prose earns the alpha ratio bonus",
			text: "Meeting notes from today: 3 items.",
			want: 60,
		},
		{
			name: "long wordy text is capped at 85",
			text: strings.Repeat("some recognized words here 12 ", 200),
			want: 85,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := estimateConfidence(tt.text)
			if got != tt.want {
				t.Errorf("estimateConfidence() = %v, want %v", got, tt.want)
			}
		})
	}
}
