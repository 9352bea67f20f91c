package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRemoteClient_Recognize(t *testing.T) {
	t.Run("successful recognition", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Verify request
			if r.URL.Path != "/recognize" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			if r.Method != "POST" {
				t.Errorf("unexpected method: %s", r.Method)
			}
			if ct := r.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("unexpected content-type: %s", ct)
			}
			if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
				t.Errorf("unexpected authorization: %s", auth)
			}

			var req remoteRecognizeRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Fatalf("failed to decode request: %v", err)
			}
			if len(req.Features) != 1 || req.Features[0] != FeatureDocumentText {
				t.Errorf("unexpected features: %v", req.Features)
			}
			if req.Language != "de" {
				t.Errorf("unexpected language: %s", req.Language)
			}
			if req.ImageData == "" {
				t.Error("expected base64 image data")
			}

			text := "Notizen vom Montag\nZweite Zeile"
			conf := 96.5
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(remoteRecognizeResponse{Text: &text, Confidence: &conf})
		}))
		defer server.Close()

		client := NewRemoteClient(RemoteConfig{
			APIKey:  "test-key",
			BaseURL: server.URL,
		})

		result, err := client.Recognize(context.Background(), []byte("fake image data"), "de")
		if err != nil {
			t.Fatalf("Recognize() error = %v", err)
		}
		if result.Text != "Notizen vom Montag\nZweite Zeile" {
			t.Errorf("unexpected text: %q", result.Text)
		}
		if result.Confidence != 96.5 {
			t.Errorf("unexpected confidence: %v", result.Confidence)
		}
		if result.Provider != ProviderRemote {
			t.Errorf("Provider = %q, want %q", result.Provider, ProviderRemote)
		}
		if result.Language != "de" {
			t.Errorf("Language = %q, want de", result.Language)
		}
		if result.ProcessingTime <= 0 {
			t.Errorf("ProcessingTime = %v, want > 0", result.ProcessingTime)
		}
	})

	t.Run("service error is returned unchanged", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]string{"message": "rate limit exceeded", "type": "rate_limit"},
			})
		}))
		defer server.Close()

		client := NewRemoteClient(RemoteConfig{APIKey: "k", BaseURL: server.URL})

		_, err := client.Recognize(context.Background(), []byte("img"), "en")
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "rate limit exceeded") {
			t.Errorf("error %q should carry the service message", err)
		}
		if !strings.Contains(err.Error(), "429") {
			t.Errorf("error %q should carry the status code", err)
		}
	})

	t.Run("missing text field is a parse error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"confidence": 90}`))
		}))
		defer server.Close()

		client := NewRemoteClient(RemoteConfig{APIKey: "k", BaseURL: server.URL})

		_, err := client.Recognize(context.Background(), []byte("img"), "en")
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "missing text") {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("out of range confidence is a parse error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"text": "hi", "confidence": 150}`))
		}))
		defer server.Close()

		client := NewRemoteClient(RemoteConfig{APIKey: "k", BaseURL: server.URL})

		_, err := client.Recognize(context.Background(), []byte("img"), "en")
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "out of range") {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("context cancellation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer server.Close()

		client := NewRemoteClient(RemoteConfig{APIKey: "k", BaseURL: server.URL})

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		if _, err := client.Recognize(ctx, []byte("img"), "en"); err == nil {
			t.Fatal("expected error from cancelled context")
		}
	})
}

func TestRemoteClient_DetectText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req remoteRecognizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		// The probe uses the lightweight feature, not the structural one.
		if len(req.Features) != 1 || req.Features[0] != FeatureText {
			t.Errorf("unexpected features: %v", req.Features)
		}
		if req.Language != "" {
			t.Errorf("probe should not send a language, got %q", req.Language)
		}

		text := "sample text"
		conf := 80.0
		json.NewEncoder(w).Encode(remoteRecognizeResponse{Text: &text, Confidence: &conf})
	}))
	defer server.Close()

	client := NewRemoteClient(RemoteConfig{APIKey: "k", BaseURL: server.URL})

	sample, err := client.DetectText(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("DetectText() error = %v", err)
	}
	if sample != "sample text" {
		t.Errorf("sample = %q", sample)
	}
}

func TestRemoteClient_Defaults(t *testing.T) {
	client := NewRemoteClient(RemoteConfig{APIKey: "k"})

	if client.Name() != ProviderRemote {
		t.Errorf("Name() = %q", client.Name())
	}
	if client.RequestsPerSecond() != 10.0 {
		t.Errorf("RequestsPerSecond() = %v", client.RequestsPerSecond())
	}
	if client.MaxRetries() != 3 {
		t.Errorf("MaxRetries() = %v", client.MaxRetries())
	}
	if client.RetryDelayBase() != 2*time.Second {
		t.Errorf("RetryDelayBase() = %v", client.RetryDelayBase())
	}
}
