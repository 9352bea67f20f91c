package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	RemoteBaseURL = "https://vision.inkscan.dev/v1"

	// Feature identifiers understood by the document-text endpoint.
	FeatureDocumentText = "DOCUMENT_TEXT_DETECTION"
	FeatureText         = "TEXT_DETECTION"
)

// RemoteConfig holds configuration for the cloud recognition client.
type RemoteConfig struct {
	APIKey    string
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64 // Requests per second (default: 10.0)
	Retries   int     // Max attempts for transient failures (default: 3)
}

// RemoteClient implements OCRProvider against the cloud document-text
// recognition endpoint. It requests structural output so downstream
// structure hints are available, and records wall-clock time per attempt.
// It never falls back itself; fallback is the coordinator's concern, so
// transport and service errors are returned unchanged.
type RemoteClient struct {
	apiKey    string
	baseURL   string
	rateLimit float64
	retries   int
	client    *http.Client
}

// NewRemoteClient creates a new cloud recognition client.
func NewRemoteClient(cfg RemoteConfig) *RemoteClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = RemoteBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 10.0
	}
	if cfg.Retries == 0 {
		cfg.Retries = 3
	}

	return &RemoteClient{
		apiKey:    cfg.APIKey,
		baseURL:   cfg.BaseURL,
		rateLimit: cfg.RateLimit,
		retries:   cfg.Retries,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Name returns the provider identifier.
func (c *RemoteClient) Name() string {
	return ProviderRemote
}

// RequestsPerSecond returns the rate limit for the remote endpoint.
func (c *RemoteClient) RequestsPerSecond() float64 {
	return c.rateLimit
}

// MaxRetries returns the maximum retry attempts.
func (c *RemoteClient) MaxRetries() int {
	return c.retries
}

// RetryDelayBase returns the base delay for exponential backoff.
func (c *RemoteClient) RetryDelayBase() time.Duration {
	return 2 * time.Second
}

// Recognize extracts text from an image using the full document-text
// detection feature.
func (c *RemoteClient) Recognize(ctx context.Context, image []byte, language string) (*Result, error) {
	start := time.Now()

	resp, err := c.doRequest(ctx, remoteRecognizeRequest{
		ImageData: base64.StdEncoding.EncodeToString(image),
		Features:  []string{FeatureDocumentText},
		Language:  language,
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Text:           *resp.Text,
		Confidence:     *resp.Confidence,
		Provider:       ProviderRemote,
		ProcessingTime: time.Since(start),
		Language:       language,
	}, nil
}

// DetectText runs the lightweight text-detection feature and returns the
// raw text sample. Used by language detection, which needs a small sample
// rather than a full structural pass.
func (c *RemoteClient) DetectText(ctx context.Context, image []byte) (string, error) {
	resp, err := c.doRequest(ctx, remoteRecognizeRequest{
		ImageData: base64.StdEncoding.EncodeToString(image),
		Features:  []string{FeatureText},
	})
	if err != nil {
		return "", err
	}
	return *resp.Text, nil
}

// doRequest posts a recognition request and parses the response into a
// validated payload. The payload is checked for required fields rather
// than trusted as-is.
func (c *RemoteClient) doRequest(ctx context.Context, body remoteRecognizeRequest) (*remoteRecognizeResponse, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/recognize", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		// Try to extract error message from response
		var errResp remoteErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Message != "" {
			return nil, fmt.Errorf("remote OCR error (status %d): %s", resp.StatusCode, errResp.Error.Message)
		}
		return nil, fmt.Errorf("remote OCR error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var recResp remoteRecognizeResponse
	if err := json.Unmarshal(respBody, &recResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if err := recResp.validate(); err != nil {
		return nil, err
	}

	return &recResp, nil
}

// Remote recognition API types

type remoteRecognizeRequest struct {
	ImageData string   `json:"imageData"`
	Features  []string `json:"features"`
	Language  string   `json:"language,omitempty"`
}

// remoteRecognizeResponse uses pointers for required fields so a missing
// field is distinguishable from a zero value during validation.
type remoteRecognizeResponse struct {
	Text           *string         `json:"text"`
	Confidence     *float64        `json:"confidence"`
	StructuredData json.RawMessage `json:"structuredData,omitempty"`
}

func (r *remoteRecognizeResponse) validate() error {
	if r.Text == nil {
		return fmt.Errorf("malformed recognize response: missing text field")
	}
	if r.Confidence == nil {
		return fmt.Errorf("malformed recognize response: missing confidence field")
	}
	if *r.Confidence < 0 || *r.Confidence > 100 {
		return fmt.Errorf("malformed recognize response: confidence %v out of range", *r.Confidence)
	}
	return nil
}

type remoteErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Verify interface
var _ OCRProvider = (*RemoteClient)(nil)
