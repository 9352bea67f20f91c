package providers

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// MockProvider is an OCRProvider for testing.
type MockProvider struct {
	// Configurable behavior
	ProviderName string
	Latency      time.Duration
	ShouldFail   bool
	FailAfter    int // Fail after N requests (0 = never)
	FailMessage  string
	ResponseText string
	Score        float64

	// Rate limiting
	RPS        float64
	Retries    int
	RetryDelay time.Duration

	// State
	requestCount atomic.Int64
}

// NewMockProvider creates a mock provider with sensible defaults.
func NewMockProvider(name string) *MockProvider {
	return &MockProvider{
		ProviderName: name,
		Latency:      time.Millisecond,
		FailMessage:  "mock failure",
		ResponseText: "mock recognized text",
		Score:        90,
		RPS:          100,
	}
}

// Name returns the provider identifier.
func (m *MockProvider) Name() string {
	return m.ProviderName
}

// RequestsPerSecond returns the configured RPS limit.
func (m *MockProvider) RequestsPerSecond() float64 {
	return m.RPS
}

// MaxRetries returns the configured retry attempts.
func (m *MockProvider) MaxRetries() int {
	return m.Retries
}

// RetryDelayBase returns the configured retry delay.
func (m *MockProvider) RetryDelayBase() time.Duration {
	return m.RetryDelay
}

// RequestCount returns the number of Recognize calls so far.
func (m *MockProvider) RequestCount() int64 {
	return m.requestCount.Load()
}

// Recognize returns the configured response after the configured latency,
// or fails according to ShouldFail / FailAfter.
func (m *MockProvider) Recognize(ctx context.Context, image []byte, language string) (*Result, error) {
	start := time.Now()
	count := m.requestCount.Add(1)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(m.Latency):
	}

	if m.ShouldFail || (m.FailAfter > 0 && count > int64(m.FailAfter)) {
		return nil, fmt.Errorf("%s: %s", m.ProviderName, m.FailMessage)
	}

	return &Result{
		Text:           m.ResponseText,
		Confidence:     m.Score,
		Provider:       m.ProviderName,
		ProcessingTime: time.Since(start),
		Language:       language,
	}, nil
}

// Verify interface
var _ OCRProvider = (*MockProvider)(nil)
