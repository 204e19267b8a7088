package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider is a minimal wire adapter for httptest-backed client tests.
type fakeProvider struct{}

func (fakeProvider) Name() string                 { return "fake" }
func (fakeProvider) BuildURL(baseURL string) string { return baseURL }
func (fakeProvider) SetHeaders(_ *http.Request)   {}

func (fakeProvider) BuildRequestBody(model string, messages []Message, _ *float64, _ int) ([]byte, error) {
	return json.Marshal(map[string]any{"model": model, "messages": messages})
}

func (fakeProvider) ParseResponse(body []byte, model string) (*Response, error) {
	var parsed struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, err
	}
	return &Response{Content: parsed.Content, Model: model}, nil
}

func init() {
	RegisterProvider(fakeProvider{})
}

func testRegistry(endpoints map[string]*EndpointConfig, chain ...string) *Registry {
	return NewRegistry(
		map[Purpose]*PurposeConfig{PurposeDefine: {Preferred: chain}},
		endpoints,
	)
}

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:       attempts,
		BackoffBase:       time.Millisecond,
		BackoffMultiplier: 1.0,
		MaxBackoff:        time.Millisecond,
	}
}

func TestClassifyHTTPError(t *testing.T) {
	tests := []struct {
		status    int
		transient bool
		fatal     bool
		quota     bool
	}{
		{http.StatusTooManyRequests, true, false, true},
		{http.StatusPaymentRequired, true, false, true},
		{http.StatusInternalServerError, true, false, false},
		{http.StatusBadGateway, true, false, false},
		{http.StatusUnauthorized, false, true, false},
		{http.StatusForbidden, false, true, false},
		{http.StatusBadRequest, false, true, false},
		{http.StatusTeapot, false, true, false},
	}

	for _, tt := range tests {
		err := classifyHTTPError(tt.status, []byte("boom"))
		assert.Equal(t, tt.transient, IsTransient(err), "status %d transient", tt.status)
		assert.Equal(t, tt.fatal, IsFatal(err), "status %d fatal", tt.status)
		assert.Equal(t, tt.quota, IsQuota(err), "status %d quota", tt.status)
	}
}

func TestCompleteSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		json.NewEncoder(w).Encode(map[string]string{"content": "Een document."})
	}))
	defer srv.Close()

	registry := testRegistry(map[string]*EndpointConfig{
		"srv": {Provider: "fake", URL: srv.URL, Model: "test-model", MaxTokens: 256},
	}, "srv")

	client := NewClient(registry, WithRetryConfig(fastRetry(1)))
	resp, err := client.Complete(context.Background(), Request{
		Purpose:  PurposeDefine,
		Messages: []Message{{Role: "user", Content: "Definieer: Identiteitsmiddel"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Een document.", resp.Content)
	assert.Equal(t, "test-model", resp.Model)
}

func TestCompleteRequiresMessages(t *testing.T) {
	client := NewClient(NewDefaultRegistry())
	_, err := client.Complete(context.Background(), Request{Purpose: PurposeDefine})
	assert.Error(t, err)
}

func TestCompleteRetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"content": "ok"})
	}))
	defer srv.Close()

	registry := testRegistry(map[string]*EndpointConfig{
		"srv": {Provider: "fake", URL: srv.URL, Model: "m"},
	}, "srv")

	client := NewClient(registry, WithRetryConfig(fastRetry(3)))
	resp, err := client.Complete(context.Background(), Request{
		Purpose:  PurposeDefine,
		Messages: []Message{{Role: "user", Content: "x"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, int32(3), calls.Load())
}

func TestCompleteFatalErrorStopsImmediately(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"content": "never"})
	}))
	defer fallback.Close()

	registry := testRegistry(map[string]*EndpointConfig{
		"primary":  {Provider: "fake", URL: srv.URL, Model: "m"},
		"fallback": {Provider: "fake", URL: fallback.URL, Model: "m"},
	}, "primary", "fallback")

	client := NewClient(registry, WithRetryConfig(fastRetry(3)))
	_, err := client.Complete(context.Background(), Request{
		Purpose:  PurposeDefine,
		Messages: []Message{{Role: "user", Content: "x"}},
	})
	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.Equal(t, int32(1), calls.Load(), "fatal errors are not retried and block fallback")
}

func TestCompleteFallsBackOnTransientFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"content": "from fallback"})
	}))
	defer fallback.Close()

	registry := testRegistry(map[string]*EndpointConfig{
		"primary":  {Provider: "fake", URL: srv.URL, Model: "m"},
		"fallback": {Provider: "fake", URL: fallback.URL, Model: "m"},
	}, "primary", "fallback")

	client := NewClient(registry, WithRetryConfig(fastRetry(2)))
	resp, err := client.Complete(context.Background(), Request{
		Purpose:  PurposeDefine,
		Messages: []Message{{Role: "user", Content: "x"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "from fallback", resp.Content)

	assert.True(t, registry.IsAvailable("primary"), "two failures stay below the default threshold")
}

func TestCompleteUnknownProviderIsFatal(t *testing.T) {
	registry := testRegistry(map[string]*EndpointConfig{
		"srv": {Provider: "does-not-exist", URL: "http://localhost:1", Model: "m"},
	}, "srv")

	client := NewClient(registry, WithRetryConfig(fastRetry(1)))
	_, err := client.Complete(context.Background(), Request{
		Purpose:  PurposeDefine,
		Messages: []Message{{Role: "user", Content: "x"}},
	})
	require.Error(t, err)
	assert.True(t, IsFatal(err))
}

func TestBackoffBounded(t *testing.T) {
	cfg := RetryConfig{
		MaxAttempts:       5,
		BackoffBase:       100 * time.Millisecond,
		BackoffMultiplier: 2.0,
		MaxBackoff:        300 * time.Millisecond,
	}

	for attempt := 1; attempt <= 5; attempt++ {
		b := cfg.backoff(attempt)
		assert.Greater(t, b, time.Duration(0), "attempt %d", attempt)
		assert.LessOrEqual(t, b, 375*time.Millisecond, "attempt %d jitter stays within +25%% of cap", attempt)
	}
}
