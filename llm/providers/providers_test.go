package providers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexdef/lexdef/llm"
)

func TestProvidersRegistered(t *testing.T) {
	for _, name := range []string{"ollama", "openai", "anthropic"} {
		assert.NotNil(t, llm.GetProvider(name), name)
	}
}

func TestOllamaBuildURL(t *testing.T) {
	p := &OllamaProvider{}
	assert.Equal(t, "http://localhost:11434/v1/chat/completions", p.BuildURL(""))
	assert.Equal(t, "http://host:8080/v1/chat/completions", p.BuildURL("http://host:8080/v1/"))
	assert.Equal(t, "http://host/v1/chat/completions", p.BuildURL("http://host/v1/chat/completions"))
}

func TestOllamaRequestBody(t *testing.T) {
	p := &OllamaProvider{}
	temp := 0.2
	body, err := p.BuildRequestBody("qwen2.5:14b", []llm.Message{
		{Role: "system", Content: "Je bent een jurist."},
		{Role: "user", Content: "Definieer: OM"},
	}, &temp, 512)
	require.NoError(t, err)

	var req map[string]any
	require.NoError(t, json.Unmarshal(body, &req))
	assert.Equal(t, "qwen2.5:14b", req["model"])
	assert.Equal(t, 0.2, req["temperature"])
	assert.Equal(t, float64(512), req["max_tokens"])
	assert.Len(t, req["messages"], 2)
}

func TestOllamaRequestBodyOmitsOptionalFields(t *testing.T) {
	p := &OllamaProvider{}
	body, err := p.BuildRequestBody("m", []llm.Message{{Role: "user", Content: "x"}}, nil, 0)
	require.NoError(t, err)

	var req map[string]any
	require.NoError(t, json.Unmarshal(body, &req))
	_, hasTemp := req["temperature"]
	assert.False(t, hasTemp)
	_, hasMax := req["max_tokens"]
	assert.False(t, hasMax)
}

func TestOllamaParseResponse(t *testing.T) {
	p := &OllamaProvider{}
	body := []byte(`{
		"model": "qwen2.5:14b",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": "Een orgaan dat strafbare feiten vervolgt."}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 40, "completion_tokens": 12, "total_tokens": 52}
	}`)

	resp, err := p.ParseResponse(body, "qwen2.5:14b")
	require.NoError(t, err)
	assert.Equal(t, "Een orgaan dat strafbare feiten vervolgt.", resp.Content)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, 52, resp.Usage.TotalTokens)
}

func TestOllamaParseResponseNoChoices(t *testing.T) {
	p := &OllamaProvider{}
	_, err := p.ParseResponse([]byte(`{"choices": []}`), "m")
	assert.Error(t, err)
}

func TestOpenAIHeaders(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	p := &OpenAIProvider{}
	req, _ := http.NewRequest(http.MethodPost, p.BuildURL(""), nil)
	p.SetHeaders(req)
	assert.Equal(t, "Bearer sk-test", req.Header.Get("Authorization"))
	assert.Equal(t, "https://api.openai.com/v1/chat/completions", req.URL.String())
}

func TestAnthropicHeaders(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "ak-test")
	p := &AnthropicProvider{}
	req, _ := http.NewRequest(http.MethodPost, p.BuildURL(""), nil)
	p.SetHeaders(req)
	assert.Equal(t, "ak-test", req.Header.Get("x-api-key"))
	assert.Equal(t, anthropicVersion, req.Header.Get("anthropic-version"))
	assert.Equal(t, "https://api.anthropic.com/v1/messages", req.URL.String())
}

func TestAnthropicRequestBodyLiftsSystemMessages(t *testing.T) {
	p := &AnthropicProvider{}
	body, err := p.BuildRequestBody("claude-sonnet-4-5", []llm.Message{
		{Role: "system", Content: "Je bent een jurist."},
		{Role: "user", Content: "Definieer: ID-kaart"},
	}, nil, 0)
	require.NoError(t, err)

	var req map[string]any
	require.NoError(t, json.Unmarshal(body, &req))
	assert.Equal(t, "Je bent een jurist.", req["system"])
	assert.Len(t, req["messages"], 1)
	assert.Equal(t, float64(4096), req["max_tokens"], "max_tokens is mandatory and defaulted")
}

func TestAnthropicParseResponse(t *testing.T) {
	p := &AnthropicProvider{}
	body := []byte(`{
		"model": "claude-sonnet-4-5",
		"content": [{"type": "text", "text": "Een document "}, {"type": "text", "text": "met pasfoto."}],
		"stop_reason": "end_turn",
		"usage": {"input_tokens": 30, "output_tokens": 10}
	}`)

	resp, err := p.ParseResponse(body, "claude-sonnet-4-5")
	require.NoError(t, err)
	assert.Equal(t, "Een document met pasfoto.", resp.Content)
	assert.Equal(t, "end_turn", resp.FinishReason)
	assert.Equal(t, 40, resp.Usage.TotalTokens)
}

func TestAnthropicParseResponseNoText(t *testing.T) {
	p := &AnthropicProvider{}
	_, err := p.ParseResponse([]byte(`{"content": []}`), "m")
	assert.Error(t, err)
}
