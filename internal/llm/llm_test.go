package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposePrompt(t *testing.T) {
	got := ComposePrompt("be terse", []Message{
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: "hi"},
		{Content: "no role"},
	})
	want := "[SYSTEM]\nbe terse\n\n[USER]\nhello\n\n[ASSISTANT]\nhi\n\n[USER]\nno role"
	assert.Equal(t, want, got)

	assert.Equal(t, "[USER]\nx", ComposePrompt("", []Message{{Role: "user", Content: "x"}}))
	assert.Equal(t, "", ComposePrompt("", nil))
}

func noCLI(string) (string, error) { return "", errors.New("not found") }

func TestOllamaGenerate(t *testing.T) {
	var got ollamaGenerateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]any{"response": `{"items":[]}`, "done": true})
	}))
	defer srv.Close()

	g := NewOllamaGenerator(srv.URL+"/", 256, time.Second, nil)
	g.lookPath = noCLI

	out, err := g.Generate(context.Background(), "qwen2.5", "prompt text")
	require.NoError(t, err)
	assert.Equal(t, `{"items":[]}`, out)
	assert.Equal(t, "qwen2.5", got.Model)
	assert.Equal(t, "prompt text", got.Prompt)
	assert.False(t, got.Stream)
	assert.EqualValues(t, 256, got.Options["num_predict"])
}

func TestOllamaGenerateNonEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("plain text answer"))
	}))
	defer srv.Close()

	g := NewOllamaGenerator(srv.URL, 0, time.Second, nil)
	g.lookPath = noCLI

	out, err := g.Generate(context.Background(), "m", "p")
	require.NoError(t, err)
	assert.Equal(t, "plain text answer", out)
}

func TestOllamaGenerateFailsWithoutServerOrCLI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	g := NewOllamaGenerator(srv.URL, 0, time.Second, nil)
	g.lookPath = noCLI

	_, err := g.Generate(context.Background(), "missing", "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "ollama cli")
}

func TestOllamaListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.Write([]byte(`{"models":[{"name":"llama3:8b","model":"llama3:8b"},{"model":"qwen2.5:7b"}]}`))
	}))
	defer srv.Close()

	g := NewOllamaGenerator(srv.URL, 0, time.Second, nil)
	g.lookPath = noCLI

	models, err := g.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"llama3:8b", "qwen2.5:7b"}, models)
}

func TestParseOllamaList(t *testing.T) {
	out := []byte("NAME            ID              SIZE      MODIFIED\n" +
		"llama3:8b       365c0bd3c000    4.7 GB    2 days ago\n" +
		"\n" +
		"qwen2.5:7b      845dbda0ea48    4.7 GB    3 weeks ago\n")
	assert.Equal(t, []string{"llama3:8b", "qwen2.5:7b"}, parseOllamaList(out))
}

func TestNewOllamaGeneratorDefaults(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "")
	g := NewOllamaGenerator("", 0, 0, nil)
	assert.Equal(t, DefaultOllamaURL, g.baseURL)

	t.Setenv("OLLAMA_HOST", "http://gpu-box:11434")
	g = NewOllamaGenerator("", 0, 0, nil)
	assert.Equal(t, "http://gpu-box:11434", g.baseURL)
}

func TestOpenAIGenerate(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "finish_reason": "stop",
				"message": {"role": "assistant", "content": "{\"items\":[]}"}}]
		}`))
	}))
	defer srv.Close()

	g := NewOpenAIGenerator(srv.URL+"/", "test-key", 128, time.Second)
	out, err := g.Generate(context.Background(), "gpt-4o-mini", "prompt text")
	require.NoError(t, err)
	assert.Equal(t, `{"items":[]}`, out)
	assert.Equal(t, "gpt-4o-mini", body["model"])

	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 1)
	assert.Equal(t, "user", msgs[0].(map[string]any)["role"])
}

func TestNew(t *testing.T) {
	g, err := New(Options{Provider: ProviderNone})
	require.NoError(t, err)
	assert.Nil(t, g)

	g, err = New(Options{})
	require.NoError(t, err)
	assert.Nil(t, g)

	g, err = New(Options{Provider: ProviderOllama, BaseURL: "http://localhost:1"})
	require.NoError(t, err)
	assert.IsType(t, &OllamaGenerator{}, g)

	g, err = New(Options{Provider: ProviderOpenAI, APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIGenerator{}, g)

	_, err = New(Options{Provider: "bard"})
	assert.Error(t, err)
}

func TestNewWithoutBaseURLUsesProviderDefault(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "http://gpu-box:11434")
	g, err := New(Options{Provider: ProviderOllama})
	require.NoError(t, err)
	assert.Equal(t, "http://gpu-box:11434", g.(*OllamaGenerator).baseURL)

	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		assert.Equal(t, "/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c","object":"chat.completion","created":1,"model":"m",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer srv.Close()
	t.Setenv("OPENAI_BASE_URL", srv.URL+"/")

	g, err = New(Options{Provider: ProviderOpenAI, APIKey: "k", Timeout: time.Second})
	require.NoError(t, err)
	out, err := g.Generate(context.Background(), "m", "hi")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 1, hits)
}
