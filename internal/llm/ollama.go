package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultOllamaURL is used when neither the caller nor OLLAMA_HOST sets one.
const DefaultOllamaURL = "http://localhost:11434"

// OllamaGenerator calls a local Ollama server over HTTP and falls back to the
// ollama binary when the server cannot be reached.
type OllamaGenerator struct {
	baseURL   string
	maxTokens int
	client    *http.Client
	logger    *zap.Logger

	// lookPath locates the ollama binary; tests replace it.
	lookPath func(file string) (string, error)
}

type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

type ollamaTagsResponse struct {
	Models []struct {
		Name  string `json:"name"`
		Model string `json:"model"`
	} `json:"models"`
}

// NewOllamaGenerator creates a generator for the Ollama server at baseURL.
// An empty baseURL reads OLLAMA_HOST, then DefaultOllamaURL.
func NewOllamaGenerator(baseURL string, maxTokens int, timeout time.Duration, logger *zap.Logger) *OllamaGenerator {
	if baseURL == "" {
		baseURL = os.Getenv("OLLAMA_HOST")
	}
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OllamaGenerator{
		baseURL:   strings.TrimRight(baseURL, "/"),
		maxTokens: maxTokens,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
		lookPath:  exec.LookPath,
	}
}

// Generate tries the HTTP API first, then `ollama run`.
func (g *OllamaGenerator) Generate(ctx context.Context, model, prompt string) (string, error) {
	out, httpErr := g.httpGenerate(ctx, model, prompt)
	if httpErr == nil {
		return out, nil
	}
	g.logger.Debug("ollama http generate failed, trying cli", zap.String("model", model), zap.Error(httpErr))

	out, cliErr := g.cliGenerate(ctx, model, prompt)
	if cliErr == nil {
		return out, nil
	}
	return "", fmt.Errorf("could not call ollama via HTTP or CLI (is ollama running or on PATH?): %w",
		errors.Join(httpErr, cliErr))
}

func (g *OllamaGenerator) httpGenerate(ctx context.Context, model, prompt string) (string, error) {
	payload := ollamaGenerateRequest{Model: model, Prompt: prompt}
	if g.maxTokens > 0 {
		payload.Options = map[string]any{"num_predict": g.maxTokens}
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, "POST", g.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read ollama response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama error %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var result ollamaGenerateResponse
	if err := json.Unmarshal(b, &result); err != nil {
		// Not the documented envelope; hand back what the server said.
		return string(b), nil
	}
	if result.Error != "" {
		return "", fmt.Errorf("ollama error: %s", result.Error)
	}
	return result.Response, nil
}

func (g *OllamaGenerator) cliGenerate(ctx context.Context, model, prompt string) (string, error) {
	bin, err := g.lookPath("ollama")
	if err != nil {
		return "", fmt.Errorf("ollama cli: %w", err)
	}
	cmd := exec.CommandContext(ctx, bin, "run", model)
	cmd.Stdin = strings.NewReader(prompt)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("ollama run: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	if len(bytes.TrimSpace(out)) == 0 {
		return "", fmt.Errorf("ollama run: empty output")
	}
	return string(out), nil
}

// ListModels returns installed model names from /api/tags, or from
// `ollama list` when the server is unreachable.
func (g *OllamaGenerator) ListModels(ctx context.Context) ([]string, error) {
	models, httpErr := g.httpListModels(ctx)
	if httpErr == nil {
		return models, nil
	}
	g.logger.Debug("ollama http list failed, trying cli", zap.Error(httpErr))

	models, cliErr := g.cliListModels(ctx)
	if cliErr == nil {
		return models, nil
	}
	return nil, fmt.Errorf("list ollama models: %w", errors.Join(httpErr, cliErr))
}

func (g *OllamaGenerator) httpListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", g.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama error %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var tags ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, err
	}
	models := []string{}
	for _, m := range tags.Models {
		name := m.Name
		if name == "" {
			name = m.Model
		}
		if name != "" {
			models = append(models, name)
		}
	}
	return models, nil
}

func (g *OllamaGenerator) cliListModels(ctx context.Context) ([]string, error) {
	bin, err := g.lookPath("ollama")
	if err != nil {
		return nil, fmt.Errorf("ollama cli: %w", err)
	}
	out, err := exec.CommandContext(ctx, bin, "list").Output()
	if err != nil {
		return nil, fmt.Errorf("ollama list: %w", err)
	}
	return parseOllamaList(out), nil
}

// parseOllamaList takes the first column of `ollama list`, skipping the
// NAME header.
func parseOllamaList(out []byte) []string {
	models := []string{}
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || fields[0] == "NAME" {
			continue
		}
		models = append(models, fields[0])
	}
	return models
}
