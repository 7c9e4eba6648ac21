package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/rcliao/memstore/internal/llm"
)

// MemoryPrompt instructs the memory model to emit the structured ingestion
// format.
const MemoryPrompt = `You are a memory manager. Read the user's text and extract the facts worth remembering.
Reply with a single JSON object and nothing else, in this format:
{"items": [{"type": "<category>", "content": "<text to store>", "metadata": {}}]}
Valid categories: conversations, documents, crashreport, reminders, generic.
For conversations set metadata.speaker. For documents set metadata.title.`

// ChatGenerate sends system and messages to the chat model and returns its
// raw answer.
func (m *Manager) ChatGenerate(ctx context.Context, system string, messages []llm.Message) (string, error) {
	return m.generate(ctx, m.chatModel, system, messages)
}

// MemoryGenerate sends system and messages to the memory model and returns
// its raw answer.
func (m *Manager) MemoryGenerate(ctx context.Context, system string, messages []llm.Message) (string, error) {
	return m.generate(ctx, m.memoryModel, system, messages)
}

func (m *Manager) generate(ctx context.Context, modelName, system string, messages []llm.Message) (string, error) {
	if m.generator == nil || modelName == "" {
		return "", ErrUnconfiguredAdapter
	}
	m.logger.Debug("generating", zap.String("model", modelName), zap.Int("messages", len(messages)))
	out, err := m.generator.Generate(ctx, modelName, llm.ComposePrompt(system, messages))
	if err != nil {
		return "", fmt.Errorf("generate with %s: %w", modelName, err)
	}
	return out, nil
}

// IngestWithModel asks the memory model to structure text and ingests its
// answer with IngestStructured.
func (m *Manager) IngestWithModel(ctx context.Context, text string) (map[string]int, error) {
	raw, err := m.MemoryGenerate(ctx, MemoryPrompt, []llm.Message{{Role: "user", Content: text}})
	if err != nil {
		return nil, err
	}
	return m.IngestStructured(ctx, stripCodeFence(raw))
}

// IngestAuto ingests text with the memory model when one is configured and
// line by line otherwise. When the model's answer is not valid structured
// input the text is ingested line by line instead and fellBack is true;
// generator failures are returned as errors.
func (m *Manager) IngestAuto(ctx context.Context, text string) (counts map[string]int, fellBack bool, err error) {
	if m.generator == nil || m.memoryModel == "" {
		counts, err = m.IngestLines(ctx, text)
		return counts, false, err
	}
	counts, err = m.IngestWithModel(ctx, text)
	if !errors.Is(err, ErrInvalidFormat) {
		return counts, false, err
	}
	m.logger.Warn("memory model answer rejected, ingesting lines",
		zap.String("model", m.memoryModel), zap.Error(err))
	counts, err = m.IngestLines(ctx, text)
	return counts, true, err
}

// ListModels lists the models offered by the configured generator.
func (m *Manager) ListModels(ctx context.Context) ([]string, error) {
	lister, ok := m.generator.(llm.ModelLister)
	if !ok {
		return nil, ErrUnconfiguredAdapter
	}
	return lister.ListModels(ctx)
}

// stripCodeFence removes a surrounding ``` fence (with an optional language
// tag) that models often wrap JSON answers in.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	body := strings.TrimSuffix(strings.TrimPrefix(s, "```"), "```")
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		body = body[nl+1:]
	}
	return strings.TrimSpace(body)
}
