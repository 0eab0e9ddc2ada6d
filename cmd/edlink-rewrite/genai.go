package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"
)

const (
	defaultModel   = "gemini-2.5-flash"
	defaultBackend = "gemini-api"
)

// Model rewrites text according to an instruction.
type Model interface {
	Rewrite(ctx context.Context, model, instruction, text string) (string, error)
}

type genAIModel struct {
	backend genai.Backend
}

func newGenAIModel(backend string) (*genAIModel, error) {
	switch backend {
	case "gemini-api":
		return &genAIModel{backend: genai.BackendGeminiAPI}, nil
	case "vertex-ai":
		return &genAIModel{backend: genai.BackendVertexAI}, nil
	default:
		return nil, fmt.Errorf("unknown backend %q (expected gemini-api or vertex-ai)", backend)
	}
}

func (m *genAIModel) client(ctx context.Context) (*genai.Client, error) {
	cfg := &genai.ClientConfig{Backend: m.backend}
	if m.backend == genai.BackendGeminiAPI {
		apiKey := os.Getenv("GOOGLE_API_KEY")
		if apiKey == "" {
			return nil, errors.New("GOOGLE_API_KEY environment variable is required")
		}
		cfg.APIKey = apiKey
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gen AI client: %w", err)
	}
	return client, nil
}

func (m *genAIModel) Rewrite(ctx context.Context, model, instruction, text string) (string, error) {
	client, err := m.client(ctx)
	if err != nil {
		return "", err
	}

	resp, err := client.Models.GenerateContent(ctx, model, genai.Text(buildPrompt(instruction, text)), &genai.GenerateContentConfig{
		ResponseModalities: []string{"Text"},
	})
	if err != nil {
		return "", fmt.Errorf("rewrite request failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("no candidates in response")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("response contained no text")
	}
	return sb.String(), nil
}

func buildPrompt(instruction, text string) string {
	return instruction +
		"\nReply with the rewritten text only, without commentary or code fences." +
		"\n\n" + text
}

// cleanReply drops fences and surrounding blank lines a model may add, and
// keeps a trailing newline only if the original text had one.
func cleanReply(reply, original string) string {
	out := strings.TrimSpace(reply)
	if strings.HasPrefix(out, "```") && strings.HasSuffix(out, "```") {
		out = strings.TrimSuffix(out, "```")
		if i := strings.IndexByte(out, '\n'); i >= 0 {
			out = out[i+1:]
		} else {
			out = strings.TrimPrefix(out, "```")
		}
		out = strings.TrimSpace(out)
	}
	if strings.HasSuffix(original, "\n") {
		out += "\n"
	}
	return out
}
