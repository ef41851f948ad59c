package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"claritychain/internal/core"
	"claritychain/internal/log"

	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.5-flash"

type Config struct {
	APIKey string
	Model  string
}

// completer sends a single prompt to a model.
type completer interface {
	complete(ctx context.Context, system, prompt string) (string, error)
}

// GeminiGenerator implements Generator with the Gemini API.
type GeminiGenerator struct {
	model completer
	name  string
}

var _ Generator = (*GeminiGenerator)(nil)

// NewGeminiGenerator returns ErrDisabled when cfg has no API key.
func NewGeminiGenerator(ctx context.Context, cfg Config) (*GeminiGenerator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrDisabled
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiGenerator{
		model: &geminiModel{client: client, model: cfg.Model},
		name:  cfg.Model,
	}, nil
}

// New returns a Gemini generator, or Disabled when no key is set.
func New(ctx context.Context, cfg Config) (Generator, error) {
	g, err := NewGeminiGenerator(ctx, cfg)
	if errors.Is(err, ErrDisabled) {
		return Disabled{}, nil
	}
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (g *GeminiGenerator) Name() string {
	return "genai:" + g.name
}

func (g *GeminiGenerator) CampaignStory(ctx context.Context, p core.Project) (string, error) {
	return g.run(ctx, KindStory, p.ID, storyPrompt(p))
}

func (g *GeminiGenerator) CampaignSummary(ctx context.Context, p core.Project) (string, error) {
	return g.run(ctx, KindSummary, p.ID, summaryPrompt(p))
}

func (g *GeminiGenerator) SEOSuggestions(ctx context.Context, p core.Project) (string, error) {
	return g.run(ctx, KindSEO, p.ID, seoPrompt(p))
}

func (g *GeminiGenerator) SocialPost(ctx context.Context, p core.Project) (string, error) {
	return g.run(ctx, KindSocial, p.ID, socialPrompt(p))
}

func (g *GeminiGenerator) DonorReport(ctx context.Context, in ReportInput) (string, error) {
	return g.run(ctx, KindReport, "", reportPrompt(in))
}

func (g *GeminiGenerator) run(ctx context.Context, kind Kind, projectID, prompt string) (string, error) {
	text, err := g.model.complete(ctx, systemInstruction, prompt)
	if err != nil {
		log.LogError(ctx, "Content generation failed", err, log.ComponentAI, log.OpGenerate,
			log.NewFields().WithProject(projectID, ""))
		return "", fmt.Errorf("generate %s: %w", kind, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("generate %s: empty response", kind)
	}
	slog.DebugContext(ctx, "Content generated",
		log.FieldComponent, log.ComponentAI,
		"kind", string(kind),
		"chars", len(text))
	return text, nil
}

type geminiModel struct {
	client *genai.Client
	model  string
}

func (m *geminiModel) complete(ctx context.Context, system, prompt string) (string, error) {
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.7),
	}
	resp, err := m.client.Models.GenerateContent(ctx, m.model, contents, cfg)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}
