package narrative

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

const (
	// DefaultModel is the model used when none is configured
	DefaultModel = "gemini-2.0-flash"

	systemPrompt = "You are a security assistant that explains URL risk assessments to non-technical users. " +
		"Write 2-3 plain sentences summarizing how risky the site is and why, based only on the evidence provided. " +
		"Never mention provider names, JSON, or internal scores. Match your tone to the stated severity: " +
		"warn clearly on high severity, stay measured on medium, and stay calm on low. " +
		"Respond with the summary text only."
)

// Gemini generates narratives with the Gemini API. The screenshot, when
// present, is attached to the prompt so the model can describe what the page
// visually impersonates.
type Gemini struct {
	apiKey string
	model  string
}

// NewGemini builds a Gemini generator. The model falls back to DefaultModel
// when empty.
func NewGemini(apiKey, model string) *Gemini {
	if model == "" {
		model = DefaultModel
	}

	return &Gemini{apiKey: apiKey, model: model}
}

// Generate implements Generator. All failures degrade to placeholder text.
func (g *Gemini) Generate(ctx context.Context, req Request) string {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		log.Warn().Err(err).Msg("narrative generator client setup failed")

		return PlaceholderFailed
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
	}

	result, err := client.Models.GenerateContent(ctx, g.model, contents(req, true), config)
	if err != nil && len(req.Screenshot) > 0 {
		// the multimodal request can fail on oversized or rejected images;
		// retry once on text alone before giving up
		log.Warn().Err(err).Str("model", g.model).Msg("multimodal narrative generation failed, retrying without screenshot")

		result, err = client.Models.GenerateContent(ctx, g.model, contents(req, false), config)
	}

	if err != nil {
		log.Warn().Err(err).Str("model", g.model).Msg("narrative generation failed")

		return PlaceholderFailed
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return PlaceholderEmpty
	}

	return text
}

// contents builds the user turn: the evidence text plus the screenshot when
// one was captured and requested.
func contents(req Request, withScreenshot bool) []*genai.Content {
	prompt := fmt.Sprintf(
		"URL: %s\nSeverity: %s\nRisk score: %d of 100\nSecurity check evidence (JSON):\n%s",
		req.URL, req.Tier, req.RiskScore, string(req.TechnicalDetails),
	)

	parts := []*genai.Part{genai.NewPartFromText(prompt)}
	if withScreenshot && len(req.Screenshot) > 0 {
		parts = append(parts, genai.NewPartFromBytes(req.Screenshot, "image/png"))
	}

	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
}
