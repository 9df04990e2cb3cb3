package ai

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiSDK generates content through the official Gen AI client.
type GeminiSDK struct {
	client *genai.Client
}

// NewGeminiSDK creates a client for the Gemini API. baseURL overrides the
// public endpoint when set.
func NewGeminiSDK(ctx context.Context, apiKey, baseURL string) (*GeminiSDK, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiSDK{client: client}, nil
}

// Generate sends the history and prompt as one GenerateContent call.
func (g *GeminiSDK) Generate(ctx context.Context, req Request) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, req.Model, sdkContents(req), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate failed: %w", err)
	}
	if resp == nil {
		return "", ErrEmptyResponse
	}
	if len(resp.Candidates) == 0 && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason)
	}
	return resp.Text(), nil
}

func sdkContents(req Request) []*genai.Content {
	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, turn := range req.History {
		role := genai.RoleUser
		if turn.Role == RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Text, genai.Role(role)))
	}

	parts := []*genai.Part{genai.NewPartFromText(req.Prompt)}
	if req.Image != nil {
		parts = append(parts, genai.NewPartFromBytes(req.Image.Data, req.Image.MIMEType))
	}
	return append(contents, genai.NewContentFromParts(parts, genai.RoleUser))
}
