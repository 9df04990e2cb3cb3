package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
)

// DefaultRESTBaseURL is the public Gemini API endpoint.
const DefaultRESTBaseURL = "https://generativelanguage.googleapis.com"

const generatePath = "/v1beta/models/{model}:generateContent"

// GeminiREST calls the generateContent endpoint directly over HTTP.
type GeminiREST struct {
	client *resty.Client
}

// NewGeminiREST creates a REST backend. Requests are never retried and
// have no deadline of their own; cancelling the caller's context ends them.
func NewGeminiREST(apiKey, baseURL string) *GeminiREST {
	if baseURL == "" {
		baseURL = DefaultRESTBaseURL
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("x-goog-api-key", apiKey).
		SetHeader("User-Agent", "isoplan-planner/1.0").
		SetRetryCount(0).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)

	return &GeminiREST{client: client}
}

type restPart struct {
	Text       string          `json:"text,omitempty"`
	InlineData *restInlineData `json:"inline_data,omitempty"`
}

type restInlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type restContent struct {
	Role  string     `json:"role,omitempty"`
	Parts []restPart `json:"parts"`
}

type restRequest struct {
	Contents []restContent `json:"contents"`
}

type restResponse struct {
	Candidates []struct {
		Content      restContent `json:"content"`
		FinishReason string      `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

type restError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Generate posts one generateContent request.
func (g *GeminiREST) Generate(ctx context.Context, req Request) (string, error) {
	var (
		out    restResponse
		apiErr restError
	)

	resp, err := g.client.R().
		SetContext(ctx).
		SetPathParam("model", req.Model).
		SetBody(restBody(req)).
		SetResult(&out).
		SetError(&apiErr).
		Post(generatePath)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	if resp.IsError() {
		msg := apiErr.Error.Message
		if msg == "" {
			msg = strings.TrimSpace(resp.String())
		}
		if msg == "" {
			msg = resp.Status()
		}
		return "", fmt.Errorf("gemini API error (%d): %s", resp.StatusCode(), msg)
	}

	if len(out.Candidates) == 0 {
		if out.PromptFeedback != nil && out.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("prompt blocked: %s", out.PromptFeedback.BlockReason)
		}
		return "", nil
	}

	var sb strings.Builder
	for _, part := range out.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}

func restBody(req Request) restRequest {
	contents := make([]restContent, 0, len(req.History)+1)
	for _, turn := range req.History {
		role := string(RoleUser)
		if turn.Role == RoleModel {
			role = string(RoleModel)
		}
		contents = append(contents, restContent{Role: role, Parts: []restPart{{Text: turn.Text}}})
	}

	parts := []restPart{{Text: req.Prompt}}
	if req.Image != nil {
		parts = append(parts, restPart{InlineData: &restInlineData{
			MIMEType: req.Image.MIMEType,
			Data:     base64.StdEncoding.EncodeToString(req.Image.Data),
		}})
	}
	return restRequest{Contents: append(contents, restContent{Role: string(RoleUser), Parts: parts})}
}
