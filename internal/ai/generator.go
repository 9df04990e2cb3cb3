package ai

import (
	"context"
	"errors"
)

// Role marks who authored a chat turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one message of a chat history.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Image is an inline image attached to a prompt.
type Image struct {
	Data     []byte
	MIMEType string
}

// Request is a single generation call. History holds earlier chat turns
// and is sent ahead of Prompt.
type Request struct {
	Model   string
	Prompt  string
	Image   *Image
	History []Turn
}

// Generator sends one request to a hosted model and returns its text.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

var (
	ErrEmptyResponse = errors.New("empty response from model")
	ErrNoModel       = errors.New("no model configured")
)
