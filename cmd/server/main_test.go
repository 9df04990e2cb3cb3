package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isoplan/planner/internal/ai"
	"github.com/isoplan/planner/internal/domain/prompts"
)

func pingDispatcher(gen ai.Generator) *ai.Dispatcher {
	return ai.NewDispatcher(gen, ai.Models{Text: "gemini-test"}, nil, nil, nil)
}

func TestPingReportsSuccess(t *testing.T) {
	var got ai.Request
	calls := 0
	d := pingDispatcher(ai.GeneratorFunc(func(ctx context.Context, req ai.Request) (string, error) {
		calls++
		got = req
		return "OK", nil
	}))

	var out bytes.Buffer
	require.NoError(t, ping(context.Background(), d, &out))

	assert.Equal(t, 1, calls)
	assert.Equal(t, prompts.Ping, got.Prompt)
	assert.Equal(t, "gemini-test", got.Model)
	assert.Equal(t, "✅ API-anslutning fungerar!\nOK\n", out.String())
}

func TestPingReportsFailure(t *testing.T) {
	d := pingDispatcher(ai.GeneratorFunc(func(ctx context.Context, req ai.Request) (string, error) {
		return "", errors.New("API key not valid")
	}))

	var out bytes.Buffer
	err := ping(context.Background(), d, &out)

	require.Error(t, err)
	assert.Equal(t, "Kunde inte ansluta till API:et. Fel: "+ai.ErrorPrefix+"API key not valid", err.Error())
	assert.Empty(t, out.String())
}

func TestPingTreatsEmptyAnswerAsFailure(t *testing.T) {
	d := pingDispatcher(ai.GeneratorFunc(func(ctx context.Context, req ai.Request) (string, error) {
		return "  ", nil
	}))

	err := ping(context.Background(), d, &bytes.Buffer{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Kunde inte ansluta till API:et")
}
