package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeGenerator scripts the generation service for tests and counts calls.
type fakeGenerator struct {
	reply      string
	err        error
	panicValue any
	calls      int
	lastPrompt string
}

func (g *fakeGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	g.calls++
	g.lastPrompt = prompt
	if g.panicValue != nil {
		panic(g.panicValue)
	}
	return g.reply, g.err
}

func TestModelClassifierParsesJSONReply(t *testing.T) {
	gen := &fakeGenerator{reply: `{"category": "E", "confidence": 0.85, "reasoning": "oude stijl, positief"}`}
	c := NewModelClassifier(gen, ModelClassifierConfig{}, zap.NewNop())

	resp, err := c.Classify(context.Background(), "Een advies in oude stijl.")
	require.NoError(t, err)
	assert.Equal(t, "E", resp.Category)
	assert.InDelta(t, 0.85, resp.Confidence, 1e-9)
	assert.Equal(t, "oude stijl, positief", resp.Reasoning)
	assert.Equal(t, 1, gen.calls)
}

func TestModelClassifierIgnoresProseAroundJSON(t *testing.T) {
	gen := &fakeGenerator{reply: "Hier is mijn antwoord:\n```json\n{\"category\": \"F\", \"confidence\": 0.9, \"reasoning\": \"kritisch\"}\n```\nEinde."}
	c := NewModelClassifier(gen, ModelClassifierConfig{}, zap.NewNop())

	resp, err := c.Classify(context.Background(), "tekst")
	require.NoError(t, err)
	assert.Equal(t, "F", resp.Category)
}

func TestModelClassifierParseError(t *testing.T) {
	for _, reply := range []string{
		"Ik kan dit advies niet classificeren.",
		"{category: invalid json}",
		"",
	} {
		gen := &fakeGenerator{reply: reply}
		c := NewModelClassifier(gen, ModelClassifierConfig{}, zap.NewNop())

		_, err := c.Classify(context.Background(), "tekst")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrModelParse)
		assert.NotErrorIs(t, err, ErrModelTransport)
	}
}

func TestModelClassifierTransportError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("rpc error: unavailable")}
	c := NewModelClassifier(gen, ModelClassifierConfig{}, zap.NewNop())

	_, err := c.Classify(context.Background(), "tekst")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrModelTransport)
	assert.Contains(t, err.Error(), "unavailable")
}

func TestModelClassifierTruncatesBeforePrompting(t *testing.T) {
	content := strings.Repeat("overweging ", 2000) + dictumOpening + " een aantal opmerkingen SLOT"
	gen := &fakeGenerator{reply: `{"category": "B", "confidence": 0.8, "reasoning": ""}`}
	c := NewModelClassifier(gen, ModelClassifierConfig{MaxContentChars: 1000}, zap.NewNop())

	_, err := c.Classify(context.Background(), content)
	require.NoError(t, err)
	assert.Less(t, len(gen.lastPrompt), len(content))
	assert.Contains(t, gen.lastPrompt, dictumOpening)
	assert.Contains(t, gen.lastPrompt, "STAP 1")
}

func TestParseModelReplyBraceExtraction(t *testing.T) {
	resp, err := parseModelReply(`ruis {"category":"G","confidence":0.2,"reasoning":"onduidelijk"} ruis`)
	require.NoError(t, err)
	assert.Equal(t, "G", resp.Category)

	_, err = parseModelReply("} omgekeerd {")
	assert.ErrorIs(t, err, ErrModelParse)
}
