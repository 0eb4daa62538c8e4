package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"dictumflow/internal/gcp"
	"dictumflow/internal/models"
)

// Failure classes of a model call. Transport failures may succeed on a later
// run; parse failures are deterministic and are not retried.
var (
	ErrModelTransport = errors.New("model transport failure")
	ErrModelParse     = errors.New("model response parse failure")
)

// TextGenerator produces one reply for one prompt, blocking until the full
// reply is assembled. The production implementation is gcp.VertexClient.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// ModelClassifierConfig holds the tunables of the model fallback.
type ModelClassifierConfig struct {
	// MaxContentChars bounds the advice text sent to the model; zero or less
	// selects DefaultMaxContentChars.
	MaxContentChars int
}

// ModelClassifier classifies an advice by prompting the generation service
// and decoding its structured reply.
type ModelClassifier struct {
	generator TextGenerator
	config    ModelClassifierConfig
	logger    *zap.Logger
}

// NewModelClassifier creates a ModelClassifier on top of the given generator.
func NewModelClassifier(generator TextGenerator, config ModelClassifierConfig, logger *zap.Logger) *ModelClassifier {
	return &ModelClassifier{
		generator: generator,
		config:    config,
		logger:    logger,
	}
}

// Classify truncates content around the likely dictum location, sends the
// classification prompt, and parses the JSON reply. Errors wrap
// ErrModelTransport or ErrModelParse.
func (c *ModelClassifier) Classify(ctx context.Context, content string) (models.ModelResponse, error) {
	truncated := TruncateContent(content, c.config.MaxContentChars)
	if len(truncated) < len(content) {
		c.logger.Debug("Truncated advice content for model call.",
			zap.Int("originalChars", len(content)),
			zap.Int("truncatedChars", len(truncated)))
	}

	reply, err := c.generator.GenerateText(ctx, gcp.ClassifierUserPrompt+truncated)
	if err != nil {
		return models.ModelResponse{}, fmt.Errorf("%w: %v", ErrModelTransport, err)
	}

	return parseModelReply(reply)
}

// parseModelReply extracts the JSON object between the first '{' and the last
// '}' of the reply and decodes it. Anything outside those braces (stray prose,
// code fences) is ignored.
func parseModelReply(reply string) (models.ModelResponse, error) {
	reply = strings.TrimSpace(reply)
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return models.ModelResponse{}, fmt.Errorf("%w: no JSON object in reply: %s", ErrModelParse, snippet(reply))
	}

	var resp models.ModelResponse
	if err := json.Unmarshal([]byte(reply[start:end+1]), &resp); err != nil {
		return models.ModelResponse{}, fmt.Errorf("%w: %v", ErrModelParse, err)
	}
	return resp, nil
}

// snippet bounds a reply fragment for inclusion in error messages.
func snippet(s string) string {
	const maxLen = 200
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}
