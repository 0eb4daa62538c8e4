package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"dictumflow/internal/models"
)

// DefaultConfidenceThreshold is the minimum model confidence accepted without
// flagging the result.
const DefaultConfidenceThreshold = 0.7

// RuleMatchPrefix starts the reasoning of every rule-matched result, so
// downstream consumers can tell deterministic hits from model judgments.
const RuleMatchPrefix = "rule match: "

// EngineConfig holds the classification policy tunables.
type EngineConfig struct {
	// ConfidenceThreshold below which a model result keeps its category but
	// carries a low-confidence error annotation. Zero or less selects
	// DefaultConfidenceThreshold.
	ConfidenceThreshold float64
}

// ClassificationEngine runs the rule matcher first and falls back to the
// model classifier on a miss. It always produces a terminal result; a failure
// classifying one advice never aborts the batch.
type ClassificationEngine struct {
	classifier *ModelClassifier
	config     EngineConfig
	logger     *zap.Logger
}

// NewClassificationEngine creates an engine around the given model fallback.
func NewClassificationEngine(classifier *ModelClassifier, config EngineConfig, logger *zap.Logger) *ClassificationEngine {
	if config.ConfidenceThreshold <= 0 {
		config.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	return &ClassificationEngine{
		classifier: classifier,
		config:     config,
		logger:     logger,
	}
}

// Classify determines the dictum category of one advice.
func (e *ClassificationEngine) Classify(ctx context.Context, advice models.Advice) (result models.ClassificationResult) {
	result = models.ClassificationResult{
		URL:        advice.URL,
		Reference:  advice.Reference,
		AdviceType: advice.AdviceType,
	}
	logCtx := e.logger.With(zap.String("reference", advice.Reference))

	// A panic while classifying one advice must not take down the run.
	defer func() {
		if r := recover(); r != nil {
			logCtx.Error("Recovered from panic during classification.", zap.Any("panic", r))
			result.Category = models.CategoryUnknown
			result.Error = fmt.Sprintf("panic during classification: %v", r)
			result.Reasoning = ""
			result.Transient = false
		}
	}()

	if strings.TrimSpace(advice.Content) == "" {
		result.Category = models.CategoryUnknown
		result.Error = "empty content"
		return result
	}

	if outcome := MatchDictum(advice.Content); outcome != nil {
		logCtx.Info("Standard dictum matched, skipping model.",
			zap.String("category", string(outcome.Category)))
		result.Category = outcome.Category
		result.Reasoning = RuleMatchPrefix + outcome.Evidence
		return result
	}

	logCtx.Info("No standard dictum found, falling back to model.")
	resp, err := e.classifier.Classify(ctx, advice.Content)
	if err != nil {
		logCtx.Warn("Model classification failed.", zap.Error(err))
		result.Category = models.CategoryUnknown
		result.Error = err.Error()
		result.Transient = errors.Is(err, ErrModelTransport)
		return result
	}

	category := models.Category(strings.ToUpper(strings.TrimSpace(resp.Category)))
	if !category.Valid() {
		logCtx.Warn("Model returned an unknown category.", zap.String("category", resp.Category))
		result.Category = models.CategoryUnknown
		result.Error = fmt.Sprintf("invalid category in model response: %q", resp.Category)
		return result
	}

	result.Category = category
	result.Reasoning = resp.Reasoning
	if resp.Confidence < e.config.ConfidenceThreshold {
		// The category is flagged, not discarded.
		result.Error = fmt.Sprintf("low confidence: %.2f", resp.Confidence)
	}
	return result
}
