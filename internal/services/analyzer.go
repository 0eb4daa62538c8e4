package services

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"dictumflow/internal/models"
	"dictumflow/internal/store"
)

// AnalyzerConfig holds all configuration for a batch run.
type AnalyzerConfig struct {
	// StartRow skips input rows before this zero-based offset.
	StartRow int
	// TestMode limits the run to the first TestModeLimit rows.
	TestMode      bool
	TestModeLimit int
	// Delay is the pause after each classification, keeping the run under
	// the generation service's request-rate ceiling. A policy parameter,
	// not a correctness requirement.
	Delay time.Duration
	// RecordTransient persists a G result for transport failures instead of
	// leaving the reference eligible for the next run.
	RecordTransient bool
}

// RunSummary reports what a batch run did.
type RunSummary struct {
	Classified  int // results persisted this run
	RuleMatched int // subset of Classified decided by the rule matcher
	Skipped     int // already present in the ledger
	Deferred    int // transport failures left for the next run
	Failed      int // ledger appends that failed
}

// AnalyzerFunction drives the batch: it walks the advice list sequentially,
// classifies each unprocessed advice, and persists every result immediately
// so an interrupted run resumes where it stopped.
type AnalyzerFunction struct {
	engine *ClassificationEngine
	ledger store.Ledger
	config AnalyzerConfig
	logger *zap.Logger
}

// NewAnalyzer creates the batch driver.
func NewAnalyzer(engine *ClassificationEngine, ledger store.Ledger, config AnalyzerConfig, logger *zap.Logger) *AnalyzerFunction {
	if config.TestMode && config.TestModeLimit <= 0 {
		config.TestModeLimit = 10
	}
	return &AnalyzerFunction{
		engine: engine,
		ledger: ledger,
		config: config,
		logger: logger,
	}
}

// Process classifies every unprocessed advice in order. It returns early with
// ctx.Err() on cancellation, between documents, leaving the ledger consistent:
// appended records stay valid and the interrupted advice is simply retried on
// the next run. Per-advice failures never abort the batch.
func (f *AnalyzerFunction) Process(ctx context.Context, advices []models.Advice) (RunSummary, error) {
	var summary RunSummary

	if f.config.TestMode && len(advices) > f.config.TestModeLimit {
		f.logger.Info("Test mode: limiting input.", zap.Int("limit", f.config.TestModeLimit))
		advices = advices[:f.config.TestModeLimit]
	}

	for idx, advice := range advices {
		if idx < f.config.StartRow {
			continue
		}
		if err := ctx.Err(); err != nil {
			f.logger.Info("Run interrupted; progress has been saved.", zap.Int("row", idx))
			return summary, err
		}

		logCtx := f.logger.With(
			zap.Int("row", idx+1),
			zap.Int("total", len(advices)),
			zap.String("reference", advice.Reference))

		if advice.Reference == "" {
			logCtx.Warn("Skipping row without reference.")
			continue
		}
		if f.ledger.HasProcessed(advice.Reference) {
			logCtx.Info("Skipping already processed advice.")
			summary.Skipped++
			continue
		}

		logCtx.Info("Processing advice.")
		result := f.engine.Classify(ctx, advice)

		if result.Transient && !f.config.RecordTransient {
			logCtx.Warn("Transport failure; leaving advice for the next run.",
				zap.String("error", result.Error))
			summary.Deferred++
		} else if err := f.ledger.Append(ctx, result); err != nil {
			// The reference stays unrecorded and will be retried next run.
			logCtx.Error("Failed to persist result.", zap.Error(err))
			summary.Failed++
		} else {
			summary.Classified++
			if strings.HasPrefix(result.Reasoning, RuleMatchPrefix) {
				summary.RuleMatched++
			}
		}

		f.pace(ctx)
	}

	return summary, nil
}

// pace sleeps the configured inter-document delay, waking early on
// cancellation so interrupts are not held up by the pause.
func (f *AnalyzerFunction) pace(ctx context.Context) {
	if f.config.Delay <= 0 {
		return
	}
	t := time.NewTimer(f.config.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
