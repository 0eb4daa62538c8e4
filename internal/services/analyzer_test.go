package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dictumflow/internal/models"
	"dictumflow/internal/store"
)

func newTestLedger(t *testing.T, path string) *store.CSVLedger {
	t.Helper()
	ledger, err := store.NewCSVLedger(path, zap.NewNop())
	require.NoError(t, err)
	return ledger
}

func testAdvices() []models.Advice {
	return []models.Advice{
		{Reference: "W01.24.0001", Content: "Overwegingen.\n" + dictumA},
		{Reference: "W01.24.0002", Content: ""},
		{Reference: "W01.24.0003", Content: "Oude stijl advies zonder standaardformulering."},
	}
}

func TestAnalyzerProcessesAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adviezen_analyzed.csv")
	gen := &fakeGenerator{reply: `{"category": "E", "confidence": 0.9, "reasoning": "positief"}`}
	analyzer := NewAnalyzer(newTestEngine(gen, EngineConfig{}), newTestLedger(t, path), AnalyzerConfig{}, zap.NewNop())

	summary, err := analyzer.Process(context.Background(), testAdvices())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Classified)
	assert.Equal(t, 1, summary.RuleMatched)
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, 1, gen.calls, "only the old-style advice needs the model")

	// A freshly loaded store over the same ledger sees all three.
	reloaded := newTestLedger(t, path)
	for _, advice := range testAdvices() {
		assert.True(t, reloaded.HasProcessed(advice.Reference), advice.Reference)
	}
}

func TestAnalyzerResumeSkipsProcessed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	gen := &fakeGenerator{reply: `{"category": "E", "confidence": 0.9, "reasoning": "positief"}`}
	analyzer := NewAnalyzer(newTestEngine(gen, EngineConfig{}), newTestLedger(t, path), AnalyzerConfig{}, zap.NewNop())
	_, err := analyzer.Process(context.Background(), testAdvices())
	require.NoError(t, err)

	// Second run over the same input: everything is already in the ledger.
	rerun := NewAnalyzer(newTestEngine(gen, EngineConfig{}), newTestLedger(t, path), AnalyzerConfig{}, zap.NewNop())
	summary, err := rerun.Process(context.Background(), testAdvices())
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Classified)
	assert.Equal(t, 3, summary.Skipped)
	assert.Equal(t, 1, gen.calls, "no additional model calls on resume")
}

func TestAnalyzerDefersTransportFailures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	gen := &fakeGenerator{err: errors.New("service unavailable")}
	advices := []models.Advice{{Reference: "W09.24.0100", Content: "Geen standaardformulering."}}

	analyzer := NewAnalyzer(newTestEngine(gen, EngineConfig{}), newTestLedger(t, path), AnalyzerConfig{}, zap.NewNop())
	summary, err := analyzer.Process(context.Background(), advices)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Deferred)
	assert.Equal(t, 0, summary.Classified)
	// The reference stays eligible: a fresh ledger over the same file does
	// not contain it.
	assert.False(t, newTestLedger(t, path).HasProcessed("W09.24.0100"))
}

func TestAnalyzerRecordTransientPersistsFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	gen := &fakeGenerator{err: errors.New("service unavailable")}
	advices := []models.Advice{{Reference: "W09.24.0100", Content: "Geen standaardformulering."}}

	analyzer := NewAnalyzer(newTestEngine(gen, EngineConfig{}), newTestLedger(t, path),
		AnalyzerConfig{RecordTransient: true}, zap.NewNop())
	summary, err := analyzer.Process(context.Background(), advices)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Classified)
	assert.True(t, newTestLedger(t, path).HasProcessed("W09.24.0100"))
}

func TestAnalyzerStartRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	gen := &fakeGenerator{reply: `{"category": "E", "confidence": 0.9, "reasoning": "r"}`}
	analyzer := NewAnalyzer(newTestEngine(gen, EngineConfig{}), newTestLedger(t, path),
		AnalyzerConfig{StartRow: 2}, zap.NewNop())

	summary, err := analyzer.Process(context.Background(), testAdvices())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Classified)
	ledger := newTestLedger(t, path)
	assert.False(t, ledger.HasProcessed("W01.24.0001"))
	assert.True(t, ledger.HasProcessed("W01.24.0003"))
}

func TestAnalyzerTestModeLimitsInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	var advices []models.Advice
	for i := 0; i < 25; i++ {
		advices = append(advices, models.Advice{
			Reference: string(rune('a' + i)),
			Content:   "Overwegingen.\n" + dictumA,
		})
	}

	analyzer := NewAnalyzer(newTestEngine(&fakeGenerator{}, EngineConfig{}), newTestLedger(t, path),
		AnalyzerConfig{TestMode: true}, zap.NewNop())
	summary, err := analyzer.Process(context.Background(), advices)
	require.NoError(t, err)
	assert.Equal(t, 10, summary.Classified)
}

func TestAnalyzerSkipsRowsWithoutReference(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	advices := []models.Advice{{Reference: "", Content: "Overwegingen.\n" + dictumA}}

	analyzer := NewAnalyzer(newTestEngine(&fakeGenerator{}, EngineConfig{}), newTestLedger(t, path),
		AnalyzerConfig{}, zap.NewNop())
	summary, err := analyzer.Process(context.Background(), advices)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Classified)
}

func TestAnalyzerStopsOnCancellation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen := &fakeGenerator{}
	analyzer := NewAnalyzer(newTestEngine(gen, EngineConfig{}), newTestLedger(t, path),
		AnalyzerConfig{}, zap.NewNop())
	summary, err := analyzer.Process(ctx, testAdvices())

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, summary.Classified)
	assert.Equal(t, 0, gen.calls)
}
