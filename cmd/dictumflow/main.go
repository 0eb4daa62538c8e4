package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"dictumflow/internal/gcp"
	"dictumflow/internal/models"
	"dictumflow/internal/services"
	"dictumflow/internal/source"
	"dictumflow/internal/store"
)

var (
	// Global flags
	verbose bool

	// analyze flags
	inputPath       string
	outputPath      string
	ledgerBackend   string
	projectID       string
	region          string
	collection      string
	modelName       string
	confidence      float64
	maxContentChars int
	delay           time.Duration
	startRow        int
	testMode        bool
	archiveBucket   string
	recordTransient bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "dictumflow",
	Short: "Classify the dictum of Raad van State advisory opinions",
	Long: `dictumflow classifies the final verdict (dictum) of Dutch Raad van State
advisory opinions into categories A-G.

The four modern standardized dictum formulations (A-D) are recognized
deterministically by regex; old-style opinions fall back to a Gemini model
call. Results are appended to a ledger immediately, so an interrupted run can
be resumed without reprocessing.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Classify every advice in a scraped CSV",
	Long: `Reads a scraped advice CSV, classifies each row that is not yet in the
ledger, and appends one result per advice. Ctrl-C stops the run cleanly
between documents; already-written results are kept and the next run resumes
behind them.`,
	RunE: runAnalyze,
}

var validateDatesCmd = &cobra.Command{
	Use:   "validate-dates [file ...]",
	Short: "Normalize Dutch date columns in scraped CSVs",
	Long: `Adds a <column>_formatted (dd-mm-yyyy) column next to each scraper date
column. Values that are not valid Dutch dates are left empty.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidateDates,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	analyzeCmd.Flags().StringVarP(&inputPath, "input", "i", "", "scraped advice CSV (required)")
	analyzeCmd.Flags().StringVarP(&outputPath, "output", "o", "", "ledger CSV path (default <input>_analyzed.csv)")
	analyzeCmd.Flags().StringVar(&ledgerBackend, "ledger", "csv", "ledger backend: csv or firestore")
	analyzeCmd.Flags().StringVar(&projectID, "project", gcp.GetEnv("PROJECT_ID", ""), "GCP project ID")
	analyzeCmd.Flags().StringVar(&region, "region", gcp.GetEnv("VERTEX_AI_REGION", "us-central1"), "Vertex AI region")
	analyzeCmd.Flags().StringVar(&collection, "collection", store.DefaultCollection, "Firestore ledger collection")
	analyzeCmd.Flags().StringVar(&modelName, "model", gcp.DefaultClassifierModel, "Gemini model for the fallback classifier")
	analyzeCmd.Flags().Float64Var(&confidence, "confidence", services.DefaultConfidenceThreshold, "confidence below which a model result is flagged")
	analyzeCmd.Flags().IntVar(&maxContentChars, "max-chars", services.DefaultMaxContentChars, "content budget for the model call")
	analyzeCmd.Flags().DurationVar(&delay, "delay", 2*time.Second, "pause between documents")
	analyzeCmd.Flags().IntVar(&startRow, "start-row", 0, "skip input rows before this offset")
	analyzeCmd.Flags().BoolVar(&testMode, "test", false, "process only the first 10 rows")
	analyzeCmd.Flags().StringVar(&archiveBucket, "archive-bucket", "", "GCS bucket to archive the CSV ledger to after the run")
	analyzeCmd.Flags().BoolVar(&recordTransient, "record-transient", false, "persist a G result for transport failures instead of retrying next run")
	_ = analyzeCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(validateDatesCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	executionID := uuid.NewString()
	log := logger.With(zap.String("executionId", executionID))

	if outputPath == "" {
		outputPath = strings.TrimSuffix(inputPath, ".csv") + "_analyzed.csv"
	}

	vertexClient, err := gcp.NewVertexClient(ctx, projectID, region, modelName)
	if err != nil {
		return fmt.Errorf("failed to create vertex client: %w", err)
	}
	defer vertexClient.Close()

	var firestoreClient *firestore.Client
	if ledgerBackend == "firestore" {
		firestoreClient, err = gcp.NewFirestoreClient(ctx, projectID)
		if err != nil {
			return err
		}
		defer firestoreClient.Close()
	}

	// Load the input and the ledger skip-set concurrently; both must be
	// ready before the loop starts.
	var (
		advices   []models.Advice
		ledger    store.Ledger
		csvLedger *store.CSVLedger
	)
	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		advices, err = source.LoadAdvices(inputPath)
		if err == nil {
			log.Info("Loaded input.", zap.String("path", inputPath), zap.Int("rows", len(advices)))
		}
		return err
	})
	eg.Go(func() error {
		var err error
		switch ledgerBackend {
		case "csv":
			csvLedger, err = store.NewCSVLedger(outputPath, log)
			ledger = csvLedger
		case "firestore":
			ledger, err = store.NewFirestoreLedger(gctx, firestoreClient, collection, log)
		default:
			err = fmt.Errorf("unknown ledger backend %q", ledgerBackend)
		}
		return err
	})
	if err := eg.Wait(); err != nil {
		return err
	}

	classifier := services.NewModelClassifier(vertexClient,
		services.ModelClassifierConfig{MaxContentChars: maxContentChars}, log)
	engine := services.NewClassificationEngine(classifier,
		services.EngineConfig{ConfidenceThreshold: confidence}, log)
	analyzer := services.NewAnalyzer(engine, ledger, services.AnalyzerConfig{
		StartRow:        startRow,
		TestMode:        testMode,
		Delay:           delay,
		RecordTransient: recordTransient,
	}, log)

	summary, runErr := analyzer.Process(ctx, advices)
	log.Info("Run finished.",
		zap.Int("classified", summary.Classified),
		zap.Int("ruleMatched", summary.RuleMatched),
		zap.Int("skipped", summary.Skipped),
		zap.Int("deferred", summary.Deferred),
		zap.Int("failed", summary.Failed))

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			log.Info("Interrupted by user. Progress has been saved.")
			return nil
		}
		return runErr
	}

	if archiveBucket != "" && csvLedger != nil {
		if err := archiveLedger(ctx, archiveBucket, executionID, csvLedger.Path(), log); err != nil {
			// The run itself succeeded; a failed archive is not fatal.
			log.Error("Failed to archive ledger.", zap.Error(err))
		}
	}
	return nil
}

func archiveLedger(ctx context.Context, bucket, executionID, path string, log *zap.Logger) error {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to create storage client: %w", err)
	}
	defer client.Close()

	uri, err := gcp.ArchiveFile(ctx, client, bucket, executionID, path, log)
	if err != nil {
		return err
	}
	log.Info("Archived ledger.", zap.String("uri", uri))
	return nil
}

func runValidateDates(cmd *cobra.Command, args []string) error {
	for _, path := range args {
		if _, err := services.NormalizeDateColumns(path, logger); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
