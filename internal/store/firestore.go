package store

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	"dictumflow/internal/models"
)

// DefaultCollection is the Firestore collection holding ledger records.
const DefaultCollection = "classifications"

// FirestoreLedger stores classification results as one document per
// reference. Document creation (not upsert) preserves the
// at-most-once-per-reference invariant even across overlapping runs.
type FirestoreLedger struct {
	client     *firestore.Client
	collection string
	processed  map[string]struct{}
	logger     *zap.Logger
}

// NewFirestoreLedger lists the existing document IDs once to build the
// skip-set for this run.
func NewFirestoreLedger(ctx context.Context, client *firestore.Client, collection string, logger *zap.Logger) (*FirestoreLedger, error) {
	if collection == "" {
		collection = DefaultCollection
	}
	l := &FirestoreLedger{
		client:     client,
		collection: collection,
		processed:  make(map[string]struct{}),
		logger:     logger,
	}

	// Select() with no field paths fetches document keys only.
	it := client.Collection(collection).Select().Documents(ctx)
	defer it.Stop()
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list processed references: %w", err)
		}
		l.processed[doc.Ref.ID] = struct{}{}
	}

	logger.Info("Loaded existing Firestore ledger.",
		zap.String("collection", collection),
		zap.Int("processedCount", len(l.processed)))
	return l, nil
}

// HasProcessed reports whether reference already has a ledger document.
func (l *FirestoreLedger) HasProcessed(reference string) bool {
	_, ok := l.processed[docID(reference)]
	return ok
}

// Append creates the document for this result. Create fails if the document
// already exists, so a duplicate append surfaces as an error instead of
// silently overwriting a prior record.
func (l *FirestoreLedger) Append(ctx context.Context, result models.ClassificationResult) error {
	id := docID(result.Reference)
	if _, err := l.client.Collection(l.collection).Doc(id).Create(ctx, result); err != nil {
		return fmt.Errorf("failed to create ledger document %s: %w", id, err)
	}

	l.processed[id] = struct{}{}
	l.logger.Info("Saved result.",
		zap.String("reference", result.Reference),
		zap.String("category", string(result.Category)))
	return nil
}

// docID sanitizes a reference for use as a Firestore document ID. References
// like "W04.23.00123/I" contain slashes, which Firestore treats as path
// separators; the raw reference is kept as a document field.
func docID(reference string) string {
	return strings.ReplaceAll(reference, "/", "_")
}
