// Package store persists classification results. The ledger is append-only
// and doubles as the resume skip-list: a reference present in the ledger is
// never reclassified.
package store

import (
	"context"

	"dictumflow/internal/models"
)

// Ledger is the durable record of classification results.
//
// HasProcessed is computed from a single read of the existing ledger at
// construction time; it is an approximation of "already done", not a
// transactional check. Concurrent writers are not supported: the batch runs
// strictly sequentially, and any future parallel implementation must claim
// references exclusively before the model call and serialize appends to keep
// the at-most-once-per-reference invariant.
type Ledger interface {
	HasProcessed(reference string) bool
	Append(ctx context.Context, result models.ClassificationResult) error
}
