package models

// Category is the dictum verdict class assigned to an advice.
type Category string

const (
	// Modern standardized dictum formulations, recognized by regex.
	CategoryNoRemarks         Category = "A" // no remarks, submit
	CategoryMinorRemarks      Category = "B" // remarks, take into account before submitting
	CategoryObjections        Category = "C" // objections, do not submit unless amended
	CategorySeriousObjections Category = "D" // serious objections, do not submit

	// Old-style opinions, classified by the model.
	CategoryOldStylePositive Category = "E"
	CategoryOldStyleCritical Category = "F"

	// CategoryUnknown is the explicit unknown/low-confidence sentinel.
	CategoryUnknown Category = "G"
)

// Valid reports whether c is one of the seven known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryNoRemarks, CategoryMinorRemarks, CategoryObjections,
		CategorySeriousObjections, CategoryOldStylePositive,
		CategoryOldStyleCritical, CategoryUnknown:
		return true
	}
	return false
}

// Advice is one scraped advisory opinion as produced by the scraper CSV.
// Date columns are carried through untouched; only Reference and Content
// matter to classification.
type Advice struct {
	URL               string `csv:"url"`
	Reference         string `csv:"reference"`
	AdviceType        string `csv:"advice_type"`
	Content           string `csv:"content"`
	DatumAanhangig    string `csv:"datum_aanhangig"`
	DatumVaststelling string `csv:"datum_vaststelling"`
	DatumAdvies       string `csv:"datum_advies"`
	DatumPublicatie   string `csv:"datum_publicatie"`
}

// ClassificationResult is the per-advice outcome written to the ledger.
// It is created exactly once per reference and never mutated afterwards.
type ClassificationResult struct {
	URL        string   `csv:"url" firestore:"url,omitempty"`
	Reference  string   `csv:"reference" firestore:"reference"`
	AdviceType string   `csv:"advice_type" firestore:"adviceType,omitempty"`
	Category   Category `csv:"category" firestore:"category"`
	Error      string   `csv:"error" firestore:"error,omitempty"`
	Reasoning  string   `csv:"reasoning" firestore:"reasoning,omitempty"`

	// Transient marks results whose error is a transport failure that may
	// succeed on a later run. It steers the persistence policy and is never
	// written to the ledger itself.
	Transient bool `csv:"-" firestore:"-"`
}

// MatchOutcome is a rule-matcher hit: the category plus the literal matched
// dictum span as evidence.
type MatchOutcome struct {
	Category Category
	Evidence string
}

// ModelResponse is the structured payload expected from the generation
// service. Its fields are folded into a ClassificationResult and the value
// itself is never persisted.
type ModelResponse struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}
